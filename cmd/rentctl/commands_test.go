package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setMemoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("RECEIPTS_DIR", t.TempDir())
	t.Setenv("ENV", "test")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMigrate_MemoryStore(t *testing.T) {
	setMemoryEnv(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to migrate")
}

func TestSeedAdmin(t *testing.T) {
	setMemoryEnv(t)

	out, err := run(t, "seed-admin", "--email", "Owner@Example.com", "--password", "owner-password")
	require.NoError(t, err)
	assert.Contains(t, out, "Created admin owner@example.com")

	_, err = run(t, "seed-admin", "--email", "owner@example.com", "--password", "short")
	assert.Error(t, err)

	_, err = run(t, "seed-admin", "--password", "owner-password")
	assert.Error(t, err, "email is required")
}

func TestGenerateDues(t *testing.T) {
	setMemoryEnv(t)

	out, err := run(t, "generate-dues", "--month", "March", "--year", "2024")
	require.NoError(t, err)
	assert.Contains(t, out, "March 2024: created 0, skipped 0, failed 0")

	_, err = run(t, "generate-dues", "--month", "Smarch", "--year", "2024")
	assert.Error(t, err)
}

func TestSweepOverdue(t *testing.T) {
	setMemoryEnv(t)

	out, err := run(t, "sweep-overdue")
	require.NoError(t, err)
	assert.Contains(t, out, "Checked 0 pending records, marked 0 overdue")
}

func TestRenderReceipt(t *testing.T) {
	setMemoryEnv(t)

	_, err := run(t, "render-receipt", "not-a-uuid")
	assert.ErrorContains(t, err, "invalid payment id")

	_, err = run(t, "render-receipt", "7f1b7a52-0e54-4c1e-9a0e-3f0f3c1d2b11")
	assert.ErrorContains(t, err, "not found")

	_, err = run(t, "render-receipt")
	assert.Error(t, err)
}
