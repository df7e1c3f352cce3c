package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewWithOptions(Options{Env: "production", Level: level, Output: &buf}), &buf
}

func TestNew_Modes(t *testing.T) {
	dev := New("development")
	require.NotNil(t, dev)
	assert.Equal(t, zerolog.DebugLevel, dev.GetZerolog().GetLevel())

	prod := New("production")
	require.NotNil(t, prod)
	assert.Equal(t, zerolog.InfoLevel, prod.GetZerolog().GetLevel())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		env   string
		want  zerolog.Level
	}{
		{level: "", env: "development", want: zerolog.DebugLevel},
		{level: "", env: "production", want: zerolog.InfoLevel},
		{level: "warn", env: "development", want: zerolog.WarnLevel},
		{level: " ERROR ", env: "production", want: zerolog.ErrorLevel},
		{level: "chatty", env: "production", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.env, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.level, tt.env))
		})
	}
}

func TestLevels_Filtering(t *testing.T) {
	log, buf := newBufferLogger("info")

	log.Debug("debug message", nil)
	assert.NotContains(t, buf.String(), "debug message")

	log.Info("info message", map[string]interface{}{"tenant": "Jane Doe"})
	assert.Contains(t, buf.String(), "info message")
	assert.Contains(t, buf.String(), "Jane Doe")
}

func TestWarnAndError(t *testing.T) {
	log, buf := newBufferLogger("debug")

	log.Warn("receipt slow", map[string]interface{}{"receipt_id": "RENT-1"})
	log.Error("receipt failed", errors.New("disk full"), map[string]interface{}{"payment_id": "p-1"})

	output := buf.String()
	assert.Contains(t, output, "RENT-1")
	assert.Contains(t, output, "disk full")
	assert.Contains(t, output, "p-1")
}

func TestChildLoggers(t *testing.T) {
	log, buf := newBufferLogger("debug")

	log.With(map[string]interface{}{"period": "March 2024"}).
		WithComponent("dues").
		WithRequestID("req-12345").
		Info("generated", nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "generated", entry["message"])
	assert.Equal(t, "March 2024", entry["period"])
	assert.Equal(t, "dues", entry["component"])
	assert.Equal(t, "req-12345", entry["request_id"])
}

func TestNop(t *testing.T) {
	log := Nop()
	// Must not panic or write anywhere.
	log.Info("ignored", map[string]interface{}{"k": "v"})
	log.Error("ignored", errors.New("x"), nil)
	assert.True(t, strings.HasPrefix(log.GetZerolog().GetLevel().String(), "disabled"))
}
