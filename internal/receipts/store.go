package receipts

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// URLPrefix is the route receipts are served under.
const URLPrefix = "/receipts/"

// ErrInvalidReceiptID is returned for ids that cannot name a receipt file.
var ErrInvalidReceiptID = errors.New("invalid receipt id")

var receiptIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,100}$`)

// FileStore keeps one PDF per receipt id in a directory.
type FileStore struct {
	dir     string
	baseURL string
}

// NewFileStore creates dir if needed. baseURL is the public origin used in receipt URLs.
func NewFileStore(dir, baseURL string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create receipts dir: %w", err)
	}
	return &FileStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the directory receipts are written to.
func (s *FileStore) Dir() string {
	return s.dir
}

// FileName returns the file name of a receipt, e.g. RENT-1709251200000-3f9a1c.pdf.
func FileName(receiptID string) (string, error) {
	if !receiptIDPattern.MatchString(receiptID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidReceiptID, receiptID)
	}
	return receiptID + ".pdf", nil
}

// Path returns the file path of a receipt.
func (s *FileStore) Path(receiptID string) (string, error) {
	name, err := FileName(receiptID)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// URL returns the public URL of a receipt.
func (s *FileStore) URL(receiptID string) string {
	return s.baseURL + URLPrefix + receiptID + ".pdf"
}

// Write stores the document produced by fill. The file appears under its final name
// only once fully written.
func (s *FileStore) Write(receiptID string, fill func(io.Writer) error) error {
	path, err := s.Path(receiptID)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".receipt-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp receipt: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync receipt: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close receipt: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod receipt: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish receipt: %w", err)
	}
	return nil
}

// Exists reports whether the receipt file is present.
func (s *FileStore) Exists(receiptID string) bool {
	path, err := s.Path(receiptID)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes a receipt file. A missing file is not an error.
func (s *FileStore) Remove(receiptID string) error {
	path, err := s.Path(receiptID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove receipt: %w", err)
	}
	return nil
}
