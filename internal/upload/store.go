// Package upload stores response attachments on local disk and serves
// them back under /uploads/. Stored names are prefixed with a uuid so
// two uploads of the same filename never collide.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/formloom/formloom/internal/apperr"
)

// FileInfo describes a stored file as returned to clients and embedded
// into response answers.
type FileInfo struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// Store writes uploads under a single directory.
type Store struct {
	dir      string
	maxBytes int64
}

// NewStore creates the upload directory if needed.
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the directory files are stored in, for static serving.
func (s *Store) Dir() string {
	return s.dir
}

// Save persists one multipart file and returns its public descriptor.
func (s *Store) Save(file multipart.File, header *multipart.FileHeader) (*FileInfo, error) {
	if header.Size > s.maxBytes {
		return nil, apperr.Validation(fmt.Sprintf("file exceeds the maximum size of %d bytes", s.maxBytes))
	}

	name := filepath.Base(header.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, apperr.Validation("invalid file name")
	}
	stored := uuid.NewString() + "_" + name

	dst, err := os.Create(filepath.Join(s.dir, stored))
	if err != nil {
		return nil, apperr.Internal("create upload file", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.LimitReader(file, s.maxBytes+1))
	if err != nil {
		os.Remove(dst.Name())
		return nil, apperr.Internal("write upload file", err)
	}
	if written > s.maxBytes {
		os.Remove(dst.Name())
		return nil, apperr.Validation(fmt.Sprintf("file exceeds the maximum size of %d bytes", s.maxBytes))
	}

	return &FileInfo{
		URL:  "/uploads/" + stored,
		Name: name,
		Size: written,
		Type: header.Header.Get("Content-Type"),
	}, nil
}

// Remove deletes the file a public URL points at. Only the final path
// element is honoured, so a crafted URL cannot reach outside the upload
// directory.
func (s *Store) Remove(url string) error {
	name := path.Base(url)
	if name == "" || name == "." || name == "/" || strings.Contains(name, "..") {
		return fmt.Errorf("invalid upload url %q", url)
	}
	return os.Remove(filepath.Join(s.dir, name))
}
