package upload

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func formFile(t *testing.T, filename, content string) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	body, contentType := multipartBody(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	require.NoError(t, req.ParseMultipartForm(1<<20))
	file, header, err := req.FormFile("file")
	require.NoError(t, err)
	return file, header
}

func TestSaveAndRemove(t *testing.T) {
	store, err := NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)

	file, header := formFile(t, "report.pdf", "pdf bytes")
	defer file.Close()

	info, err := store.Save(file, header)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", info.Name)
	assert.Equal(t, int64(len("pdf bytes")), info.Size)
	assert.True(t, strings.HasPrefix(info.URL, "/uploads/"))
	assert.True(t, strings.HasSuffix(info.URL, "_report.pdf"))

	stored := filepath.Join(store.Dir(), filepath.Base(info.URL))
	_, err = os.Stat(stored)
	require.NoError(t, err)

	require.NoError(t, store.Remove(info.URL))
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))
}

func TestSaveUniqueNames(t *testing.T) {
	store, err := NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)

	first, firstHeader := formFile(t, "same.txt", "one")
	defer first.Close()
	second, secondHeader := formFile(t, "same.txt", "two")
	defer second.Close()

	a, err := store.Save(first, firstHeader)
	require.NoError(t, err)
	b, err := store.Save(second, secondHeader)
	require.NoError(t, err)

	assert.NotEqual(t, a.URL, b.URL)
}

func TestSaveRejectsOversize(t *testing.T) {
	store, err := NewStore(t.TempDir(), 4)
	require.NoError(t, err)

	file, header := formFile(t, "big.bin", "more than four bytes")
	defer file.Close()

	_, err = store.Save(file, header)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum size")
}

func TestRemoveRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 1<<20)
	require.NoError(t, err)

	outside := filepath.Join(filepath.Dir(dir), "victim.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep me"), 0o644))

	// Traversal attempts resolve to the base name only.
	_ = store.Remove("/uploads/../victim.txt")
	_, statErr := os.Stat(outside)
	assert.NoError(t, statErr)
}
