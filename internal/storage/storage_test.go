package storage

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"siteflow/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestValidateUploadBoundaries(t *testing.T) {
	assert.NoError(t, ValidateUpload(&multipart.FileHeader{Filename: "a.pdf", Size: 10_485_760}))

	err := ValidateUpload(&multipart.FileHeader{Filename: "a.pdf", Size: 10_485_761})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.InvalidArgument))

	err = ValidateUpload(nil)
	require.Error(t, err)
	assert.Equal(t, "No file provided", apperr.Message(err))
}

func TestLocalSave(t *testing.T) {
	root := t.TempDir()
	store := NewLocal(root, "/media/")

	fh := fileHeader(t, "Crack Photo.JPG", []byte("jpeg bytes"))
	stored, err := store.Save(15, fh)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stored.Key, "attachments/15/"))
	assert.True(t, strings.HasSuffix(stored.Key, ".jpg"))
	assert.Equal(t, "Crack Photo.JPG", stored.Name)
	assert.Equal(t, int64(10), stored.Size)
	assert.Equal(t, "/media/"+stored.Key, store.URL(stored.Key))

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(stored.Key)))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	require.NoError(t, store.Remove(stored.Key))
	require.NoError(t, store.Remove(stored.Key))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(stored.Key)))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalSaveRejectsOversizedHeader(t *testing.T) {
	store := NewLocal(t.TempDir(), "/media")
	_, err := store.Save(1, &multipart.FileHeader{Filename: "big.bin", Size: MaxUploadSize + 1})
	assert.True(t, apperr.Is(err, apperr.InvalidArgument))
}
