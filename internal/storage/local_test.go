package storage

import (
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_UploadFromBytesRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	path, err := store.UploadFromBytes([]byte("hello"), "Notes.TXT", DirTenantDocuments)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, DirTenantDocuments+"/"))
	assert.True(t, strings.HasSuffix(path, ".txt"))
	assert.True(t, store.Exists(path))

	f, err := store.Download(path)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, store.Delete(path))
	assert.False(t, store.Exists(path))
}

func TestLocalStorage_GetFullPathStaysInsideBase(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(store.GetFullPath("../../etc/passwd"), base))
}

func TestValidate(t *testing.T) {
	header := func(contentType string, size int64) *multipart.FileHeader {
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", contentType)
		return &multipart.FileHeader{Filename: "f", Header: h, Size: size}
	}

	assert.NoError(t, Validate(header("application/pdf", 1024)))
	assert.ErrorIs(t, Validate(header("text/html", 1024)), ErrInvalidUpload)
	assert.ErrorIs(t, Validate(header("image/png", MaxFileSize()+1)), ErrInvalidUpload)
	assert.ErrorIs(t, Validate(nil), ErrInvalidUpload)
}
