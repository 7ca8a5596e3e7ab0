package file

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"imagemate/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempStore_AllocateAndRevoke(t *testing.T) {
	tests := []struct {
		name    string
		mime    string
		wantExt string
	}{
		{name: "webp", mime: "image/webp", wantExt: ".webp"},
		{name: "jpeg", mime: "image/jpeg", wantExt: ".jpeg"},
		{name: "unknown type", mime: "image/x-icon", wantExt: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, err := NewTempStore(t.TempDir())
			require.NoError(t, err)

			res, err := store.Allocate([]byte("image-bytes"), tc.mime)
			require.NoError(t, err)

			assert.False(t, res.IsZero())
			assert.Equal(t, tc.mime, res.MIMEType)
			assert.Equal(t, int64(11), res.Size)
			assert.True(t, strings.HasPrefix(res.URL, "file://"))
			assert.Equal(t, 1, store.Live())

			p, ok := store.Path(res)
			require.True(t, ok)
			assert.Equal(t, res.ID.String()+tc.wantExt, filepath.Base(p))

			data, err := store.Read(res)
			require.NoError(t, err)
			assert.Equal(t, []byte("image-bytes"), data)

			require.NoError(t, store.Revoke(res))
			assert.Equal(t, 0, store.Live())
			_, err = os.Stat(p)
			assert.True(t, os.IsNotExist(err))

			require.ErrorIs(t, store.Revoke(res), domain.ErrResourceNotAllocated)
		})
	}
}

func TestTempStore_CloseRemovesOwnedDir(t *testing.T) {
	store, err := NewTempStore("")
	require.NoError(t, err)

	_, err = store.Allocate([]byte("leak"), "image/png")
	require.NoError(t, err)

	dir := store.Dir()
	require.NoError(t, store.Close())

	assert.Equal(t, 0, store.Live())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestTempStore_CloseKeepsForeignDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewTempStore(dir)
	require.NoError(t, err)

	res, err := store.Allocate([]byte("leak"), "image/png")
	require.NoError(t, err)
	p, _ := store.Path(res)

	require.NoError(t, store.Close())

	_, err = os.Stat(dir)
	assert.NoError(t, err)
	_, err = os.Stat(p)
	assert.True(t, os.IsNotExist(err))
}
