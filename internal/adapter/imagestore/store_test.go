package imagestore

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/workdiary-service/internal/entity"
)

var pngImage = &entity.Image{
	Data:        append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...),
	ContentType: "image/png",
	Extension:   ".png",
}

func TestFileStore_CreatesDirectoryLazily(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "public", "images")
	store := NewFileStore(dir)

	_, err := os.Stat(dir)
	require.True(t, os.IsNotExist(err), "directory must not exist before the first write")

	ref, err := store.Save(context.Background(), pngImage)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref, "/images/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(ref)))
	require.NoError(t, err)
	assert.Equal(t, pngImage.Data, data)
}

func TestFileStore_UniqueNames(t *testing.T) {
	store := NewFileStore(t.TempDir())

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		ref, err := store.Save(context.Background(), pngImage)
		require.NoError(t, err)
		require.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}

func TestFileStore_Discard(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	ref, err := store.Save(context.Background(), pngImage)
	require.NoError(t, err)

	require.NoError(t, store.Discard(context.Background(), ref))
	_, err = os.Stat(filepath.Join(dir, filepath.Base(ref)))
	assert.True(t, os.IsNotExist(err))

	// second discard of the same reference is tolerated
	assert.NoError(t, store.Discard(context.Background(), ref))
	assert.Error(t, store.Discard(context.Background(), "../etc/passwd"))
}

func TestInlineStore_PlainBase64(t *testing.T) {
	store := NewInlineStore()

	ref, err := store.Save(context.Background(), pngImage)
	require.NoError(t, err)

	assert.False(t, strings.HasPrefix(ref, "data:"))
	decoded, err := base64.StdEncoding.DecodeString(ref)
	require.NoError(t, err)
	assert.Equal(t, pngImage.Data, decoded)
	assert.NoError(t, store.Discard(context.Background(), ref))
}
