package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskPutRemove(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	d, err := NewDisk(root, "uploads/")
	require.NoError(t, err)

	url, err := d.Put(context.Background(), "a.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/a.png", url)

	got, err := os.ReadFile(filepath.Join(root, "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(got))

	require.NoError(t, d.Remove(context.Background(), "a.png"))
	_, err = os.Stat(filepath.Join(root, "a.png"))
	assert.True(t, os.IsNotExist(err))

	// removing twice is fine
	require.NoError(t, d.Remove(context.Background(), "a.png"))
}

func TestDiskRejectsTraversal(t *testing.T) {
	d, err := NewDisk(t.TempDir(), "/uploads")
	require.NoError(t, err)

	for _, key := range []string{"", "../x.png", "sub/x.png", ".hidden"} {
		_, err := d.Put(context.Background(), key, []byte("x"))
		assert.Error(t, err, key)
	}
}
