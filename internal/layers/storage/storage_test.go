package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveImage(t *testing.T) {
	fs := NewFileStorage(t.TempDir())

	stored, err := fs.SaveImage("Plan.PNG", []byte("png-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(stored, "images/"))
	require.True(t, strings.HasSuffix(stored, ".png"))

	path, err := fs.Path(stored)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(data))
	require.Equal(t, "image/png", ContentType(stored))

	again, err := fs.SaveImage("Plan.PNG", []byte("x"))
	require.NoError(t, err)
	require.NotEqual(t, stored, again)
}

func TestSaveImageRejectsUnknownType(t *testing.T) {
	fs := NewFileStorage(t.TempDir())
	_, err := fs.SaveImage("notes.txt", []byte("x"))
	require.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestPathStaysUnderRoot(t *testing.T) {
	root := t.TempDir()
	fs := NewFileStorage(root)

	path, err := fs.Path("../../etc/passwd")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "etc", "passwd"), path)
}
