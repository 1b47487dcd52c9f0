package images

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Save(t *testing.T) {
	t.Run("Success - writes the file and returns the relative path", func(t *testing.T) {
		// given
		dir := t.TempDir()
		s := NewStore(dir)
		// when
		path, err := s.Save(42, "Photo.JPG", strings.NewReader("image-bytes"))
		// then
		require.NoError(t, err)
		assert.Equal(t, "/images/42.jpg", path)
		content, err := os.ReadFile(filepath.Join(dir, "42.jpg"))
		require.NoError(t, err)
		assert.Equal(t, "image-bytes", string(content))
	})

	t.Run("Success - re-upload overwrites", func(t *testing.T) {
		// given
		dir := t.TempDir()
		s := NewStore(dir)
		_, err := s.Save(1, "a.png", strings.NewReader("first"))
		require.NoError(t, err)
		// when
		_, err = s.Save(1, "b.png", strings.NewReader("second"))
		// then
		require.NoError(t, err)
		content, err := os.ReadFile(filepath.Join(dir, "1.png"))
		require.NoError(t, err)
		assert.Equal(t, "second", string(content))
	})

	t.Run("Success - creates a missing directory", func(t *testing.T) {
		// given
		dir := filepath.Join(t.TempDir(), "nested", "images")
		s := NewStore(dir)
		// when
		_, err := s.Save(7, "x.webp", strings.NewReader("w"))
		// then
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "7.webp"))
	})

	t.Run("Error - unsupported extension", func(t *testing.T) {
		// given
		s := NewStore(t.TempDir())
		// when
		_, err := s.Save(1, "malware.exe", strings.NewReader("no"))
		// then
		assert.ErrorContains(t, err, "unsupported image extension")
	})
}

func Test_Dir(t *testing.T) {
	assert.Equal(t, "/tmp/imgs", NewStore("/tmp/imgs").Dir())
}
