// Package images stores uploaded product images on the local filesystem.
package images

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// allowedExtensions lists the upload file extensions accepted for product images.
var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// Store writes product images into a single directory, one file per product,
// named {number}{ext}. Re-uploading for the same product overwrites the file.
type Store struct {
	dir string
}

// NewStore creates an image store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory images are stored in, for static file serving.
func (s *Store) Dir() string {
	return s.dir
}

// Save stores the uploaded content as {number}{ext} under the store
// directory, creating it if needed, and returns the relative path to record
// on the product, e.g. "/images/42.jpg".
func (s *Store) Save(number int, filename string, content io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", fmt.Errorf("unsupported image extension %q", ext)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	name := fmt.Sprintf("%d%s", number, ext)
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	return "/images/" + name, nil
}
