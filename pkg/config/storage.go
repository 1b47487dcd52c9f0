package config

import (
	"fmt"
	"strings"
)

// StorageConfig locates the JSON data file and the product image directory.
type StorageConfig struct {
	File      string `koanf:"file"`
	ImagesDir string `koanf:"imagesDir"`
}

// String returns a string representation of the storage configuration.
func (c *StorageConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Storage ---\n")
	b.WriteString(fmt.Sprintf("  file: %s\n", c.File))
	b.WriteString(fmt.Sprintf("  imagesDir: %s\n", c.ImagesDir))
	return b.String()
}

func (c *StorageConfig) Validate() error {
	if c.File == "" {
		return fmt.Errorf("storage file is not configured")
	}
	if c.ImagesDir == "" {
		return fmt.Errorf("storage images directory is not configured")
	}
	return nil
}
