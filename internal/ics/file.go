package ics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"icsgen/internal/models"
)

const fileExtension = ".ics"

// SetFileExtension appends ".ics" to dest unless it already ends with it.
func SetFileExtension(dest string) string {
	if strings.HasSuffix(dest, fileExtension) {
		return dest
	}
	return dest + fileExtension
}

// WriteDocument writes doc to dest, adding the .ics extension if needed,
// and returns the path written.
func WriteDocument(dest, doc string) (string, error) {
	path := SetFileExtension(dest)
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return "", fmt.Errorf("failed to write calendar file: %w", err)
	}
	return path, nil
}

// WriteFile builds attrs and writes the result to <dir>/<filename>.ics.
func (b *Builder) WriteFile(dir string, attrs *models.EventAttributes) (string, error) {
	doc, err := b.Build(attrs)
	if err != nil {
		return "", fmt.Errorf("failed to build event: %w", err)
	}
	return WriteDocument(filepath.Join(dir, b.filename), doc)
}
