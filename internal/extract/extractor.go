// Package extract loads text units from supported document formats.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/docqa/internal/models"
)

// loaderFunc turns raw file content into text units (one per PDF page, one for plain text).
type loaderFunc func(content []byte) ([]string, error)

var loaders = map[string]loaderFunc{
	".txt": extractPlain,
	".pdf": extractPDF,
}

// Extractor dispatches files to a loader by extension.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether ext (with leading dot, any case) has a loader.
func Supported(ext string) bool {
	_, ok := loaders[strings.ToLower(ext)]
	return ok
}

// SupportedExtensions returns the extensions with a loader.
func SupportedExtensions() []string {
	return []string{".pdf", ".txt"}
}

// Load reads the file at path and returns its text units.
// An unknown extension fails with UNSUPPORTED_FORMAT before the file is opened;
// read and parse errors fail with LOAD_FAILURE.
func (e *Extractor) Load(path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(ext) {
		return nil, models.NewError(models.KindUnsupportedFormat,
			fmt.Sprintf("unsupported file format %q", ext))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, models.WrapError(models.KindLoadFailure, "read file", err)
	}
	return e.LoadBytes(content, ext)
}

// LoadBytes extracts text units from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) LoadBytes(content []byte, ext string) ([]string, error) {
	load, ok := loaders[strings.ToLower(ext)]
	if !ok {
		return nil, models.NewError(models.KindUnsupportedFormat,
			fmt.Sprintf("unsupported file format %q", ext))
	}
	units, err := load(content)
	if err != nil {
		return nil, models.WrapError(models.KindLoadFailure, "extract text", err)
	}
	return units, nil
}

// Extract returns the full text of the file at path, pages separated by a blank line.
func (e *Extractor) Extract(path string) (string, error) {
	units, err := e.Load(path)
	if err != nil {
		return "", err
	}
	return strings.Join(units, "\n\n"), nil
}
