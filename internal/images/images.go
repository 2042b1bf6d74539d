// Package images lists the still images a slideshow is built from.
package images

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kikiluvv/glitchreel/internal/apperr"
	"github.com/kikiluvv/glitchreel/pkg/util"
)

// MinImages is the fewest images that can carry a crossfade.
const MinImages = 2

// Format is a recognized still image encoding
type Format string

const (
	PNG  Format = "png"
	JPG  Format = "jpg"
	JPEG Format = "jpeg"
)

var formats = map[string]Format{
	"png":  PNG,
	"jpg":  JPG,
	"jpeg": JPEG,
}

// Image is one still input, in listing order
type Image struct {
	Index  int    `yaml:"index"`
	Path   string `yaml:"path"`
	Format Format `yaml:"format"`
}

// FormatOf returns the image format for path based on its extension
func FormatOf(path string) (Format, bool) {
	f, ok := formats[util.GetExtension(path)]
	return f, ok
}

// Resolve lists dir (non-recursively) and returns the recognized images sorted by file name
func Resolve(dir string) ([]Image, error) {
	if dir == "" {
		return nil, apperr.Configf("image_dir", "not set")
	}
	if !util.IsDir(dir) {
		return nil, apperr.Configf("image_dir", "directory %q not found", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if _, ok := FormatOf(entry.Name()); ok {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	if len(names) < MinImages {
		return nil, &apperr.InsufficientInputError{Dir: dir, Found: len(names), Required: MinImages}
	}

	imgs := make([]Image, len(names))
	for i, name := range names {
		format, _ := FormatOf(name)
		imgs[i] = Image{
			Index:  i,
			Path:   filepath.Join(dir, name),
			Format: format,
		}
	}
	return imgs, nil
}
