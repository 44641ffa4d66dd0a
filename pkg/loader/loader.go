// Package loader reads image catalogs stored as JSON Lines, one image per
// line.
package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/omnibar/pkg/metrics"
	"github.com/vanderheijden86/omnibar/pkg/model"
)

// CatalogEnvVar overrides the catalog location.
const CatalogEnvVar = "OMNIBAR_CATALOG"

// DefaultMaxBufferSize bounds a single catalog line.
const DefaultMaxBufferSize = 4 * 1024 * 1024

// PreferredCatalogNames defines the lookup order inside a catalog directory.
var PreferredCatalogNames = []string{"images.jsonl", "catalog.jsonl"}

// ParseOptions tunes catalog parsing.
type ParseOptions struct {
	// WarningHandler receives one message per skipped line. Nil prints to
	// stderr unless OMNIBAR_ROBOT=1.
	WarningHandler func(msg string)
	// BufferSize is the maximum line length; longer lines are skipped.
	BufferSize int
	// ImageFilter drops images for which it returns false.
	ImageFilter func(*model.Image) bool
}

// FindCatalogPath locates the catalog file inside dir, preferring
// images.jsonl, then catalog.jsonl, then any other non-empty .jsonl file.
func FindCatalogPath(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read catalog directory: %w", err)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".jsonl") || strings.Contains(name, ".backup") {
			continue
		}
		candidates = append(candidates, name)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no catalog JSONL file found in %s", dir)
	}

	nonEmpty := func(name string) (string, bool) {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		return path, err == nil && info.Size() > 0
	}

	for _, preferred := range PreferredCatalogNames {
		for _, name := range candidates {
			if name == preferred {
				if path, ok := nonEmpty(name); ok {
					return path, nil
				}
			}
		}
	}
	for _, name := range candidates {
		if path, ok := nonEmpty(name); ok {
			return path, nil
		}
	}
	return filepath.Join(dir, candidates[0]), nil
}

// LoadImagesFromFile parses the catalog at path.
func LoadImagesFromFile(path string) ([]model.Image, error) {
	return LoadImagesFromFileWithOptions(path, ParseOptions{})
}

// LoadImagesFromFileWithOptions parses the catalog at path with opts.
func LoadImagesFromFileWithOptions(path string, opts ParseOptions) ([]model.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()
	return ParseImagesWithOptions(f, opts)
}

// ParseImages parses a JSONL stream with default options.
func ParseImages(r io.Reader) ([]model.Image, error) {
	return ParseImagesWithOptions(r, ParseOptions{})
}

// ParseImagesWithOptions parses a JSONL stream. Malformed, invalid and
// over-long lines are skipped with a warning; only read errors fail.
func ParseImagesWithOptions(r io.Reader, opts ParseOptions) ([]model.Image, error) {
	defer metrics.Timer(metrics.JSONParsing)()

	maxCapacity := opts.BufferSize
	if maxCapacity <= 0 {
		maxCapacity = DefaultMaxBufferSize
	}
	reader := bufio.NewReaderSize(r, maxCapacity)

	warn := opts.WarningHandler
	if warn == nil {
		if os.Getenv("OMNIBAR_ROBOT") == "1" {
			warn = func(string) {}
		} else {
			warn = func(msg string) {
				fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
			}
		}
	}

	var images []model.Image
	lineNum := 0
	for {
		lineNum++
		line, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading catalog at line %d: %w", lineNum, err)
		}

		if isPrefix {
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, maxCapacity))
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err == io.EOF {
					break
				}
				if err != nil {
					return nil, fmt.Errorf("error skipping long line at line %d: %w", lineNum, err)
				}
			}
			continue
		}

		if lineNum == 1 {
			line = stripBOM(line)
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var img model.Image
		if err := json.Unmarshal(line, &img); err != nil {
			warn(fmt.Sprintf("skipping malformed JSON on line %d: %v", lineNum, err))
			continue
		}
		normalizeImage(&img)
		if err := img.Validate(); err != nil {
			warn(fmt.Sprintf("skipping invalid image on line %d: %v", lineNum, err))
			continue
		}
		if opts.ImageFilter != nil && !opts.ImageFilter(&img) {
			continue
		}
		images = append(images, img)
	}

	return images, nil
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}

func normalizeImage(img *model.Image) {
	img.Name = strings.TrimSpace(img.Name)
	img.Group = strings.TrimSpace(img.Group)
	img.Scaler = model.Scaler(strings.ToLower(strings.TrimSpace(string(img.Scaler))))
	img.Creator = strings.TrimSpace(img.Creator)
}
