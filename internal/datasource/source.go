// Package datasource detects catalog sources on disk and reads images from
// them. A catalog is either a JSON Lines file, a SQLite database with an
// images table, or a directory holding one of those.
package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vanderheijden86/omnibar/pkg/loader"
)

// SourceType identifies the type of data source
type SourceType string

const (
	// SourceTypeSQLite is a SQLite database (.db, .sqlite)
	SourceTypeSQLite SourceType = "sqlite"
	// SourceTypeJSONL is a JSON Lines catalog
	SourceTypeJSONL SourceType = "jsonl"
)

// DefaultDatabaseName is looked up inside catalog directories before any
// JSONL file.
const DefaultDatabaseName = "images.db"

// DataSource is a resolved catalog file.
type DataSource struct {
	Type    SourceType `json:"type"`
	Path    string     `json:"path"`
	ModTime time.Time  `json:"mod_time"`
	Size    int64      `json:"size"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	return fmt.Sprintf("%s (%s, mod=%s, %d bytes)",
		s.Path, s.Type, s.ModTime.Format(time.RFC3339), s.Size)
}

// DetectSource resolves path to a catalog source. Files are classified by
// extension; directories are searched for images.db first, then for a JSONL
// catalog.
func DetectSource(path string) (DataSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DataSource{}, fmt.Errorf("cannot stat catalog %s: %w", path, err)
	}

	if info.IsDir() {
		dbPath := filepath.Join(path, DefaultDatabaseName)
		if dbInfo, err := os.Stat(dbPath); err == nil && !dbInfo.IsDir() {
			return newSource(SourceTypeSQLite, dbPath, dbInfo), nil
		}
		jsonlPath, err := loader.FindCatalogPath(path)
		if err != nil {
			return DataSource{}, err
		}
		jsonlInfo, err := os.Stat(jsonlPath)
		if err != nil {
			return DataSource{}, fmt.Errorf("cannot stat catalog %s: %w", jsonlPath, err)
		}
		return newSource(SourceTypeJSONL, jsonlPath, jsonlInfo), nil
	}

	t, err := typeForExtension(path)
	if err != nil {
		return DataSource{}, err
	}
	return newSource(t, path, info), nil
}

func typeForExtension(path string) (SourceType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return SourceTypeJSONL, nil
	case ".db", ".sqlite", ".sqlite3":
		return SourceTypeSQLite, nil
	}
	return "", fmt.Errorf("unsupported catalog format: %s", path)
}

func newSource(t SourceType, path string, info os.FileInfo) DataSource {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return DataSource{
		Type:    t,
		Path:    abs,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}
}
