package datasource

import (
	"fmt"

	"github.com/vanderheijden86/omnibar/pkg/loader"
	"github.com/vanderheijden86/omnibar/pkg/model"
)

// LoadImages resolves path with DetectSource and reads the catalog it
// points at.
func LoadImages(path string) ([]model.Image, error) {
	source, err := DetectSource(path)
	if err != nil {
		return nil, err
	}
	return LoadFromSource(source)
}

// LoadFromSource loads images from a specific DataSource, dispatching to the
// appropriate reader based on source type.
func LoadFromSource(source DataSource) ([]model.Image, error) {
	switch source.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		defer reader.Close()
		return reader.LoadImages()

	case SourceTypeJSONL:
		return loader.LoadImagesFromFile(source.Path)

	default:
		return nil, fmt.Errorf("unknown source type: %s", source.Type)
	}
}
