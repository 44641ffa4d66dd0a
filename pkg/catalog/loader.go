// Package catalog merges images from several catalog sources and derives the
// value lists the omnibar suggests from.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/omnibar/internal/datasource"
	"github.com/vanderheijden86/omnibar/pkg/debug"
	"github.com/vanderheijden86/omnibar/pkg/metrics"
	"github.com/vanderheijden86/omnibar/pkg/model"
)

// DefaultConcurrency bounds the number of catalogs read at once.
const DefaultConcurrency = 8

// ErrNoSources is returned by LoadAll when no catalog path was configured.
var ErrNoSources = errors.New("no catalog sources configured")

// LoadFunc reads the images of one catalog path.
type LoadFunc func(path string) ([]model.Image, error)

// LoadResult contains the result of loading a single catalog source
type LoadResult struct {
	Path   string
	Images []model.Image
	Error  error
}

// AggregateLoader loads images from multiple catalog sources in parallel.
type AggregateLoader struct {
	paths  []string
	load   LoadFunc
	limit  int
	logger *log.Logger
}

// NewAggregateLoader creates a loader for the given catalog paths. Each path
// may name a JSONL file, a SQLite database or a directory.
func NewAggregateLoader(paths []string) *AggregateLoader {
	return &AggregateLoader{
		paths: append([]string(nil), paths...),
		load:  datasource.LoadImages,
		limit: DefaultConcurrency,
		// Silent by default so robot output on stdout/stderr stays clean.
		logger: log.New(io.Discard, "", 0),
	}
}

// SetLogger sets a custom logger for error reporting
func (l *AggregateLoader) SetLogger(logger *log.Logger) {
	l.logger = logger
}

// SetLoadFunc replaces the per-source reader.
func (l *AggregateLoader) SetLoadFunc(fn LoadFunc) {
	l.load = fn
}

// SetConcurrency changes how many sources are read at once.
func (l *AggregateLoader) SetConcurrency(n int) {
	if n > 0 {
		l.limit = n
	}
}

// Paths returns the configured catalog paths.
func (l *AggregateLoader) Paths() []string {
	return append([]string(nil), l.paths...)
}

// LoadAll loads every source and merges the images. Images with the same
// group and name are kept once, from the first source listing them. Failed
// sources are reported in the results and logged; they do not fail the load.
func (l *AggregateLoader) LoadAll(ctx context.Context) ([]model.Image, []LoadResult, error) {
	if len(l.paths) == 0 {
		return nil, nil, ErrNoSources
	}
	defer debug.LogEnterExit("catalog.LoadAll")()
	defer metrics.TimerWithCallback(metrics.CatalogLoad, func(d time.Duration) {
		debug.LogTiming("catalog.LoadAll", d)
	})()

	results, err := l.loadParallel(ctx)
	if err != nil {
		return nil, results, fmt.Errorf("fatal error during parallel loading: %w", err)
	}

	seen := make(map[string]bool)
	var all []model.Image
	for _, result := range results {
		if result.Error != nil {
			l.logger.Printf("catalog %s: %v", result.Path, result.Error)
			continue
		}
		for _, img := range result.Images {
			key := img.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, img)
		}
	}
	return all, results, nil
}

// FailedCount returns the number of results carrying an error.
func FailedCount(results []LoadResult) int {
	n := 0
	for _, r := range results {
		if r.Error != nil {
			n++
		}
	}
	return n
}

func (l *AggregateLoader) loadParallel(ctx context.Context) ([]LoadResult, error) {
	results := make([]LoadResult, len(l.paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.limit)

	for i, path := range l.paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				results[i] = LoadResult{Path: path, Error: ctx.Err()}
				return nil
			default:
			}

			images, err := l.load(path)
			if err != nil {
				err = fmt.Errorf("failed to load catalog %s: %w", path, err)
			}
			results[i] = LoadResult{Path: path, Images: images, Error: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	l.logger.Printf("Finished parallel loading of %d catalogs", len(l.paths))
	return results, nil
}
