package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/omnibar/pkg/catalog"
	"github.com/vanderheijden86/omnibar/pkg/config"
	"github.com/vanderheijden86/omnibar/pkg/debug"
	"github.com/vanderheijden86/omnibar/pkg/metrics"
	"github.com/vanderheijden86/omnibar/pkg/model"
	"github.com/vanderheijden86/omnibar/pkg/query"
)

type robotToken struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Negated bool   `json:"negated,omitempty"`
	Raw     string `json:"raw"`
}

type robotParseOutput struct {
	Query     string            `json:"query"`
	Canonical string            `json:"canonical"`
	Tokens    []robotToken      `json:"tokens"`
	FreeText  string            `json:"free_text"`
	Filters   query.FilterState `json:"filters"`
	Badges    []string          `json:"badges"`
}

type robotSource struct {
	Path   string `json:"path"`
	Images int    `json:"images"`
	Error  string `json:"error,omitempty"`
}

type robotFilterOutput struct {
	GeneratedAt string            `json:"generated_at"`
	Query       string            `json:"query"`
	Canonical   string            `json:"canonical"`
	Filters     query.FilterState `json:"filters"`
	Total       int               `json:"total"`
	Matched     int               `json:"matched"`
	Images      []model.Image     `json:"images"`
	Sources     []robotSource     `json:"sources"`
}

type robotSuggestion struct {
	query.Suggestion
	Input    string `json:"input"`
	Cursor   int    `json:"cursor"`
	KeepOpen bool   `json:"keep_open"`
}

type robotSuggestOutput struct {
	Query       string            `json:"query"`
	Cursor      int               `json:"cursor"`
	Suggestions []robotSuggestion `json:"suggestions"`
}

type robotMetricsOutput struct {
	GeneratedAt string                `json:"generated_at"`
	Metrics     []metrics.TimingStats `json:"metrics"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// catalogLogger reports per-source failures on stderr only in debug mode, so
// robot output and the alt screen stay clean.
func catalogLogger() *log.Logger {
	if debug.Enabled() {
		return log.New(os.Stderr, "[omnibar] ", log.Ltime)
	}
	return log.New(io.Discard, "", 0)
}

// loadCatalogs reads every configured catalog. Individual failures are
// returned in the results; it errors only when nothing could be loaded.
func loadCatalogs(ctx context.Context, cfg config.Config) ([]model.Image, []catalog.LoadResult, error) {
	l := catalog.NewAggregateLoader(cfg.Catalogs)
	l.SetLogger(catalogLogger())
	images, results, err := l.LoadAll(ctx)
	if err != nil {
		return nil, results, err
	}
	if failed := catalog.FailedCount(results); failed == len(results) {
		return nil, results, fmt.Errorf("no catalog could be loaded: %w", results[0].Error)
	}
	return images, results, nil
}

func sourcesOf(results []catalog.LoadResult) []robotSource {
	out := make([]robotSource, 0, len(results))
	for _, r := range results {
		s := robotSource{Path: r.Path, Images: len(r.Images)}
		if r.Error != nil {
			s.Error = r.Error.Error()
		}
		out = append(out, s)
	}
	return out
}

func runRobot(opts options, cfg config.Config, w io.Writer) error {
	ctx := context.Background()

	if opts.robotParse {
		if err := writeJSON(w, robotParse(opts.query, cfg.User)); err != nil {
			return err
		}
	}

	// Filtering needs a catalog; suggestions only use it for known values.
	var images []model.Image
	var results []catalog.LoadResult
	if opts.robotFilter || (opts.robotSuggest && len(cfg.Catalogs) > 0) {
		var err error
		images, results, err = loadCatalogs(ctx, cfg)
		if err != nil {
			if errors.Is(err, catalog.ErrNoSources) {
				return fmt.Errorf("%w; pass --catalog or set %s", err, config.EnvCatalog)
			}
			return err
		}
	}

	if opts.robotFilter {
		f := query.ParseQueryString(opts.query, cfg.User)
		matched := query.Filter(f, images)
		out := robotFilterOutput{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			Query:       opts.query,
			Canonical:   query.FiltersToQueryString(f),
			Filters:     f,
			Total:       len(images),
			Matched:     len(matched),
			Images:      matched,
			Sources:     sourcesOf(results),
		}
		if out.Images == nil {
			out.Images = []model.Image{}
		}
		if err := writeJSON(w, out); err != nil {
			return err
		}
	}

	if opts.robotSuggest {
		s := query.Suggester{
			Known:       catalog.Known(images),
			CurrentUser: cfg.User,
			Limit:       cfg.UI.MaxSuggestions,
		}
		if err := writeJSON(w, robotSuggest(s, opts.query, opts.cursor)); err != nil {
			return err
		}
	}

	if opts.robotMetrics {
		out := robotMetricsOutput{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			Metrics:     metrics.AllTimingStats(),
		}
		if err := writeJSON(w, out); err != nil {
			return err
		}
	}
	return nil
}

func robotParse(q, user string) robotParseOutput {
	tokens, free := query.Tokenize(q)
	f := query.TokensToFilters(tokens, free, user)

	out := robotParseOutput{
		Query:     q,
		Canonical: query.FiltersToQueryString(f),
		Tokens:    make([]robotToken, 0, len(tokens)),
		FreeText:  free,
		Filters:   f,
		Badges:    []string{},
	}
	for _, t := range tokens {
		out.Tokens = append(out.Tokens, robotToken{Key: t.Key, Value: t.Value, Negated: t.Negated, Raw: t.Raw})
	}
	for _, b := range f.Badges() {
		out.Badges = append(out.Badges, b.Label)
	}
	return out
}

func robotSuggest(s query.Suggester, q string, cursor int) robotSuggestOutput {
	n := len([]rune(q))
	if cursor < 0 || cursor > n {
		cursor = n
	}
	out := robotSuggestOutput{Query: q, Cursor: cursor, Suggestions: []robotSuggestion{}}
	for _, sug := range s.Suggest(q, cursor) {
		applied := query.Apply(q, cursor, sug)
		out.Suggestions = append(out.Suggestions, robotSuggestion{
			Suggestion: sug,
			Input:      applied.Input,
			Cursor:     applied.Cursor,
			KeepOpen:   applied.KeepOpen,
		})
	}
	return out
}
