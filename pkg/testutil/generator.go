// Package testutil provides catalog fixture generators and assertions.
// All generators produce deterministic output for reproducible tests.
package testutil

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/omnibar/pkg/model"
)

// CatalogFixture is a named set of images for integration testing.
type CatalogFixture struct {
	Description string        `json:"description"`
	Images      []model.Image `json:"images"`
}

// GeneratorConfig controls image generation.
type GeneratorConfig struct {
	Seed           int64     // Random seed for determinism (0 = use current time)
	NamePrefix     string    // Prefix for image names (default: "img")
	BaseTime       time.Time // Base time for timestamps (default: fixed time)
	Groups         []string  // Group names to draw from
	Creators       []string  // Creators to draw from
	Pipelines      []string  // Pipelines images may be used by
	GeneratorRatio float64   // Share of generator images, 0..1
	OrphanRatio    float64   // Share of images no pipeline uses, 0..1
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:           42, // Deterministic
		NamePrefix:     "img",
		BaseTime:       time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Groups:         []string{"scanners", "parsers", "unpackers", "rules"},
		Creators:       []string{"alice", "bob", "Jane Doe"},
		Pipelines:      []string{"triage", "unpack", "deep-scan"},
		GeneratorRatio: 0.2,
		OrphanRatio:    0.25,
	}
}

// Scalers lists every scaler the generator assigns, in rotation order.
var Scalers = []model.Scaler{
	model.ScalerK8s,
	model.ScalerBareMetal,
	model.ScalerWindows,
	model.ScalerKVM,
	model.ScalerExternal,
}

// Generator creates catalog fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	defaults := DefaultConfig()
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.BaseTime.IsZero() {
		cfg.BaseTime = defaults.BaseTime
	}
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = defaults.NamePrefix
	}
	if len(cfg.Groups) == 0 {
		cfg.Groups = defaults.Groups
	}
	if len(cfg.Creators) == 0 {
		cfg.Creators = defaults.Creators
	}
	if len(cfg.Pipelines) == 0 {
		cfg.Pipelines = defaults.Pipelines
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Images generates n valid images with unique names. Groups and scalers
// rotate so every value appears once n reaches the list length; creators,
// flags and pipelines are drawn at random.
func (g *Generator) Images(n int) []model.Image {
	images := make([]model.Image, n)
	for i := range n {
		img := model.Image{
			Name:      fmt.Sprintf("%s-%04d", g.cfg.NamePrefix, i),
			Group:     g.cfg.Groups[i%len(g.cfg.Groups)],
			Scaler:    Scalers[i%len(Scalers)],
			Creator:   g.pick(g.cfg.Creators),
			Generator: g.rng.Float64() < g.cfg.GeneratorRatio,
			Version:   fmt.Sprintf("1.%d.0", i%7),
			CreatedAt: g.cfg.BaseTime.Add(-time.Duration(i) * time.Hour),
		}
		if g.rng.Float64() >= g.cfg.OrphanRatio {
			img.UsedBy = g.pickPipelines()
		}
		img.Description = fmt.Sprintf("%s image %d", img.Group, i)
		images[i] = img
	}
	return images
}

// Fixture wraps Images with a description.
func (g *Generator) Fixture(n int) CatalogFixture {
	return CatalogFixture{
		Description: fmt.Sprintf("%d generated images across %d groups", n, len(g.cfg.Groups)),
		Images:      g.Images(n),
	}
}

func (g *Generator) pick(values []string) string {
	return values[g.rng.Intn(len(values))]
}

// pickPipelines returns one or two distinct pipelines.
func (g *Generator) pickPipelines() []string {
	first := g.rng.Intn(len(g.cfg.Pipelines))
	out := []string{g.cfg.Pipelines[first]}
	if len(g.cfg.Pipelines) > 1 && g.rng.Intn(2) == 0 {
		second := (first + 1 + g.rng.Intn(len(g.cfg.Pipelines)-1)) % len(g.cfg.Pipelines)
		out = append(out, g.cfg.Pipelines[second])
	}
	return out
}

// ToJSONL converts images to JSONL format (one JSON object per line).
func ToJSONL(images []model.Image) string {
	var sb strings.Builder
	for _, img := range images {
		data, err := json.Marshal(img)
		if err != nil {
			continue
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// SQLiteSchema is the images table the SQLite catalog reader expects.
const SQLiteSchema = `CREATE TABLE images (
	name TEXT NOT NULL,
	group_name TEXT NOT NULL,
	scaler TEXT,
	creator TEXT,
	generator INTEGER DEFAULT 0,
	used_by TEXT,
	description TEXT,
	version TEXT,
	created_at TEXT
)`

// WriteSQLiteCatalog creates a SQLite catalog at path holding images.
func WriteSQLiteCatalog(path string, images []model.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(SQLiteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO images VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, img := range images {
		var usedBy any
		if len(img.UsedBy) > 0 {
			data, err := json.Marshal(img.UsedBy)
			if err != nil {
				return err
			}
			usedBy = string(data)
		}
		var createdAt any
		if !img.CreatedAt.IsZero() {
			createdAt = img.CreatedAt.UTC().Format(time.RFC3339)
		}
		generator := 0
		if img.Generator {
			generator = 1
		}
		if _, err := stmt.Exec(img.Name, img.Group, string(img.Scaler), img.Creator,
			generator, usedBy, img.Description, img.Version, createdAt); err != nil {
			return fmt.Errorf("insert %s: %w", img.Name, err)
		}
	}
	return tx.Commit()
}

// ============================================================================
// Quick Fixtures
// ============================================================================

// QuickImages creates n images with default settings.
func QuickImages(n int) []model.Image {
	return NewDefault().Images(n)
}

// Empty returns an empty image slice for edge case testing.
func Empty() []model.Image {
	return []model.Image{}
}

// Single returns one orphan image.
func Single() []model.Image {
	cfg := DefaultConfig()
	return []model.Image{{
		Name:      "single",
		Group:     cfg.Groups[0],
		Scaler:    model.ScalerK8s,
		Creator:   cfg.Creators[0],
		CreatedAt: cfg.BaseTime,
	}}
}
