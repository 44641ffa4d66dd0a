//go:build ignore

// generate_testdata.go creates catalog datasets for manual testing and
// profiling of the omnibar.
// Usage: go run scripts/generate_testdata.go [output-dir]
//
// Creates, for each size, a JSONL catalog and a SQLite catalog:
//
//	testdata/catalogs/small.jsonl   small.db    (100 images)
//	testdata/catalogs/medium.jsonl  medium.db   (1000 images)
//	testdata/catalogs/large.jsonl   large.db    (10000 images)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/omnibar/pkg/model"
	"github.com/vanderheijden86/omnibar/pkg/testutil"
)

type datasetSpec struct {
	name   string
	size   int
	groups int
}

var datasets = []datasetSpec{
	{"small", 100, 4},
	{"medium", 1000, 12},
	{"large", 10000, 40},
}

var descriptions = []string{
	"Antivirus scan of submitted samples",
	"Extract embedded files from archives",
	"Parse PE headers and imports",
	"YARA rule matching",
	"Dump printable strings",
	"Detonate in a sandboxed VM",
}

func main() {
	outputDir := filepath.Join("testdata", "catalogs")
	if len(os.Args) > 1 {
		outputDir = os.Args[1]
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d images)...\n", ds.name, ds.size)

		cfg := testutil.DefaultConfig()
		cfg.Seed = int64(ds.size) // Reproducible per-size
		cfg.NamePrefix = ds.name
		cfg.Groups = groupNames(ds.groups)
		cfg.Creators = []string{"alice", "bob", "carol", "Jane Doe", "svc-ci"}
		cfg.Pipelines = []string{"triage", "unpack", "deep-scan", "email", "web", "legacy"}

		images := testutil.New(cfg).Images(ds.size)
		addDescriptions(images)

		jsonl := testutil.ToJSONL(images)
		jsonlPath := filepath.Join(outputDir, ds.name+".jsonl")
		if err := os.WriteFile(jsonlPath, []byte(jsonl), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", jsonlPath, err)
			os.Exit(1)
		}

		dbPath := filepath.Join(outputDir, ds.name+".db")
		_ = os.Remove(dbPath)
		if err := testutil.WriteSQLiteCatalog(dbPath, images); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", dbPath, err)
			os.Exit(1)
		}

		fmt.Printf("  Written %s (%d bytes) and %s\n", jsonlPath, len(jsonl), dbPath)
	}

	fmt.Println("\nDone! Catalogs created in", outputDir)
}

func groupNames(n int) []string {
	base := []string{"scanners", "parsers", "unpackers", "rules", "sandboxes", "extractors"}
	out := make([]string, n)
	for i := range n {
		out[i] = base[i%len(base)]
		if i >= len(base) {
			out[i] = fmt.Sprintf("%s-%d", out[i], i/len(base))
		}
	}
	return out
}

func addDescriptions(images []model.Image) {
	for i := range images {
		images[i].Description = descriptions[i%len(descriptions)]
	}
}
