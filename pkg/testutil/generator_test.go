package testutil

import (
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/omnibar/pkg/model"
)

func TestImagesDeterministic(t *testing.T) {
	a := NewDefault().Images(50)
	b := NewDefault().Images(50)
	AssertJSONEqual(t, a, b)
}

func TestImagesValidAndUnique(t *testing.T) {
	images := QuickImages(200)
	AssertImageCount(t, images, 200)
	AssertAllValid(t, images)
	AssertNoDuplicateKeys(t, images)
}

func TestImagesRotateGroupsAndScalers(t *testing.T) {
	cfg := DefaultConfig()
	images := New(cfg).Images(len(cfg.Groups) * len(Scalers))

	counts := CountByGroup(images)
	for _, g := range cfg.Groups {
		if counts[g] != len(Scalers) {
			t.Errorf("group %s: expected %d images, got %d", g, len(Scalers), counts[g])
		}
	}
	for i, img := range images {
		if img.Scaler != Scalers[i%len(Scalers)] {
			t.Errorf("image %d: expected scaler %s, got %s", i, Scalers[i%len(Scalers)], img.Scaler)
		}
	}
}

func TestImagesRatios(t *testing.T) {
	tests := []struct {
		name      string
		generator float64
		orphan    float64
	}{
		{"none", 0, 0},
		{"all", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.GeneratorRatio = tt.generator
			cfg.OrphanRatio = tt.orphan
			images := New(cfg).Images(30)

			AssertAllMatch(t, images, "generator flag", func(img model.Image) bool {
				return img.Generator == (tt.generator == 1)
			})
			AssertAllMatch(t, images, "pipeline usage", func(img model.Image) bool {
				return img.Used() == (tt.orphan == 0)
			})
		})
	}
}

func TestPickPipelinesDistinct(t *testing.T) {
	AssertAllMatch(t, QuickImages(100), "distinct pipelines", func(img model.Image) bool {
		return len(img.UsedBy) < 2 || img.UsedBy[0] != img.UsedBy[1]
	})
}

func TestToJSONL(t *testing.T) {
	images := QuickImages(3)
	out := ToJSONL(images)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	var first model.Image
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSON line: %v", err)
	}
	if first.Name != images[0].Name || first.Group != images[0].Group {
		t.Errorf("expected %s/%s, got %s/%s", images[0].Group, images[0].Name, first.Group, first.Name)
	}
}

func TestQuickFixtures(t *testing.T) {
	AssertImageCount(t, Empty(), 0)
	single := Single()
	AssertNames(t, single, "single")
	AssertAllValid(t, single)
	if FindImage(single, "single") == nil || FindImage(single, "other") != nil {
		t.Error("FindImage returned the wrong image")
	}

	f := NewDefault().Fixture(8)
	if len(f.Images) != 8 || !strings.Contains(f.Description, "8 generated images") {
		t.Errorf("unexpected fixture %q with %d images", f.Description, len(f.Images))
	}
}

func TestWriteHelpers(t *testing.T) {
	dir := t.TempDir()
	images := QuickImages(4)

	path := WriteCatalogFile(t, dir, filepath.Join("nested", "images.jsonl"), images)
	if filepath.Base(path) != "images.jsonl" {
		t.Errorf("unexpected path %s", path)
	}

	dbPath := WriteSQLiteFile(t, dir, "images.db", images)
	if err := WriteSQLiteCatalog(dbPath, images); err == nil {
		t.Error("expected an error when the images table already exists")
	}
}

func TestAssertSortedFold(t *testing.T) {
	AssertSortedFold(t, []string{"alice", "Bob", "carol"})
	AssertSortedFold(t, nil)
}
