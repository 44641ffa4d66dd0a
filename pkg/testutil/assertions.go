package testutil

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/omnibar/pkg/model"
)

// AssertImageCount verifies the expected number of images.
func AssertImageCount(t *testing.T, images []model.Image, expected int) {
	t.Helper()
	if len(images) != expected {
		t.Errorf("expected %d images, got %d", expected, len(images))
	}
}

// AssertNoDuplicateKeys verifies no two images share a group and name.
func AssertNoDuplicateKeys(t *testing.T, images []model.Image) {
	t.Helper()
	seen := make(map[string]bool)
	for _, img := range images {
		if seen[img.Key()] {
			t.Errorf("duplicate image: %s", img.Key())
		}
		seen[img.Key()] = true
	}
}

// AssertAllValid verifies all images pass validation.
func AssertAllValid(t *testing.T, images []model.Image) {
	t.Helper()
	for i := range images {
		if err := images[i].Validate(); err != nil {
			t.Errorf("image %d (%s) invalid: %v", i, images[i].Name, err)
		}
	}
}

// AssertNames verifies the image names, in order.
func AssertNames(t *testing.T, images []model.Image, want ...string) {
	t.Helper()
	got := GetNames(images)
	if !slices.Equal(got, want) {
		t.Errorf("expected images %v, got %v", want, got)
	}
}

// AssertAllMatch verifies pred holds for every image.
func AssertAllMatch(t *testing.T, images []model.Image, what string, pred func(model.Image) bool) {
	t.Helper()
	for _, img := range images {
		if !pred(img) {
			t.Errorf("image %s: expected %s", img.Key(), what)
		}
	}
}

// AssertSortedFold verifies values are unique and sorted case-insensitively.
func AssertSortedFold(t *testing.T, values []string) {
	t.Helper()
	for i := 1; i < len(values); i++ {
		if strings.ToLower(values[i-1]) >= strings.ToLower(values[i]) {
			t.Errorf("values not sorted and unique at %d: %q, %q", i, values[i-1], values[i])
			return
		}
	}
}

// AssertJSONEqual compares two values after JSON round-tripping.
// Useful for comparing structs that may have different Go representations
// but equivalent JSON forms.
func AssertJSONEqual(t *testing.T, expected, actual any) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}

	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// TempDir helpers

// WriteCatalogFile writes images as JSONL to dir/name and returns the path.
func WriteCatalogFile(t *testing.T, dir, name string, images []model.Image) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(ToJSONL(images)), 0644); err != nil {
		t.Fatalf("failed to write catalog file: %v", err)
	}
	return path
}

// WriteSQLiteFile writes images to a SQLite catalog at dir/name and returns
// the path.
func WriteSQLiteFile(t *testing.T, dir, name string, images []model.Image) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := WriteSQLiteCatalog(path, images); err != nil {
		t.Fatalf("failed to write SQLite catalog: %v", err)
	}
	return path
}

// GetNames extracts image names in order.
func GetNames(images []model.Image) []string {
	names := make([]string, len(images))
	for i, img := range images {
		names[i] = img.Name
	}
	return names
}

// FindImage returns the image called name, or nil.
func FindImage(images []model.Image, name string) *model.Image {
	for i := range images {
		if images[i].Name == name {
			return &images[i]
		}
	}
	return nil
}

// CountByGroup counts images per group.
func CountByGroup(images []model.Image) map[string]int {
	counts := make(map[string]int)
	for _, img := range images {
		counts[img.Group]++
	}
	return counts
}
