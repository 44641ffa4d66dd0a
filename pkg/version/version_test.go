package version

import "testing"

func TestGetPrefersStampedVersion(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "v1.2.3"
	if got := Get(); got != "v1.2.3" {
		t.Errorf("Expected stamped version, got %q", got)
	}
}

func TestGetFallsBack(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "dev"
	if got := Get(); got == "" {
		t.Error("Expected a non-empty version")
	}
}
