package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/omnibar/pkg/model"
	"github.com/vanderheijden86/omnibar/pkg/query"
)

func TestFormatTimeRel(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, "unknown"},
		{"future", now.Add(time.Hour), "now"},
		{"seconds", now.Add(-30 * time.Second), "now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"days", now.Add(-2 * 24 * time.Hour), "2d ago"},
		{"weeks", now.Add(-14 * 24 * time.Hour), "2w ago"},
		{"months", now.Add(-90 * 24 * time.Hour), "3mo ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTimeRelFrom(tt.t, now); got != tt.want {
				t.Errorf("formatTimeRelFrom() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated text", 6, "trunc…"},
		{"anything", 0, ""},
		{"日本語テキスト", 5, "日本…"},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.width)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
		if runewidth.StringWidth(got) > tt.width {
			t.Errorf("truncate(%q, %d) is %d cells wide", tt.in, tt.width, runewidth.StringWidth(got))
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Errorf("Expected %q, got %q", "ab  ", got)
	}
	if got := padRight("日本", 6); runewidth.StringWidth(got) != 6 {
		t.Errorf("Expected 6 cells for wide text, got %d (%q)", runewidth.StringWidth(got), got)
	}
	if got := padRight("toolong", 3); got != "toolong" {
		t.Errorf("padRight must not cut, got %q", got)
	}
}

func TestResultsViewEmpty(t *testing.T) {
	r := NewResultsModel(TestTheme())
	if !strings.Contains(r.View(), "No images match") {
		t.Errorf("Expected empty message, got %q", r.View())
	}
	if _, ok := r.Selected(); ok {
		t.Error("Expected no selection in an empty list")
	}
}

func TestResultsScrolling(t *testing.T) {
	var images []model.Image
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		images = append(images, model.Image{Name: "img-" + name, Group: "g", Scaler: model.ScalerKVM})
	}
	r := NewResultsModel(TestTheme())
	r.SetSize(80, 4) // header + 3 rows
	r.SetImages(images)

	for range 4 {
		r.MoveDown()
	}
	sel, _ := r.Selected()
	if sel.Name != "img-e" {
		t.Fatalf("Expected img-e, got %q", sel.Name)
	}
	view := r.View()
	if strings.Contains(view, "img-a") || !strings.Contains(view, "img-e") {
		t.Errorf("Expected the window to follow the cursor:\n%s", view)
	}

	for range 10 {
		r.MoveDown()
	}
	if sel, _ := r.Selected(); sel.Name != "img-f" {
		t.Errorf("Expected cursor to stop at the end, got %q", sel.Name)
	}

	r.SetImages(images[:2])
	if sel, _ := r.Selected(); sel.Name != "img-b" {
		t.Errorf("Expected cursor clamped into the shorter list, got %q", sel.Name)
	}
}

func TestResultsRowFlags(t *testing.T) {
	r := NewResultsModel(TestTheme())
	r.SetSize(120, 10)
	r.SetImages([]model.Image{
		{Name: "unpacker", Group: "scanners", Scaler: model.ScalerK8s, Generator: true, UsedBy: []string{"a", "b"}},
		{Name: "strings", Group: "parsers", Scaler: model.ScalerBareMetal},
	})
	view := r.View()
	for _, want := range []string{"NAME", "gen 2p", "orphan", "unpacker", "strings"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected %q in view:\n%s", want, view)
		}
	}
}

func TestBadgeColors(t *testing.T) {
	theme := TestTheme()
	if theme.BadgeColor(query.BadgeGroup) == theme.BadgeColor(query.BadgeScaler) {
		t.Error("Group and scaler badges should be distinguishable")
	}
	if theme.BadgeColor(query.BadgeGenerator) != theme.BadgeColor(query.BadgeUsed) {
		t.Error("Flag badges share a color")
	}
	for _, s := range []model.Scaler{model.ScalerK8s, model.ScalerBareMetal, model.ScalerWindows, model.ScalerKVM, model.ScalerExternal} {
		if icon, _ := theme.GetScalerIcon(s); icon == "·" {
			t.Errorf("Expected an icon for scaler %q", s)
		}
	}
}

func TestOmnibarViewShowsBadges(t *testing.T) {
	m := NewModel(testImages(), Options{DefaultQuery: "group:scanners -creator:bob"})
	view := m.Omnibar().View()
	for _, want := range []string{"group:scanners", "-creator:bob"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected badge %q in view:\n%s", want, view)
		}
	}
}
