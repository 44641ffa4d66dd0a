package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/omnibar/pkg/model"
	"github.com/vanderheijden86/omnibar/pkg/query"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor
	Success   lipgloss.AdaptiveColor

	// Badge colors per filter dimension
	GroupBadge     lipgloss.AdaptiveColor
	ScalerBadge    lipgloss.AdaptiveColor
	CreatorBadge   lipgloss.AdaptiveColor
	PipelineBadge  lipgloss.AdaptiveColor
	FlagBadge      lipgloss.AdaptiveColor
	SearchBadge    lipgloss.AdaptiveColor
	NegatedBadgeBg lipgloss.AdaptiveColor

	// Styles
	Base      lipgloss.Style
	Selected  lipgloss.Style
	Header    lipgloss.Style
	InputBox  lipgloss.Style
	Dropdown  lipgloss.Style
	MutedText lipgloss.Style
	KeyText   lipgloss.Style
	ErrorText lipgloss.Style
	InfoText  lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive)
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},
		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Danger:    lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
		Success:   lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},

		GroupBadge:     lipgloss.AdaptiveColor{Light: "#2684FF", Dark: "#4C9AFF"},
		ScalerBadge:    lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"},
		CreatorBadge:   lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"},
		PipelineBadge:  lipgloss.AdaptiveColor{Light: "#36B37E", Dark: "#57D9A3"},
		FlagBadge:      lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		SearchBadge:    lipgloss.AdaptiveColor{Light: "#555555", Dark: "#F8F8F2"},
		NegatedBadgeBg: lipgloss.AdaptiveColor{Light: "#F8D7DA", Dark: "#3D1A1A"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		PaddingLeft(1).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.InputBox = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)

	t.Dropdown = r.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(t.Primary)

	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.KeyText = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.ErrorText = r.NewStyle().Foreground(t.Danger).Bold(true)
	t.InfoText = r.NewStyle().Foreground(t.Success)

	return t
}

// BadgeColor returns the foreground used for a filter badge of kind k.
func (t Theme) BadgeColor(k query.BadgeKind) lipgloss.AdaptiveColor {
	switch k {
	case query.BadgeGroup:
		return t.GroupBadge
	case query.BadgeScaler:
		return t.ScalerBadge
	case query.BadgeCreator:
		return t.CreatorBadge
	case query.BadgePipeline:
		return t.PipelineBadge
	case query.BadgeGenerator, query.BadgeUsed:
		return t.FlagBadge
	default:
		return t.SearchBadge
	}
}

// BadgeStyle renders one committed filter.
func (t Theme) BadgeStyle(b query.Badge) lipgloss.Style {
	s := t.Renderer.NewStyle().
		Foreground(t.BadgeColor(b.Kind)).
		Border(lipgloss.RoundedBorder(), false, true).
		BorderForeground(t.BadgeColor(b.Kind)).
		Padding(0, 1)
	if b.Negated || b.Value == "false" {
		s = s.Background(t.NegatedBadgeBg)
	}
	return s
}

// GetScalerIcon returns a one-letter marker for the scaler column.
func (t Theme) GetScalerIcon(s model.Scaler) (string, lipgloss.AdaptiveColor) {
	switch s {
	case model.ScalerK8s:
		return "K", t.ScalerBadge
	case model.ScalerBareMetal:
		return "B", t.CreatorBadge
	case model.ScalerWindows:
		return "W", t.GroupBadge
	case model.ScalerKVM:
		return "V", t.PipelineBadge
	case model.ScalerExternal:
		return "X", t.FlagBadge
	default:
		return "·", t.Subtext
	}
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
