package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/omnibar/pkg/query"
)

// OmnibarEvent reports what a key press did to the omnibar.
type OmnibarEvent int

const (
	OmnibarNone      OmnibarEvent = iota
	OmnibarEdited                 // input text changed
	OmnibarCommitted              // input merged into the committed filters
	OmnibarRemoved                // a committed filter was removed
	OmnibarBlurred                // input lost focus
)

// blurTimeoutMsg hides the dropdown once the blur delay has passed. seq
// discards timeouts from an earlier blur.
type blurTimeoutMsg struct{ seq int }

// OmnibarModel is the filter input: committed filters shown as badges, the
// text being typed, and the suggestion dropdown.
type OmnibarModel struct {
	input     textinput.Model
	committed query.FilterState
	suggester query.Suggester

	suggestions  []query.Suggestion
	selected     int
	dropdownOpen bool

	focused   bool
	blurDelay time.Duration
	blurSeq   int
	badgeIdx  int // highlighted badge while blurred, -1 for none

	width int
	theme Theme
}

// NewOmnibarModel creates a focused omnibar.
func NewOmnibarModel(suggester query.Suggester, blurDelay time.Duration, theme Theme) OmnibarModel {
	ti := textinput.New()
	ti.Placeholder = "filter images… (group:, scaler:, creator:, pipeline:, is:, generator:)"
	ti.Prompt = "› "
	ti.CharLimit = 512
	ti.Focus()

	return OmnibarModel{
		input:     ti,
		suggester: suggester,
		focused:   true,
		blurDelay: blurDelay,
		badgeIdx:  -1,
		theme:     theme,
	}
}

// SetWidth updates the render width.
func (o *OmnibarModel) SetWidth(w int) {
	o.width = w
	o.input.Width = max(10, w-8)
}

// SetKnown replaces the values offered for list keys.
func (o *OmnibarModel) SetKnown(known query.KnownValues) {
	o.suggester.Known = known
	o.refreshSuggestions()
}

// Committed returns the committed filters.
func (o *OmnibarModel) Committed() query.FilterState {
	return o.committed
}

// SetCommitted replaces the committed filters and clears the input.
func (o *OmnibarModel) SetCommitted(f query.FilterState) {
	o.committed = f.Clone()
	o.badgeIdx = -1
	o.input.SetValue("")
	o.closeDropdown()
}

// Value returns the text being typed.
func (o *OmnibarModel) Value() string {
	return o.input.Value()
}

// Cursor returns the cursor as a rune offset into Value.
func (o *OmnibarModel) Cursor() int {
	return o.input.Position()
}

// SetValue replaces the input text and moves the cursor to its end.
func (o *OmnibarModel) SetValue(s string) {
	o.input.SetValue(s)
	o.input.CursorEnd()
	o.closeDropdown()
}

// LiveState is the committed filters merged with the parsed input.
func (o *OmnibarModel) LiveState() query.FilterState {
	typed := query.ParseQueryString(o.input.Value(), o.suggester.CurrentUser)
	return o.committed.Merge(typed)
}

// Query is the canonical query string of LiveState.
func (o *OmnibarModel) Query() string {
	return query.FiltersToQueryString(o.LiveState())
}

// Focused reports whether the input receives keys.
func (o *OmnibarModel) Focused() bool {
	return o.focused
}

// Focus gives the input focus back.
func (o *OmnibarModel) Focus() tea.Cmd {
	o.focused = true
	o.blurSeq++
	o.badgeIdx = -1
	return o.input.Focus()
}

// DropdownVisible reports whether suggestions are shown.
func (o *OmnibarModel) DropdownVisible() bool {
	return o.dropdownOpen && len(o.suggestions) > 0
}

// Suggestions returns the current dropdown entries.
func (o *OmnibarModel) Suggestions() []query.Suggestion {
	return o.suggestions
}

// SelectedSuggestion returns the highlighted dropdown entry.
func (o *OmnibarModel) SelectedSuggestion() (query.Suggestion, bool) {
	if !o.DropdownVisible() || o.selected >= len(o.suggestions) {
		return query.Suggestion{}, false
	}
	return o.suggestions[o.selected], true
}

func (o *OmnibarModel) refreshSuggestions() {
	o.suggestions = o.suggester.Suggest(o.input.Value(), o.input.Position())
	if o.selected >= len(o.suggestions) {
		o.selected = 0
	}
}

func (o *OmnibarModel) openDropdown() {
	o.dropdownOpen = true
	o.selected = 0
	o.refreshSuggestions()
}

func (o *OmnibarModel) closeDropdown() {
	o.dropdownOpen = false
	o.selected = 0
	o.suggestions = nil
}

func (o *OmnibarModel) applySelected() {
	sug, ok := o.SelectedSuggestion()
	if !ok {
		return
	}
	applied := query.Apply(o.input.Value(), o.input.Position(), sug)
	o.input.SetValue(applied.Input)
	o.input.SetCursor(applied.Cursor)
	if applied.KeepOpen {
		o.openDropdown()
	} else {
		o.closeDropdown()
	}
}

// commit merges the typed filters into the committed ones. Returns false
// when there was nothing to commit.
func (o *OmnibarModel) commit() bool {
	if strings.TrimSpace(o.input.Value()) == "" {
		return false
	}
	o.committed = o.LiveState()
	o.input.SetValue("")
	o.closeDropdown()
	return true
}

func (o *OmnibarModel) blur() tea.Cmd {
	o.focused = false
	o.input.Blur()
	o.blurSeq++
	if o.blurDelay <= 0 {
		o.closeDropdown()
		return nil
	}
	seq := o.blurSeq
	return tea.Tick(o.blurDelay, func(time.Time) tea.Msg {
		return blurTimeoutMsg{seq: seq}
	})
}

// HandleBlurTimeout hides the dropdown if the input is still blurred.
func (o *OmnibarModel) HandleBlurTimeout(msg blurTimeoutMsg) {
	if msg.seq == o.blurSeq && !o.focused {
		o.closeDropdown()
	}
}

// ApplyPending applies the highlighted suggestion while the dropdown is
// still shown after a blur and gives the input focus back. It reports
// whether anything was applied.
func (o *OmnibarModel) ApplyPending() (bool, tea.Cmd) {
	if o.focused || !o.DropdownVisible() {
		return false, nil
	}
	o.applySelected()
	return true, o.Focus()
}

// HandleKey processes a key while the omnibar is focused.
func (o *OmnibarModel) HandleKey(msg tea.KeyMsg) (OmnibarEvent, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return OmnibarBlurred, o.blur()

	case "up", "ctrl+p":
		if o.DropdownVisible() && o.selected > 0 {
			o.selected--
		}
		return OmnibarNone, nil

	case "down", "ctrl+n":
		if !o.dropdownOpen {
			o.openDropdown()
		} else if o.selected < len(o.suggestions)-1 {
			o.selected++
		}
		return OmnibarNone, nil

	case "tab":
		if o.DropdownVisible() {
			o.applySelected()
			return OmnibarEdited, nil
		}
		o.openDropdown()
		return OmnibarNone, nil

	case "enter":
		if o.DropdownVisible() {
			o.applySelected()
			return OmnibarEdited, nil
		}
		if o.commit() {
			return OmnibarCommitted, nil
		}
		return OmnibarNone, nil

	case "backspace":
		if o.input.Value() == "" {
			f, ok := query.RemoveLast(o.committed)
			if !ok {
				return OmnibarNone, nil
			}
			o.committed = f
			return OmnibarRemoved, nil
		}
	}

	before := o.input.Value()
	beforePos := o.input.Position()
	var cmd tea.Cmd
	o.input, cmd = o.input.Update(msg)

	if o.input.Value() == before {
		if o.input.Position() != beforePos && o.dropdownOpen {
			o.refreshSuggestions()
		}
		return OmnibarNone, cmd
	}

	// A space ends the token; anything else keeps completing it.
	if msg.Type == tea.KeySpace || (msg.Type == tea.KeyRunes && string(msg.Runes) == " ") {
		o.closeDropdown()
	} else {
		o.openDropdown()
	}
	return OmnibarEdited, cmd
}

// SelectedBadge returns the highlighted badge.
func (o *OmnibarModel) SelectedBadge() (query.Badge, bool) {
	badges := o.committed.Badges()
	if o.badgeIdx < 0 || o.badgeIdx >= len(badges) {
		return query.Badge{}, false
	}
	return badges[o.badgeIdx], true
}

// MoveBadge moves the badge highlight by delta. The first move from no
// highlight lands on the last badge.
func (o *OmnibarModel) MoveBadge(delta int) {
	n := len(o.committed.Badges())
	if n == 0 {
		o.badgeIdx = -1
		return
	}
	if o.badgeIdx < 0 {
		o.badgeIdx = n - 1
		return
	}
	o.badgeIdx = min(max(o.badgeIdx+delta, 0), n-1)
}

// RemoveSelectedBadge drops the highlighted committed filter and keeps the
// highlight on a neighbouring badge.
func (o *OmnibarModel) RemoveSelectedBadge() bool {
	b, ok := o.SelectedBadge()
	if !ok {
		return false
	}
	o.committed = o.committed.RemoveBadge(b)
	if n := len(o.committed.Badges()); o.badgeIdx >= n {
		o.badgeIdx = n - 1
	}
	return true
}

// View renders the badges, the input and, when visible, the dropdown.
func (o OmnibarModel) View() string {
	var badges []string
	for i, b := range o.committed.Badges() {
		style := o.theme.BadgeStyle(b)
		if i == o.badgeIdx && !o.focused {
			style = style.Reverse(true)
		}
		badges = append(badges, style.Render(b.Label))
	}

	// The input takes whatever the badges leave of the box.
	input := o.input
	var line string
	if len(badges) > 0 {
		row := lipgloss.JoinHorizontal(lipgloss.Center, badges...)
		if o.width > 0 {
			input.Width = max(10, o.width-9-lipgloss.Width(row))
		}
		line = lipgloss.JoinHorizontal(lipgloss.Center, row, " ", input.View())
	} else {
		line = input.View()
	}

	box := o.theme.InputBox
	if o.focused {
		box = box.BorderForeground(o.theme.Primary)
	}
	if o.width > 0 {
		box = box.Width(max(10, o.width-2))
	}
	out := box.Render(line)

	if o.DropdownVisible() {
		out = lipgloss.JoinVertical(lipgloss.Left, out, o.dropdownView())
	}
	return out
}

func (o OmnibarModel) dropdownView() string {
	width := 0
	for _, s := range o.suggestions {
		width = max(width, lipgloss.Width(s.Display))
	}
	width = max(width+4, 20)
	if o.width > 0 {
		width = min(width, o.width-4)
	}

	var rows []string
	for i, s := range o.suggestions {
		label := truncate(s.Display, width-4)
		kind := o.theme.MutedText.Render(string(s.Type))
		row := padRight(label, width-4) + " " + kind
		if i == o.selected {
			row = o.theme.Selected.Render(row)
		} else {
			row = " " + o.theme.Base.Render(row)
		}
		rows = append(rows, row)
	}
	return o.theme.Dropdown.Render(strings.Join(rows, "\n"))
}
