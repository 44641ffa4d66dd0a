package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/omnibar/pkg/history"
	"github.com/vanderheijden86/omnibar/pkg/model"
)

func testImages() []model.Image {
	return []model.Image{
		{Name: "clamav", Group: "scanners", Scaler: model.ScalerK8s, Creator: "alice", UsedBy: []string{"triage"}, Description: "Antivirus scan"},
		{Name: "unpacker", Group: "scanners", Scaler: model.ScalerK8s, Creator: "bob", Generator: true, UsedBy: []string{"unpack"}},
		{Name: "pe-parse", Group: "parsers", Scaler: model.ScalerWindows, Creator: "Jane Doe"},
		{Name: "strings", Group: "parsers", Scaler: model.ScalerBareMetal, Creator: "alice", UsedBy: []string{"legacy"}},
	}
}

func keyRunes(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

// send feeds msg to m and returns the updated model.
func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out, cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m, _ = send(t, m, keyRunes(string(r)))
	}
	return m
}

// collect runs cmd and every command it batches, returning the messages
// produced within a short timeout. Blink timers are dropped.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(100 * time.Millisecond):
		return nil
	}

	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func resultNames(m Model) []string {
	var out []string
	for _, img := range m.Results() {
		out = append(out, img.Name)
	}
	return out
}

type fakeHistory struct {
	recorded []string
	entries  []history.Entry
	err      error
}

func (f *fakeHistory) Record(_ context.Context, q string) error {
	f.recorded = append(f.recorded, q)
	return f.err
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]history.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func TestNewModelShowsAllImages(t *testing.T) {
	m := NewModel(testImages(), Options{})
	if got := len(m.Results()); got != 4 {
		t.Fatalf("Expected 4 results, got %d", got)
	}
	if !strings.Contains(m.View(), "4/4 images") {
		t.Errorf("Expected header count in view:\n%s", m.View())
	}
}

func TestDefaultQueryIsCommitted(t *testing.T) {
	m := NewModel(testImages(), Options{DefaultQuery: "group:parsers"})
	names := resultNames(m)
	if len(names) != 2 || names[0] != "pe-parse" {
		t.Errorf("Expected parsers only, got %v", names)
	}
	if m.Omnibar().Value() != "" {
		t.Errorf("Default query should be committed, input is %q", m.Omnibar().Value())
	}
}

func TestLiveFilteringWhileTyping(t *testing.T) {
	m := NewModel(testImages(), Options{})
	m = typeText(t, m, "scaler:windows")

	names := resultNames(m)
	if len(names) != 1 || names[0] != "pe-parse" {
		t.Errorf("Expected live results [pe-parse], got %v", names)
	}
	if len(m.Omnibar().Committed().Scalers) != 0 {
		t.Error("Typing must not commit")
	}
}

func TestCompleteAndCommitFlow(t *testing.T) {
	store := &fakeHistory{}
	m := NewModel(testImages(), Options{History: store})

	m = typeText(t, m, "g")
	o := m.Omnibar()
	if !o.DropdownVisible() {
		t.Fatal("Expected dropdown after typing")
	}
	if sug, _ := o.SelectedSuggestion(); sug.Value != "group:" {
		t.Fatalf("Expected group: to be suggested first, got %+v", sug)
	}

	m, _ = send(t, m, key(tea.KeyTab))
	o = m.Omnibar()
	if o.Value() != "group:" || o.Cursor() != 6 {
		t.Fatalf("After Tab: value %q cursor %d", o.Value(), o.Cursor())
	}
	if !o.DropdownVisible() {
		t.Fatal("Key completion should keep the dropdown open")
	}
	if sug, _ := o.SelectedSuggestion(); sug.Value != "group:parsers" {
		t.Fatalf("Expected group:parsers first, got %+v", sug)
	}

	m, _ = send(t, m, key(tea.KeyEnter))
	o = m.Omnibar()
	if o.Value() != "group:parsers " {
		t.Fatalf("After Enter on dropdown: %q", o.Value())
	}
	if o.DropdownVisible() {
		t.Fatal("Value completion should close the dropdown")
	}

	var cmd tea.Cmd
	m, cmd = send(t, m, key(tea.KeyEnter))
	o = m.Omnibar()
	if o.Value() != "" {
		t.Errorf("Commit should clear the input, got %q", o.Value())
	}
	if got := o.Committed().Groups; len(got) != 1 || got[0] != "parsers" {
		t.Errorf("Committed groups = %v", got)
	}

	collect(cmd)
	if len(store.recorded) != 1 || store.recorded[0] != "group:parsers" {
		t.Errorf("Expected canonical query to be recorded, got %v", store.recorded)
	}
	if len(resultNames(m)) != 2 {
		t.Errorf("Expected 2 results after commit, got %v", resultNames(m))
	}
}

func TestCommitMergesIntoExistingFilters(t *testing.T) {
	m := NewModel(testImages(), Options{DefaultQuery: "group:scanners"})
	m = typeText(t, m, "is:generator")
	// close the dropdown the last keystroke opened
	m = typeText(t, m, " ")
	m, _ = send(t, m, key(tea.KeyEnter))

	f := m.Omnibar().Committed()
	if len(f.Groups) != 1 || f.Generator.String() != "true" {
		t.Errorf("Expected merged state, got %+v", f)
	}
	names := resultNames(m)
	if len(names) != 1 || names[0] != "unpacker" {
		t.Errorf("Expected [unpacker], got %v", names)
	}
}

func TestBackspaceOnEmptyInputRemovesLastFilter(t *testing.T) {
	m := NewModel(testImages(), Options{DefaultQuery: "group:scanners is:used"})

	m, _ = send(t, m, key(tea.KeyBackspace))
	f := m.Omnibar().Committed()
	if f.Used.String() != "unset" || len(f.Groups) != 1 {
		t.Errorf("Expected is:used to be removed first, got %+v", f)
	}

	m, _ = send(t, m, key(tea.KeyBackspace))
	if !m.Omnibar().Committed().IsEmpty() {
		t.Errorf("Expected empty state, got %+v", m.Omnibar().Committed())
	}

	// Nothing left: still a no-op.
	m, _ = send(t, m, key(tea.KeyBackspace))
	if len(m.Results()) != 4 {
		t.Errorf("Expected all images, got %v", resultNames(m))
	}
}

func TestBackspaceWithTextEditsInput(t *testing.T) {
	m := NewModel(testImages(), Options{DefaultQuery: "group:scanners"})
	m = typeText(t, m, "ab")
	m, _ = send(t, m, key(tea.KeyBackspace))

	if m.Omnibar().Value() != "a" {
		t.Errorf("Expected input a, got %q", m.Omnibar().Value())
	}
	if len(m.Omnibar().Committed().Groups) != 1 {
		t.Error("Backspace with text must not remove committed filters")
	}
}

func TestSpaceClosesDropdown(t *testing.T) {
	m := NewModel(testImages(), Options{})
	m = typeText(t, m, "is")
	if !m.Omnibar().DropdownVisible() {
		t.Fatal("Expected dropdown while typing a key")
	}
	m = typeText(t, m, " ")
	if m.Omnibar().DropdownVisible() {
		t.Error("Space should close the dropdown")
	}

	m, _ = send(t, m, key(tea.KeyDown))
	if !m.Omnibar().DropdownVisible() {
		t.Error("Down should reopen the dropdown with every key")
	}
	if n := len(m.Omnibar().Suggestions()); n != 6 {
		t.Errorf("Expected 6 key suggestions for an empty token, got %d", n)
	}
}

func TestDropdownNavigation(t *testing.T) {
	m := NewModel(testImages(), Options{})
	m = typeText(t, m, "creator:")

	m, _ = send(t, m, key(tea.KeyDown))
	sug, _ := m.Omnibar().SelectedSuggestion()
	if sug.Value != "creator:bob" {
		t.Fatalf("Expected second suggestion creator:bob, got %+v", sug)
	}
	m, _ = send(t, m, key(tea.KeyDown))
	m, _ = send(t, m, key(tea.KeyDown))
	sug, _ = m.Omnibar().SelectedSuggestion()
	if sug.Value != `creator:"Jane Doe"` {
		t.Fatalf("Expected selection to stop at the last suggestion, got %+v", sug)
	}
	m, _ = send(t, m, key(tea.KeyUp))
	m, _ = send(t, m, key(tea.KeyUp))
	m, _ = send(t, m, key(tea.KeyUp))
	sug, _ = m.Omnibar().SelectedSuggestion()
	if sug.Value != "creator:alice" {
		t.Fatalf("Expected selection to stop at the first suggestion, got %+v", sug)
	}

	m, _ = send(t, m, key(tea.KeyDown))
	m, _ = send(t, m, key(tea.KeyDown))
	m, _ = send(t, m, key(tea.KeyTab))
	if got := m.Omnibar().Value(); got != `creator:"Jane Doe" ` {
		t.Errorf("Expected quoted completion, got %q", got)
	}
}

func TestEscBlursAndHidesDropdownAfterDelay(t *testing.T) {
	m := NewModel(testImages(), Options{BlurDelay: 150 * time.Millisecond})
	m = typeText(t, m, "g")

	m, cmd := send(t, m, key(tea.KeyEsc))
	if m.Omnibar().Focused() {
		t.Fatal("Esc should blur the input")
	}
	if !m.Omnibar().DropdownVisible() {
		t.Fatal("Dropdown should stay visible during the blur delay")
	}
	if cmd == nil {
		t.Fatal("Expected a blur timeout command")
	}

	stale := blurTimeoutMsg{seq: m.omnibar.blurSeq - 1}
	m, _ = send(t, m, stale)
	if !m.Omnibar().DropdownVisible() {
		t.Error("Stale timeout must not hide the dropdown")
	}

	m, _ = send(t, m, blurTimeoutMsg{seq: m.omnibar.blurSeq})
	if m.Omnibar().DropdownVisible() {
		t.Error("Dropdown should hide after the blur delay")
	}
}

func TestEscWithoutDelayClosesImmediately(t *testing.T) {
	m := NewModel(testImages(), Options{})
	m = typeText(t, m, "g")
	m, _ = send(t, m, key(tea.KeyEsc))
	if m.Omnibar().DropdownVisible() {
		t.Error("Dropdown should close at once without a blur delay")
	}
}

func TestRefocusAfterTimeoutKeepsDropdown(t *testing.T) {
	m := NewModel(testImages(), Options{BlurDelay: time.Second})
	m = typeText(t, m, "g")
	m, _ = send(t, m, key(tea.KeyEsc))
	seq := m.omnibar.blurSeq

	m, _ = send(t, m, keyRunes("/"))
	if !m.Omnibar().Focused() {
		t.Fatal("/ should focus the input")
	}
	m, _ = send(t, m, blurTimeoutMsg{seq: seq})
	if !m.Omnibar().DropdownVisible() {
		t.Error("A timeout from before refocusing must not hide the dropdown")
	}
}

func TestEnterDuringBlurDelayAppliesSuggestion(t *testing.T) {
	m := NewModel(testImages(), Options{BlurDelay: time.Second})
	m = typeText(t, m, "group:p")
	m, _ = send(t, m, key(tea.KeyEsc))
	seq := m.omnibar.blurSeq

	m, _ = send(t, m, key(tea.KeyEnter))
	if got := m.Omnibar().Value(); got != "group:parsers " {
		t.Fatalf("Expected the pending suggestion to be applied, got %q", got)
	}
	if !m.Omnibar().Focused() {
		t.Error("Applying a pending suggestion should refocus the input")
	}
	if len(m.Results()) != 2 {
		t.Errorf("Expected 2 parsers, got %d results", len(m.Results()))
	}

	m, _ = send(t, m, blurTimeoutMsg{seq: seq})
	if !m.Omnibar().Focused() {
		t.Error("A stale blur timeout must not affect the refocused input")
	}
}

func TestEnterAfterBlurDelayIsIgnored(t *testing.T) {
	m := NewModel(testImages(), Options{BlurDelay: time.Second})
	m = typeText(t, m, "group:p")
	m, _ = send(t, m, key(tea.KeyEsc))
	m, _ = send(t, m, blurTimeoutMsg{seq: m.omnibar.blurSeq})

	m, _ = send(t, m, key(tea.KeyEnter))
	if m.Omnibar().Focused() {
		t.Error("Enter without a visible dropdown should keep the input blurred")
	}
	if got := m.Omnibar().Value(); got != "group:p" {
		t.Errorf("Expected the input to stay %q, got %q", "group:p", got)
	}
}

func TestBlurredKeys(t *testing.T) {
	m := NewModel(testImages(), Options{})
	m, _ = send(t, m, key(tea.KeyEsc))

	m, _ = send(t, m, keyRunes("j"))
	if sel, _ := m.results.Selected(); sel.Name != "unpacker" {
		t.Errorf("j should move down, selected %q", sel.Name)
	}
	m, _ = send(t, m, keyRunes("k"))
	if sel, _ := m.results.Selected(); sel.Name != "clamav" {
		t.Errorf("k should move up, selected %q", sel.Name)
	}
	if m.Omnibar().Value() != "" {
		t.Errorf("Blurred keys must not reach the input, got %q", m.Omnibar().Value())
	}

	_, cmd := send(t, m, keyRunes("q"))
	if cmd == nil {
		t.Fatal("q should quit when blurred")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestCopyQuery(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { writeClipboard = orig })

	m := NewModel(testImages(), Options{DefaultQuery: "group:scanners"})
	m = typeText(t, m, "clam")
	m, _ = send(t, m, key(tea.KeyCtrlY))

	if copied != `group:scanners clam` {
		t.Errorf("Copied %q", copied)
	}
	if msg, isErr := m.Status(); isErr || !strings.Contains(msg, "Copied") {
		t.Errorf("Unexpected status %q (error=%v)", msg, isErr)
	}

	writeClipboard = func(string) error { return errors.New("no clipboard") }
	m, _ = send(t, m, key(tea.KeyCtrlY))
	if _, isErr := m.Status(); !isErr {
		t.Error("Expected clipboard failure in status")
	}
}

func TestHistoryCycling(t *testing.T) {
	store := &fakeHistory{entries: []history.Entry{
		{Query: "group:parsers"},
		{Query: "is:generator"},
	}}
	m := NewModel(testImages(), Options{History: store, DefaultQuery: "scaler:k8s"})

	m, _ = send(t, m, key(tea.KeyCtrlR))
	if m.Omnibar().Value() != "group:parsers" {
		t.Fatalf("Expected newest entry, got %q", m.Omnibar().Value())
	}
	if !m.Omnibar().Committed().IsEmpty() {
		t.Error("Loading history should replace the committed filters")
	}
	if len(resultNames(m)) != 2 {
		t.Errorf("Expected results for the loaded query, got %v", resultNames(m))
	}

	m, _ = send(t, m, key(tea.KeyCtrlR))
	if m.Omnibar().Value() != "is:generator" {
		t.Errorf("Expected second entry, got %q", m.Omnibar().Value())
	}
	m, _ = send(t, m, key(tea.KeyCtrlR))
	if m.Omnibar().Value() != "group:parsers" {
		t.Errorf("Expected history to wrap, got %q", m.Omnibar().Value())
	}
}

func TestHistoryDisabledAndFailing(t *testing.T) {
	m := NewModel(testImages(), Options{})
	m, _ = send(t, m, key(tea.KeyCtrlR))
	if _, isErr := m.Status(); !isErr {
		t.Error("Expected an error status without a history store")
	}

	m = NewModel(testImages(), Options{History: &fakeHistory{err: errors.New("locked")}})
	m, _ = send(t, m, key(tea.KeyCtrlR))
	if msg, isErr := m.Status(); !isErr || !strings.Contains(msg, "locked") {
		t.Errorf("Unexpected status %q", msg)
	}

	m, _ = send(t, m, historyRecordedMsg{err: errors.New("disk full")})
	if msg, _ := m.Status(); !strings.Contains(msg, "disk full") {
		t.Errorf("Expected record failure in status, got %q", msg)
	}
}

func TestCatalogReload(t *testing.T) {
	reloaded := append(testImages(), model.Image{Name: "yara", Group: "rules", Scaler: model.ScalerKVM})
	m := NewModel(testImages(), Options{
		Reload: func(context.Context) ([]model.Image, error) { return reloaded, nil },
	})

	m, cmd := send(t, m, CatalogChangedMsg{})
	msgs := collect(cmd)
	if len(msgs) != 1 {
		t.Fatalf("Expected one reload message, got %v", msgs)
	}
	m, _ = send(t, m, msgs[0])

	if len(m.Results()) != 5 {
		t.Errorf("Expected 5 images after reload, got %d", len(m.Results()))
	}
	m = typeText(t, m, "group:ru")
	sug, ok := m.Omnibar().SelectedSuggestion()
	if !ok || sug.Value != "group:rules" {
		t.Errorf("Expected known values to refresh, got %+v", sug)
	}
}

func TestCatalogReloadError(t *testing.T) {
	m := NewModel(testImages(), Options{})
	m, _ = send(t, m, CatalogLoadedMsg{Err: errors.New("parse failed")})
	if msg, isErr := m.Status(); !isErr || !strings.Contains(msg, "parse failed") {
		t.Errorf("Unexpected status %q", msg)
	}
	if len(m.Results()) != 4 {
		t.Error("A failed reload must keep the previous catalog")
	}
}

func TestHelpToggle(t *testing.T) {
	m := NewModel(testImages(), Options{})
	m, _ = send(t, m, key(tea.KeyF1))
	if !m.showHelp || !strings.Contains(m.View(), "Omnibar") {
		t.Fatalf("Expected help view, got:\n%s", m.View())
	}

	m, _ = send(t, m, keyRunes("x"))
	if !m.showHelp || m.Omnibar().Value() != "" {
		t.Error("Keys other than close keys are swallowed by the help view")
	}

	m, _ = send(t, m, key(tea.KeyEsc))
	if m.showHelp {
		t.Error("Esc should close help")
	}
	if !m.Omnibar().Focused() {
		t.Error("Closing help must not blur the input")
	}
}

func TestWindowResize(t *testing.T) {
	m := NewModel(testImages(), Options{})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 60, Height: 12})
	if m.results.height != 5 || m.results.width != 60 {
		t.Errorf("Unexpected results size %dx%d", m.results.width, m.results.height)
	}
}

func TestCtrlCQuits(t *testing.T) {
	m := NewModel(testImages(), Options{})
	m, cmd := send(t, m, key(tea.KeyCtrlC))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if m.View() != "" {
		t.Error("Expected empty view after quitting")
	}
}

func TestBlurredBadgeRemoval(t *testing.T) {
	m := NewModel(testImages(), Options{DefaultQuery: "group:scanners scaler:k8s is:used"})
	m, _ = send(t, m, key(tea.KeyEsc))

	if _, ok := m.Omnibar().SelectedBadge(); ok {
		t.Fatal("No badge should be highlighted before moving")
	}
	m, _ = send(t, m, keyRunes("h"))
	if b, _ := m.Omnibar().SelectedBadge(); b.Label != "is:used" {
		t.Fatalf("First move should land on the last badge, got %q", b.Label)
	}
	m, _ = send(t, m, keyRunes("h"))
	m, _ = send(t, m, keyRunes("x"))

	f := m.Omnibar().Committed()
	if len(f.Scalers) != 0 || len(f.Groups) != 1 || f.Used.String() != "true" {
		t.Errorf("Expected scaler:k8s to be removed, got %+v", f)
	}
	if b, _ := m.Omnibar().SelectedBadge(); b.Label != "is:used" {
		t.Errorf("Expected highlight to move to the next badge, got %q", b.Label)
	}
	if len(m.Results()) != 2 {
		t.Errorf("Expected results to refresh, got %v", resultNames(m))
	}

	m, _ = send(t, m, keyRunes("x"))
	m, _ = send(t, m, keyRunes("l"))
	if b, _ := m.Omnibar().SelectedBadge(); b.Label != "group:scanners" {
		t.Errorf("Expected highlight clamped to the remaining badge, got %q", b.Label)
	}

	m, _ = send(t, m, keyRunes("i"))
	if _, ok := m.Omnibar().SelectedBadge(); ok {
		t.Error("Focusing the input should clear the badge highlight")
	}
}
