// Package ui implements the interactive omnibar: a filter input with
// badges and suggestions above the list of matching catalog images.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/omnibar/pkg/catalog"
	"github.com/vanderheijden86/omnibar/pkg/debug"
	"github.com/vanderheijden86/omnibar/pkg/history"
	"github.com/vanderheijden86/omnibar/pkg/metrics"
	"github.com/vanderheijden86/omnibar/pkg/model"
	"github.com/vanderheijden86/omnibar/pkg/query"
	"github.com/vanderheijden86/omnibar/pkg/watcher"
)

// historyCycleSize is how many history entries ctrl+r walks through.
const historyCycleSize = 50

// writeClipboard is swapped in tests.
var writeClipboard = clipboard.WriteAll

// HistoryStore is the part of the history database the UI needs.
type HistoryStore interface {
	Record(ctx context.Context, query string) error
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// ReloadFunc reloads every catalog.
type ReloadFunc func(ctx context.Context) ([]model.Image, error)

// CatalogChangedMsg is sent when a watched catalog file changes on disk
type CatalogChangedMsg struct{}

// CatalogLoadedMsg carries a reloaded catalog.
type CatalogLoadedMsg struct {
	Images []model.Image
	Err    error
}

// historyRecordedMsg reports the outcome of recording a committed query.
type historyRecordedMsg struct{ err error }

// Options configures a Model.
type Options struct {
	User           string
	MaxSuggestions int
	BlurDelay      time.Duration
	DefaultQuery   string
	History        HistoryStore
	Watcher        *watcher.Watcher
	Reload         ReloadFunc
}

// Model is the root bubbletea model.
type Model struct {
	omnibar OmnibarModel
	results ResultsModel

	images []model.Image
	user   string

	history        HistoryStore
	historyEntries []history.Entry
	historyIdx     int

	watcher *watcher.Watcher
	reload  ReloadFunc

	statusMsg     string
	statusIsError bool

	showHelp   bool
	helpView   string
	helpWidth  int
	width      int
	height     int
	theme      Theme
	quitting   bool
	lastFilter time.Duration
}

// NewModel builds the UI over images.
func NewModel(images []model.Image, opts Options) Model {
	theme := DefaultTheme(lipgloss.DefaultRenderer())
	suggester := query.Suggester{
		Known:       catalog.Known(images),
		CurrentUser: opts.User,
		Limit:       opts.MaxSuggestions,
	}

	m := Model{
		omnibar:    NewOmnibarModel(suggester, opts.BlurDelay, theme),
		results:    NewResultsModel(theme),
		images:     images,
		user:       opts.User,
		history:    opts.History,
		historyIdx: -1,
		watcher:    opts.Watcher,
		reload:     opts.Reload,
		theme:      theme,
		width:      100,
		height:     30,
	}
	if opts.DefaultQuery != "" {
		m.omnibar.SetCommitted(query.ParseQueryString(opts.DefaultQuery, opts.User))
	}
	m.layout()
	m.applyFilter()
	return m
}

// WatchCatalogCmd waits for the next catalog change.
func WatchCatalogCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return CatalogChangedMsg{}
	}
}

// ReloadCatalogCmd runs reload off the UI goroutine.
func ReloadCatalogCmd(reload ReloadFunc) tea.Cmd {
	return func() tea.Msg {
		images, err := reload(context.Background())
		return CatalogLoadedMsg{Images: images, Err: err}
	}
}

func recordHistoryCmd(store HistoryStore, q string) tea.Cmd {
	return func() tea.Msg {
		return historyRecordedMsg{err: store.Record(context.Background(), q)}
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.watcher != nil {
		cmds = append(cmds, WatchCatalogCmd(m.watcher))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		if m.showHelp {
			m.helpView = renderHelp(m.width)
			m.helpWidth = m.width
		}

	case blurTimeoutMsg:
		m.omnibar.HandleBlurTimeout(msg)

	case CatalogChangedMsg:
		if m.reload != nil {
			cmds = append(cmds, ReloadCatalogCmd(m.reload))
		}
		if m.watcher != nil {
			cmds = append(cmds, WatchCatalogCmd(m.watcher))
		}

	case CatalogLoadedMsg:
		if msg.Err != nil {
			m.setStatus(fmt.Sprintf("Catalog reload failed: %v", msg.Err), true)
			break
		}
		m.SetImages(msg.Images)
		m.setStatus(fmt.Sprintf("Catalog reloaded: %d images", len(msg.Images)), false)

	case historyRecordedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("History error: %v", msg.err), true)
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.showHelp {
		switch key {
		case "f1", "esc", "q", "?":
			m.showHelp = false
		}
		return m, nil
	}

	switch key {
	case "f1":
		m.showHelp = true
		if m.helpView == "" || m.helpWidth != m.width {
			m.helpView = renderHelp(m.width)
			m.helpWidth = m.width
		}
		return m, nil
	case "ctrl+y":
		m.copyQuery()
		return m, nil
	case "ctrl+r":
		m.cycleHistory()
		return m, nil
	}

	if !m.omnibar.Focused() {
		switch key {
		case "q":
			m.quitting = true
			return m, tea.Quit
		case "/", "i":
			return m, m.omnibar.Focus()
		case "enter", "tab":
			if ok, cmd := m.omnibar.ApplyPending(); ok {
				m.historyIdx = -1
				m.applyFilter()
				return m, cmd
			}
		case "up", "k":
			m.results.MoveUp()
		case "down", "j":
			m.results.MoveDown()
		case "left", "h":
			m.omnibar.MoveBadge(-1)
		case "right", "l":
			m.omnibar.MoveBadge(1)
		case "x", "delete":
			if m.omnibar.RemoveSelectedBadge() {
				m.historyIdx = -1
				m.applyFilter()
			}
		}
		return m, nil
	}

	// With the dropdown closed the arrows move through the results.
	if !m.omnibar.DropdownVisible() && m.omnibar.Value() == "" {
		switch key {
		case "up":
			m.results.MoveUp()
			return m, nil
		case "down":
			m.results.MoveDown()
			return m, nil
		}
	}

	event, cmd := m.omnibar.HandleKey(msg)
	cmds := []tea.Cmd{cmd}
	switch event {
	case OmnibarEdited, OmnibarRemoved:
		m.historyIdx = -1
		m.applyFilter()
	case OmnibarCommitted:
		m.historyIdx = -1
		m.applyFilter()
		q := query.FiltersToQueryString(m.omnibar.Committed())
		if m.history != nil && q != "" {
			cmds = append(cmds, recordHistoryCmd(m.history, q))
		}
		m.setStatus("", false)
	}
	return m, tea.Batch(cmds...)
}

// SetImages replaces the catalog and refreshes suggestions and results.
func (m *Model) SetImages(images []model.Image) {
	m.images = images
	m.omnibar.SetKnown(catalog.Known(images))
	m.applyFilter()
}

// Results returns the images currently listed.
func (m Model) Results() []model.Image {
	return m.results.images
}

// Omnibar exposes the input component.
func (m *Model) Omnibar() *OmnibarModel {
	return &m.omnibar
}

// Status returns the status banner text and whether it reports an error.
func (m Model) Status() (string, bool) {
	return m.statusMsg, m.statusIsError
}

func (m *Model) setStatus(s string, isErr bool) {
	m.statusMsg = s
	m.statusIsError = isErr
}

func (m *Model) applyFilter() {
	start := time.Now()
	m.results.SetImages(query.Filter(m.omnibar.LiveState(), m.images))
	m.lastFilter = time.Since(start)
	debug.LogTiming("ui.applyFilter", m.lastFilter)
}

func (m *Model) copyQuery() {
	q := m.omnibar.Query()
	if q == "" {
		m.setStatus("Nothing to copy", false)
		return
	}
	if err := writeClipboard(q); err != nil {
		m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
		return
	}
	m.setStatus(fmt.Sprintf("Copied %q", q), false)
}

// cycleHistory loads the next older history entry into the input.
func (m *Model) cycleHistory() {
	if m.history == nil {
		m.setStatus("History is disabled", true)
		return
	}
	if m.historyIdx < 0 {
		entries, err := m.history.Recent(context.Background(), historyCycleSize)
		if err != nil {
			m.setStatus(fmt.Sprintf("History error: %v", err), true)
			return
		}
		m.historyEntries = entries
	}
	if len(m.historyEntries) == 0 {
		m.setStatus("History is empty", false)
		return
	}
	m.historyIdx = (m.historyIdx + 1) % len(m.historyEntries)
	entry := m.historyEntries[m.historyIdx]
	m.omnibar.SetCommitted(query.FilterState{})
	m.omnibar.SetValue(entry.Query)
	m.applyFilter()
	m.setStatus(fmt.Sprintf("History %d/%d", m.historyIdx+1, len(m.historyEntries)), false)
}

func (m *Model) layout() {
	m.omnibar.SetWidth(m.width)
	// header, input box (3), status line, spacing
	m.results.SetSize(m.width, max(3, m.height-7))
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	defer metrics.Timer(metrics.UIRender)()

	if m.showHelp {
		return m.helpView
	}

	header := m.theme.Header.Render("omnibar") + " " +
		m.theme.MutedText.Render(fmt.Sprintf("%d/%d images", m.results.Len(), len(m.images)))

	parts := []string{header, m.omnibar.View(), m.results.View()}

	status := m.statusMsg
	if status == "" {
		status = "F1 help · Tab complete · Enter commit · Backspace remove filter · Esc leave input"
		parts = append(parts, m.theme.MutedText.Render(status))
	} else if m.statusIsError {
		parts = append(parts, m.theme.ErrorText.Render(status))
	} else {
		parts = append(parts, m.theme.InfoText.Render(status))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
