package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/omnibar/internal/datasource"
	"github.com/vanderheijden86/omnibar/pkg/catalog"
	"github.com/vanderheijden86/omnibar/pkg/config"
	"github.com/vanderheijden86/omnibar/pkg/debug"
	"github.com/vanderheijden86/omnibar/pkg/model"
	"github.com/vanderheijden86/omnibar/pkg/ui"
	"github.com/vanderheijden86/omnibar/pkg/watcher"
)

func runTUI(opts options, cfg config.Config, stderr io.Writer) error {
	ctx := context.Background()

	images, results, err := loadCatalogs(ctx, cfg)
	if err != nil {
		if errors.Is(err, catalog.ErrNoSources) {
			return fmt.Errorf("%w; pass --catalog, set %s or add catalogs to %s",
				err, config.EnvCatalog, config.ConfigPath())
		}
		return err
	}
	for _, r := range results {
		if r.Error != nil {
			fmt.Fprintf(stderr, "Warning: skipping catalog %s: %v\n", r.Path, r.Error)
		}
	}

	uiOpts := ui.Options{
		User:           cfg.User,
		MaxSuggestions: cfg.UI.MaxSuggestions,
		BlurDelay:      time.Duration(cfg.UI.BlurDelayMs) * time.Millisecond,
		DefaultQuery:   cfg.UI.DefaultQuery,
		Reload: func(ctx context.Context) ([]model.Image, error) {
			images, _, err := loadCatalogs(ctx, cfg)
			return images, err
		},
	}
	if opts.query != "" {
		uiOpts.DefaultQuery = opts.query
	}

	// History is a convenience; the TUI works without it.
	if store, err := openHistory(cfg); err != nil {
		fmt.Fprintf(stderr, "Warning: query history disabled: %v\n", err)
	} else {
		defer store.Close()
		uiOpts.History = store
	}

	if cfg.WatchEnabled() {
		w, err := newCatalogWatcher(cfg.Catalogs)
		if err != nil {
			fmt.Fprintf(stderr, "Warning: live reload disabled: %v\n", err)
		} else {
			defer w.Stop()
			uiOpts.Watcher = w
		}
	}

	if err := runTUIProgram(ui.NewModel(images, uiOpts)); err != nil {
		return fmt.Errorf("running omnibar: %w", err)
	}
	return nil
}

// newCatalogWatcher watches the files behind the catalog paths. Directories
// resolve to the catalog file inside them.
func newCatalogWatcher(catalogs []string) (*watcher.Watcher, error) {
	var paths []string
	for _, p := range catalogs {
		source, err := datasource.DetectSource(p)
		if err != nil {
			debug.Log("watch: skipping %s: %v", p, err)
			continue
		}
		paths = append(paths, source.Path)
	}

	w, err := watcher.NewWatcher(paths,
		watcher.WithOnError(func(err error) { debug.Log("watch: %v", err) }),
	)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	debug.LogIf(w.IsPolling(), "watch: polling %v every %v (%s)", w.Paths(), w.PollInterval(), w.FilesystemType())
	return w, nil
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set OMNIBAR_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("OMNIBAR_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
