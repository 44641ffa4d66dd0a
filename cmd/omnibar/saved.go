package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/omnibar/pkg/config"
	"github.com/vanderheijden86/omnibar/pkg/history"
	"github.com/vanderheijden86/omnibar/pkg/query"
)

// isTerminal checks if stdin is connected to a terminal. Swapped in tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// promptName asks for the name to save q under. Swapped in tests.
var promptName = func(q string) (string, error) {
	var name string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Save query").
				Description(q).
				Placeholder("name").
				Value(&name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return history.ErrEmptyName
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(name), nil
}

type robotSaved struct {
	Name      string `json:"name"`
	Query     string `json:"query"`
	UpdatedAt string `json:"updated_at"`
}

type robotHistoryEntry struct {
	Query  string `json:"query"`
	UsedAt string `json:"used_at"`
}

func openHistory(cfg config.Config) (*history.Store, error) {
	path := cfg.ResolvedHistoryPath()
	if path == "" {
		return nil, errors.New("cannot determine history location; set history_path in the config")
	}
	return history.Open(path)
}

func runSave(opts options, cfg config.Config, w io.Writer) error {
	canonical := query.FiltersToQueryString(query.ParseQueryString(opts.query, cfg.User))
	if canonical == "" {
		return usageError("--save needs a non-empty --query")
	}

	name := strings.TrimSpace(opts.name)
	if name == "" {
		if !isTerminal() {
			return usageError("--save needs --name when stdin is not a terminal")
		}
		var err error
		if name, err = promptName(canonical); err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
	}

	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(context.Background(), name, canonical); err != nil {
		return err
	}
	fmt.Fprintf(w, "Saved %q as %s\n", canonical, name)
	return nil
}

func runListSaved(cfg config.Config, w io.Writer) error {
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	saved, err := store.List(context.Background())
	if err != nil {
		return err
	}
	out := make([]robotSaved, 0, len(saved))
	for _, s := range saved {
		out = append(out, robotSaved{Name: s.Name, Query: s.Query, UpdatedAt: s.UpdatedAt.UTC().Format(time.RFC3339)})
	}
	return writeJSON(w, out)
}

func runDelete(name string, cfg config.Config, w io.Writer) error {
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(context.Background(), name); err != nil {
		return err
	}
	fmt.Fprintf(w, "Deleted %s\n", name)
	return nil
}

func runHistory(opts options, cfg config.Config, w io.Writer) error {
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(context.Background(), opts.limit)
	if err != nil {
		return err
	}
	out := make([]robotHistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, robotHistoryEntry{Query: e.Query, UsedAt: e.UsedAt.UTC().Format(time.RFC3339)})
	}
	return writeJSON(w, out)
}

func lookupSaved(cfg config.Config, name string) (string, error) {
	store, err := openHistory(cfg)
	if err != nil {
		return "", err
	}
	defer store.Close()

	saved, err := store.Lookup(context.Background(), name)
	if err != nil {
		return "", err
	}
	return saved.Query, nil
}
