package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# Omnibar

Type filters and free text. Filters are ` + "`key:value`" + ` tokens; a leading
` + "`-`" + ` negates one. Quote values with spaces: ` + "`creator:\"Jane Doe\"`" + `.

| Filter | Meaning |
|---|---|
| ` + "`group:NAME`" + ` | image group |
| ` + "`scaler:NAME`" + ` | k8s, baremetal, windows, kvm, external |
| ` + "`creator:NAME`" + ` | creator; ` + "`@me`" + ` is you |
| ` + "`pipeline:NAME`" + ` | used by pipeline |
| ` + "`is:generator`" + ` | generator images |
| ` + "`is:used` / `is:orphan`" + ` | referenced by a pipeline or not |
| ` + "`generator:yes` / `generator:no`" + ` | same as is:generator |

Anything else is searched in names and descriptions.

## Keys

| Key | Action |
|---|---|
| Tab / Enter | accept the highlighted suggestion, also just after Esc |
| Enter | commit the typed filters |
| Backspace (empty input) | remove the last filter |
| ↑ ↓ | move in the dropdown or the results |
| Esc | leave the input; / or i to return |
| ← → then x | pick a filter badge and remove it (input left) |
| ctrl+y | copy the query |
| ctrl+r | cycle through query history |
| F1 | toggle this help |
| ctrl+c / q | quit |
`

// renderHelp renders the help text for the given width, falling back to the
// raw markdown when glamour cannot build a renderer.
func renderHelp(width int) string {
	wrap := 80
	if width > 0 && width-4 < wrap {
		wrap = max(20, width-4)
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return strings.TrimRight(out, "\n")
}
