package ui

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/omnibar/pkg/model"
)

// Column widths of a result row, in cells.
const (
	colName    = 24
	colGroup   = 16
	colCreator = 14
	colFlags   = 10
	colAge     = 8
)

// ResultsModel is the scrollable list of images matching the live filters.
type ResultsModel struct {
	images []model.Image
	cursor int
	offset int
	width  int
	height int
	theme  Theme
}

// NewResultsModel creates an empty result list.
func NewResultsModel(theme Theme) ResultsModel {
	return ResultsModel{theme: theme}
}

// SetImages replaces the list, keeping the cursor in range.
func (r *ResultsModel) SetImages(images []model.Image) {
	r.images = images
	if r.cursor >= len(images) {
		r.cursor = max(0, len(images)-1)
	}
	r.clampOffset()
}

// SetSize updates the list dimensions
func (r *ResultsModel) SetSize(width, height int) {
	r.width = width
	r.height = height
	r.clampOffset()
}

// Len returns the number of listed images.
func (r *ResultsModel) Len() int {
	return len(r.images)
}

// Selected returns the image under the cursor.
func (r *ResultsModel) Selected() (model.Image, bool) {
	if r.cursor < 0 || r.cursor >= len(r.images) {
		return model.Image{}, false
	}
	return r.images[r.cursor], true
}

// MoveUp moves selection up
func (r *ResultsModel) MoveUp() {
	if r.cursor > 0 {
		r.cursor--
	}
	r.clampOffset()
}

// MoveDown moves selection down
func (r *ResultsModel) MoveDown() {
	if r.cursor < len(r.images)-1 {
		r.cursor++
	}
	r.clampOffset()
}

func (r *ResultsModel) visibleRows() int {
	if r.height <= 1 {
		return 1
	}
	return r.height - 1 // header
}

func (r *ResultsModel) clampOffset() {
	rows := r.visibleRows()
	if r.cursor < r.offset {
		r.offset = r.cursor
	}
	if r.cursor >= r.offset+rows {
		r.offset = r.cursor - rows + 1
	}
	if r.offset < 0 {
		r.offset = 0
	}
}

// View renders the header and the visible rows.
func (r ResultsModel) View() string {
	if len(r.images) == 0 {
		return r.theme.MutedText.Render("  No images match the current filters.")
	}

	var sb strings.Builder
	header := "  " + padRight("NAME", colName) + " " + padRight("GROUP", colGroup) + " " +
		padRight("CREATOR", colCreator) + " " + padRight("FLAGS", colFlags) + " " +
		padRight("AGE", colAge) + " DESCRIPTION"
	sb.WriteString(r.theme.MutedText.Render(truncate(header, r.lineWidth())))

	end := min(len(r.images), r.offset+r.visibleRows())
	for i := r.offset; i < end; i++ {
		sb.WriteString("\n")
		sb.WriteString(r.renderRow(r.images[i], i == r.cursor))
	}
	return sb.String()
}

func (r ResultsModel) lineWidth() int {
	if r.width <= 0 {
		return 120
	}
	return r.width
}

func (r ResultsModel) renderRow(img model.Image, selected bool) string {
	icon, color := r.theme.GetScalerIcon(img.Scaler)

	flags := ""
	if img.Generator {
		flags += "gen "
	}
	if img.Used() {
		flags += fmt.Sprintf("%dp", len(img.UsedBy))
	} else {
		flags += "orphan"
	}

	line := padRight(truncate(img.Name, colName), colName) + " " +
		padRight(truncate(img.Group, colGroup), colGroup) + " " +
		padRight(truncate(img.Creator, colCreator), colCreator) + " " +
		padRight(strings.TrimSpace(flags), colFlags) + " " +
		padRight(FormatTimeRel(img.CreatedAt), colAge)

	used := 2 + colName + colGroup + colCreator + colFlags + colAge + 5
	if rest := r.lineWidth() - used - 1; rest > 0 && img.Description != "" {
		line += " " + truncate(img.Description, rest)
	}

	marker := r.theme.Renderer.NewStyle().Foreground(color).Bold(true).Render(icon)
	if selected {
		return r.theme.Selected.Render(marker + " " + line)
	}
	return " " + marker + " " + r.theme.Base.Render(line)
}
