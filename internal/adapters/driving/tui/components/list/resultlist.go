// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// linesPerResult is the height of one collapsed result.
const linesPerResult = 3

// ResultList displays retrieved passages in a navigable list.
type ResultList struct {
	results  []domain.Result
	selected int
	expanded bool
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates a new result list component.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ResultList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the result list.
func (r *ResultList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the result list. When expanded, the selected passage is
// shown in full below the list.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	lines := make([]string, 0, len(r.results)+4)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(r.results))), "")

	visible := (r.height - 4) / linesPerResult
	if r.expanded {
		visible /= 2
	}
	if visible < 1 {
		visible = 1
	}

	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := start + visible
	if end > len(r.results) {
		end = len(r.results)
	}

	for i := start; i < end; i++ {
		lines = append(lines, r.renderResult(i, &r.results[i]))
	}

	if r.expanded {
		lines = append(lines, "", r.renderExpanded(&r.results[r.selected]))
	}

	return strings.Join(lines, "\n")
}

// renderResult formats a single result: label and score, then a preview.
func (r *ResultList) renderResult(index int, result *domain.Result) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	labelWidth := r.width - 12
	if labelWidth < 10 {
		labelWidth = 10
	}
	label := styles.Truncate(Label(result), labelWidth)
	score := fmt.Sprintf("%.3f", result.Score)

	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(indicator+label) + "  " + r.styles.Score(result.Score).Render(score)
	} else {
		titleLine = r.styles.Normal.Render(indicator+label) + "  " + r.styles.Score(result.Score).Render(score)
	}

	previewWidth := r.width - 6
	if previewWidth < 20 {
		previewWidth = 20
	}
	preview := r.styles.Muted.Render("    " + styles.Truncate(result.Content, previewWidth))

	return titleLine + "\n" + preview
}

func (r *ResultList) renderExpanded(result *domain.Result) string {
	width := r.width - 4
	if width < 20 {
		width = 20
	}
	body := lipgloss.NewStyle().Width(width).Render(result.Content)
	return r.styles.Border.Padding(0, 1).Render(body)
}

// Label names a result by folder and filename, falling back to its source.
func Label(result *domain.Result) string {
	meta := result.Metadata
	filename, _ := meta[domain.MetaFilename].(string)
	folder, _ := meta[domain.MetaFolder].(string)
	source, _ := meta[domain.MetaSource].(string)

	switch {
	case filename != "" && folder != "":
		return folder + "/" + filename
	case filename != "":
		return filename
	case source != "":
		return source
	default:
		return "(unknown source)"
	}
}

// SetResults updates the result list and collapses any expanded result.
func (r *ResultList) SetResults(results []domain.Result) {
	r.results = results
	r.selected = 0
	r.expanded = false
}

// Results returns the current results.
func (r *ResultList) Results() []domain.Result {
	return r.results
}

// Selected returns the index of the selected result.
func (r *ResultList) Selected() int {
	return r.selected
}

// SetSelected sets the selected index.
func (r *ResultList) SetSelected(index int) {
	if index >= 0 && index < len(r.results) {
		r.selected = index
	}
}

// SelectedResult returns the currently selected result, or nil if none.
func (r *ResultList) SelectedResult() *domain.Result {
	if len(r.results) == 0 || r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// ToggleExpanded shows or hides the full content of the selected result.
func (r *ResultList) ToggleExpanded() {
	if len(r.results) == 0 {
		r.expanded = false
		return
	}
	r.expanded = !r.expanded
}

// Expanded reports whether the selected result is shown in full.
func (r *ResultList) Expanded() bool {
	return r.expanded
}

// MoveUp moves selection up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.results)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of results.
func (r *ResultList) Count() int {
	return len(r.results)
}

// IsEmpty returns whether the list is empty.
func (r *ResultList) IsEmpty() bool {
	return len(r.results) == 0
}
