// Package input provides text input components for the TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
)

// field identifies one of the two inputs.
type field int

const (
	fieldQuery field = iota
	fieldFolder
)

// folderWidth is the fixed width of the folder input.
const folderWidth = 16

// QueryInput pairs a query input with a folder input.
// Only the focused input receives key messages.
type QueryInput struct {
	query  textinput.Model
	folder textinput.Model
	active field
	styles *styles.Styles
	width  int
}

// NewQueryInput creates a new query input component with the query focused.
func NewQueryInput(s *styles.Styles) *QueryInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	q := textinput.New()
	q.Placeholder = "질문을 입력하세요..."
	q.CharLimit = 512
	q.Width = 50
	q.Focus()

	f := textinput.New()
	f.Placeholder = "all folders"
	f.CharLimit = 64
	f.Width = folderWidth

	return &QueryInput{
		query:  q,
		folder: f,
		active: fieldQuery,
		styles: s,
		width:  80,
	}
}

// Init initialises the input.
func (s *QueryInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update forwards messages to the focused input.
func (s *QueryInput) Update(msg tea.Msg) (*QueryInput, tea.Cmd) {
	var cmd tea.Cmd
	if s.active == fieldFolder {
		s.folder, cmd = s.folder.Update(msg)
	} else {
		s.query, cmd = s.query.Update(msg)
	}
	return s, cmd
}

// View renders both inputs on one line.
func (s *QueryInput) View() string {
	queryBox, folderBox := s.styles.InputField, s.styles.InputField
	if s.Focused() {
		if s.active == fieldFolder {
			folderBox = s.styles.FocusedField
		} else {
			queryBox = s.styles.FocusedField
		}
	}

	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center,
		s.styles.Title.Render("Query: "),
		queryBox.Render(s.query.View()),
		" ",
		s.styles.Subtitle.Render("Folder: "),
		folderBox.Render(s.folder.View()),
	)
}

// Value returns the trimmed query text.
func (s *QueryInput) Value() string {
	return strings.TrimSpace(s.query.Value())
}

// SetValue sets the query text.
func (s *QueryInput) SetValue(value string) {
	s.query.SetValue(value)
}

// Folder returns the trimmed folder label.
func (s *QueryInput) Folder() string {
	return strings.TrimSpace(s.folder.Value())
}

// SetFolder sets the folder label.
func (s *QueryInput) SetFolder(value string) {
	s.folder.SetValue(value)
}

// NextField moves focus between the query and folder inputs.
func (s *QueryInput) NextField() tea.Cmd {
	if s.active == fieldQuery {
		s.active = fieldFolder
		s.query.Blur()
		return s.folder.Focus()
	}
	s.active = fieldQuery
	s.folder.Blur()
	return s.query.Focus()
}

// FolderFocused reports whether the folder input is active.
func (s *QueryInput) FolderFocused() bool {
	return s.active == fieldFolder && s.folder.Focused()
}

// Focus gives focus back to the active input.
func (s *QueryInput) Focus() tea.Cmd {
	if s.active == fieldFolder {
		return s.folder.Focus()
	}
	return s.query.Focus()
}

// Blur removes focus from both inputs.
func (s *QueryInput) Blur() {
	s.query.Blur()
	s.folder.Blur()
}

// Focused reports whether either input has focus.
func (s *QueryInput) Focused() bool {
	return s.query.Focused() || s.folder.Focused()
}

// SetWidth sets the total width. The folder input keeps a fixed width.
func (s *QueryInput) SetWidth(width int) {
	s.width = width
	// labels, borders and the folder box
	inputWidth := width - folderWidth - 30
	if inputWidth < 20 {
		inputWidth = 20
	}
	s.query.Width = inputWidth
}

// Width returns the current width.
func (s *QueryInput) Width() int {
	return s.width
}

// Reset clears the query, keeps the folder and focuses the query input.
func (s *QueryInput) Reset() {
	s.query.Reset()
	s.active = fieldQuery
	s.folder.Blur()
	s.query.Focus()
}
