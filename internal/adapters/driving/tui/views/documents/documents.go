// Package documents provides the ingested documents view for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// ErrNoIngestService indicates that document management is not configured.
var ErrNoIngestService = errors.New("ingest service not available")

// View lists catalogued documents and removes them on request.
type View struct {
	styles *styles.Styles
	ingest driving.IngestService
	ctx    context.Context

	documents    []domain.Document
	selected     int
	scrollOffset int
	width        int
	height       int
	ready        bool
	loading      bool
	confirming   bool
	err          error
	notice       string
}

// NewView creates a new documents view. The ingest service may be nil.
func NewView(s *styles.Styles, ingest driving.IngestService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:    s,
		ingest:    ingest,
		ctx:       context.Background(),
		documents: []domain.Document{},
		width:     80,
		height:    24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Load returns a command that lists the catalogued documents.
func (v *View) Load() tea.Cmd {
	v.loading = true
	v.confirming = false
	ctx, ingest := v.ctx, v.ingest
	return func() tea.Msg {
		if ingest == nil {
			return messages.DocumentsLoaded{Err: ErrNoIngestService}
		}
		docs, err := ingest.List(ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

func (v *View) remove(docID string) tea.Cmd {
	ctx, ingest := v.ctx, v.ingest
	return func() tea.Msg {
		if ingest == nil {
			return messages.DocumentRemoved{DocumentID: docID, Err: ErrNoIngestService}
		}
		n, err := ingest.Remove(ctx, docID)
		return messages.DocumentRemoved{DocumentID: docID, Entries: n, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.confirming {
			return v.handleConfirmKey(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.documents = msg.Documents
		if v.documents == nil {
			v.documents = []domain.Document{}
		}
		if v.selected >= len(v.documents) {
			v.selected = max(len(v.documents)-1, 0)
		}
		v.adjustScroll()
		return v, nil

	case messages.DocumentRemoved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = fmt.Sprintf("Removed %d entries", msg.Entries)
		return v, v.Load()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "d":
		if len(v.documents) > 0 {
			v.confirming = true
			v.notice = ""
		}
	case "r":
		v.notice = ""
		return v, v.Load()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

func (v *View) handleConfirmKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	v.confirming = false
	switch msg.String() {
	case "y", "Y":
		if doc := v.SelectedDocument(); doc != nil {
			return v, v.remove(doc.ID)
		}
	}
	return v, nil
}

func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	// title, header, notice and help lines
	available := v.height - 8
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents ingested."))
	default:
		b.WriteString(v.renderList())
	}
	b.WriteString("\n\n")

	if v.confirming {
		if doc := v.SelectedDocument(); doc != nil {
			b.WriteString(v.styles.Warning.Render(
				fmt.Sprintf("Remove %s and its %d entries? [y/N]", doc.Filename, doc.ChunkCount)))
			b.WriteString("\n")
		}
	} else if v.notice != "" {
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n")
	}

	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [d] remove  [r] reload  [esc] back"))
	return b.String()
}

func (v *View) renderList() string {
	nameWidth := v.width/2 - 4
	if nameWidth < 16 {
		nameWidth = 16
	}
	folderWidth := 16

	lines := make([]string, 0, v.visibleItemCount()+2)
	header := "  " + runewidth.FillRight("Folder", folderWidth) + "  " +
		runewidth.FillRight("File", nameWidth) + "  Chunks  Updated"
	lines = append(lines, v.styles.Subtitle.Render(header))

	visible := v.visibleItemCount()
	end := min(v.scrollOffset+visible, len(v.documents))
	for i := v.scrollOffset; i < end; i++ {
		lines = append(lines, v.renderDocument(i, &v.documents[i], folderWidth, nameWidth))
	}

	if len(v.documents) > visible {
		lines = append(lines, v.styles.Muted.Render(
			fmt.Sprintf("  [%d-%d of %d]", v.scrollOffset+1, end, len(v.documents))))
	}
	return strings.Join(lines, "\n")
}

func (v *View) renderDocument(index int, doc *domain.Document, folderWidth, nameWidth int) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	folder := doc.Folder
	if folder == "" {
		folder = "-"
	}
	updated := "-"
	if !doc.UpdatedAt.IsZero() {
		updated = doc.UpdatedAt.Format("2006-01-02 15:04")
	}

	line := indicator +
		runewidth.FillRight(styles.Truncate(folder, folderWidth), folderWidth) + "  " +
		runewidth.FillRight(styles.Truncate(doc.Filename, nameWidth), nameWidth) + "  " +
		fmt.Sprintf("%6d", doc.ChunkCount) + "  " + updated

	if index == v.selected {
		return v.styles.Selected.Render(line)
	}
	return v.styles.Normal.Render(line)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.adjustScroll()
}

// Documents returns the current list of documents.
func (v *View) Documents() []domain.Document {
	return v.documents
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected document.
func (v *View) SelectedDocument() *domain.Document {
	if v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// Confirming reports whether a removal is awaiting confirmation.
func (v *View) Confirming() bool {
	return v.confirming
}

// Loading reports whether a load is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Ready returns whether the view has been sized.
func (v *View) Ready() bool {
	return v.ready
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
