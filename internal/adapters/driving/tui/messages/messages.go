// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// QueryRequested is a command to run a retrieval query.
type QueryRequested struct {
	Request domain.QueryRequest
}

// QueryCompleted carries retrieval results back to the model.
type QueryCompleted struct {
	Response *domain.QueryResponse
	Err      error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the query input and results view.
	ViewSearch
	// ViewDocuments lists ingested documents.
	ViewDocuments
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewDocuments:
		return "documents"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsLoaded carries the catalogued documents.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentRemoved signals a document and its entries were removed.
type DocumentRemoved struct {
	DocumentID string
	Entries    int
	Err        error
}
