package driven

import "github.com/custodia-labs/ragcore/internal/core/domain"

// KeywordIndex serves exact and keyword lookups over structured records,
// independent of embeddings.
type KeywordIndex interface {
	// Load parses a JSON file of records and indexes it under folder.
	// Returns false when the file cannot be read or parsed; nothing from
	// that file is indexed in that case.
	Load(path, folder string) bool

	// LoadBytes is Load for content already in memory.
	LoadBytes(filename, folder string, data []byte) bool

	// Search ranks records against the query. Scores are normalised to [0,1].
	Search(query string, opts domain.SearchOptions) []domain.Result

	// GetByCategory returns every record in the category, optionally
	// restricted to one folder.
	GetByCategory(category, folderFilter string) []domain.Result

	// Reset drops every loaded record and index.
	Reset()

	// ReplaceAll indexes files from scratch and swaps the result in at once,
	// so readers see either the previous or the new contents. Returns the
	// number of files that could not be parsed.
	ReplaceAll(files []domain.RecordFile) int

	// Stats returns the number of loaded files and records.
	Stats() (files, records int)

	// Folders returns the sorted distinct folder labels of loaded files.
	Folders() []string
}
