package domain

// RetrieveOptions configures a vector store similarity query.
type RetrieveOptions struct {
	// TopK is the maximum number of results. Zero uses the store's configured value.
	TopK int

	// SimilarityThreshold is the minimum cosine similarity.
	// Nil uses the store's configured value.
	SimilarityThreshold *float64

	// FolderFilter keeps only entries whose normalised folder equals it.
	FolderFilter string

	// FilenamePrefixes keeps only entries whose filename starts with one of them.
	FilenamePrefixes []string

	// PreferredSources receive the source weight bonus.
	PreferredSources []string
}

// SearchOptions configures a keyword index query.
type SearchOptions struct {
	// FolderFilter restricts the search to one folder.
	FolderFilter string

	// RegionFilter adds a second folder (typically a region) to the search set.
	RegionFilter string

	// TopK is the maximum number of results (default 5).
	TopK int
}

// Result is a ranked passage returned to the orchestrator.
type Result struct {
	// Content is the passage text.
	Content string `json:"content"`

	// Metadata describes where the passage came from.
	Metadata map[string]any `json:"metadata"`

	// Score is the reported relevance. Keyword results are max-normalised to
	// [0,1]. Vector results carry cosine similarity plus the scenario and
	// usage bonuses, so they can exceed 1 by up to 0.15.
	Score float64 `json:"score"`

	// WeightedScore is the internal ranking score. Zero for keyword results.
	WeightedScore float64 `json:"weighted_score,omitempty"`
}

// QueryMode selects the retrieval path for a query.
type QueryMode string

// Available query modes.
const (
	// QueryModeAuto uses vector retrieval when embeddings are available,
	// falling back to the keyword index otherwise.
	QueryModeAuto QueryMode = "auto"

	// QueryModeVector uses only vector retrieval.
	QueryModeVector QueryMode = "vector"

	// QueryModeKeyword uses only the keyword index.
	QueryModeKeyword QueryMode = "keyword"
)

// IsValid returns true if the mode is recognised.
func (m QueryMode) IsValid() bool {
	switch m {
	case QueryModeAuto, QueryModeVector, QueryModeKeyword:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m QueryMode) String() string {
	return string(m)
}

// QueryRequest is an orchestrator-level retrieval request.
type QueryRequest struct {
	Query            string
	Folder           string
	Region           string
	TopK             int
	Threshold        *float64
	PreferredSources []string
	Mode             QueryMode
}

// QueryResponse carries ranked results and the path that produced them.
type QueryResponse struct {
	Results []Result  `json:"results"`
	Mode    QueryMode `json:"mode"`
}

// Evaluation scores retrieved sources against an expected set.
type Evaluation struct {
	Query     string   `json:"query"`
	Expected  []string `json:"expected_documents"`
	Retrieved []string `json:"retrieved_documents"`
	Matched   int      `json:"matched_count"`
	Precision float64  `json:"precision"`
	Recall    float64  `json:"recall"`
	F1        float64  `json:"f1_score"`
}
