package domain

import (
	"encoding/json"
	"time"
)

// Metadata keys with a fixed meaning. Everything else lives in EntryMetadata.Extra.
const (
	MetaSource     = "source"
	MetaFilename   = "filename"
	MetaFolder     = "folder"
	MetaCreatedAt  = "created_at"
	MetaScenario   = "scenario"
	MetaLawGroup   = "law_group"
	MetaUsage      = "usage"
	MetaArticleIDs = "article_ids"
)

// Entry is an (embedding, content, metadata) triple held by the vector store.
type Entry struct {
	Embedding []float32
	Content   string
	Metadata  EntryMetadata
}

// EntryMetadata is the metadata attached to a vector store entry.
//
// The core fields are always present. Scenario, LawGroup, Usage and
// ArticleIDs are contributed by structured parsers. Extra carries any other
// key so that free-form metadata survives a persistence round trip.
type EntryMetadata struct {
	// Source is the owning document ID. Removal is keyed on it.
	Source string

	// Filename is the source file name.
	Filename string

	// Folder is the grouping label used by folder filters.
	Folder string

	// CreatedAt is an ISO-8601 timestamp.
	CreatedAt string

	Scenario   string
	LawGroup   string
	Usage      string
	ArticleIDs []string

	// Extra holds keys not covered by the typed fields.
	Extra map[string]any
}

// CreatedTime parses CreatedAt. ok is false when the value is absent or unparsable.
func (m EntryMetadata) CreatedTime() (t time.Time, ok bool) {
	if m.CreatedAt == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, m.CreatedAt); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Map flattens the metadata into a single map, typed fields included.
// Empty typed fields are omitted.
func (m EntryMetadata) Map() map[string]any {
	out := make(map[string]any, len(m.Extra)+8)
	for k, v := range m.Extra {
		out[k] = v
	}
	setString := func(key, val string) {
		if val != "" {
			out[key] = val
		}
	}
	setString(MetaSource, m.Source)
	setString(MetaFilename, m.Filename)
	setString(MetaFolder, m.Folder)
	setString(MetaCreatedAt, m.CreatedAt)
	setString(MetaScenario, m.Scenario)
	setString(MetaLawGroup, m.LawGroup)
	setString(MetaUsage, m.Usage)
	if m.ArticleIDs != nil {
		out[MetaArticleIDs] = m.ArticleIDs
	}
	return out
}

// MarshalJSON writes the metadata as one flat JSON object with keys in
// sorted order. Entry order in a snapshot is kept; key order inside one
// metadata object is not.
func (m EntryMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Map())
}

// UnmarshalJSON reads a flat JSON object, lifting known keys into typed fields.
// A known key holding an unexpected type is kept in Extra unchanged.
func (m *EntryMetadata) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = MetadataFromMap(raw)
	return nil
}

// MetadataFromMap builds EntryMetadata from a free-form map.
func MetadataFromMap(raw map[string]any) EntryMetadata {
	var m EntryMetadata
	strFields := map[string]*string{
		MetaSource:    &m.Source,
		MetaFilename:  &m.Filename,
		MetaFolder:    &m.Folder,
		MetaCreatedAt: &m.CreatedAt,
		MetaScenario:  &m.Scenario,
		MetaLawGroup:  &m.LawGroup,
		MetaUsage:     &m.Usage,
	}

	for key, val := range raw {
		if dst, ok := strFields[key]; ok {
			if s, isStr := val.(string); isStr && s != "" {
				*dst = s
				continue
			}
		}
		if key == MetaArticleIDs {
			if ids, ok := toStringSlice(val); ok {
				m.ArticleIDs = ids
				continue
			}
		}
		if m.Extra == nil {
			m.Extra = make(map[string]any)
		}
		m.Extra[key] = val
	}
	return m
}

func toStringSlice(v any) ([]string, bool) {
	switch vals := v.(type) {
	case []string:
		return vals, true
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
