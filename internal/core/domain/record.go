package domain

import (
	"fmt"
	"strings"
)

// RecordType classifies a structured record by its shape.
type RecordType string

// Known record shapes.
const (
	RecordTypeQA        RecordType = "qa"
	RecordTypeOrdinance RecordType = "ordinance"
	RecordTypeGeneral   RecordType = "general"
)

// Record is one structured JSON object loaded into the keyword index.
type Record map[string]any

// RecordFile is the raw content of one record file.
type RecordFile struct {
	Filename string
	Folder   string
	Data     []byte
}

// RecordKey identifies a record by its file and its original index in that file.
type RecordKey struct {
	Folder   string
	Filename string
	Index    int
}

// Less orders keys by folder, filename, then index.
func (k RecordKey) Less(o RecordKey) bool {
	if k.Folder != o.Folder {
		return k.Folder < o.Folder
	}
	if k.Filename != o.Filename {
		return k.Filename < o.Filename
	}
	return k.Index < o.Index
}

// Source returns the "folder/filename" label used as result provenance.
func (k RecordKey) Source() string {
	if k.Folder == "" {
		return k.Filename
	}
	return k.Folder + "/" + k.Filename
}

// String returns the string value of a field, or "" if absent or not a string.
func (r Record) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// Has reports whether the field is present.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// Keywords returns the record's explicit keyword list.
func (r Record) Keywords() []string {
	return r.Strings("keywords")
}

// Strings returns a list-valued field, dropping empty and non-string items.
func (r Record) Strings(field string) []string {
	switch vals := r[field].(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, v := range vals {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// ID returns the record's "id" field formatted as a string.
func (r Record) ID() string {
	v, ok := r["id"]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Type reports the record shape.
func (r Record) Type() RecordType {
	switch {
	case r.Has("question"):
		return RecordTypeQA
	case r.Has("title"):
		return RecordTypeOrdinance
	default:
		return RecordTypeGeneral
	}
}

// Format renders the record as passage text.
// Records without an answer field render as an empty string.
func (r Record) Format() string {
	var parts []string

	switch {
	case r.Has("question") && r.Has("answer"):
		parts = append(parts,
			"질문: "+r.String("question"),
			"답변: "+r.String("answer"))
		if c := r.String("category"); c != "" {
			parts = append(parts, "카테고리: "+c)
		}
		if kws := r.Keywords(); len(kws) > 0 {
			parts = append(parts, "키워드: "+strings.Join(kws, ", "))
		}
	case r.Has("title") && r.Has("answer"):
		parts = append(parts, "제목: "+r.String("title"))
		if q := r.String("question"); q != "" {
			parts = append(parts, "질문: "+q)
		}
		parts = append(parts, "답변: "+r.String("answer"))
		if c := r.String("category"); c != "" {
			parts = append(parts, "카테고리: "+c)
		}
	}

	return strings.Join(parts, "\n")
}
