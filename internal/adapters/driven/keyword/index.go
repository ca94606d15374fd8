// Package keyword implements the structured keyword index: an in-memory
// inverted index over Q&A and ordinance records loaded from JSON files.
//
// Records are grouped by (folder, filename) and identified by their
// position in the file. Three maps point terms at records:
//
//   - keywords: explicit keyword list (weight 1.0) and answer terms (0.5)
//   - questions: question terms (2.0 per hit at search time)
//   - categories: lowercased category
//
// Posting lists are kept in (folder, filename, index) order, so a search
// visits records in the same order regardless of load order.
package keyword

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/folder"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Scoring weights.
const (
	KeywordWeight  = 1.0
	AnswerWeight   = 0.5
	QuestionWeight = 2.0
	ExactBonus     = 5.0
)

// DefaultTopK is used when SearchOptions.TopK is not positive.
const DefaultTopK = 5

// candidateFactor bounds the keyword and question stages to
// topK*candidateFactor distinct candidates.
const candidateFactor = 3

// minTermRunes drops single-character question and answer terms.
const minTermRunes = 2

// Verify interface compliance.
var _ driven.KeywordIndex = (*Index)(nil)

type fileKey struct {
	folder   string
	filename string
}

func (f fileKey) less(o fileKey) bool {
	if f.folder != o.folder {
		return f.folder < o.folder
	}
	return f.filename < o.filename
}

type posting struct {
	key    domain.RecordKey
	weight float64
}

// Index is an in-memory KeywordIndex. It is safe for concurrent use.
type Index struct {
	mu         sync.RWMutex
	files      map[fileKey][]domain.Record
	order      []fileKey
	keywords   map[string][]posting
	questions  map[string][]domain.RecordKey
	categories map[string][]domain.RecordKey
	records    int
}

// New creates an empty index.
func New() *Index {
	x := &Index{}
	x.reset()
	return x
}

func (x *Index) reset() {
	x.files = make(map[fileKey][]domain.Record)
	x.order = nil
	x.keywords = make(map[string][]posting)
	x.questions = make(map[string][]domain.RecordKey)
	x.categories = make(map[string][]domain.RecordKey)
	x.records = 0
}

// Reset drops every loaded record and index.
func (x *Index) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.reset()
}

// ReplaceAll builds a fresh index from files and swaps it in under the
// write lock. Files that fail to parse are left out and counted.
func (x *Index) ReplaceAll(files []domain.RecordFile) int {
	staged := New()
	failed := 0
	for _, f := range files {
		if !staged.LoadBytes(f.Filename, f.Folder, f.Data) {
			failed++
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.files = staged.files
	x.order = staged.order
	x.keywords = staged.keywords
	x.questions = staged.questions
	x.categories = staged.categories
	x.records = staged.records
	return failed
}

// Load parses the JSON file at path and indexes its records under folder.
func (x *Index) Load(path, folderLabel string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("keyword index: read %s: %v", path, err)
		return false
	}
	return x.LoadBytes(filepath.Base(path), folderLabel, data)
}

// LoadBytes parses data as a JSON array of records (a single object is
// treated as a one-element array) and indexes it under (folder, filename).
// Loading the same folder and filename again replaces the earlier records.
func (x *Index) LoadBytes(filename, folderLabel string, data []byte) bool {
	records, err := ParseRecords(data)
	if err != nil {
		logger.Warn("keyword index: parse %s: %v", filename, err)
		return false
	}

	fk := fileKey{folder: folder.Normalize(folderLabel), filename: filename}

	x.mu.Lock()
	defer x.mu.Unlock()

	if old, ok := x.files[fk]; ok {
		x.unindex(fk)
		x.records -= len(old)
	} else {
		i := sort.Search(len(x.order), func(i int) bool { return !x.order[i].less(fk) })
		x.order = append(x.order, fileKey{})
		copy(x.order[i+1:], x.order[i:])
		x.order[i] = fk
	}

	x.files[fk] = records
	x.records += len(records)
	x.index(fk, records)

	logger.Info("keyword index: loaded %s (%d records)", domain.RecordKey{Folder: fk.folder, Filename: filename}.Source(), len(records))
	return true
}

// ParseRecords decodes a JSON array or object. Array elements that are not
// objects become nil records so indices stay aligned with the file.
func ParseRecords(data []byte) ([]domain.Record, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
	default:
		return nil, fmt.Errorf("expected array or object, got %T", raw)
	}

	records := make([]domain.Record, len(items))
	for i, item := range items {
		if obj, ok := item.(map[string]any); ok {
			records[i] = domain.Record(obj)
		}
	}
	return records, nil
}

// index adds postings for every record in a file. Caller holds the write lock.
func (x *Index) index(fk fileKey, records []domain.Record) {
	for idx, rec := range records {
		if rec == nil {
			continue
		}
		key := domain.RecordKey{Folder: fk.folder, Filename: fk.filename, Index: idx}

		// A multi-word keyword is indexed whole and by its tokens, since
		// queries are matched token by token.
		kwSeen := make(map[string]struct{})
		for _, kw := range rec.Keywords() {
			for _, term := range append([]string{strings.ToLower(strings.TrimSpace(kw))}, Tokenize(kw)...) {
				if _, dup := kwSeen[term]; dup || term == "" {
					continue
				}
				kwSeen[term] = struct{}{}
				x.keywords[term] = insertPosting(x.keywords[term], posting{key: key, weight: KeywordWeight})
			}
		}

		if cat := strings.ToLower(rec.String("category")); cat != "" {
			x.categories[cat] = insertKey(x.categories[cat], key)
		}

		for _, term := range terms(rec.String("question"), minTermRunes) {
			x.questions[term] = insertKey(x.questions[term], key)
		}

		for _, term := range terms(rec.String("answer"), minTermRunes) {
			x.keywords[term] = insertPosting(x.keywords[term], posting{key: key, weight: AnswerWeight})
		}
	}
}

// unindex removes every posting that belongs to fk. Caller holds the write lock.
func (x *Index) unindex(fk fileKey) {
	inFile := func(k domain.RecordKey) bool {
		return k.Folder == fk.folder && k.Filename == fk.filename
	}

	for term, list := range x.keywords {
		kept := list[:0]
		for _, p := range list {
			if !inFile(p.key) {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			delete(x.keywords, term)
		} else {
			x.keywords[term] = kept
		}
	}

	for _, m := range []map[string][]domain.RecordKey{x.questions, x.categories} {
		for term, list := range m {
			kept := list[:0]
			for _, k := range list {
				if !inFile(k) {
					kept = append(kept, k)
				}
			}
			if len(kept) == 0 {
				delete(m, term)
			} else {
				m[term] = kept
			}
		}
	}
}

// insertPosting keeps list ordered by key; equal keys keep insertion order.
func insertPosting(list []posting, p posting) []posting {
	i := sort.Search(len(list), func(i int) bool { return p.key.Less(list[i].key) })
	list = append(list, posting{})
	copy(list[i+1:], list[i:])
	list[i] = p
	return list
}

func insertKey(list []domain.RecordKey, k domain.RecordKey) []domain.RecordKey {
	i := sort.Search(len(list), func(i int) bool { return k.Less(list[i]) })
	list = append(list, domain.RecordKey{})
	copy(list[i+1:], list[i:])
	list[i] = k
	return list
}

// Search ranks records against query.
//
// Keyword and answer-term hits add their weights, question-term hits add
// QuestionWeight, and a record whose question contains the query (or is
// contained by it) gets ExactBonus. The keyword and question stages stop
// once topK*3 candidates are collected; the exact stage stops once it has
// found a match and topK candidates exist. Scores are divided by the best
// score so the top result scores 1.0.
func (x *Index) Search(query string, opts domain.SearchOptions) []domain.Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	limit := topK * candidateFactor

	x.mu.RLock()
	defer x.mu.RUnlock()

	defer logger.Timed("keyword search")()

	folders := folder.NewSet(opts.FolderFilter, opts.RegionFilter)
	queryLower := strings.ToLower(query)
	queryTerms := terms(query, 1)
	scores := make(map[domain.RecordKey]float64)

keywordStage:
	for _, term := range queryTerms {
		for _, p := range x.keywords[term] {
			if !folders.Matches(p.key.Folder) {
				continue
			}
			scores[p.key] += p.weight
			if len(scores) >= limit {
				break keywordStage
			}
		}
	}

questionStage:
	for _, term := range queryTerms {
		for _, k := range x.questions[term] {
			if !folders.Matches(k.Folder) {
				continue
			}
			scores[k] += QuestionWeight
			if len(scores) >= limit {
				break questionStage
			}
		}
	}

exactStage:
	for _, fk := range x.order {
		if !folders.Matches(fk.folder) {
			continue
		}
		for idx, rec := range x.files[fk] {
			question := strings.ToLower(strings.TrimSpace(rec.String("question")))
			if question == "" {
				continue
			}
			if strings.Contains(queryLower, question) || strings.Contains(question, queryLower) {
				scores[domain.RecordKey{Folder: fk.folder, Filename: fk.filename, Index: idx}] += ExactBonus
				if len(scores) >= topK {
					break exactStage
				}
			}
		}
	}

	if len(scores) == 0 {
		logger.Debug("keyword search %q: no candidates", query)
		return nil
	}

	ranked := make([]domain.RecordKey, 0, len(scores))
	for k := range scores {
		ranked = append(ranked, k)
	}
	sort.Slice(ranked, func(i, j int) bool {
		si, sj := scores[ranked[i]], scores[ranked[j]]
		if si != sj {
			return si > sj
		}
		return ranked[i].Less(ranked[j])
	})

	best := scores[ranked[0]]
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	results := make([]domain.Result, 0, len(ranked))
	for _, k := range ranked {
		var score float64
		if best > 0 {
			score = math.Min(1.0, scores[k]/best)
		}
		results = append(results, x.result(k, score))
	}

	logger.Debug("keyword search %q: %d candidates, returning %d", query, len(scores), len(results))
	return results
}

// GetByCategory returns every record whose category matches, in key order.
func (x *Index) GetByCategory(category, folderFilter string) []domain.Result {
	cat := strings.ToLower(strings.TrimSpace(category))
	if cat == "" {
		return nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	folders := folder.NewSet(folderFilter)
	var results []domain.Result
	for _, k := range x.categories[cat] {
		if !folders.Matches(k.Folder) {
			continue
		}
		results = append(results, x.result(k, 0))
	}
	return results
}

// result builds a Result for a key. Caller holds the read lock.
func (x *Index) result(k domain.RecordKey, score float64) domain.Result {
	rec := x.files[fileKey{folder: k.Folder, filename: k.Filename}][k.Index]
	return domain.Result{
		Content: rec.Format(),
		Metadata: map[string]any{
			"folder":    k.Folder,
			"filename":  k.Filename,
			"id":        rec.ID(),
			"category":  rec.String("category"),
			"json_type": string(rec.Type()),
			"source":    k.Source(),
			"score":     score,
		},
		Score: score,
	}
}

// Stats returns the number of loaded files and records.
func (x *Index) Stats() (files, records int) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.files), x.records
}

// Folders returns the sorted distinct folder labels of loaded files.
func (x *Index) Folders() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []string
	for _, fk := range x.order {
		if len(out) == 0 || out[len(out)-1] != fk.folder {
			out = append(out, fk.folder)
		}
	}
	return out
}
