// Package vectorfile implements the vector store as an in-memory corpus
// persisted to a single JSON snapshot.
//
// The snapshot holds three index-aligned arrays:
//
//	{
//	  "vectors":   [[0.1, 0.2, ...], ...],
//	  "contents":  ["chunk text", ...],
//	  "metadatas": [{"source": "...", "folder": "...", ...}, ...]
//	}
//
// Every mutation rewrites the whole file through a temp file and rename.
// A snapshot that cannot be parsed is copied aside as
// vectors.json.backup.YYYYMMDD_HHMMSS and the store starts empty.
package vectorfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// FileName is the snapshot file name inside the store directory.
const FileName = "vectors.json"

const backupLayout = "20060102_150405"

// Verify interface compliance.
var _ driven.VectorStore = (*Store)(nil)

// snapshot is the on-disk layout.
type snapshot struct {
	Vectors   [][]float32            `json:"vectors"`
	Contents  []string               `json:"contents"`
	Metadatas []domain.EntryMetadata `json:"metadatas"`
}

// entry is a stored Entry plus its pre-computed L2 norm.
type entry struct {
	domain.Entry
	norm float64
}

// Store is a file-backed VectorStore.
type Store struct {
	mu       sync.RWMutex
	dir      string
	entries  []entry
	dim      int
	settings domain.RetrievalSettings
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithSettings sets the initial retrieval parameters.
func WithSettings(settings domain.RetrievalSettings) Option {
	return func(s *Store) {
		s.settings = settings
	}
}

// WithClock overrides the clock used for recency weighting and backup names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New opens the store in dir, creating the directory if needed, and loads
// any existing snapshot.
func New(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create vector store directory: %w", err)
	}

	s := &Store{
		dir:      dir,
		settings: domain.DefaultAppSettings().Retrieval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// load reads the snapshot. A missing file is an empty store; a corrupt one
// is backed up and discarded.
func (s *Store) load() error {
	path := s.Path()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("vector store %s not found, starting empty", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read vector store: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.discard(path, data, err)
		return nil
	}
	if len(snap.Vectors) != len(snap.Contents) || len(snap.Vectors) != len(snap.Metadatas) {
		s.discard(path, data, fmt.Errorf("misaligned arrays: %d vectors, %d contents, %d metadatas",
			len(snap.Vectors), len(snap.Contents), len(snap.Metadatas)))
		return nil
	}

	entries := make([]entry, len(snap.Vectors))
	mismatched := 0
	for i := range snap.Vectors {
		entries[i] = newEntry(domain.Entry{
			Embedding: snap.Vectors[i],
			Content:   snap.Contents[i],
			Metadata:  snap.Metadatas[i],
		})
		if n := len(snap.Vectors[i]); n > 0 {
			if s.dim == 0 {
				s.dim = n
			} else if n != s.dim {
				mismatched++
			}
		}
	}
	if mismatched > 0 {
		logger.Warn("vector store has %d entries whose dimension differs from %d; they will never match", mismatched, s.dim)
	}

	s.entries = entries
	logger.Info("vector store loaded: %d entries, dimension %d", len(entries), s.dim)
	return nil
}

// discard backs up a corrupt snapshot and removes the original.
func (s *Store) discard(path string, data []byte, cause error) {
	logger.Error("vector store %s is corrupt (%v); backing up and starting empty", path, cause)

	backup := path + ".backup." + s.now().Format(backupLayout)
	if err := os.WriteFile(backup, data, 0o600); err != nil {
		logger.Warn("backup of corrupt vector store failed: %v", err)
	} else {
		logger.Info("corrupt vector store backed up to %s", backup)
	}

	if err := os.Remove(path); err != nil {
		logger.Warn("remove corrupt vector store: %v", err)
	}

	s.entries = nil
	s.dim = 0
}

// persist writes entries atomically. Caller holds the write lock.
func (s *Store) persist(entries []entry) error {
	snap := snapshot{
		Vectors:   make([][]float32, len(entries)),
		Contents:  make([]string, len(entries)),
		Metadatas: make([]domain.EntryMetadata, len(entries)),
	}
	for i, e := range entries {
		snap.Vectors[i] = e.Embedding
		snap.Contents[i] = e.Content
		snap.Metadatas[i] = e.Metadata
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode vector store: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write vector store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync vector store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close vector store: %w", err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace vector store: %w", err)
	}
	return nil
}

// Add appends one entry and persists.
func (s *Store) Add(ctx context.Context, embedding []float32, content string, metadata domain.EntryMetadata) error {
	return s.AddBatch(ctx, []domain.Entry{{
		Embedding: embedding,
		Content:   content,
		Metadata:  metadata,
	}})
}

// AddBatch appends entries in order and persists once. Either every entry
// is stored or none is.
func (s *Store) AddBatch(ctx context.Context, batch []domain.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim, err := checkBatch(batch, s.dim)
	if err != nil {
		return err
	}

	next := make([]entry, len(s.entries), len(s.entries)+len(batch))
	copy(next, s.entries)
	next = appendEntries(next, batch)

	if err := s.persist(next); err != nil {
		return err
	}

	s.entries = next
	s.dim = dim
	logger.Debug("vector store: added %d entries (total %d)", len(batch), len(next))
	return nil
}

// Remove deletes every entry whose source equals sourceID and persists.
func (s *Store) Remove(ctx context.Context, sourceID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.without(sourceID)
	removed := len(s.entries) - len(kept)

	if err := s.persist(kept); err != nil {
		return 0, err
	}

	s.entries = kept
	if len(kept) == 0 {
		s.dim = 0
	}
	logger.Debug("vector store: removed %d entries for source %s", removed, sourceID)
	return removed, nil
}

// Replace swaps every entry of sourceID for batch under one lock and one
// write. The batch is checked against the dimension of the entries that
// remain, so a rejected batch leaves the previous entries in place.
func (s *Store) Replace(ctx context.Context, sourceID string, batch []domain.Entry) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.without(sourceID)
	removed := len(s.entries) - len(kept)

	dim := s.dim
	if len(kept) == 0 {
		dim = 0
	}
	dim, err := checkBatch(batch, dim)
	if err != nil {
		return 0, err
	}

	next := appendEntries(kept, batch)
	if err := s.persist(next); err != nil {
		return 0, err
	}

	s.entries = next
	s.dim = dim
	if len(next) == 0 {
		s.dim = 0
	}
	logger.Debug("vector store: replaced %d entries of %s with %d", removed, sourceID, len(batch))
	return removed, nil
}

// without returns the entries whose source differs from sourceID.
// Caller holds the lock.
func (s *Store) without(sourceID string) []entry {
	kept := make([]entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Metadata.Source != sourceID {
			kept = append(kept, e)
		}
	}
	return kept
}

// checkBatch verifies every embedding is non-empty and has the store
// dimension, or a common one when dim is 0. It returns the dimension in
// effect after the batch.
func checkBatch(batch []domain.Entry, dim int) (int, error) {
	for i, e := range batch {
		if len(e.Embedding) == 0 {
			return 0, fmt.Errorf("entry %d: empty embedding: %w", i, domain.ErrInvalidInput)
		}
		if dim == 0 {
			dim = len(e.Embedding)
		}
		if len(e.Embedding) != dim {
			return 0, fmt.Errorf("entry %d has dimension %d, store has %d: %w",
				i, len(e.Embedding), dim, domain.ErrDimensionMismatch)
		}
	}
	return dim, nil
}

func appendEntries(dst []entry, batch []domain.Entry) []entry {
	for _, e := range batch {
		dst = append(dst, newEntry(e))
	}
	return dst
}

// UpdateConfig replaces the retrieval parameters for later queries.
func (s *Store) UpdateConfig(settings domain.RetrievalSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// Config returns the retrieval parameters in effect.
func (s *Store) Config() domain.RetrievalSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Dimension returns the established embedding dimension, or 0 when empty.
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// Entries returns a copy of every entry in insertion order.
func (s *Store) Entries() []domain.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Entry
	}
	return out
}

// Sources returns the distinct entry sources in first-seen order.
func (s *Store) Sources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, e := range s.entries {
		src := e.Metadata.Source
		if _, ok := seen[src]; ok || src == "" {
			continue
		}
		seen[src] = struct{}{}
		out = append(out, src)
	}
	return out
}

// Close is a no-op; every mutation is already on disk.
func (s *Store) Close() error {
	return nil
}

func newEntry(e domain.Entry) entry {
	return entry{Entry: e, norm: vectorNorm(e.Embedding)}
}

// vectorNorm computes the L2 norm of a vector.
func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
