package vectorfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

var fixedNow = time.Date(2024, 7, 1, 9, 30, 15, 0, time.UTC)

func newTestStore(t *testing.T, dir string, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	s, err := New(dir, opts...)
	require.NoError(t, err)
	return s
}

func meta(source, folderName, filename string) domain.EntryMetadata {
	return domain.EntryMetadata{Source: source, Folder: folderName, Filename: filename}
}

func TestNew_EmptyDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "store")

	s := newTestStore(t, dir)

	assert.Equal(t, 0, s.Len())
	assert.DirExists(t, dir)
	assert.NoFileExists(t, s.Path())
}

func TestStore_PersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s := newTestStore(t, dir)

	m := domain.EntryMetadata{
		Source:     "doc1",
		Filename:   "조례.txt",
		Folder:     "전주시",
		CreatedAt:  "2024-01-01T00:00:00",
		Scenario:   "다중주택",
		ArticleIDs: []string{"제2조", "제5조"},
		Extra:      map[string]any{"chunk_index": float64(0), "page": "3"},
	}
	require.NoError(t, s.Add(ctx, []float32{0.1, 0.2, 0.3}, "첫 번째 청크", m))
	require.NoError(t, s.Add(ctx, []float32{0.3, 0.2, 0.1}, "second", meta("doc2", "", "b.txt")))

	reopened := newTestStore(t, dir)

	require.Equal(t, 2, reopened.Len())
	entries := reopened.Entries()
	assert.Equal(t, "첫 번째 청크", entries[0].Content)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, entries[0].Embedding)
	assert.Equal(t, m, entries[0].Metadata)
	assert.Equal(t, "second", entries[1].Content)
	assert.Equal(t, 3, reopened.Dimension())
}

func TestStore_FileFormat(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)
	require.NoError(t, s.Add(context.Background(), []float32{1, 0}, "건축법 <제1조>", meta("doc1", "전주시", "a.txt")))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	text := string(data)

	assert.True(t, strings.HasPrefix(text, "{\n  \""), "expected two-space indentation")
	assert.Contains(t, text, "전주시")
	assert.Contains(t, text, "건축법 <제1조>")

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, 3)
	assert.Contains(t, raw, "vectors")
	assert.Contains(t, raw, "contents")
	assert.Contains(t, raw, "metadatas")

	var metas []map[string]any
	require.NoError(t, json.Unmarshal(raw["metadatas"], &metas))
	assert.Equal(t, map[string]any{"source": "doc1", "folder": "전주시", "filename": "a.txt"}, metas[0])

	tmp, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, tmp)
}

func TestStore_LoadsFreeFormSnapshot(t *testing.T) {
	dir := t.TempDir()
	snapshot := `{
  "vectors": [[1.0, 0.0], [0.0, 1.0]],
  "contents": ["a", "b"],
  "metadatas": [
    {"source": "x", "folder": "전주시", "usage": ["판매시설"], "custom": {"k": 1}},
    {}
  ]
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(snapshot), 0o600))

	s := newTestStore(t, dir)

	require.Equal(t, 2, s.Len())
	m := s.Entries()[0].Metadata
	assert.Equal(t, "x", m.Source)
	assert.Equal(t, "", m.Usage)
	assert.Equal(t, []any{"판매시설"}, m.Extra["usage"])
	assert.Equal(t, map[string]any{"k": float64(1)}, m.Extra["custom"])
}

func TestStore_CorruptSnapshot(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{"vectors": [[1, 2]`},
		{"misaligned arrays", `{"vectors": [[1, 2]], "contents": [], "metadatas": [{}]}`},
		{"wrong types", `{"vectors": "nope", "contents": [], "metadatas": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, FileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o600))

			s := newTestStore(t, dir)

			assert.Equal(t, 0, s.Len())
			assert.NoFileExists(t, path)

			backup := path + ".backup.20240701_093015"
			require.FileExists(t, backup)
			saved, err := os.ReadFile(backup)
			require.NoError(t, err)
			assert.Equal(t, tt.data, string(saved))

			require.NoError(t, s.Add(context.Background(), []float32{1}, "fresh", meta("d", "", "")))
			assert.FileExists(t, path)
		})
	}
}

func TestStore_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, t.TempDir())
	require.NoError(t, s.Add(ctx, []float32{1, 2}, "a", meta("d", "", "")))

	err := s.Add(ctx, []float32{1, 2, 3}, "b", meta("d", "", ""))
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 1, s.Len())

	err = s.AddBatch(ctx, []domain.Entry{
		{Embedding: []float32{3, 4}, Content: "ok"},
		{Embedding: []float32{3}, Content: "short"},
	})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 1, s.Len(), "a rejected batch stores nothing")
}

func TestStore_AddEmptyEmbedding(t *testing.T) {
	s := newTestStore(t, t.TempDir())

	err := s.Add(context.Background(), nil, "a", meta("d", "", ""))

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, s.Len())
}

func TestStore_AddBatch(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)

	require.NoError(t, s.AddBatch(context.Background(), nil))
	assert.NoFileExists(t, s.Path())

	batch := []domain.Entry{
		{Embedding: []float32{1, 0}, Content: "one", Metadata: meta("doc", "f", "a")},
		{Embedding: []float32{0, 1}, Content: "two", Metadata: meta("doc", "f", "a")},
	}
	require.NoError(t, s.AddBatch(context.Background(), batch))

	assert.Equal(t, 2, newTestStore(t, dir).Len())
}

func TestStore_Remove(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s := newTestStore(t, dir)

	require.NoError(t, s.Add(ctx, []float32{1, 0}, "a", meta("doc1", "", "")))
	require.NoError(t, s.Add(ctx, []float32{0, 1}, "b", meta("doc2", "", "")))
	require.NoError(t, s.Add(ctx, []float32{1, 1}, "c", meta("doc1", "", "")))

	n, err := s.Remove(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, []string{"doc2"}, s.Sources())

	reopened := newTestStore(t, dir)
	require.Equal(t, 1, reopened.Len())
	assert.Equal(t, "b", reopened.Entries()[0].Content)

	n, err = s.Remove(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, s.Len())
}

func TestStore_RemoveLastEntryResetsDimension(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, t.TempDir())
	require.NoError(t, s.Add(ctx, []float32{1, 0}, "a", meta("doc1", "", "")))

	_, err := s.Remove(ctx, "doc1")
	require.NoError(t, err)

	assert.Equal(t, 0, s.Dimension())
	assert.NoError(t, s.Add(ctx, []float32{1, 0, 0}, "b", meta("doc2", "", "")))
}

func TestStore_Replace(t *testing.T) {
	ctx := context.Background()

	t.Run("swaps the source entries in one write", func(t *testing.T) {
		dir := t.TempDir()
		s := newTestStore(t, dir)
		require.NoError(t, s.Add(ctx, []float32{1, 0}, "a1", meta("doc1", "", "a.txt")))
		require.NoError(t, s.Add(ctx, []float32{0, 1}, "b1", meta("doc2", "", "b.txt")))
		require.NoError(t, s.Add(ctx, []float32{1, 1}, "a2", meta("doc1", "", "a.txt")))

		removed, err := s.Replace(ctx, "doc1", []domain.Entry{
			{Embedding: []float32{0.5, 0.5}, Content: "a-new", Metadata: meta("doc1", "", "a.txt")},
		})

		require.NoError(t, err)
		assert.Equal(t, 2, removed)
		reopened := newTestStore(t, dir)
		entries := reopened.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, "b1", entries[0].Content)
		assert.Equal(t, "a-new", entries[1].Content)
	})

	t.Run("rejected batch keeps previous entries", func(t *testing.T) {
		dir := t.TempDir()
		s := newTestStore(t, dir)
		require.NoError(t, s.Add(ctx, []float32{1, 0}, "a1", meta("doc1", "", "a.txt")))
		require.NoError(t, s.Add(ctx, []float32{0, 1}, "b1", meta("doc2", "", "b.txt")))

		removed, err := s.Replace(ctx, "doc2", []domain.Entry{
			{Embedding: []float32{1, 0, 0}, Content: "b-new", Metadata: meta("doc2", "", "b.txt")},
		})

		require.ErrorIs(t, err, domain.ErrDimensionMismatch)
		assert.Zero(t, removed)
		assert.Equal(t, []string{"doc1", "doc2"}, s.Sources())
		assert.Equal(t, 2, newTestStore(t, dir).Len())
	})

	t.Run("only source may change dimension", func(t *testing.T) {
		s := newTestStore(t, t.TempDir())
		require.NoError(t, s.Add(ctx, []float32{1, 0}, "a1", meta("doc1", "", "a.txt")))

		_, err := s.Replace(ctx, "doc1", []domain.Entry{
			{Embedding: []float32{1, 0, 0}, Content: "a-new", Metadata: meta("doc1", "", "a.txt")},
		})

		require.NoError(t, err)
		assert.Equal(t, 3, s.Dimension())
	})

	t.Run("unknown source appends", func(t *testing.T) {
		s := newTestStore(t, t.TempDir())

		removed, err := s.Replace(ctx, "doc9", []domain.Entry{
			{Embedding: []float32{1, 0}, Content: "x", Metadata: meta("doc9", "", "x.txt")},
		})

		require.NoError(t, err)
		assert.Zero(t, removed)
		assert.Equal(t, 1, s.Len())
	})
}

func TestStore_Sources(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, t.TempDir())
	for _, src := range []string{"b", "a", "b", "", "c"} {
		require.NoError(t, s.Add(ctx, []float32{1}, "x", meta(src, "", "")))
	}

	assert.Equal(t, []string{"b", "a", "c"}, s.Sources())
}

func TestStore_EntriesIsCopy(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	require.NoError(t, s.Add(context.Background(), []float32{1}, "x", meta("d", "", "")))

	entries := s.Entries()
	entries[0].Content = "changed"

	assert.Equal(t, "x", s.Entries()[0].Content)
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newTestStore(t, t.TempDir())

	assert.ErrorIs(t, s.Add(ctx, []float32{1}, "x", meta("d", "", "")), context.Canceled)
	_, err := s.Remove(ctx, "d")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Retrieve(ctx, []float32{1}, domain.RetrieveOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Add(ctx, []float32{1, 0}, "x", meta("d", "", "")))
		}()
		go func() {
			defer wg.Done()
			_, err := s.Retrieve(ctx, []float32{1, 0}, domain.RetrieveOptions{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, s.Len())
	assert.Equal(t, 10, newTestStore(t, s.dir).Len())
}
