package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/keyword"
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

const qaRecords = `[
  {"id": 1, "question": "다중주택의 층수 제한은?", "answer": "3개 층 이하입니다.", "category": "층수"},
  {"id": 2, "question": "주차장 설치 기준은?", "answer": "150제곱미터당 1대입니다.", "category": "주차"}
]`

const ordinanceRecord = `{"id": "조례-1", "title": "건축 조례", "answer": "대지 안의 공지를 확보한다.", "category": "이격거리"}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func recordsTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "다중주택", "qa.json"), qaRecords)
	writeFile(t, filepath.Join(root, "전주시", "조례", "ordinance.json"), ordinanceRecord)
	writeFile(t, filepath.Join(root, "다중주택", "notes.txt"), "not a record file")
	writeFile(t, filepath.Join(root, ".cache", "stale.json"), qaRecords)
	writeFile(t, filepath.Join(root, "다중주택", ".draft.json"), qaRecords)
	return root
}

func TestNew(t *testing.T) {
	t.Run("creates connector with defaults", func(t *testing.T) {
		connector := New("/tmp/records", keyword.New())

		require.NotNil(t, connector)
		assert.Equal(t, "/tmp/records", connector.RootPath())
		assert.Equal(t, DefaultDebounce, connector.debounce)
	})

	t.Run("applies debounce option", func(t *testing.T) {
		connector := New("/tmp/records", keyword.New(), WithDebounce(10*time.Millisecond))
		assert.Equal(t, 10*time.Millisecond, connector.debounce)
	})

	t.Run("ignores non-positive debounce", func(t *testing.T) {
		connector := New("/tmp/records", keyword.New(), WithDebounce(0))
		assert.Equal(t, DefaultDebounce, connector.debounce)
	})
}

func TestConnector_Validate(t *testing.T) {
	t.Run("existing directory", func(t *testing.T) {
		assert.NoError(t, New(t.TempDir(), keyword.New()).Validate())
	})

	t.Run("missing directory", func(t *testing.T) {
		err := New(filepath.Join(t.TempDir(), "missing"), keyword.New()).Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("file instead of directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file.json")
		writeFile(t, path, "[]")

		err := New(path, keyword.New()).Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})
}

func TestConnector_LoadAll(t *testing.T) {
	t.Run("loads record files with top-level folder labels", func(t *testing.T) {
		index := keyword.New()
		connector := New(recordsTree(t), index)

		stats, err := connector.LoadAll(context.Background())

		require.NoError(t, err)
		assert.Equal(t, LoadStats{Files: 2, Failed: 0, Records: 3}, stats)
		assert.Equal(t, []string{"다중주택", "전주시"}, index.Folders())

		results := index.Search("공지를 확보한다", domain.SearchOptions{FolderFilter: "전주시"})
		require.Len(t, results, 1)
		assert.Equal(t, "전주시/ordinance.json", results[0].Metadata["source"])
	})

	t.Run("counts malformed files as failed", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "f", "good.json"), qaRecords)
		writeFile(t, filepath.Join(root, "f", "bad.json"), `[{"question": `)

		stats, err := New(root, keyword.New()).LoadAll(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, stats.Files)
		assert.Equal(t, 1, stats.Failed)
		assert.Equal(t, 2, stats.Records)
	})

	t.Run("files directly under root have no folder", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "top.json"), qaRecords)
		index := keyword.New()

		_, err := New(root, index).LoadAll(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{""}, index.Folders())
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := New(filepath.Join(t.TempDir(), "missing"), keyword.New()).LoadAll(context.Background())
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New(recordsTree(t), keyword.New()).LoadAll(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestConnector_Rebuild(t *testing.T) {
	root := recordsTree(t)
	index := keyword.New()
	connector := New(root, index)
	_, err := connector.LoadAll(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(filepath.Join(root, "전주시")))
	stats, err := connector.Rebuild(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, []string{"다중주택"}, index.Folders())
}

// observingIndex records what a reader sees at the moment a rebuild
// hands over its files.
type observingIndex struct {
	*keyword.Index
	seen   []int
	resets int
}

func (o *observingIndex) ReplaceAll(files []domain.RecordFile) int {
	o.seen = append(o.seen, len(o.Search("최소 거리", domain.SearchOptions{})))
	return o.Index.ReplaceAll(files)
}

func (o *observingIndex) Reset() {
	o.resets++
	o.Index.Reset()
}

func TestConnector_RebuildKeepsIndexReadable(t *testing.T) {
	root := recordsTree(t)
	writeFile(t, filepath.Join(root, "다중주택", "distance.json"),
		`[{"question": "대지 경계선으로부터 최소 거리는?", "answer": "1미터 이상입니다.", "category": "이격거리"}]`)
	index := &observingIndex{Index: keyword.New()}
	connector := New(root, index)
	_, err := connector.LoadAll(context.Background())
	require.NoError(t, err)

	stats, err := connector.Rebuild(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Files)
	assert.Zero(t, index.resets)
	require.Len(t, index.seen, 1)
	assert.Positive(t, index.seen[0])
	assert.NotEmpty(t, index.Search("최소 거리", domain.SearchOptions{}))
}

func TestConnector_RebuildMissingRootKeepsIndex(t *testing.T) {
	root := recordsTree(t)
	index := keyword.New()
	connector := New(root, index)
	_, err := connector.LoadAll(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(root))
	_, err = connector.Rebuild(context.Background())

	require.Error(t, err)
	_, records := index.Stats()
	assert.Equal(t, 3, records)
}

func TestConnector_Watch(t *testing.T) {
	t.Run("rebuilds after a record file is written", func(t *testing.T) {
		root := recordsTree(t)
		index := keyword.New()
		connector := New(root, index, WithDebounce(100*time.Millisecond))
		defer connector.Close()
		_, err := connector.LoadAll(context.Background())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		rebuilds, err := connector.Watch(ctx)
		require.NoError(t, err)

		newFile := filepath.Join(root, "전주시", "조례", "extra.json")
		go func() {
			time.Sleep(50 * time.Millisecond)
			os.WriteFile(newFile, []byte(`[{"question": "용도 변경 절차", "answer": "신고합니다"}]`), 0o644)
		}()

		select {
		case rebuild, ok := <-rebuilds:
			require.True(t, ok)
			require.NoError(t, rebuild.Err)
			assert.Equal(t, 3, rebuild.Stats.Files)
			assert.Equal(t, 4, rebuild.Stats.Records)
			assert.Equal(t, newFile, rebuild.Trigger)
		case <-time.After(3 * time.Second):
			t.Fatal("timeout waiting for rebuild")
		}

		assert.NotEmpty(t, index.Search("용도 변경 절차", domain.SearchOptions{}))
	})

	t.Run("returns error for non-existent directory", func(t *testing.T) {
		connector := New("/non/existent/path", keyword.New())

		rebuilds, err := connector.Watch(context.Background())

		assert.Error(t, err)
		assert.Nil(t, rebuilds)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("closes channel when context is cancelled", func(t *testing.T) {
		connector := New(t.TempDir(), keyword.New())
		defer connector.Close()
		ctx, cancel := context.WithCancel(context.Background())

		rebuilds, err := connector.Watch(ctx)
		require.NoError(t, err)
		cancel()

		select {
		case _, ok := <-rebuilds:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("channel did not close after context cancellation")
		}
	})

	t.Run("closes channel when connector is closed", func(t *testing.T) {
		connector := New(t.TempDir(), keyword.New())

		rebuilds, err := connector.Watch(context.Background())
		require.NoError(t, err)
		require.NoError(t, connector.Close())

		select {
		case _, ok := <-rebuilds:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("channel did not close after Close")
		}
	})

	t.Run("returns error when connector is closed", func(t *testing.T) {
		connector := New(t.TempDir(), keyword.New())
		connector.Close()

		rebuilds, err := connector.Watch(context.Background())

		assert.ErrorIs(t, err, ErrClosed)
		assert.Nil(t, rebuilds)
	})
}

func TestConnector_Close(t *testing.T) {
	connector := New("/tmp/test", keyword.New())

	assert.NoError(t, connector.Close())
	assert.NoError(t, connector.Close())
	assert.Equal(t, "/tmp/test", connector.RootPath())
}

func TestHandleFsEvent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "f", "qa.json"), qaRecords)
	writeFile(t, filepath.Join(root, "f", "notes.txt"), "text")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "new-folder"), 0o755))

	tests := []struct {
		name string
		path string
		op   fsnotify.Op
		want bool
	}{
		{"create record", "f/qa.json", fsnotify.Create, true},
		{"write record", "f/qa.json", fsnotify.Write, true},
		{"remove record", "f/gone.json", fsnotify.Remove, true},
		{"rename record", "f/moved.json", fsnotify.Rename, true},
		{"uppercase extension", "f/QA.JSON", fsnotify.Write, true},
		{"write with chmod", "f/qa.json", fsnotify.Write | fsnotify.Chmod, true},
		{"chmod only", "f/qa.json", fsnotify.Chmod, false},
		{"non-record file", "f/notes.txt", fsnotify.Write, false},
		{"hidden file", "f/.qa.json", fsnotify.Write, false},
		{"hidden directory", ".cache/qa.json", fsnotify.Create, false},
		{"new directory", "new-folder", fsnotify.Create, true},
	}

	connector := New(root, keyword.New())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := fsnotify.Event{Name: filepath.Join(root, filepath.FromSlash(tt.path)), Op: tt.op}
			assert.Equal(t, tt.want, connector.handleFsEvent(nil, event))
		})
	}
}

func TestHandleFsEvent_HiddenRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".ragcore", "documents")
	require.NoError(t, os.MkdirAll(root, 0o755))
	connector := New(root, keyword.New())

	event := fsnotify.Event{Name: filepath.Join(root, "f", "qa.json"), Op: fsnotify.Write}

	assert.True(t, connector.handleFsEvent(nil, event))
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/to/.hidden", true},
		{"dir/.git/config", true},
		{".config/.cache/data", true},
		{"file.txt", false},
		{"path/to/file.txt", false},
		{".", false},
		{"..", false},
		{"path/./file", false},
		{"path/../file", false},
		{"", false},
		{"/", false},
		{"file.hidden", false},
		{"directory.name/file", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}

func TestFolderOf(t *testing.T) {
	connector := New("/records", keyword.New())

	assert.Equal(t, "다중주택", connector.folderOf("/records/다중주택/qa.json"))
	assert.Equal(t, "전주시", connector.folderOf("/records/전주시/조례/a.json"))
	assert.Equal(t, "", connector.folderOf("/records/top.json"))
}
