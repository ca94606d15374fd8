package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

func sampleDocuments() []domain.Document {
	updated := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return []domain.Document{
		{ID: "doc-1", Filename: "건축법.txt", Folder: "다중주택", ChunkCount: 4, UpdatedAt: updated},
		{ID: "doc-2", Filename: "조례.txt", Folder: "전주시", ChunkCount: 2, UpdatedAt: updated},
	}
}

func TestDocumentsListCommand(t *testing.T) {
	t.Run("lists all documents", func(t *testing.T) {
		ts := setupTestServices(t)
		ts.ingest.documents = sampleDocuments()

		out, err := execute(t, "documents", "list")

		requireNoError(t, out, err)
		assert.Contains(t, out, "Documents (2):")
		assert.Contains(t, out, "건축법.txt")
		assert.Contains(t, out, "ID:     doc-2")
		assert.Contains(t, out, "Chunks: 4")
	})

	t.Run("filters by folder", func(t *testing.T) {
		ts := setupTestServices(t)
		ts.ingest.documents = sampleDocuments()

		out, err := execute(t, "docs", "list", "--folder", "전주시")

		requireNoError(t, out, err)
		assert.Contains(t, out, "Documents (1):")
		assert.NotContains(t, out, "건축법.txt")
	})

	t.Run("json output", func(t *testing.T) {
		ts := setupTestServices(t)
		ts.ingest.documents = sampleDocuments()

		out, err := execute(t, "documents", "list", "--json")

		requireNoError(t, out, err)
		var docs []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &docs))
		assert.Len(t, docs, 2)
	})

	t.Run("empty catalog", func(t *testing.T) {
		setupTestServices(t)

		out, err := execute(t, "documents", "list")

		requireNoError(t, out, err)
		assert.Contains(t, out, "No documents found.")
	})
}
