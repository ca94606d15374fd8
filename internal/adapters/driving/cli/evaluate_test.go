package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

func TestEvaluateCommand(t *testing.T) {
	t.Run("single query", func(t *testing.T) {
		ts := setupTestServices(t)

		out, err := execute(t, "evaluate", "다중주택 층수", "-e", "doc-1,doc-2", "-f", "다중주택", "-k", "4")

		requireNoError(t, out, err)
		assert.Equal(t, "다중주택", ts.retrieval.lastReq.Folder)
		assert.Equal(t, 4, ts.retrieval.lastReq.TopK)
		assert.Equal(t, domain.QueryModeAuto, ts.retrieval.lastReq.Mode)
		assert.Equal(t, [][]string{{"doc-1", "doc-2"}}, ts.retrieval.expected)
		assert.Contains(t, out, "Matched:   2 of 2 expected")
		assert.Contains(t, out, "Precision: 1.000")
		assert.NotContains(t, out, "Mean over")
	})

	t.Run("cases file with means", func(t *testing.T) {
		ts := setupTestServices(t)
		path := writeTemp(t, "cases.json", `[
			{"query": "층수 제한", "expected": ["doc-1"], "folder": "다중주택"},
			{"query": "miss 주차", "expected": ["doc-2"]}
		]`)

		out, err := execute(t, "evaluate", "--cases", path, "--folder", "전주시")

		requireNoError(t, out, err)
		assert.Equal(t, "전주시", ts.retrieval.lastReq.Folder)
		assert.Contains(t, out, "Mean over 2 cases: precision 0.500, recall 0.500, F1 0.500")
	})

	t.Run("json output", func(t *testing.T) {
		setupTestServices(t)

		out, err := execute(t, "evaluate", "층수", "-e", "doc-1", "--json")

		requireNoError(t, out, err)
		var summary evalSummary
		require.NoError(t, json.Unmarshal([]byte(out), &summary))
		require.Len(t, summary.Cases, 1)
		assert.InDelta(t, 1.0, summary.F1, 1e-9)
	})

	t.Run("argument errors", func(t *testing.T) {
		setupTestServices(t)
		cases := writeTemp(t, "cases.json", `[{"query": "q", "expected": ["a"]}]`)
		empty := writeTemp(t, "empty.json", `[]`)

		tests := []struct {
			args []string
			want string
		}{
			{[]string{"evaluate"}, "a query or --cases is required"},
			{[]string{"evaluate", "q"}, "at least one --expect"},
			{[]string{"evaluate", "q", "--cases", cases}, "not both"},
			{[]string{"evaluate", "--cases", empty}, "cases file is empty"},
			{[]string{"evaluate", "--cases", "/no/such/cases.json"}, "failed to read cases"},
		}
		for _, tt := range tests {
			_, err := execute(t, tt.args...)
			require.Error(t, err, tt.args)
			assert.Contains(t, err.Error(), tt.want)
		}
	})
}
