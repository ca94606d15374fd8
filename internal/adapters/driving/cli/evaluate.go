package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

var (
	evalExpect []string
	evalCases  string
	evalFolder string
	evalTopK   int
	evalMode   string
	evalJSON   bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [query]",
	Short: "Score retrieval against expected documents",
	Long: `Runs a query and compares the retrieved document ids with the expected
ones, reporting precision, recall and F1.

Pass a single query with --expect, or a JSON file of cases with --cases:

  [{"query": "...", "expected": ["doc-id", ...], "folder": "..."}]`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringSliceVarP(&evalExpect, "expect", "e", nil, "expected document ids")
	f.StringVar(&evalCases, "cases", "", "JSON file of evaluation cases")
	f.StringVarP(&evalFolder, "folder", "f", "", "restrict to a folder")
	f.IntVarP(&evalTopK, "top-k", "k", 0, "maximum number of results (0 = configured default)")
	f.StringVarP(&evalMode, "mode", "m", string(domain.QueryModeAuto), "retrieval mode: auto, vector or keyword")
	f.BoolVar(&evalJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(evaluateCmd)
}

// evalCase is one entry in a --cases file.
type evalCase struct {
	Query    string   `json:"query"`
	Expected []string `json:"expected"`
	Folder   string   `json:"folder,omitempty"`
}

type evalSummary struct {
	Cases     []*domain.Evaluation `json:"cases"`
	Precision float64              `json:"mean_precision"`
	Recall    float64              `json:"mean_recall"`
	F1        float64              `json:"mean_f1"`
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	cases, err := loadEvalCases(args)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	summary := evalSummary{Cases: make([]*domain.Evaluation, 0, len(cases))}
	for _, c := range cases {
		folderLabel := c.Folder
		if folderLabel == "" {
			folderLabel = evalFolder
		}
		eval, err := retrievalService.Evaluate(ctx, domain.QueryRequest{
			Query:  c.Query,
			Folder: folderLabel,
			TopK:   evalTopK,
			Mode:   domain.QueryMode(evalMode),
		}, c.Expected)
		if err != nil {
			return fmt.Errorf("evaluate %q: %w", c.Query, err)
		}
		summary.Cases = append(summary.Cases, eval)
		summary.Precision += eval.Precision
		summary.Recall += eval.Recall
		summary.F1 += eval.F1
	}
	n := float64(len(summary.Cases))
	summary.Precision /= n
	summary.Recall /= n
	summary.F1 /= n

	if evalJSON {
		return outputJSON(cmd, summary)
	}

	for _, e := range summary.Cases {
		cmd.Printf("Query: %s\n", e.Query)
		cmd.Printf("  Matched:   %d of %d expected (%d retrieved)\n", e.Matched, len(e.Expected), len(e.Retrieved))
		cmd.Printf("  Precision: %.3f\n", e.Precision)
		cmd.Printf("  Recall:    %.3f\n", e.Recall)
		cmd.Printf("  F1:        %.3f\n", e.F1)
		cmd.Println()
	}
	if len(summary.Cases) > 1 {
		cmd.Printf("Mean over %d cases: precision %.3f, recall %.3f, F1 %.3f\n",
			len(summary.Cases), summary.Precision, summary.Recall, summary.F1)
	}
	return nil
}

func loadEvalCases(args []string) ([]evalCase, error) {
	if evalCases != "" {
		if len(args) > 0 {
			return nil, errors.New("pass either a query or --cases, not both")
		}
		data, err := os.ReadFile(evalCases)
		if err != nil {
			return nil, fmt.Errorf("failed to read cases: %w", err)
		}
		var cases []evalCase
		if err := json.Unmarshal(data, &cases); err != nil {
			return nil, fmt.Errorf("invalid cases file: %w", err)
		}
		if len(cases) == 0 {
			return nil, errors.New("cases file is empty")
		}
		return cases, nil
	}

	if len(args) == 0 {
		return nil, errors.New("a query or --cases is required")
	}
	if len(evalExpect) == 0 {
		return nil, errors.New("at least one --expect document id is required")
	}
	return []evalCase{{Query: args[0], Expected: evalExpect}}, nil
}
