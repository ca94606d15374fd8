package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// previewWidth is the terminal cell width of a result preview line.
const previewWidth = 160

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputResults(cmd *cobra.Command, results []domain.Result) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, resultLabel(&results[i]), results[i].Score)
		if p := preview(results[i].Content, previewWidth); p != "" {
			cmd.Printf("      %s\n", p)
		}
		cmd.Println()
	}
}

// resultLabel names a result by folder and filename, falling back to its source.
func resultLabel(r *domain.Result) string {
	filename, _ := r.Metadata[domain.MetaFilename].(string)
	folder, _ := r.Metadata[domain.MetaFolder].(string)
	if filename != "" {
		if folder != "" {
			return folder + "/" + filename
		}
		return filename
	}
	if source, _ := r.Metadata[domain.MetaSource].(string); source != "" {
		return source
	}
	return "(unknown source)"
}

// preview collapses whitespace and truncates to width terminal cells.
func preview(text string, width int) string {
	return runewidth.Truncate(strings.Join(strings.Fields(text), " "), width, "...")
}
