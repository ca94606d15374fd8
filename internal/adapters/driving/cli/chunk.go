package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/postprocessors/chunker"
)

var (
	chunkSize    int
	chunkOverlap int
	chunkRows    bool
	chunkJSON    bool
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Preview how a file is split into chunks",
	Long: `Splits a file with the configured chunking options and prints the chunks
without embedding or storing anything. Flags override the configured options.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().IntVar(&chunkSize, "size", 0, "maximum chunk length in characters")
	chunkCmd.Flags().IntVar(&chunkOverlap, "overlap", 0, "characters carried into the next chunk")
	chunkCmd.Flags().BoolVar(&chunkRows, "rows", false, "split line by line as table rows")
	chunkCmd.Flags().BoolVar(&chunkJSON, "json", false, "output chunks as JSON")
	rootCmd.AddCommand(chunkCmd)
}

type chunkJSONOutput struct {
	Index  int    `json:"index"`
	Length int    `json:"length"`
	Text   string `json:"text"`
}

func runChunk(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	opts := configuredChunking()
	flags := cmd.Flags()
	if flags.Changed("size") {
		opts.ChunkSize = chunkSize
	}
	if flags.Changed("overlap") {
		opts.ChunkOverlap = chunkOverlap
	}
	if flags.Changed("rows") {
		opts.RowMode = chunkRows
	}

	chunks := chunker.Chunk(string(data), opts)

	if chunkJSON {
		out := make([]chunkJSONOutput, len(chunks))
		for i, c := range chunks {
			out[i] = chunkJSONOutput{Index: i, Length: len([]rune(c)), Text: c}
		}
		return outputJSON(cmd, out)
	}

	cmd.Printf("%d chunks (size %d, overlap %d, rows %t)\n\n",
		len(chunks), opts.ChunkSize, opts.ChunkOverlap, opts.RowMode)
	for i, c := range chunks {
		cmd.Printf("--- [%d] %d chars ---\n%s\n\n", i, len([]rune(c)), c)
	}
	return nil
}

// configuredChunking returns the stored chunking options, or the defaults.
func configuredChunking() domain.ChunkOptions {
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			return s.Chunking.Options()
		}
	}
	return domain.DefaultAppSettings().Chunking.Options()
}
