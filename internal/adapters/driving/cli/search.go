package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

var (
	searchFolder string
	searchRegion string
	searchTopK   int
	searchJSON   bool

	categoryFolder string
	categoryJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search structured records by keyword",
	Long: `Searches the structured record index directly, without embeddings.
Terms are matched against record fields and ranked by accumulated weight.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var categoryCmd = &cobra.Command{
	Use:   "category [name]",
	Short: "List structured records in a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategory,
}

func init() {
	searchCmd.Flags().StringVarP(&searchFolder, "folder", "f", "", "restrict to a folder")
	searchCmd.Flags().StringVar(&searchRegion, "region", "", "additional folder to search")
	searchCmd.Flags().IntVarP(&searchTopK, "limit", "n", 5, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")

	categoryCmd.Flags().StringVarP(&categoryFolder, "folder", "f", "", "restrict to a folder")
	categoryCmd.Flags().BoolVar(&categoryJSON, "json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(categoryCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	results, err := retrievalService.Search(commandContext(cmd), args[0], domain.SearchOptions{
		FolderFilter: searchFolder,
		RegionFilter: searchRegion,
		TopK:         searchTopK,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, results)
	}
	outputResults(cmd, results)
	return nil
}

func runCategory(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	results, err := retrievalService.ByCategory(commandContext(cmd), args[0], categoryFolder)
	if err != nil {
		return fmt.Errorf("category lookup failed: %w", err)
	}

	if categoryJSON {
		return outputJSON(cmd, results)
	}
	outputResults(cmd, results)
	return nil
}
