package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

var (
	queryFolder    string
	queryRegion    string
	queryTopK      int
	queryThreshold float64
	queryMode      string
	queryPrefer    []string
	queryJSON      bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Retrieve passages for a question",
	Long: `Retrieves the passages most relevant to a question.

With an embedding provider configured the question is embedded and matched
against the vector store by cosine similarity. Without one, or with
--mode keyword, the structured keyword index is searched instead. In auto
mode an empty vector result falls back to the keyword index.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.StringVarP(&queryFolder, "folder", "f", "", "restrict to a folder")
	f.StringVar(&queryRegion, "region", "", "additional folder searched by the keyword index")
	f.IntVarP(&queryTopK, "top-k", "k", 0, "maximum number of results (0 = configured default)")
	f.Float64Var(&queryThreshold, "threshold", 0, "minimum cosine similarity (default: configured)")
	f.StringVarP(&queryMode, "mode", "m", string(domain.QueryModeAuto), "retrieval mode: auto, vector or keyword")
	f.StringSliceVar(&queryPrefer, "prefer", nil, "document ids that receive the source weight bonus")
	f.BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	req := domain.QueryRequest{
		Query:            args[0],
		Folder:           queryFolder,
		Region:           queryRegion,
		TopK:             queryTopK,
		PreferredSources: queryPrefer,
		Mode:             domain.QueryMode(queryMode),
	}
	if cmd.Flags().Changed("threshold") {
		t := queryThreshold
		req.Threshold = &t
	}

	resp, err := retrievalService.Query(commandContext(cmd), req)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return outputJSON(cmd, resp)
	}

	cmd.Printf("Mode: %s\n\n", resp.Mode)
	outputResults(cmd, resp.Results)
	return nil
}
