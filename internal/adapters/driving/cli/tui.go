package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui"
)

var (
	tuiTopK  int
	tuiWatch bool
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive query console",
	Long: `Launch the interactive terminal console for querying the corpus and
managing ingested documents.

Controls:
  Tab      - Switch between query and folder
  Ctrl+T   - Cycle retrieval mode (auto, vector, keyword)
  Enter    - Query / Expand result
  ↑/k, ↓/j - Navigate results
  n        - New query
  Esc      - Back
  q        - Quit`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntVarP(&tuiTopK, "top-k", "k", 0, "results per query (0 = configured default)")
	tuiCmd.Flags().BoolVar(&tuiWatch, "watch", false, "rebuild the keyword index when record files change")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	ports := tui.NewPorts(retrievalService, ingestService)
	ports.TopK = tuiTopK

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	ctx := commandContext(cmd)
	app.WithContext(ctx)

	if tuiWatch {
		if err := startWatch(ctx, cmd); err != nil {
			return err
		}
	}

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
