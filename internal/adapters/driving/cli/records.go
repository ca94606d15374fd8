package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage the structured records index",
	Long: `The records directory holds JSON record files laid out as
<root>/<folder>/**/*.json. The top-level directory name is the folder label.`,
}

var recordsLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Rebuild the keyword index from the records directory",
	Args:  cobra.NoArgs,
	RunE:  runRecordsLoad,
}

var recordsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the records directory and rebuild on change",
	Long: `Watches the records directory and rebuilds the keyword index whenever a
record file is created, written, removed or renamed. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runRecordsWatch,
}

func init() {
	recordsCmd.AddCommand(recordsLoadCmd)
	recordsCmd.AddCommand(recordsWatchCmd)
	rootCmd.AddCommand(recordsCmd)
}

func runRecordsLoad(cmd *cobra.Command, _ []string) error {
	if recordsLoader == nil {
		return errors.New("records loader not configured")
	}

	stats, err := recordsLoader.Rebuild(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	cmd.Printf("Loaded %d files from %s\n", stats.Files, recordsLoader.RootPath())
	if stats.Failed > 0 {
		cmd.Printf("  Failed: %d\n", stats.Failed)
	}
	cmd.Printf("  Records: %d\n", stats.Records)
	return nil
}

func runRecordsWatch(cmd *cobra.Command, _ []string) error {
	if recordsLoader == nil {
		return errors.New("records loader not configured")
	}

	ctx := commandContext(cmd)
	rebuilds, err := recordsLoader.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch records: %w", err)
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", recordsLoader.RootPath())
	for rebuild := range rebuilds {
		if rebuild.Err != nil {
			cmd.PrintErrf("rebuild after %s failed: %v\n", rebuild.Trigger, rebuild.Err)
			continue
		}
		cmd.Printf("Rebuilt after %s: %d files, %d records\n",
			rebuild.Trigger, rebuild.Stats.Files, rebuild.Stats.Records)
	}
	return nil
}

// startWatch runs the records watcher in the background for long-running
// commands. Rebuild errors are reported on stderr.
func startWatch(ctx context.Context, cmd *cobra.Command) error {
	if recordsLoader == nil {
		return errors.New("records loader not configured")
	}

	rebuilds, err := recordsLoader.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch records: %w", err)
	}
	go func() {
		for rebuild := range rebuilds {
			if rebuild.Err != nil {
				cmd.PrintErrf("records rebuild failed: %v\n", rebuild.Err)
			}
		}
	}()
	return nil
}
