package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/keyword"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

var (
	ingestFolder     string
	ingestName       string
	ingestStructured bool
	ingestRecords    bool
	ingestMeta       map[string]string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Chunk, embed and store documents",
	Long: `Extracts the text of each file, splits it into chunks, embeds them and
stores them in the vector store under the given folder. Plain text,
Markdown, HTML and Word (.docx) files are supported.

Ingesting a file with the same folder and name again replaces its entries.

Use --structured for tabular text (one row per line) and --records for JSON
law-table records, which are embedded one record per entry.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var removeCmd = &cobra.Command{
	Use:   "remove [document-id]",
	Short: "Remove a document and its entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	f := ingestCmd.Flags()
	f.StringVarP(&ingestFolder, "folder", "f", "", "folder label the documents belong to")
	f.StringVar(&ingestName, "name", "", "stored filename (single file only; default: base name)")
	f.BoolVar(&ingestStructured, "structured", false, "chunk line by line as table rows")
	f.BoolVar(&ingestRecords, "records", false, "treat files as JSON law-table records")
	f.StringToStringVar(&ingestMeta, "meta", nil, "extra metadata as key=value")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(removeCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if ingestName != "" && len(args) > 1 {
		return errors.New("--name can only be used with a single file")
	}

	ctx := commandContext(cmd)
	var failed int
	for _, path := range args {
		name := filepath.Base(path)
		if ingestName != "" {
			name = ingestName
		}

		data, err := os.ReadFile(path)
		if err != nil {
			cmd.PrintErrf("  %s: %v\n", path, err)
			failed++
			continue
		}

		var result *driving.IngestResult
		if ingestRecords {
			records, perr := keyword.ParseRecords(data)
			if perr != nil {
				cmd.PrintErrf("  %s: invalid records: %v\n", path, perr)
				failed++
				continue
			}
			result, err = ingestService.IngestRecords(ctx, name, ingestFolder, records)
		} else {
			meta := make(map[string]any, len(ingestMeta))
			for k, v := range ingestMeta {
				meta[k] = v
			}
			result, err = ingestService.Ingest(ctx, driving.IngestRequest{
				Filename:   name,
				Folder:     ingestFolder,
				Data:       data,
				Metadata:   meta,
				Structured: ingestStructured,
			})
		}
		if err != nil {
			cmd.PrintErrf("  %s: %v\n", path, err)
			failed++
			continue
		}

		verb := "Ingested"
		if result.Replaced {
			verb = "Replaced"
		}
		cmd.Printf("%s %s (%d chunks)\n", verb, name, result.Chunks)
		cmd.Printf("  ID: %s\n", result.Document.ID)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	n, err := ingestService.Remove(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}

	cmd.Printf("Removed %s (%d entries)\n", args[0], n)
	return nil
}
