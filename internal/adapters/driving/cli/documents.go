package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/folder"
)

var (
	documentsFolder string
	documentsJSON   bool
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Manage ingested documents",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

func init() {
	documentsListCmd.Flags().StringVarP(&documentsFolder, "folder", "f", "", "only documents in this folder")
	documentsListCmd.Flags().BoolVar(&documentsJSON, "json", false, "output as JSON")
	documentsCmd.AddCommand(documentsListCmd)
	rootCmd.AddCommand(documentsCmd)
}

type documentJSON struct {
	ID         string         `json:"id"`
	Filename   string         `json:"filename"`
	Folder     string         `json:"folder"`
	ChunkCount int            `json:"chunk_count"`
	CreatedAt  string         `json:"created_at,omitempty"`
	UpdatedAt  string         `json:"updated_at,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	docs, err := ingestService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentsFolder != "" {
		filtered := docs[:0]
		for _, d := range docs {
			if folder.Equal(d.Folder, documentsFolder) {
				filtered = append(filtered, d)
			}
		}
		docs = filtered
	}

	if documentsJSON {
		out := make([]documentJSON, len(docs))
		for i, d := range docs {
			out[i] = documentJSON{
				ID:         d.ID,
				Filename:   d.Filename,
				Folder:     d.Folder,
				ChunkCount: d.ChunkCount,
				CreatedAt:  formatTime(d.CreatedAt),
				UpdatedAt:  formatTime(d.UpdatedAt),
				Metadata:   d.Metadata,
			}
		}
		return outputJSON(cmd, out)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	cmd.Printf("Documents (%d):\n\n", len(docs))
	for i := range docs {
		printDocument(cmd, &docs[i])
	}
	return nil
}

func printDocument(cmd *cobra.Command, d *domain.Document) {
	cmd.Printf("  %s\n", d.Filename)
	cmd.Printf("    ID:     %s\n", d.ID)
	if d.Folder != "" {
		cmd.Printf("    Folder: %s\n", d.Folder)
	}
	cmd.Printf("    Chunks: %d\n", d.ChunkCount)
	if !d.UpdatedAt.IsZero() {
		cmd.Printf("    Updated: %s\n", formatTime(d.UpdatedAt))
	}
	cmd.Println()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
