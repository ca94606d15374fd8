// Package cli implements the ragcore command line using cobra.
//
// Commands reach the core through driving ports held in package-level
// variables. The binary installs a Bootstrap that builds them once flags are
// parsed; tests assign them directly.
package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/connectors/filesystem"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// version is set by the binary at build time.
var version = "dev"

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

// RecordsLoader loads and watches the structured records directory.
type RecordsLoader interface {
	RootPath() string
	Rebuild(ctx context.Context) (filesystem.LoadStats, error)
	Watch(ctx context.Context) (<-chan filesystem.Rebuild, error)
}

// Services holds the ports commands operate on.
type Services struct {
	Retrieval driving.RetrievalService
	Ingest    driving.IngestService
	Settings  driving.SettingsService
	Records   RecordsLoader

	// Close releases resources; called after the command finishes.
	Close func()
}

// Options carries the global flags to a Bootstrap.
type Options struct {
	DataDir   string
	Ephemeral bool
}

// Bootstrap builds the services for a command invocation.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var (
	bootstrap Bootstrap
	closeFn   func()

	retrievalService driving.RetrievalService
	ingestService    driving.IngestService
	settingsService  driving.SettingsService
	recordsLoader    RecordsLoader
)

var (
	verbose   bool
	dataDir   string
	ephemeral bool
)

var rootCmd = &cobra.Command{
	Use:   "ragcore",
	Short: "Document retrieval engine",
	Long: `ragcore chunks and embeds documents into a local vector store and
answers queries by cosine similarity, with a keyword index over structured
records as a fallback when no embedding provider is available.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", DefaultDataDir(), "directory for config, vectors and catalog")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep the catalog and vectors only for this run")
}

// DefaultDataDir returns $RAGCORE_HOME or ~/.ragcore.
func DefaultDataDir() string {
	if dir := os.Getenv("RAGCORE_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ragcore"
	}
	return filepath.Join(home, ".ragcore")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap installs the function that builds services for each command.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices assigns the ports directly, bypassing Bootstrap.
func SetServices(s *Services) {
	if s == nil {
		retrievalService, ingestService, settingsService, recordsLoader = nil, nil, nil, nil
		closeFn = nil
		return
	}
	retrievalService = s.Retrieval
	ingestService = s.Ingest
	settingsService = s.Settings
	recordsLoader = s.Records
	closeFn = s.Close
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if bootstrap == nil || cmd.Annotations[skipBootstrap] == "true" {
		return nil
	}
	if dataDir == "" {
		return errors.New("data directory is required")
	}

	services, err := bootstrap(cmd.Context(), Options{DataDir: dataDir, Ephemeral: ephemeral})
	if err != nil {
		return err
	}
	SetServices(services)
	return nil
}

func teardown(_ *cobra.Command, _ []string) {
	if closeFn != nil {
		closeFn()
		closeFn = nil
	}
}

// commandContext returns the command context, or Background when unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
