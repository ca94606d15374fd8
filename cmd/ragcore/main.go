// Command ragcore is the document retrieval engine CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/keyword"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/vectorfile"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragcore/internal/connectors/filesystem"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/services"
	"github.com/custodia-labs/ragcore/internal/logger"
	"github.com/custodia-labs/ragcore/internal/normalisers"
	"github.com/custodia-labs/ragcore/internal/postprocessors"
)

// version is overridden with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// bootstrap wires the adapters and services for one command invocation.
func bootstrap(ctx context.Context, opts cli.Options) (_ *cli.Services, err error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	defer func() {
		if err != nil {
			closeAll()
		}
	}()

	configStore, err := file.NewConfigStore(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	catalog, vectorDir, err := openCatalog(opts, settings.Storage, &closers)
	if err != nil {
		return nil, err
	}

	store, err := vectorfile.New(vectorDir, vectorfile.WithSettings(settings.Retrieval))
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	closers = append(closers, func() { _ = store.Close() })

	index := keyword.New()
	recordsDir := settings.Storage.RecordsDir
	if recordsDir == "" {
		recordsDir = filepath.Join(opts.DataDir, "documents")
	}
	records := filesystem.New(recordsDir, index)
	closers = append(closers, func() { _ = records.Close() })
	if records.Validate() == nil {
		if _, err := records.LoadAll(ctx); err != nil {
			logger.Warn("records: %v", err)
		}
	} else {
		logger.Debug("records directory %s not found, keyword index empty", recordsDir)
	}

	pipeline, err := buildPipeline(settings.Chunking)
	if err != nil {
		return nil, err
	}

	embedding := ai.Init(&settings.Embedding)
	closers = append(closers, embedding.Close)

	retrieval := services.NewRetrievalService(store, index, embedding.EmbeddingService, settings.Retrieval)
	ingest := services.NewIngestService(pipeline, store, catalog, embedding.EmbeddingService,
		services.WithNormalisers(normalisers.NewDefaultRegistry()))

	settingsService.SetChunking(pipeline)
	settingsService.AddRetriever(store)
	settingsService.AddRetriever(retrieval)

	return &cli.Services{
		Retrieval: retrieval,
		Ingest:    ingest,
		Settings:  settingsService,
		Records:   records,
		Close:     closeAll,
	}, nil
}

// openCatalog returns the document catalog and the vector directory. An
// ephemeral run keeps the catalog in memory and vectors in a temporary
// directory removed on close.
func openCatalog(
	opts cli.Options, storage domain.StorageSettings, closers *[]func(),
) (driven.DocumentCatalog, string, error) {
	if opts.Ephemeral {
		dir, err := os.MkdirTemp("", "ragcore-vectors-")
		if err != nil {
			return nil, "", fmt.Errorf("create temporary vector dir: %w", err)
		}
		*closers = append(*closers, func() { _ = os.RemoveAll(dir) })
		return memory.NewCatalog(), dir, nil
	}

	db, err := sqlite.NewStore(opts.DataDir)
	if err != nil {
		return nil, "", fmt.Errorf("open catalog: %w", err)
	}
	*closers = append(*closers, func() { _ = db.Close() })

	vectorDir := storage.VectorDir
	if vectorDir == "" {
		vectorDir = filepath.Join(opts.DataDir, "vector_store")
	}
	return db.Catalog(), vectorDir, nil
}

func buildPipeline(chunking domain.ChunkSettings) (*postprocessors.Pipeline, error) {
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)

	pipeline, err := registry.BuildPipeline(domain.PipelineConfigFor(chunking))
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	return pipeline, nil
}
