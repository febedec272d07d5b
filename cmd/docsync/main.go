// Command docsync keeps a search index in sync with a directory of documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/docsync/internal/adapters/driven/config/file"
	bleveindex "github.com/custodia-labs/docsync/internal/adapters/driven/docindex/bleve"
	hashembed "github.com/custodia-labs/docsync/internal/adapters/driven/embedding/hash"
	"github.com/custodia-labs/docsync/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/docsync/internal/adapters/driven/lock"
	"github.com/custodia-labs/docsync/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/docsync/internal/adapters/driven/storage/sqlite"
	hnswstore "github.com/custodia-labs/docsync/internal/adapters/driven/vectorstore/hnsw"
	"github.com/custodia-labs/docsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/docsync/internal/connectors/filesystem"
	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/core/services"
	"github.com/custodia-labs/docsync/internal/logger"
	"github.com/custodia-labs/docsync/internal/normalisers"
)

// version is set via -ldflags at build time.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)

	app, err := wire(ctx)
	if err != nil {
		logger.Error("%v", err)
		return 1
	}
	defer app.close()

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}

// app holds the wired services and everything that needs closing.
type app struct {
	closers []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("shutdown: %v", err)
		}
	}
}

// wire builds the services from the settings file. Invalid settings leave
// only the settings commands usable so they can be fixed.
func wire(ctx context.Context) (*app, error) {
	a := &app{}

	store, err := file.NewSettingsStore("")
	if err != nil {
		return nil, fmt.Errorf("opening settings: %w", err)
	}
	settingsService := services.NewSettingsService(store)
	cli.SetServices(cli.Services{Settings: settingsService})

	settings, err := store.Load()
	if err == nil {
		err = settings.Validate()
	}
	if err != nil {
		logger.Warn("settings at %s are invalid, only 'settings' commands are available: %v", store.Path(), err)
		return a, nil
	}

	dataDir, err := dataDirectory(settings)
	if err != nil {
		return nil, err
	}

	ledger, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	a.closers = append(a.closers, ledger.Close)

	rm := ledger.RecordManager(settings.Index.Namespace)
	if err := rm.CreateSchema(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("preparing ledger: %w", err)
	}

	dest, retriever, err := openDestination(a, settings, dataDir)
	if err != nil {
		a.close()
		return nil, err
	}
	if settings.Destination.RateLimit > 0 {
		dest = ratelimit.Destination(dest, ratelimit.NewLimiter(settings.Destination.RateLimit, settings.Destination.Burst))
	}

	cfg, err := settings.IndexConfig()
	if err != nil {
		a.close()
		return nil, err
	}

	syncService := services.NewSyncService(
		services.NewIndexService(),
		rm,
		dest,
		lock.NewFileLocker(filepath.Join(dataDir, "locks")),
		cfg,
		openSource,
		openNotifier,
	)

	cli.SetServices(cli.Services{
		Sync:     syncService,
		Search:   services.NewSearchService(retriever),
		Ledger:   services.NewLedgerService(rm),
		Settings: settingsService,
	})
	return a, nil
}

func openDestination(a *app, settings domain.Settings, dataDir string) (driven.Destination, driven.Retriever, error) {
	switch domain.DestinationKind(settings.Destination.Kind) {
	case domain.DestinationVectorStore:
		embedder := newEmbedder(settings.Embedding)
		a.closers = append(a.closers, embedder.Close)

		path := settings.Destination.Path
		if path == "" {
			path = filepath.Join(dataDir, "vectors.hnsw")
		}
		vs, err := hnswstore.NewStore(embedder, path)
		if err != nil {
			return driven.Destination{}, nil, fmt.Errorf("opening vector store: %w", err)
		}
		a.closers = append(a.closers, vs.Close)
		return driven.NewVectorStoreDestination(vs), vs, nil

	case domain.DestinationDocumentIndex:
		path := settings.Destination.Path
		if path == "" {
			path = filepath.Join(dataDir, "index.bleve")
		}
		idx, err := bleveindex.NewIndex(path)
		if err != nil {
			return driven.Destination{}, nil, fmt.Errorf("opening document index: %w", err)
		}
		a.closers = append(a.closers, idx.Close)
		return driven.NewDocumentIndexDestination(idx), idx, nil

	default:
		return driven.Destination{}, nil, fmt.Errorf("%w: unknown destination kind %q",
			domain.ErrInvalidConfig, settings.Destination.Kind)
	}
}

func newEmbedder(cfg domain.EmbeddingSettings) driven.EmbeddingService {
	if domain.EmbeddingProvider(cfg.Provider) == domain.EmbeddingOllama {
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
	}
	return hashembed.NewEmbeddingService(cfg.Dimensions)
}

func dataDirectory(settings domain.Settings) (string, error) {
	if settings.Ledger.Path != "" {
		return settings.Ledger.Path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("cannot determine home directory; set ledger.path")
	}
	return filepath.Join(home, ".docsync", "data"), nil
}

func openSource(root string) (driven.DocumentSource, error) {
	src, err := filesystem.NewSource(root)
	if err != nil {
		return nil, err
	}
	return src.WithNormaliser(normalisers.Default()), nil
}

func openNotifier(root string) (driven.ChangeNotifier, error) {
	return filesystem.NewWatcher(root, filesystem.DefaultDebounce), nil
}
