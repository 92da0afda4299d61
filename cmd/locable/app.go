package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/locable/locable/internal/config"
	"github.com/locable/locable/internal/embeddings"
	"github.com/locable/locable/internal/logging"
	"github.com/locable/locable/internal/metrics"
	"github.com/locable/locable/internal/project"
	"github.com/locable/locable/internal/searchpath"
	"github.com/locable/locable/internal/telemetry"
	"github.com/locable/locable/internal/vectorstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newEmbedder builds the embedding provider. Tests replace it.
var newEmbedder = embeddings.NewProvider

// app is the per-invocation state shared by the subcommands.
type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	tel      *telemetry.Telemetry
	metrics  *metrics.Metrics
	registry *searchpath.Registry
	layout   *project.Layout
	embedder *lazyEmbedder
}

// newApp locates the project, loads configuration and prepares logging,
// telemetry and the namespace layout. persistDir overrides the configured
// store path when non-empty.
func newApp(cmd *cobra.Command, g *globalOptions, persistDir string) (*app, context.Context, error) {
	start := g.root
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil, fmt.Errorf("getting working directory: %w", err)
		}
		start = wd
	}
	proj, err := project.FindRoot(start)
	if err != nil {
		return nil, nil, fmt.Errorf("finding project root: %w", err)
	}

	cfg, err := loadConfig(g.configPath, proj.Root)
	if err != nil {
		return nil, nil, err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}

	logger, err := newLogger(cfg, cmd)
	if err != nil {
		return nil, nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.WithRunID(ctx, uuid.NewString())
	ctx = logging.WithCommand(ctx, cmd.Name())

	tel, err := telemetry.New(ctx, telemetry.ConfigFrom(cfg.Telemetry), logger.Underlying())
	if err != nil {
		return nil, nil, err
	}
	logger = logger.WithOTel(tel.LoggerProvider())
	ctx = logging.WithLogger(ctx, logger)

	registry, err := searchpath.NewRegistry(nil, searchpath.Config{
		Name:         cfg.Namespace.Name,
		Roots:        proj.AbsAll(cfg.Namespace.Roots),
		InstallRoots: proj.AbsAll(cfg.Namespace.InstallRoots),
		MergeNested:  cfg.Namespace.MergeNested,
		Extensions:   cfg.Namespace.Extensions,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("building namespace registry: %w", err)
	}

	if persistDir == "" {
		persistDir = cfg.Store.Path
	}
	layout, err := project.NewLayout(proj, registry, cfg.Namespace.Name, persistDir)
	if err != nil {
		return nil, nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		tel:      tel,
		metrics:  metrics.New(),
		registry: registry,
		layout:   layout,
		embedder: &lazyEmbedder{cfg: embeddings.ProviderConfigFrom(cfg.Embeddings, logger.Underlying())},
	}

	logger.Debug(ctx, "project located",
		zap.String("root", proj.Root),
		zap.String("source", string(proj.Source)),
		zap.String("persist_dir", layout.PersistDir),
		zap.Strings("search_path", a.searchPath()))
	logger.Debug(ctx, "store configured",
		zap.String("provider", cfg.Store.Provider),
		zap.String("embeddings", cfg.Embeddings.Provider),
		logging.Secret("embeddings_api_key", cfg.Embeddings.APIKey),
		logging.Secret("qdrant_api_key", cfg.Qdrant.APIKey))
	return a, ctx, nil
}

// loadConfig reads an explicit config file, else <root>/locable.yaml when it
// exists, else the user config.
func loadConfig(path, root string) (*config.Config, error) {
	if path == "" {
		candidate := filepath.Join(root, config.ProjectConfigName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	cfg, err := config.LoadWithFile(path, root)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, cmd *cobra.Command) (*logging.Logger, error) {
	lc, err := logging.FromSettings(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(lc)
}

// openStore opens the configured collection.
func (a *app) openStore() (vectorstore.Store, error) {
	store, err := vectorstore.NewStore(a.cfg, a.layout.PersistDir, a.embedder, a.logger.Underlying())
	if err != nil {
		a.metrics.RecordError(a.cfg.Store.Provider, "open")
		return nil, fmt.Errorf("opening %s store: %w", a.cfg.Store.Provider, err)
	}
	return store, nil
}

func (a *app) searchPath() []string {
	if a.layout.Namespace == nil {
		return nil
	}
	return a.layout.Namespace.Dirs()
}

// Close flushes metrics and telemetry. Failures are logged, never returned.
func (a *app) Close(ctx context.Context) {
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn(ctx, "metrics export failed", zap.Error(err))
	}
	if err := a.embedder.Close(); err != nil {
		a.logger.Warn(ctx, "closing embedder", zap.Error(err))
	}
	if err := a.tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
		a.logger.Warn(ctx, "telemetry shutdown", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// lazyEmbedder defers building the provider until something is embedded,
// so inspecting an empty or missing store never loads a model.
type lazyEmbedder struct {
	cfg embeddings.ProviderConfig

	once     sync.Once
	provider embeddings.Provider
	err      error
}

func (l *lazyEmbedder) get(ctx context.Context) (embeddings.Provider, error) {
	l.once.Do(func() {
		l.provider, l.err = newEmbedder(ctx, l.cfg)
		if l.err != nil {
			l.err = fmt.Errorf("creating %s embedder: %w", l.cfg.Provider, l.err)
		}
	})
	return l.provider, l.err
}

func (l *lazyEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	p, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return p.EmbedDocuments(ctx, texts)
}

func (l *lazyEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	p, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return p.EmbedQuery(ctx, text)
}

func (l *lazyEmbedder) Close() error {
	if l.provider == nil {
		return nil
	}
	return l.provider.Close()
}

var errUnknownOutput = errors.New("unknown output format")
