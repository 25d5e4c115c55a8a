package main

import (
	"fmt"

	"go.uber.org/zap"

	"mdsum/internal/catalog"
	"mdsum/internal/catalog/bunstore"
	"mdsum/internal/config"
	"mdsum/internal/generation"
	"mdsum/internal/logging"
	"mdsum/internal/service"
	"mdsum/internal/summarizer"
)

// application holds the components shared by every command.
type application struct {
	cfg       *config.AppConfig
	logger    *zap.Logger
	summaries *service.SummaryService
	index     *service.IndexService
	closers   []func() error
}

func loadConfig(path string) (*config.AppConfig, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}
	if path == "" {
		cfg, _, err := config.LoadDefault()
		return cfg, err
	}
	return config.Load(path)
}

func newApplication(cfgPath string, verbose bool) (*application, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	gen, err := generation.NewBackend(generation.BackendOptions{
		Type:              cfg.Backend.Type,
		Model:             cfg.Backend.Model,
		APIKey:            cfg.APIKey(),
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
		Burst:             cfg.Backend.Burst,
	}, logger)
	if err != nil {
		return nil, err
	}
	pool, err := generation.NewPool(cfg.Backend.Endpoints)
	if err != nil {
		return nil, err
	}
	orch := summarizer.New(gen, pool, cfg.SummarizerOptions(), logger)

	app := &application{cfg: cfg, logger: logger}
	store, err := app.openStore()
	if err != nil {
		return nil, err
	}
	cat := catalog.New(orch, store, logger.Named("catalog"))

	app.summaries = service.NewSummaryService(orch, cfg.Server.UploadDir, cfg.Server.SummaryDir, cfg.Summarizer.MaxTokens, logger)
	app.index = service.NewIndexService(cat, cfg.Catalog.SummaryMaxTokens, logger)

	logger.Debug("application ready",
		zap.String("backend", gen.Name()),
		zap.Strings("endpoints", pool.Endpoints()),
		zap.String("catalog_store", cfg.Catalog.Store),
		zap.String("catalog_path", cfg.Catalog.Path))
	return app, nil
}

func (a *application) openStore() (catalog.Store, error) {
	switch a.cfg.Catalog.Store {
	case config.StoreSQLite:
		s, err := bunstore.Open(a.cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	case config.StoreJSON, "":
		return catalog.NewFileStore(a.cfg.Catalog.Path), nil
	default:
		return nil, fmt.Errorf("unknown catalog store: %s", a.cfg.Catalog.Store)
	}
}

func (a *application) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	_ = a.logger.Sync()
	return first
}
