package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"timelines/internal/config"
	"timelines/internal/domain"
	"timelines/internal/logging"
	"timelines/internal/repository"
	"timelines/internal/service"
	"timelines/internal/store"
	"timelines/internal/store/memory"
	"timelines/internal/store/postgres"
	"timelines/internal/store/sqlite"
)

// app bundles what every command needs once the project config is loaded.
type app struct {
	cfg     *config.ProjectConfig
	schema  *config.Schema
	logger  *zap.Logger
	storage store.Storage
	svc     *service.Service
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	schema, err := loadSchema(schemaPath)
	if err != nil {
		return nil, err
	}

	storage, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	vector, err := openVector(ctx, cfg)
	if err != nil {
		storage.Close(ctx)
		return nil, err
	}

	svc := service.New(repository.New(storage, vector), logger)
	if err := svc.Initialize(ctx); err != nil {
		svc.Close(ctx)
		return nil, err
	}
	logger.Debug("storage ready",
		zap.String("storage", cfg.Storage.Adapter),
		zap.String("vector", cfg.Vector.Adapter))

	return &app{cfg: cfg, schema: schema, logger: logger, storage: storage, svc: svc}, nil
}

func (a *app) Close(ctx context.Context) {
	if err := a.svc.Close(ctx); err != nil {
		a.logger.Warn("closing storage", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// project returns the configured project, creating it on first use.
func (a *app) project(ctx context.Context) (*domain.Project, error) {
	return a.svc.EnsureProject(ctx, a.cfg.User(), a.cfg.Project)
}

// timeline resolves a timeline by name, falling back to the first
// configured source when name is empty.
func (a *app) timeline(ctx context.Context, name string) (*domain.Timeline, error) {
	if strings.TrimSpace(name) == "" {
		if len(a.cfg.Sources) == 0 {
			return nil, fmt.Errorf("--timeline is required")
		}
		name = a.cfg.Sources[0].Timeline
	}
	project, err := a.project(ctx)
	if err != nil {
		return nil, err
	}
	t, err := a.svc.FindTimeline(ctx, project.ID, name)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("timeline %q: %w", name, domain.ErrNotFound)
	}
	return t, nil
}

func loadSchema(path string) (*config.Schema, error) {
	schema, err := config.LoadSchema(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return schema, err
}

func openStorage(ctx context.Context, cfg *config.ProjectConfig) (store.Storage, error) {
	switch cfg.Storage.Adapter {
	case config.AdapterMemory:
		return memory.New(), nil
	case config.AdapterPostgres:
		return postgres.New(ctx, cfg.Storage.DSN)
	case config.AdapterSQLite:
		if err := ensureSQLiteDir(cfg.Storage.DSN); err != nil {
			return nil, err
		}
		return sqlite.New(ctx, cfg.Storage.DSN)
	}
	return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
}

func openVector(ctx context.Context, cfg *config.ProjectConfig) (store.VectorStore, error) {
	switch cfg.Vector.Adapter {
	case config.AdapterNone:
		return nil, nil
	case config.AdapterMemory:
		return memory.NewVectorStore(), nil
	case config.AdapterPGVector:
		return postgres.NewVectorStore(ctx, cfg.Vector.DSN, cfg.Vector.Dimensions)
	}
	return nil, fmt.Errorf("unknown vector adapter: %s", cfg.Vector.Adapter)
}

func ensureSQLiteDir(dsn string) error {
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "sqlite://"), "?")
	if path == "" || path == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	return nil
}
