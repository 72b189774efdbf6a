package app

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/learnsync/internal/data/db"
	"github.com/yungbote/learnsync/internal/data/repos"
	types "github.com/yungbote/learnsync/internal/domain"
	"github.com/yungbote/learnsync/internal/http"
	"github.com/yungbote/learnsync/internal/observability"
	"github.com/yungbote/learnsync/internal/platform/dbctx"
	"github.com/yungbote/learnsync/internal/platform/logger"
	"github.com/yungbote/learnsync/internal/services/catalogue"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Clients  Clients
	Repos    repos.Set
	Services Services
	Server   *http.Server
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
}

func New(ctx context.Context, cfg Config, log *logger.Logger) (*App, error) {
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.LogMode,
		Enabled:     cfg.OtelEnabled,
	})
	metrics := observability.Init(log)

	theDB, err := OpenDB(cfg, log)
	if err != nil {
		_ = otelShutdown(ctx)
		return nil, err
	}

	if err := Migrate(ctx, theDB, log); err != nil {
		_ = otelShutdown(ctx)
		return nil, err
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = otelShutdown(ctx)
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients, metrics)
	if err != nil {
		clients.Close()
		_ = otelShutdown(ctx)
		return nil, err
	}

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Server:       wireServer(log, cfg, theDB, serviceset, metrics),
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

// OpenDB connects to the configured driver without migrating.
func OpenDB(cfg Config, log *logger.Logger) (*gorm.DB, error) {
	theDB, err := db.Open(cfg.DBDriver, log)
	if err != nil {
		return nil, fmt.Errorf("init %s: %w", cfg.DBDriver, err)
	}
	return theDB, nil
}

// Migrate creates the schema and seeds the activity catalogue.
func Migrate(ctx context.Context, theDB *gorm.DB, log *logger.Logger) error {
	if err := db.AutoMigrateAll(theDB); err != nil {
		return err
	}
	cat, err := catalogue.Default()
	if err != nil {
		return fmt.Errorf("load activity catalogue: %w", err)
	}
	entries := cat.Entries()
	rows := make([]*types.Activity, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, e.Activity(e.ID))
	}
	if err := repos.NewActivityRepo(theDB, log).UpsertCatalogue(dbctx.Context{Ctx: ctx}, rows); err != nil {
		return fmt.Errorf("seed activity catalogue: %w", err)
	}
	log.Info("Migration complete", "catalogue_entries", len(rows))
	return nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
		if a.Clients.Redis != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)
		}
	}
	addr := ":" + strings.TrimPrefix(a.Cfg.Port, ":")
	a.Log.Info("Listening", "addr", addr)
	return a.Server.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
