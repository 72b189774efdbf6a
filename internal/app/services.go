package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/learnsync/internal/clients/redis"
	"github.com/yungbote/learnsync/internal/data/aggregates"
	"github.com/yungbote/learnsync/internal/data/repos"
	domainagg "github.com/yungbote/learnsync/internal/domain/aggregates"
	"github.com/yungbote/learnsync/internal/observability"
	"github.com/yungbote/learnsync/internal/platform/logger"
	"github.com/yungbote/learnsync/internal/services"
	"github.com/yungbote/learnsync/internal/services/catalogue"
)

type Services struct {
	Store        domainagg.ProgressStore
	Auth         services.AuthService
	Provisioner  services.Provisioner
	ProgressSync services.ProgressSyncService
}

func wireStore(db *gorm.DB, log *logger.Logger, reposet repos.Set, metrics *observability.Metrics) domainagg.ProgressStore {
	return aggregates.NewProgressStore(aggregates.ProgressStoreDeps{
		StoreDeps: aggregates.StoreDeps{
			DB:    db,
			Log:   log,
			Hooks: aggregates.NewMetricsHooks(metrics),
		},
		Subjects:   reposet.Subjects,
		Activities: reposet.Activities,
		Records:    reposet.Records,
		GameBlobs:  reposet.GameBlobs,
	})
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet repos.Set, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	cat, err := catalogue.Default()
	if err != nil {
		return Services{}, fmt.Errorf("load activity catalogue: %w", err)
	}

	cache := services.NewNoopActivityCache()
	if clients.Redis != nil {
		cache = redis.NewActivityCache(clients.Redis, cfg.ActivityCacheTTL, log, metrics)
	}

	store := wireStore(db, log, reposet, metrics)
	provisioner := services.NewProvisioner(log, store, cache, cat)
	return Services{
		Store:       store,
		Auth:        services.NewAuthService(log, cfg.JWTSecretKey),
		Provisioner: provisioner,
		ProgressSync: services.NewProgressSyncService(log, store, provisioner, metrics, services.SyncConfig{
			MaxMergeRetries:  cfg.SyncMaxMergeRetries,
			EntryConcurrency: cfg.SyncEntryConcurrency,
		}),
	}, nil
}

// WireProgressSync builds the sync service for one-off commands. It runs
// without Redis or metrics.
func WireProgressSync(db *gorm.DB, log *logger.Logger, cfg Config) (services.ProgressSyncService, error) {
	svcs, err := wireServices(db, log, cfg, wireRepos(db, log), Clients{}, nil)
	if err != nil {
		return nil, err
	}
	return svcs.ProgressSync, nil
}
