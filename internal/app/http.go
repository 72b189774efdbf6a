package app

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/learnsync/internal/http"
	httpH "github.com/yungbote/learnsync/internal/http/handlers"
	httpMW "github.com/yungbote/learnsync/internal/http/middleware"
	"github.com/yungbote/learnsync/internal/observability"
	"github.com/yungbote/learnsync/internal/platform/logger"
)

const serviceName = "learnsync"

func wireServer(log *logger.Logger, cfg Config, db *gorm.DB, svcs Services, metrics *observability.Metrics) *http.Server {
	log.Info("Wiring HTTP server...")

	routerCfg := http.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		AuthMiddleware:  httpMW.NewAuthMiddleware(log, svcs.Auth),
		ProgressHandler: httpH.NewProgressHandler(log, svcs.ProgressSync),
		HealthHandler:   httpH.NewHealthHandler(dbPinger(db)),
	}
	if cfg.OtelEnabled {
		routerCfg.ServiceName = serviceName
	}
	return http.NewServer(routerCfg)
}

func dbPinger(db *gorm.DB) httpH.Pinger {
	if db == nil {
		return nil
	}
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
