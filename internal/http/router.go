package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/learnsync/internal/http/handlers"
	httpMW "github.com/yungbote/learnsync/internal/http/middleware"
	"github.com/yungbote/learnsync/internal/observability"
	"github.com/yungbote/learnsync/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	// ServiceName enables otelgin spans when set.
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware  *httpMW.AuthMiddleware
	ProgressHandler *httpH.ProgressHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.TraceContext(), httpMW.AccessLog(cfg.Log, cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	protected := r.Group("/api")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Progress
		if cfg.ProgressHandler != nil {
			protected.POST("/progress/sync", cfg.ProgressHandler.Sync)
			protected.PUT("/progress/activities/:activityId", cfg.ProgressHandler.UpdateActivity)
			protected.GET("/progress", cfg.ProgressHandler.ListProgress)
			protected.DELETE("/progress", cfg.ProgressHandler.ClearProgress)
		}
	}

	return r
}
