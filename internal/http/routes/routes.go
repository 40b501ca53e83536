package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/academyhq/academy-server-go/internal/features/auth"
	"github.com/academyhq/academy-server-go/internal/features/category"
	"github.com/academyhq/academy-server-go/internal/features/course"
	"github.com/academyhq/academy-server-go/internal/features/coursemodule"
	"github.com/academyhq/academy-server-go/internal/features/enrollment"
	"github.com/academyhq/academy-server-go/internal/features/lesson"
	"github.com/academyhq/academy-server-go/internal/features/user"
	"github.com/academyhq/academy-server-go/internal/middleware"
	"github.com/academyhq/academy-server-go/internal/ownership"
	"github.com/academyhq/academy-server-go/pkg/apperrors"
	"github.com/academyhq/academy-server-go/pkg/cache"
	"github.com/academyhq/academy-server-go/pkg/config"
	"github.com/academyhq/academy-server-go/pkg/health"
	"github.com/academyhq/academy-server-go/pkg/response"
	"github.com/academyhq/academy-server-go/pkg/storage"
)

// Register wires all feature routes onto the engine.
func Register(engine *gin.Engine, cfg *config.Config, db *gorm.DB, logger *slog.Logger, cacheClient *cache.RedisClient, store *storage.Local) {
	// Health check endpoints (no /api prefix for Kubernetes probes)
	healthHandler := health.NewHandler(db, logger)
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)
	engine.GET("/version", healthHandler.Version)

	// Metrics endpoint for Prometheus
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Database stats endpoint (protected in production)
	if !cfg.IsProduction() {
		engine.GET("/debug/db-stats", healthHandler.DBStats)
	}

	// Uploaded files
	engine.Static(cfg.Storage.BaseURL, store.Dir())

	engine.NoRoute(func(c *gin.Context) {
		missing := apperrors.NotFound("Route")
		response.Error(c, missing.Status, missing.Message)
	})

	api := engine.Group("/api")

	middleware.Initialize(db, cfg.JWTSecret, logger)

	resolver := ownership.NewResolver(db)

	authHandler := auth.NewHandler(db, logger, cfg)
	auth.RegisterRoutes(api, authHandler)

	userHandler := user.NewHandler(db, logger, store)
	user.RegisterRoutes(api, userHandler)

	categoryHandler := category.NewHandler(db, logger)
	category.RegisterRoutes(api, categoryHandler)

	courseHandler := course.NewHandler(db, logger, cacheClient, resolver)
	course.RegisterRoutes(api, courseHandler)

	moduleHandler := coursemodule.NewHandler(db, logger, cacheClient, resolver)
	coursemodule.RegisterRoutes(api, moduleHandler)

	lessonHandler := lesson.NewHandler(db, logger, cacheClient, resolver, store)
	lesson.RegisterRoutes(api, lessonHandler)

	enrollmentHandler := enrollment.NewHandler(db, logger, resolver)
	enrollment.RegisterRoutes(api, enrollmentHandler)
}
