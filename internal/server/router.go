// Package server assembles the HTTP surface: middleware, dependencies, and
// routes.
package server

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cvreview-backend/internal/config"
	"cvreview-backend/internal/documents"
	"cvreview-backend/internal/llm"
	"cvreview-backend/internal/llm/openai"
	"cvreview-backend/internal/review"
	"cvreview-backend/internal/server/middleware"
	"cvreview-backend/internal/server/respond"
	"cvreview-backend/internal/storage/db"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(log),
		middleware.Recovery(log),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	// Dependencies
	var sqlDB *sql.DB
	if cfg.DatabaseURL != "" {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		dbConn, err := db.Connect(context.Background(), cfg.DatabaseURL, opts)
		if err != nil {
			log.Warn("failed to connect database, falling back to memory", zap.Error(err))
		} else if err := db.RunMigrations(context.Background(), dbConn); err != nil {
			log.Warn("failed to run migrations, falling back to memory", zap.Error(err))
			dbConn.Close()
			dbConn = nil
		}
		sqlDB = dbConn
	}

	registry := review.NewRegistry()

	var docRepo documents.Repo
	if sqlDB != nil {
		docRepo = &documents.PGRepo{DB: sqlDB}
	} else {
		docRepo = documents.NewMemoryRepo()
	}
	docHandler := documents.NewHandler(documents.NewService(docRepo, registry))

	var llmClient llm.Client
	if cfg.OpenAIAPIKey != "" {
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
		if err != nil {
			log.Warn("llm client unavailable", zap.Error(err))
		} else {
			llmClient = client
		}
	}
	reviewSvc := review.NewService(llmClient, registry, cfg.AIReviewEnabled, log)
	reviewHandler := review.NewHandler(reviewSvc, log)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	docHandler.RegisterRoutes(api)
	reviewHandler.Register(api.Group("/ai"))

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
