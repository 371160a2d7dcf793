package main

import (
	"log"

	"go.uber.org/zap"

	"cvreview-backend/internal/config"
	"cvreview-backend/internal/logger"
	"cvreview-backend/internal/server"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zlog.Sync()
	zap.ReplaceGlobals(zlog)

	r := server.NewRouter(cfg, zlog)

	addr := server.Addr(cfg.Port)
	zlog.Info("starting API server", zap.String("addr", addr), zap.String("env", cfg.Env))

	if err := r.Run(addr); err != nil {
		zlog.Fatal("server error", zap.Error(err))
	}
}
