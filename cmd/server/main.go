package main

import (
	"log"

	"tasklist/internal/config"
	"tasklist/internal/logger"
	"tasklist/internal/server"

	"go.uber.org/zap"
)

// @title           Task List API
// @version         1.0
// @description     API tokens and staff task listing for the personal task list.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	zl := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	defer func() { _ = zl.Sync() }()

	s, err := server.Init(cfg, zl)
	if err != nil {
		zl.Fatal("❌ Server initialization failed", zap.Error(err))
	}

	s.Run()
}
