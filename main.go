package main

import (
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/FACorreiaa/loci-planner/pkg/logger"
)

const serviceName = "loci-planner"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	if err := logger.Init(
		zapcore.InfoLevel,
		zap.String("service", serviceName),
	); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Log.Sync() }()

	if err := rootCmd().Execute(); err != nil {
		logger.Log.Fatal("Command failed", zap.Error(err))
	}
}
