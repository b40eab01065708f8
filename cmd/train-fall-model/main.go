package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"norn-analytics/internal/config"
	"norn-analytics/internal/database"
	"norn-analytics/internal/logger"
	"norn-analytics/internal/ml"
	"norn-analytics/internal/repository"
	"norn-analytics/internal/training"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "train-fall-model")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	manager := ml.NewClassifierManager(
		cfg.Model.FallModelPath, ml.FallHyperparams, ml.FallNumClasses, zapLogger)
	repo := repository.NewReadingsRepository(db, zapLogger)
	trainer := training.NewFallTrainer(
		repo, manager,
		cfg.Model.FallWindowSize,
		cfg.Training.FetchLimit,
		cfg.Training.TestSize,
		zapLogger)

	result, err := trainer.Run(context.Background())
	if err != nil {
		zapLogger.Fatal("Fall model training failed", zap.Error(err))
	}

	zapLogger.Info("Fall model artifacts written",
		zap.String("path", cfg.Model.FallModelPath),
		zap.Int("feature_rows", result.FeatureRows),
		zap.Float64("test_accuracy", result.Report.Accuracy),
		zap.Float64("test_f1", result.Report.F1))
}
