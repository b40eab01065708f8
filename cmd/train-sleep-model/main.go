package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"norn-analytics/internal/config"
	"norn-analytics/internal/logger"
	"norn-analytics/internal/ml"
	"norn-analytics/internal/training"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "train-sleep-model")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	if cfg.Training.ReferenceBaseURL == "" {
		zapLogger.Fatal("REFERENCE_API_URL is required for sleep model training")
	}

	client := training.NewReferenceClient(
		cfg.Training.ReferenceBaseURL,
		cfg.Training.ReferenceAppID,
		cfg.Training.ReferenceSecret,
		zapLogger)
	quality := ml.NewRegressorManager(
		cfg.Model.SleepQualityPath, ml.SleepQualityHyperparams, zapLogger)
	stage := ml.NewClassifierManager(
		cfg.Model.SleepStagePath, ml.SleepStageHyperparams, ml.SleepStageNumClasses, zapLogger)
	trainer := training.NewSleepTrainer(
		client, quality, stage,
		cfg.Model.SleepWindowSize,
		cfg.Training.TestSize,
		zapLogger)

	result, err := trainer.Run(context.Background())
	if err != nil {
		zapLogger.Fatal("Sleep model training failed", zap.Error(err))
	}

	zapLogger.Info("Sleep model artifacts written",
		zap.String("quality_path", cfg.Model.SleepQualityPath),
		zap.String("stage_path", cfg.Model.SleepStagePath),
		zap.Int("feature_rows", result.FeatureRows),
		zap.Float64("quality_rmse", result.QualityReport.RMSE),
		zap.Float64("stage_accuracy", result.StageReport.Accuracy))
}
