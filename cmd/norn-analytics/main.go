package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"norn-analytics/internal/config"
	"norn-analytics/internal/logger"
	"norn-analytics/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "norn-analytics")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting norn-analytics service",
		zap.String("mqtt_broker", cfg.MQTT.Broker),
		zap.String("data_topic", cfg.Analytics.Topics.Data))

	analyticsService, err := service.NewAnalyticsService(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create analytics service", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := analyticsService.Start(ctx); err != nil {
		zapLogger.Fatal("Failed to start analytics service", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zapLogger.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	cancel()
	if err := analyticsService.Stop(ctx); err != nil {
		zapLogger.Error("Error during shutdown", zap.Error(err))
	}

	zapLogger.Info("Service stopped")
}
