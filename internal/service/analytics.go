// Package service 组装分析服务的依赖并管理其生命周期
package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"norn-analytics/internal/classifier"
	"norn-analytics/internal/config"
	"norn-analytics/internal/consumer"
	"norn-analytics/internal/database"
	"norn-analytics/internal/ml"
	"norn-analytics/internal/models"
	"norn-analytics/internal/mqtt"
	rediscommon "norn-analytics/internal/redis"
	"norn-analytics/internal/report"
	"norn-analytics/internal/repository"
	"norn-analytics/internal/session"
	"norn-analytics/internal/training"
)

// AnalyticsService 流式分析服务
type AnalyticsService struct {
	config     *config.Config
	logger     *zap.Logger
	db         *sql.DB
	redis      *goredis.Client
	mqttClient *mqtt.Client

	fallManager    *ml.ClassifierManager
	qualityManager *ml.RegressorManager
	stageManager   *ml.ClassifierManager

	sessions   *session.Manager
	consumer   *consumer.MQTTConsumer
	aggregator *report.Aggregator
	repo       *repository.ReadingsRepository
}

// NewAnalyticsService 创建分析服务
func NewAnalyticsService(cfg *config.Config, logger *zap.Logger) (*AnalyticsService, error) {
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	if err := rediscommon.Ping(context.Background(), redisClient); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	mqttClient, err := mqtt.NewClient(&cfg.MQTT, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	svc := &AnalyticsService{
		config:     cfg,
		logger:     logger,
		db:         db,
		redis:      redisClient,
		mqttClient: mqttClient,
	}

	svc.fallManager = ml.NewClassifierManager(
		cfg.Model.FallModelPath, ml.FallHyperparams, ml.FallNumClasses, logger)
	svc.qualityManager = ml.NewRegressorManager(
		cfg.Model.SleepQualityPath, ml.SleepQualityHyperparams, logger)
	svc.stageManager = ml.NewClassifierManager(
		cfg.Model.SleepStagePath, ml.SleepStageHyperparams, ml.SleepStageNumClasses, logger)
	if err := svc.loadModels(); err != nil {
		return nil, err
	}

	factory := func(deviceID string) (*classifier.Fall, *classifier.Sleep) {
		return classifier.NewFall(cfg.Model.FallWindowSize, svc.fallManager, logger),
			classifier.NewSleep(cfg.Model.SleepWindowSize, svc.qualityManager, svc.stageManager, logger)
	}
	svc.sessions = session.NewManager(factory, logger)
	svc.consumer = consumer.NewMQTTConsumer(cfg, mqttClient, redisClient, svc.sessions, logger)
	svc.aggregator = report.NewAggregator(
		svc.qualityManager, svc.stageManager, cfg.Model.SleepWindowSize, logger)
	svc.repo = repository.NewReadingsRepository(db, logger)

	return svc, nil
}

// loadModels 启动时加载三个模型工件对
// 损坏的工件意味着已训练的行为丢失，升级为错误日志以便报警
func (s *AnalyticsService) loadModels() error {
	type load struct {
		name string
		fn   func() (ml.LoadStatus, error)
	}
	loads := []load{
		{"fall_detection", s.fallManager.LoadOrCreate},
		{"sleep_quality", s.qualityManager.LoadOrCreate},
		{"sleep_stage", s.stageManager.LoadOrCreate},
	}
	for _, l := range loads {
		status, err := l.fn()
		if err != nil {
			return fmt.Errorf("failed to load %s model: %w", l.name, err)
		}
		if status == ml.LoadStatusRecreatedCorrupt {
			s.logger.Error("model artifact corrupt, trained behavior lost",
				zap.String("model", l.name))
		}
	}
	return nil
}

// Start 启动服务组件
func (s *AnalyticsService) Start(ctx context.Context) error {
	s.logger.Info("Starting analytics service components")

	if err := s.consumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start MQTT consumer: %w", err)
	}

	s.logger.Info("Analytics service started successfully")
	return nil
}

// Stop 停止服务并释放资源
func (s *AnalyticsService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping analytics service")

	if s.consumer != nil {
		if err := s.consumer.Stop(ctx); err != nil {
			s.logger.Error("Error stopping consumer", zap.Error(err))
		}
	}
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if s.redis != nil {
		if err := rediscommon.Close(s.redis); err != nil {
			s.logger.Error("Error closing redis", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			s.logger.Error("Error closing database", zap.Error(err))
		}
	}

	s.logger.Info("Analytics service stopped")
	return nil
}

// AnalyzeSleepSession 拉取指定用户某天的睡眠读数并生成汇总报告
func (s *AnalyticsService) AnalyzeSleepSession(ctx context.Context, userID, date string) (models.SleepSessionSummary, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return models.SleepSessionSummary{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	startTS := day.Unix()
	endTS := day.Add(24 * time.Hour).Unix()

	samples, err := s.repo.FetchSleepReadings(ctx, userID, startTS, endTS)
	if err != nil {
		return models.SleepSessionSummary{}, fmt.Errorf("failed to fetch sleep readings: %w", err)
	}
	return s.aggregator.Analyze(userID, date, samples)
}

// TrainFallModelAsync 在后台启动跌倒模型训练，立即返回确认
// 训练独立于调用方运行，结果只通过日志与工件体现
func (s *AnalyticsService) TrainFallModelAsync() {
	trainer := training.NewFallTrainer(
		s.repo, s.fallManager,
		s.config.Model.FallWindowSize,
		s.config.Training.FetchLimit,
		s.config.Training.TestSize,
		s.logger)

	s.logger.Info("fall model training started")
	go func() {
		if _, err := trainer.Run(context.Background()); err != nil {
			s.logger.Error("fall model training failed", zap.Error(err))
		}
	}()
}

// TrainSleepModelsAsync 在后台启动睡眠质量与阶段模型训练
func (s *AnalyticsService) TrainSleepModelsAsync() {
	client := training.NewReferenceClient(
		s.config.Training.ReferenceBaseURL,
		s.config.Training.ReferenceAppID,
		s.config.Training.ReferenceSecret,
		s.logger)
	trainer := training.NewSleepTrainer(
		client, s.qualityManager, s.stageManager,
		s.config.Model.SleepWindowSize,
		s.config.Training.TestSize,
		s.logger)

	s.logger.Info("sleep model training started")
	go func() {
		if _, err := trainer.Run(context.Background()); err != nil {
			s.logger.Error("sleep model training failed", zap.Error(err))
		}
	}()
}
