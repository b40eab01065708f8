// Package consumer 订阅设备数据主题，驱动分析并发布结果
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"norn-analytics/internal/config"
	"norn-analytics/internal/models"
	"norn-analytics/internal/mqtt"
	"norn-analytics/internal/redis"
	"norn-analytics/internal/session"
)

// sensorEnvelope 设备上报的消息包裹
// 主题格式 norn/{device_id}/data，mode 区分两种传感器模式
type sensorEnvelope struct {
	Mode   string          `json:"mode"`
	UserID string          `json:"user_id,omitempty"`
	Sample json.RawMessage `json:"sample"`
}

// VerdictMessage 发布到结果流的分类结果
type VerdictMessage struct {
	DeviceID  string                  `json:"device_id"`
	UserID    string                  `json:"user_id,omitempty"`
	Mode      string                  `json:"mode"`
	Timestamp int64                   `json:"timestamp"`
	Fall      *models.FallVerdict     `json:"fall,omitempty"`
	Sleep     *models.SleepPrediction `json:"sleep,omitempty"`
}

// AlarmEvent 发布到报警流的跌倒事件
type AlarmEvent struct {
	EventID    string  `json:"event_id"`
	DeviceID   string  `json:"device_id"`
	UserID     string  `json:"user_id,omitempty"`
	Pattern    string  `json:"pattern"`
	Confidence float64 `json:"confidence"`
	Timestamp  int64   `json:"timestamp"`
}

// MQTTConsumer 设备数据消费者
type MQTTConsumer struct {
	config      *config.Config
	mqttClient  *mqtt.Client
	redisClient *goredis.Client
	sessions    *session.Manager
	logger      *zap.Logger
}

// NewMQTTConsumer 创建数据消费者
func NewMQTTConsumer(
	cfg *config.Config,
	mqttClient *mqtt.Client,
	redisClient *goredis.Client,
	sessions *session.Manager,
	logger *zap.Logger,
) *MQTTConsumer {
	return &MQTTConsumer{
		config:      cfg,
		mqttClient:  mqttClient,
		redisClient: redisClient,
		sessions:    sessions,
		logger:      logger,
	}
}

// Start 订阅数据主题
func (c *MQTTConsumer) Start(ctx context.Context) error {
	if err := c.mqttClient.Subscribe(c.config.Analytics.Topics.Data, c.config.MQTT.QoS, c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to data topic: %w", err)
	}

	c.logger.Info("MQTT consumer started",
		zap.String("topic", c.config.Analytics.Topics.Data))
	return nil
}

// Stop 取消订阅
func (c *MQTTConsumer) Stop(ctx context.Context) error {
	if err := c.mqttClient.Unsubscribe(c.config.Analytics.Topics.Data); err != nil {
		c.logger.Error("Failed to unsubscribe", zap.Error(err))
	}
	c.logger.Info("MQTT consumer stopped")
	return nil
}

// handleMessage 处理一条设备消息
// 主题格式: norn/{device_id}/data
func (c *MQTTConsumer) handleMessage(topic string, payload []byte) error {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return fmt.Errorf("invalid topic format: %s", topic)
	}
	deviceID := parts[1]

	var envelope sensorEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		c.logger.Error("Failed to unmarshal device message",
			zap.String("topic", topic),
			zap.Error(err))
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	switch envelope.Mode {
	case models.ModeFallDetection:
		return c.handleFallSample(deviceID, envelope)
	case models.ModeSleepDetection:
		return c.handleSleepSample(deviceID, envelope)
	default:
		c.logger.Warn("Unknown sensor mode, message dropped",
			zap.String("device_id", deviceID),
			zap.String("mode", envelope.Mode))
		return fmt.Errorf("unknown sensor mode: %s", envelope.Mode)
	}
}

func (c *MQTTConsumer) handleFallSample(deviceID string, envelope sensorEnvelope) error {
	var sample models.FallSample
	if err := json.Unmarshal(envelope.Sample, &sample); err != nil {
		return fmt.Errorf("failed to unmarshal fall sample: %w", err)
	}

	verdict := c.sessions.Get(deviceID).PredictFall(sample)

	message := VerdictMessage{
		DeviceID:  deviceID,
		UserID:    envelope.UserID,
		Mode:      models.ModeFallDetection,
		Timestamp: time.Now().Unix(),
		Fall:      &verdict,
	}
	if err := c.publishVerdict(message); err != nil {
		return err
	}

	if verdict.IsRealFall && verdict.Confidence >= c.config.Model.AlarmConfidenceMin {
		return c.publishAlarm(deviceID, envelope.UserID, verdict)
	}
	return nil
}

func (c *MQTTConsumer) handleSleepSample(deviceID string, envelope sensorEnvelope) error {
	var sample models.SleepSample
	if err := json.Unmarshal(envelope.Sample, &sample); err != nil {
		return fmt.Errorf("failed to unmarshal sleep sample: %w", err)
	}

	prediction := c.sessions.Get(deviceID).PredictSleep(sample)

	message := VerdictMessage{
		DeviceID:  deviceID,
		UserID:    envelope.UserID,
		Mode:      models.ModeSleepDetection,
		Timestamp: time.Now().Unix(),
		Sleep:     &prediction,
	}
	return c.publishVerdict(message)
}

func (c *MQTTConsumer) publishVerdict(message VerdictMessage) error {
	stream := c.config.Analytics.Streams.Verdicts
	streamID, err := redis.PublishJSONToStream(context.Background(), c.redisClient, stream, message)
	if err != nil {
		c.logger.Error("Failed to publish verdict to Redis Streams",
			zap.String("stream", stream),
			zap.Error(err))
		return fmt.Errorf("failed to publish verdict: %w", err)
	}

	c.logger.Debug("Published verdict",
		zap.String("device_id", message.DeviceID),
		zap.String("mode", message.Mode),
		zap.String("stream_id", streamID))
	return nil
}

func (c *MQTTConsumer) publishAlarm(deviceID, userID string, verdict models.FallVerdict) error {
	event := AlarmEvent{
		EventID:    uuid.New().String(),
		DeviceID:   deviceID,
		UserID:     userID,
		Pattern:    verdict.Analysis.Pattern,
		Confidence: verdict.Confidence,
		Timestamp:  time.Now().Unix(),
	}

	stream := c.config.Analytics.Streams.Alarms
	streamID, err := redis.PublishJSONToStream(context.Background(), c.redisClient, stream, event)
	if err != nil {
		c.logger.Error("Failed to publish alarm to Redis Streams",
			zap.String("stream", stream),
			zap.Error(err))
		return fmt.Errorf("failed to publish alarm: %w", err)
	}

	c.logger.Warn("Fall alarm published",
		zap.String("event_id", event.EventID),
		zap.String("device_id", deviceID),
		zap.String("pattern", event.Pattern),
		zap.Float64("confidence", event.Confidence),
		zap.String("stream_id", streamID))
	return nil
}
