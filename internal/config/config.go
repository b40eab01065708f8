package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// ModelConfig 模型工件配置
type ModelConfig struct {
	// 模型工件路径（每个分类器一对 model/scaler 文件）
	FallModelPath      string
	SleepQualityPath   string
	SleepStagePath     string
	FallWindowSize     int
	SleepWindowSize    int
	AlarmConfidenceMin float64 // 跌倒报警的最低置信度
}

// TrainingConfig 训练配置
type TrainingConfig struct {
	FetchLimit       int     // 训练数据最大读取条数
	TestSize         float64 // 测试集比例
	ReferenceBaseURL string  // 第三方参考睡眠数据 API
	ReferenceAppID   string
	ReferenceSecret  string
}

// Config norn-analytics 服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig
	Model    ModelConfig
	Training TrainingConfig

	Analytics struct {
		Topics struct {
			Data string // 数据主题，如 "norn/+/data"
		}
		Streams struct {
			Verdicts string // 分类结果流
			Alarms   string // 跌倒报警流
		}
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "norn")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "norn-analytics")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 1

	cfg.Model.FallModelPath = getEnv("MODEL_FALL_PATH", "models/fall_detection")
	cfg.Model.SleepQualityPath = getEnv("MODEL_SLEEP_QUALITY_PATH", "models/sleep_quality")
	cfg.Model.SleepStagePath = getEnv("MODEL_SLEEP_STAGE_PATH", "models/sleep_stage")
	cfg.Model.FallWindowSize = getEnvInt("MODEL_FALL_WINDOW", 10)
	cfg.Model.SleepWindowSize = getEnvInt("MODEL_SLEEP_WINDOW", 30)
	cfg.Model.AlarmConfidenceMin = getEnvFloat("ALARM_CONFIDENCE_MIN", 0.7)

	cfg.Training.FetchLimit = getEnvInt("TRAINING_FETCH_LIMIT", 1000)
	cfg.Training.TestSize = getEnvFloat("TRAINING_TEST_SIZE", 0.2)
	cfg.Training.ReferenceBaseURL = getEnv("REFERENCE_API_URL", "")
	cfg.Training.ReferenceAppID = getEnv("REFERENCE_APP_ID", "")
	cfg.Training.ReferenceSecret = getEnv("REFERENCE_SECRET_KEY", "")

	cfg.Analytics.Topics.Data = getEnv("ANALYTICS_TOPIC_DATA", "norn/+/data")
	cfg.Analytics.Streams.Verdicts = getEnv("ANALYTICS_STREAM_VERDICTS", "norn:verdicts:stream")
	cfg.Analytics.Streams.Alarms = getEnv("ANALYTICS_STREAM_ALARMS", "norn:alarms:stream")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
