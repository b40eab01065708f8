package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// 验证默认值
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "norn", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "", cfg.Redis.Password)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "norn-analytics", cfg.MQTT.ClientID)

	assert.Equal(t, "models/fall_detection", cfg.Model.FallModelPath)
	assert.Equal(t, "models/sleep_quality", cfg.Model.SleepQualityPath)
	assert.Equal(t, "models/sleep_stage", cfg.Model.SleepStagePath)
	assert.Equal(t, 10, cfg.Model.FallWindowSize)
	assert.Equal(t, 30, cfg.Model.SleepWindowSize)
	assert.Equal(t, 0.7, cfg.Model.AlarmConfidenceMin)

	assert.Equal(t, 1000, cfg.Training.FetchLimit)
	assert.Equal(t, 0.2, cfg.Training.TestSize)

	assert.Equal(t, "norn/+/data", cfg.Analytics.Topics.Data)
	assert.Equal(t, "norn:verdicts:stream", cfg.Analytics.Streams.Verdicts)
	assert.Equal(t, "norn:alarms:stream", cfg.Analytics.Streams.Alarms)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	// 设置环境变量
	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_PORT", "5433")
	os.Setenv("REDIS_ADDR", "test-redis:6380")
	os.Setenv("MQTT_BROKER", "tcp://broker:1883")
	os.Setenv("MODEL_FALL_WINDOW", "20")
	os.Setenv("ALARM_CONFIDENCE_MIN", "0.85")
	os.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// 验证环境变量覆盖
	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "test-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, 20, cfg.Model.FallWindowSize)
	assert.Equal(t, 0.85, cfg.Model.AlarmConfidenceMin)
	assert.Equal(t, "debug", cfg.Log.Level)

	// 清理环境变量
	os.Clearenv()
}

func TestGetEnvInt_InvalidValue(t *testing.T) {
	os.Setenv("TEST_INT_KEY", "not-a-number")
	value := getEnvInt("TEST_INT_KEY", 42)
	assert.Equal(t, 42, value)
	os.Unsetenv("TEST_INT_KEY")
}
