package features_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"norn-analytics/internal/features"
	"norn-analytics/internal/models"
)

func fallSample(ts int64, motion, movement, dwell, fallStatus int) models.FallSample {
	return models.FallSample{
		Timestamp:       ts,
		Existence:       1,
		Motion:          motion,
		BodyMovement:    movement,
		StationaryDwell: dwell,
		FallStatus:      fallStatus,
	}
}

func TestExtractFall_InsufficientData(t *testing.T) {
	window := []models.FallSample{
		fallSample(1, 2, 10, 0, 0),
		fallSample(2, 2, 12, 0, 0),
	}

	vec, err := features.ExtractFall(window)
	require.ErrorIs(t, err, features.ErrInsufficientData)
	require.Nil(t, vec)
}

func TestExtractFall_ConstantLengthRegardlessOfOccupancy(t *testing.T) {
	// 最小窗口（3 个样本）：派生特征部分补零，但长度不变
	small := []models.FallSample{
		fallSample(1, 2, 10, 0, 0),
		fallSample(2, 2, 15, 0, 0),
		fallSample(3, 1, 5, 1, 0),
	}
	vecSmall, err := features.ExtractFall(small)
	require.NoError(t, err)
	require.Len(t, vecSmall, features.FallFeatureCount)

	// 满窗口
	var full []models.FallSample
	for i := 0; i < 10; i++ {
		full = append(full, fallSample(int64(i), i%3, i*5, i, 0))
	}
	vecFull, err := features.ExtractFall(full)
	require.NoError(t, err)
	require.Len(t, vecFull, features.FallFeatureCount)
}

func TestExtractFall_CurrentValuesAndMovementStats(t *testing.T) {
	window := []models.FallSample{
		fallSample(1, 2, 10, 0, 0),
		fallSample(2, 2, 20, 0, 0),
		fallSample(3, 1, 30, 2, 1),
	}

	vec, err := features.ExtractFall(window)
	require.NoError(t, err)

	require.Equal(t, 1.0, vec[features.FFCurrentExistence])
	require.Equal(t, 1.0, vec[features.FFCurrentMotion])
	require.Equal(t, 30.0, vec[features.FFCurrentMovement])
	require.Equal(t, 1.0, vec[features.FFCurrentFallStatus])
	require.Equal(t, 2.0, vec[features.FFCurrentDwell])

	require.InDelta(t, 20.0, vec[features.FFMovementMean], 1e-9)
	require.Equal(t, 30.0, vec[features.FFMovementMax])
	require.Equal(t, 10.0, vec[features.FFMovementMin])
	require.Equal(t, 20.0, vec[features.FFMovementDelta])
}

func TestExtractFall_MotionTransitions(t *testing.T) {
	// 2 -> 0 -> 2 -> 2: 两次变化，一次转为运动，一次转为静止
	window := []models.FallSample{
		fallSample(1, 2, 10, 0, 0),
		fallSample(2, 0, 10, 1, 0),
		fallSample(3, 2, 10, 0, 0),
		fallSample(4, 2, 10, 0, 0),
	}

	vec, err := features.ExtractFall(window)
	require.NoError(t, err)

	require.Equal(t, 2.0, vec[features.FFMotionChanges])
	require.Equal(t, 1.0, vec[features.FFMotionToMoving])
	require.Equal(t, 1.0, vec[features.FFMotionToStill])
}

func TestExtractFall_SpikeFlagRequiresLargerWindow(t *testing.T) {
	// 窗口恰好 3 个样本时不计算尖峰标志
	small := []models.FallSample{
		fallSample(1, 2, 1, 0, 0),
		fallSample(2, 2, 1, 0, 0),
		fallSample(3, 2, 100, 0, 0),
	}
	vec, err := features.ExtractFall(small)
	require.NoError(t, err)
	require.Equal(t, 0.0, vec[features.FFMovementSpikeFlag])

	// 窗口 >3 且近期峰值超过 2 倍均值时置 1
	big := []models.FallSample{
		fallSample(1, 2, 1, 0, 0),
		fallSample(2, 2, 1, 0, 0),
		fallSample(3, 2, 1, 0, 0),
		fallSample(4, 2, 100, 0, 0),
	}
	vec, err = features.ExtractFall(big)
	require.NoError(t, err)
	require.Equal(t, 1.0, vec[features.FFMovementSpikeFlag])
}

func TestExtractFall_ProlongedStationaryAndConsistency(t *testing.T) {
	window := []models.FallSample{
		fallSample(1, 2, 50, 0, 1),
		fallSample(2, 0, 5, 2, 1),
		fallSample(3, 0, 1, 5, 0),
		fallSample(4, 0, 0, 6, 1),
	}

	vec, err := features.ExtractFall(window)
	require.NoError(t, err)

	require.Equal(t, 1.0, vec[features.FFProlongedStationary])
	require.InDelta(t, 0.75, vec[features.FFFallConsistency], 1e-9)
}
