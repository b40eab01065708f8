// Package repository 历史传感器读数的查询层
//
// 训练管线与报告服务按设备/用户回放历史读数，
// 写入路径由边界层服务负责，这里只读
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"norn-analytics/internal/models"
)

// ReadingsRepository 传感器读数仓储
type ReadingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReadingsRepository 构造读数仓储
func NewReadingsRepository(db *sql.DB, logger *zap.Logger) *ReadingsRepository {
	return &ReadingsRepository{db: db, logger: logger}
}

// FallReadingRow 跌倒读数及其所属设备
type FallReadingRow struct {
	DeviceID string
	Sample   models.FallSample
}

// SleepReadingRow 睡眠读数及其所属用户
type SleepReadingRow struct {
	UserID string
	Sample models.SleepSample
}

// FetchFallReadings 按设备与时间正序拉取跌倒模式读数，供训练回放
func (r *ReadingsRepository) FetchFallReadings(ctx context.Context, limit int) ([]FallReadingRow, error) {
	query := `
		SELECT device_id, ts, existence, motion, body_movement,
		       stationary_dwell, fall_status, heart_rate, respiration_rate
		FROM fall_readings
		ORDER BY device_id, ts
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query fall readings: %w", err)
	}
	defer rows.Close()

	var out []FallReadingRow
	for rows.Next() {
		var row FallReadingRow
		var hr, rr sql.NullInt64
		if err := rows.Scan(
			&row.DeviceID,
			&row.Sample.Timestamp,
			&row.Sample.Existence,
			&row.Sample.Motion,
			&row.Sample.BodyMovement,
			&row.Sample.StationaryDwell,
			&row.Sample.FallStatus,
			&hr,
			&rr,
		); err != nil {
			return nil, fmt.Errorf("failed to scan fall reading: %w", err)
		}
		if hr.Valid {
			v := int(hr.Int64)
			row.Sample.HeartRate = &v
		}
		if rr.Valid {
			v := int(rr.Int64)
			row.Sample.RespirationRate = &v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fall readings: %w", err)
	}

	r.logger.Debug("fetched fall readings", zap.Int("count", len(out)))
	return out, nil
}

// FetchSleepReadings 按用户与时间区间拉取睡眠模式读数，时间正序
func (r *ReadingsRepository) FetchSleepReadings(ctx context.Context, userID string, startTS, endTS int64) ([]models.SleepSample, error) {
	query := `
		SELECT ts, in_bed, sleep_status, heart_rate, respiration_rate,
		       body_movement_range, human_movement,
		       turns, large_body_move, minor_body_move, apnea_events
		FROM sleep_readings
		WHERE user_id = $1 AND ts >= $2 AND ts < $3
		ORDER BY ts`

	rows, err := r.db.QueryContext(ctx, query, userID, startTS, endTS)
	if err != nil {
		return nil, fmt.Errorf("failed to query sleep readings: %w", err)
	}
	defer rows.Close()

	var out []models.SleepSample
	for rows.Next() {
		var s models.SleepSample
		var comp models.SleepComprehensive
		if err := rows.Scan(
			&s.Timestamp,
			&s.InBed,
			&s.SleepStatus,
			&s.HeartRate,
			&s.RespirationRate,
			&s.BodyMovementRange,
			&s.HumanMovement,
			&comp.Turns,
			&comp.LargeBodyMove,
			&comp.MinorBodyMove,
			&comp.ApneaEvents,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sleep reading: %w", err)
		}
		s.Comprehensive = &comp
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sleep readings: %w", err)
	}

	r.logger.Debug("fetched sleep readings",
		zap.String("user_id", userID),
		zap.Int("count", len(out)))
	return out, nil
}

// FetchFallLabels 拉取人工标注（reading 时间戳到标签的映射），可能为空
func (r *ReadingsRepository) FetchFallLabels(ctx context.Context, deviceID string) (map[int64]int, error) {
	query := `
		SELECT ts, label
		FROM fall_labels
		WHERE device_id = $1`

	rows, err := r.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fall labels: %w", err)
	}
	defer rows.Close()

	labels := make(map[int64]int)
	for rows.Next() {
		var ts int64
		var label int
		if err := rows.Scan(&ts, &label); err != nil {
			return nil, fmt.Errorf("failed to scan fall label: %w", err)
		}
		labels[ts] = label
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fall labels: %w", err)
	}
	return labels, nil
}
