// Package ml 提供窗口特征上的随机森林模型与特征标准化
//
// 模型与标准化器以 gob 序列化为工件对持久化，工件按路径整体覆盖，
// 不做版本管理。字段导出是序列化契约的一部分。
package ml

import (
	"errors"
	"fmt"
	"math"
)

// ErrScalerNotFitted 标准化器尚未拟合
var ErrScalerNotFitted = errors.New("scaler has not been fitted")

// StandardScaler 逐特征零均值单位方差标准化
type StandardScaler struct {
	Mean   []float64
	Scale  []float64
	Fitted bool
}

// NewStandardScaler 构造未拟合的标准化器
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit 在训练矩阵上拟合每列的均值与标准差
// 标准差为 0 的列用 1 代替，避免除零
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 || len(X[0]) == 0 {
		return errors.New("cannot fit scaler on empty matrix")
	}
	cols := len(X[0])
	s.Mean = make([]float64, cols)
	s.Scale = make([]float64, cols)

	for _, row := range X {
		if len(row) != cols {
			return fmt.Errorf("inconsistent feature width: expected %d, got %d", cols, len(row))
		}
		for j, v := range row {
			s.Mean[j] += v
		}
	}
	n := float64(len(X))
	for j := range s.Mean {
		s.Mean[j] /= n
	}
	for _, row := range X {
		for j, v := range row {
			d := v - s.Mean[j]
			s.Scale[j] += d * d
		}
	}
	for j := range s.Scale {
		s.Scale[j] = math.Sqrt(s.Scale[j] / n)
		if s.Scale[j] == 0 {
			s.Scale[j] = 1
		}
	}
	s.Fitted = true
	return nil
}

// Transform 标准化单个特征向量
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if !s.Fitted {
		return nil, ErrScalerNotFitted
	}
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("feature width mismatch: scaler fitted on %d, got %d", len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// TransformAll 标准化整个特征矩阵
func (s *StandardScaler) TransformAll(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		t, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
