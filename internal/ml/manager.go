package ml

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// ErrArtifactCorrupt 工件存在但无法反序列化（损坏或版本不兼容）
var ErrArtifactCorrupt = errors.New("model artifact is corrupt")

// LoadStatus 工件加载结果
// 损坏的工件被替换为全新模型，但通过该状态向调用方显式暴露，
// 不与"从未训练"混为一谈
type LoadStatus int

const (
	// LoadStatusLoaded 工件对成功加载
	LoadStatusLoaded LoadStatus = iota
	// LoadStatusCreatedNew 工件不存在，构造了全新的未训练模型
	LoadStatusCreatedNew
	// LoadStatusRecreatedCorrupt 工件损坏或不完整，已替换为全新模型
	LoadStatusRecreatedCorrupt
)

func (s LoadStatus) String() string {
	switch s {
	case LoadStatusLoaded:
		return "loaded"
	case LoadStatusCreatedNew:
		return "created_new"
	case LoadStatusRecreatedCorrupt:
		return "recreated_corrupt"
	default:
		return "unknown"
	}
}

// Model 可持久化的推理模型
type Model interface {
	Trained() bool
}

// Manager 管理一个 (模型, 标准化器) 工件对的生命周期
// 工件文件为 <path>.model.gob 与 <path>.scaler.gob，整体覆盖写入
type Manager[M Model] struct {
	path   string
	fresh  func() M
	logger *zap.Logger

	mu     sync.RWMutex
	model  M
	scaler *StandardScaler
}

// NewManager 构造管理器，初始持有全新的未训练模型
func NewManager[M Model](path string, fresh func() M, logger *zap.Logger) *Manager[M] {
	return &Manager[M]{
		path:   path,
		fresh:  fresh,
		logger: logger,
		model:  fresh(),
		scaler: NewStandardScaler(),
	}
}

func (m *Manager[M]) modelFile() string  { return m.path + ".model.gob" }
func (m *Manager[M]) scalerFile() string { return m.path + ".scaler.gob" }

// LoadOrCreate 尝试加载工件对，失败时回退到全新模型
// 损坏工件不是致命错误：记录告警并返回 LoadStatusRecreatedCorrupt，
// 由调用方决定是否升级为报警
func (m *Manager[M]) LoadOrCreate() (LoadStatus, error) {
	model, scaler, err := m.loadArtifacts()
	if err == nil {
		m.mu.Lock()
		m.model = model
		m.scaler = scaler
		m.mu.Unlock()
		m.logger.Info("model artifacts loaded",
			zap.String("path", m.path),
			zap.Bool("trained", model.Trained()))
		return LoadStatusLoaded, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		m.logger.Info("no model artifacts found, created new untrained model",
			zap.String("path", m.path))
		return LoadStatusCreatedNew, nil
	}

	// 工件存在但损坏：之前学到的行为已丢失，必须可审计
	m.mu.Lock()
	m.model = m.fresh()
	m.scaler = NewStandardScaler()
	m.mu.Unlock()
	m.logger.Warn("model artifacts corrupt, recreated untrained model",
		zap.String("path", m.path),
		zap.Error(err))
	return LoadStatusRecreatedCorrupt, nil
}

func (m *Manager[M]) loadArtifacts() (M, *StandardScaler, error) {
	var zero M

	model := m.fresh()
	if err := decodeGob(m.modelFile(), model); err != nil {
		return zero, nil, err
	}
	scaler := NewStandardScaler()
	if err := decodeGob(m.scalerFile(), scaler); err != nil {
		// 模型在而标准化器缺失，同样视为损坏的工件对
		if errors.Is(err, os.ErrNotExist) {
			return zero, nil, fmt.Errorf("%w: model present but scaler missing", ErrArtifactCorrupt)
		}
		return zero, nil, err
	}
	return model, scaler, nil
}

func decodeGob(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrArtifactCorrupt, filepath.Base(path), err)
	}
	return nil
}

// Snapshot 返回当前的模型与标准化器，供推理路径使用
func (m *Manager[M]) Snapshot() (M, *StandardScaler) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.model, m.scaler
}

// Replace 替换当前的模型与标准化器（训练完成后调用）
func (m *Manager[M]) Replace(model M, scaler *StandardScaler) {
	m.mu.Lock()
	m.model = model
	m.scaler = scaler
	m.mu.Unlock()
}

// Persist 原子持久化当前的工件对：先写模型再写标准化器，
// 每个文件都先写临时文件再重命名，避免读到半成品
func (m *Manager[M]) Persist() error {
	m.mu.RLock()
	model, scaler := m.model, m.scaler
	m.mu.RUnlock()

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if err := encodeGobAtomic(m.modelFile(), model); err != nil {
		return fmt.Errorf("failed to persist model: %w", err)
	}
	if err := encodeGobAtomic(m.scalerFile(), scaler); err != nil {
		return fmt.Errorf("failed to persist scaler: %w", err)
	}
	m.logger.Info("model artifacts persisted", zap.String("path", m.path))
	return nil
}

func encodeGobAtomic(path string, v any) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// ClassifierManager 分类森林的生命周期管理器
type ClassifierManager struct {
	*Manager[*Classifier]
	params     Hyperparams
	numClasses int
}

// NewClassifierManager 构造分类模型管理器
func NewClassifierManager(path string, params Hyperparams, numClasses int, logger *zap.Logger) *ClassifierManager {
	fresh := func() *Classifier { return NewClassifier(params, numClasses) }
	return &ClassifierManager{
		Manager:    NewManager(path, fresh, logger),
		params:     params,
		numClasses: numClasses,
	}
}

// Train 拟合标准化器与模型，返回训练集准确率并持久化
// 训练失败时保持现有工件不变
func (m *ClassifierManager) Train(X [][]float64, y []int) (float64, error) {
	if len(X) == 0 {
		return 0, ErrNoTrainingData
	}
	scaler := NewStandardScaler()
	if err := scaler.Fit(X); err != nil {
		return 0, fmt.Errorf("failed to fit scaler: %w", err)
	}
	scaled, err := scaler.TransformAll(X)
	if err != nil {
		return 0, err
	}
	model := NewClassifier(m.params, m.numClasses)
	if err := model.Fit(scaled, y); err != nil {
		return 0, fmt.Errorf("failed to fit classifier: %w", err)
	}
	score, err := model.Score(scaled, y)
	if err != nil {
		return 0, err
	}

	m.Replace(model, scaler)
	if err := m.Persist(); err != nil {
		return score, err
	}
	return score, nil
}

// RegressorManager 回归森林的生命周期管理器
type RegressorManager struct {
	*Manager[*Regressor]
	params Hyperparams
}

// NewRegressorManager 构造回归模型管理器
func NewRegressorManager(path string, params Hyperparams, logger *zap.Logger) *RegressorManager {
	fresh := func() *Regressor { return NewRegressor(params) }
	return &RegressorManager{
		Manager: NewManager(path, fresh, logger),
		params:  params,
	}
}

// Train 拟合标准化器与模型，返回训练集 R² 并持久化
func (m *RegressorManager) Train(X [][]float64, y []float64) (float64, error) {
	if len(X) == 0 {
		return 0, ErrNoTrainingData
	}
	scaler := NewStandardScaler()
	if err := scaler.Fit(X); err != nil {
		return 0, fmt.Errorf("failed to fit scaler: %w", err)
	}
	scaled, err := scaler.TransformAll(X)
	if err != nil {
		return 0, err
	}
	model := NewRegressor(m.params)
	if err := model.Fit(scaled, y); err != nil {
		return 0, fmt.Errorf("failed to fit regressor: %w", err)
	}
	score, err := model.Score(scaled, y)
	if err != nil {
		return 0, err
	}

	m.Replace(model, scaler)
	if err := m.Persist(); err != nil {
		return score, err
	}
	return score, nil
}
