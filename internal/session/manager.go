// Package session 管理设备级的分析上下文
//
// 窗口与分类器本身不做并发保护，上下文用互斥锁把同一设备的
// 预测请求串行化；不同设备之间互不阻塞。
package session

import (
	"sync"

	"go.uber.org/zap"

	"norn-analytics/internal/classifier"
	"norn-analytics/internal/models"
)

// Context 单个设备的分析上下文，持有两种模式各自的滑动窗口
type Context struct {
	DeviceID string

	mu    sync.Mutex
	fall  *classifier.Fall
	sleep *classifier.Sleep
}

// PredictFall 串行化后执行跌倒判定
func (c *Context) PredictFall(sample models.FallSample) models.FallVerdict {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fall.Predict(sample)
}

// PredictSleep 串行化后执行睡眠预测
func (c *Context) PredictSleep(sample models.SleepSample) models.SleepPrediction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleep.Predict(sample)
}

// Reset 清空两个模式的窗口（设备切换模式或会话结束时调用）
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fall.Clear()
	c.sleep.Clear()
}

// Factory 为新设备构造分类器对
type Factory func(deviceID string) (*classifier.Fall, *classifier.Sleep)

// Manager 按设备 ID 维护分析上下文的生命周期
type Manager struct {
	factory Factory
	logger  *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Context
}

// NewManager 构造会话管理器
func NewManager(factory Factory, logger *zap.Logger) *Manager {
	return &Manager{
		factory:  factory,
		logger:   logger,
		sessions: make(map[string]*Context),
	}
}

// Get 返回设备的上下文，不存在时创建
func (m *Manager) Get(deviceID string) *Context {
	m.mu.RLock()
	ctx, ok := m.sessions[deviceID]
	m.mu.RUnlock()
	if ok {
		return ctx
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ctx, ok := m.sessions[deviceID]; ok {
		return ctx
	}
	fall, sleep := m.factory(deviceID)
	ctx = &Context{DeviceID: deviceID, fall: fall, sleep: sleep}
	m.sessions[deviceID] = ctx
	m.logger.Info("session context created", zap.String("device_id", deviceID))
	return ctx
}

// Evict 移除设备的上下文（会话结束时调用）
func (m *Manager) Evict(deviceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[deviceID]; ok {
		delete(m.sessions, deviceID)
		m.logger.Info("session context evicted", zap.String("device_id", deviceID))
	}
}

// Count 当前活跃上下文数量
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
