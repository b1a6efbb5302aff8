package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Asdzzyandzzy/AStock-Analysis/analysis"
	"github.com/Asdzzyandzzy/AStock-Analysis/gateway"
	"github.com/Asdzzyandzzy/AStock-Analysis/infrastructure/alert"
	"github.com/Asdzzyandzzy/AStock-Analysis/infrastructure/logger"
	"github.com/Asdzzyandzzy/AStock-Analysis/market"
	"github.com/Asdzzyandzzy/AStock-Analysis/metrics"
)

// EngineState 引擎状态
type EngineState int

const (
	// StateIdle 空闲状态
	StateIdle EngineState = iota
	// StateRunning 运行状态
	StateRunning
	// StatePaused 暂停状态
	StatePaused
	// StateStopped 停止状态
	StateStopped
)

// String 返回状态名称
func (s EngineState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StatePaused:
		return "PAUSED"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Config 引擎配置
type Config struct {
	Symbol         string        // 证券代码（带交易所前缀）
	Interval       time.Duration // 轮询周期
	FetchTimeout   time.Duration // 单次抓取超时
	LotSize        int64         // 每手股数
	Threshold      float64       // 大单金额下限（元）
	AlertEnabled   bool          // 新大单是否告警
	AlertThreshold float64       // 告警金额下限；0 沿用 Threshold
}

// Components 引擎依赖组件
type Components struct {
	Client      gateway.TickClient
	Accumulator *market.Accumulator
	Service     *market.Service
	Publisher   *market.Publisher
	Impact      *analysis.ImpactAnalyzer
	AlertMgr    *alert.Manager
	Logger      *logger.Logger
}

// PollingEngine 轮询引擎：每个周期执行 抓取 → 归一化 → 合并大单 →
// 刷新实时窗口 → 广播。任何单周期失败只跳过该周期，已累计状态不受影响。
type PollingEngine struct {
	config Config

	client  gateway.TickClient
	acc     *market.Accumulator
	service *market.Service
	pub     *market.Publisher
	impact  *analysis.ImpactAnalyzer
	alerts  *alert.Manager
	logger  *logger.Logger

	// 热更新参数（阈值在每次合并时读取）
	paramMu        sync.RWMutex
	threshold      float64
	alertThreshold float64

	state EngineState
	mu    sync.RWMutex

	stopChan chan struct{}
	doneChan chan struct{}

	stats Statistics
}

// Statistics 引擎统计信息
type Statistics struct {
	StartTime     time.Time
	TotalCycles   int64
	FailedCycles  int64
	TotalTicks    int64
	DroppedTicks  int64
	LargeInserted int64
	LastCycleTime time.Time
	mu            sync.RWMutex
}

// StatsSnapshot 统计快照（无锁拷贝，供 API 输出）。
type StatsSnapshot struct {
	StartTime     time.Time `json:"start_time"`
	TotalCycles   int64     `json:"total_cycles"`
	FailedCycles  int64     `json:"failed_cycles"`
	TotalTicks    int64     `json:"total_ticks"`
	DroppedTicks  int64     `json:"dropped_ticks"`
	LargeInserted int64     `json:"large_inserted"`
	LastCycleTime time.Time `json:"last_cycle_time"`
}

// New 创建轮询引擎
func New(cfg Config, components Components) (*PollingEngine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := validateComponents(components); err != nil {
		return nil, fmt.Errorf("invalid components: %w", err)
	}

	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 8 * time.Second
	}
	alertThreshold := cfg.AlertThreshold
	if alertThreshold <= 0 {
		alertThreshold = cfg.Threshold
	}

	return &PollingEngine{
		config:         cfg,
		client:         components.Client,
		acc:            components.Accumulator,
		service:        components.Service,
		pub:            components.Publisher,
		impact:         components.Impact,
		alerts:         components.AlertMgr,
		logger:         components.Logger,
		threshold:      cfg.Threshold,
		alertThreshold: alertThreshold,
		state:          StateIdle,
		stopChan:       make(chan struct{}),
		doneChan:       make(chan struct{}),
	}, nil
}

func validateConfig(cfg Config) error {
	if cfg.Symbol == "" {
		return errors.New("symbol is required")
	}
	if cfg.LotSize <= 0 {
		return errors.New("lot size must be > 0")
	}
	if cfg.Threshold < 0 {
		return errors.New("threshold must be >= 0")
	}
	return nil
}

func validateComponents(c Components) error {
	if c.Client == nil {
		return errors.New("tick client is required")
	}
	if c.Accumulator == nil {
		return errors.New("accumulator is required")
	}
	if c.Service == nil {
		return errors.New("live service is required")
	}
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Start 启动引擎
func (e *PollingEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateIdle && e.state != StateStopped {
		e.mu.Unlock()
		return fmt.Errorf("engine already started (state: %s)", e.state)
	}
	if e.state == StateStopped {
		e.stopChan = make(chan struct{})
		e.doneChan = make(chan struct{})
	}
	e.state = StateRunning
	e.stats.mu.Lock()
	e.stats.StartTime = time.Now()
	e.stats.mu.Unlock()
	e.mu.Unlock()

	e.logger.Info("Polling engine starting",
		zap.String("symbol", e.config.Symbol),
		zap.Duration("interval", e.config.Interval),
		zap.Float64("threshold", e.Threshold()))

	go e.run(ctx)
	return nil
}

// Stop 停止引擎（幂等）。
func (e *PollingEngine) Stop() error {
	e.mu.Lock()
	if e.state == StateStopped {
		e.mu.Unlock()
		return nil
	}
	if e.state != StateRunning && e.state != StatePaused {
		e.mu.Unlock()
		return fmt.Errorf("engine not running (state: %s)", e.state)
	}
	e.mu.Unlock()

	select {
	case <-e.stopChan:
	default:
		close(e.stopChan)
	}

	select {
	case <-e.doneChan:
	case <-time.After(10 * time.Second):
		e.logger.Warn("Timeout waiting for engine to stop")
	}

	e.mu.Lock()
	e.state = StateStopped
	e.mu.Unlock()

	e.logger.Info("Polling engine stopped")
	return nil
}

// Pause 暂停轮询；已累计状态保持不变。
func (e *PollingEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateRunning {
		return fmt.Errorf("engine not running (state: %s)", e.state)
	}
	e.state = StatePaused
	e.logger.Info("Polling engine paused")
	return nil
}

// Resume 恢复轮询。
func (e *PollingEngine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StatePaused {
		return fmt.Errorf("engine not paused (state: %s)", e.state)
	}
	e.state = StateRunning
	e.logger.Info("Polling engine resumed")
	return nil
}

// State 当前状态。
func (e *PollingEngine) State() EngineState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Threshold 当前大单阈值（合并时读取）。
func (e *PollingEngine) Threshold() float64 {
	e.paramMu.RLock()
	defer e.paramMu.RUnlock()
	return e.threshold
}

// ApplyParameters 热更新阈值与告警参数；只影响后续周期的合并，
// 已入池条目不回溯剔除。
func (e *PollingEngine) ApplyParameters(threshold, alertThreshold float64) {
	e.paramMu.Lock()
	e.threshold = threshold
	if alertThreshold <= 0 {
		alertThreshold = threshold
	}
	e.alertThreshold = alertThreshold
	e.paramMu.Unlock()

	e.logger.LogCycle("config_reload", map[string]interface{}{
		"symbol":    e.config.Symbol,
		"threshold": threshold,
	})
}

// Stats 统计快照。
func (e *PollingEngine) Stats() StatsSnapshot {
	e.stats.mu.RLock()
	defer e.stats.mu.RUnlock()
	return StatsSnapshot{
		StartTime:     e.stats.StartTime,
		TotalCycles:   e.stats.TotalCycles,
		FailedCycles:  e.stats.FailedCycles,
		TotalTicks:    e.stats.TotalTicks,
		DroppedTicks:  e.stats.DroppedTicks,
		LargeInserted: e.stats.LargeInserted,
		LastCycleTime: e.stats.LastCycleTime,
	}
}

// run 主事件循环：单协程轮询，周期之间不会并发执行。
func (e *PollingEngine) run(ctx context.Context) {
	defer close(e.doneChan)

	// 启动后立刻跑一轮，不等首个 tick
	e.onCycle(ctx)

	ticker := time.NewTicker(e.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Context done, stopping engine")
			return
		case <-e.stopChan:
			e.logger.Info("Stop signal received")
			return
		case <-ticker.C:
			e.onCycle(ctx)
		}
	}
}

// onCycle 执行一个轮询周期。
func (e *PollingEngine) onCycle(ctx context.Context) {
	e.mu.RLock()
	state := e.state
	e.mu.RUnlock()
	if state == StatePaused {
		return
	}

	started := time.Now()

	fetchCtx, cancel := context.WithTimeout(ctx, e.config.FetchTimeout)
	raw, err := e.client.FetchTicks(fetchCtx, e.config.Symbol)
	cancel()
	if err != nil {
		e.recordFailure()
		metrics.FetchErrors.Inc()
		metrics.CyclesTotal.WithLabelValues("fetch_error").Inc()
		e.logger.LogWarning("fetch_error", map[string]interface{}{
			"symbol": e.config.Symbol,
			"error":  err.Error(),
		})
		return
	}

	res, err := market.Normalize(raw, e.config.LotSize)
	if err != nil {
		// 结构不匹配：该周期不合并，已累计状态不动
		e.recordFailure()
		metrics.CyclesTotal.WithLabelValues("schema_error").Inc()
		e.logger.LogWarning("schema_mismatch", map[string]interface{}{
			"symbol":  e.config.Symbol,
			"dropped": res.Dropped,
		})
		return
	}

	if len(res.Ticks) == 0 {
		// 非交易时段/无数据：不是错误
		e.recordCycle(0, res.Dropped, 0)
		metrics.CyclesTotal.WithLabelValues("empty").Inc()
		return
	}

	// 先合并全量批次，再截断刷新展示窗口：截断只是展示问题
	e.paramMu.RLock()
	threshold := e.threshold
	alertThreshold := e.alertThreshold
	e.paramMu.RUnlock()

	added := e.acc.Merge(res.Ticks, threshold)
	e.service.UpdateWindow(res.Ticks, started)

	for _, t := range added {
		if e.pub != nil {
			e.pub.PublishLarge(t)
		}
		if e.impact != nil {
			e.impact.OnLargeTrade(t)
		}
		if e.config.AlertEnabled && e.alerts != nil && t.Amount >= alertThreshold {
			_ = e.alerts.SendWarning(
				fmt.Sprintf("large trade %s %.0f CNY", t.Side, t.Amount),
				t.IdentityKey(),
				map[string]interface{}{
					"time":   t.Time,
					"price":  t.Price,
					"volume": t.Volume,
					"amount": t.Amount,
				})
		}
	}

	e.recordCycle(len(res.Ticks), res.Dropped, len(added))
	metrics.CyclesTotal.WithLabelValues("ok").Inc()
	metrics.CycleDuration.Observe(time.Since(started).Seconds())
	metrics.UpdateCycleMetrics(len(res.Ticks), res.Dropped, len(e.service.LiveWindow()), len(res.Ticks))
	metrics.UpdateAccumulatorMetrics(e.acc.Size(), e.acc.TotalAmount())

	e.logger.LogCycle("cycle_complete", map[string]interface{}{
		"symbol":      e.config.Symbol,
		"batch_size":  len(res.Ticks),
		"dropped":     res.Dropped,
		"large_added": len(added),
		"duration_ms": time.Since(started).Milliseconds(),
	})
}

func (e *PollingEngine) recordCycle(ticks, dropped, largeAdded int) {
	e.stats.mu.Lock()
	e.stats.TotalCycles++
	e.stats.TotalTicks += int64(ticks)
	e.stats.DroppedTicks += int64(dropped)
	e.stats.LargeInserted += int64(largeAdded)
	e.stats.LastCycleTime = time.Now()
	e.stats.mu.Unlock()
}

func (e *PollingEngine) recordFailure() {
	e.stats.mu.Lock()
	e.stats.TotalCycles++
	e.stats.FailedCycles++
	e.stats.LastCycleTime = time.Now()
	e.stats.mu.Unlock()
}
