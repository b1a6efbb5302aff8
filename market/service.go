package market

import (
	"sync"
	"time"
)

// Service 维护最近一次归一化批次的实时展示窗口，并向订阅者广播。
// 截断只作用于展示：引擎先把全量批次交给 Accumulator 合并，
// 之后才调用 UpdateWindow，截断永远不影响大单累计的正确性。
type Service struct {
	pub *Publisher

	mu         sync.RWMutex
	window     []Tick
	batchSize  int
	lastTick   string
	lastUpdate time.Time
	maxRows    int
}

func NewService(pub *Publisher, maxRows int) *Service {
	if pub == nil {
		pub = NewPublisher()
	}
	if maxRows <= 0 {
		maxRows = 300
	}
	return &Service{pub: pub, maxRows: maxRows}
}

// UpdateWindow 用新批次刷新窗口（保留最后 maxRows 笔）并广播。
func (s *Service) UpdateWindow(batch []Tick, ts time.Time) {
	view := batch
	if len(view) > s.maxRows {
		view = view[len(view)-s.maxRows:]
	}
	window := make([]Tick, len(view))
	copy(window, view)

	s.mu.Lock()
	s.window = window
	s.batchSize = len(batch)
	if len(batch) > 0 {
		s.lastTick = batch[len(batch)-1].Time
	}
	s.lastUpdate = ts
	s.mu.Unlock()

	s.pub.PublishBatch(window)
}

// LiveWindow 当前展示窗口的拷贝。
func (s *Service) LiveWindow() []Tick {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Tick, len(s.window))
	copy(out, s.window)
	return out
}

// BatchSize 最近一次完整批次的笔数（截断前）。
func (s *Service) BatchSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batchSize
}

// LastPrice 最近一笔成交价；无数据返回 0。
func (s *Service) LastPrice() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.window) == 0 {
		return 0
	}
	return s.window[len(s.window)-1].Price
}

// LastTickTime 最近一笔成交的时刻；无数据返回空串。
func (s *Service) LastTickTime() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTick
}

// Staleness 距离上次成功刷新的时长；从未刷新返回一个大值。
func (s *Service) Staleness() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastUpdate.IsZero() {
		return time.Hour * 24 * 365
	}
	return time.Since(s.lastUpdate)
}
