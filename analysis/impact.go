// Package analysis 对已入池的大单做事后行情跟踪：记录成交后 1 分钟与
// 5 分钟的最新价，统计大单方向与随后价格漂移的延续性。
package analysis

import (
	"sync"
	"time"

	"github.com/Asdzzyandzzy/AStock-Analysis/market"
)

// PriceSource 提供最新成交价。
type PriceSource interface {
	LastPrice() float64
}

// ImpactRecord 一笔大单的跟踪记录。
type ImpactRecord struct {
	Tick         market.Tick
	ObservedAt   time.Time
	PriceAfter1m float64
	PriceAfter5m float64
}

// Stats 大单冲击统计。
type Stats struct {
	Tracked int `json:"tracked"`
	// Analyzed 已拿到两个观测点的笔数
	Analyzed int `json:"analyzed"`
	// ContinuationRate 1分钟后价格顺着大单方向走的比例（买涨/卖跌）
	ContinuationRate float64 `json:"continuation_rate"`
	AvgDrift1m       float64 `json:"avg_drift_1m"`
	AvgDrift5m       float64 `json:"avg_drift_5m"`
}

// ImpactAnalyzer 跟踪每笔新入池大单之后的价格漂移。
type ImpactAnalyzer struct {
	records map[string]*ImpactRecord
	mu      sync.RWMutex
	source  PriceSource

	// 观测延迟可调，测试时缩短
	delay1 time.Duration
	delay2 time.Duration
}

// NewImpactAnalyzer creates an analyzer reading follow-up prices from source.
func NewImpactAnalyzer(source PriceSource) *ImpactAnalyzer {
	return &ImpactAnalyzer{
		records: make(map[string]*ImpactRecord),
		source:  source,
		delay1:  time.Minute,
		delay2:  5 * time.Minute,
	}
}

// OnLargeTrade 登记一笔新入池大单并启动跟踪。重复键忽略。
func (a *ImpactAnalyzer) OnLargeTrade(t market.Tick) {
	key := t.IdentityKey()
	a.mu.Lock()
	if _, exists := a.records[key]; exists {
		a.mu.Unlock()
		return
	}
	a.records[key] = &ImpactRecord{Tick: t, ObservedAt: time.Now()}
	a.mu.Unlock()

	go a.trackDrift(key)
}

func (a *ImpactAnalyzer) trackDrift(key string) {
	time.Sleep(a.delay1)
	a.capture(key, func(r *ImpactRecord, p float64) { r.PriceAfter1m = p })

	time.Sleep(a.delay2 - a.delay1)
	a.capture(key, func(r *ImpactRecord, p float64) { r.PriceAfter5m = p })
}

func (a *ImpactAnalyzer) capture(key string, set func(*ImpactRecord, float64)) {
	p := a.source.LastPrice()
	if p <= 0 {
		return
	}
	a.mu.Lock()
	if r, exists := a.records[key]; exists {
		set(r, p)
	}
	a.mu.Unlock()
}

// Stats 汇总当前全部跟踪记录。
func (a *ImpactAnalyzer) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := Stats{Tracked: len(a.records)}
	var continuation int
	var drift1, drift5 float64
	for _, r := range a.records {
		if r.PriceAfter1m == 0 || r.PriceAfter5m == 0 || r.Tick.Price <= 0 {
			continue
		}
		stats.Analyzed++

		d1 := (r.PriceAfter1m - r.Tick.Price) / r.Tick.Price
		d5 := (r.PriceAfter5m - r.Tick.Price) / r.Tick.Price
		drift1 += d1
		drift5 += d5

		switch r.Tick.Side {
		case market.SideBuy:
			if d1 > 0 {
				continuation++
			}
		case market.SideSell:
			if d1 < 0 {
				continuation++
			}
		}
	}
	if stats.Analyzed > 0 {
		stats.ContinuationRate = float64(continuation) / float64(stats.Analyzed)
		stats.AvgDrift1m = drift1 / float64(stats.Analyzed)
		stats.AvgDrift5m = drift5 / float64(stats.Analyzed)
	}
	return stats
}

// CleanOldRecords removes old records to prevent unbounded growth.
func (a *ImpactAnalyzer) CleanOldRecords(maxAge time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := time.Now()
	for key, r := range a.records {
		if now.Sub(r.ObservedAt) > maxAge {
			delete(a.records, key)
		}
	}
}

// SetDelays 调整观测延迟（测试用）。
func (a *ImpactAnalyzer) SetDelays(d1, d2 time.Duration) {
	a.delay1 = d1
	a.delay2 = d2
}
