// Package metrics provides Prometheus metrics for the tick monitor.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// 轮询周期
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tickmon_cycles_total",
		Help: "Completed polling cycles by result (ok/fetch_error/schema_error/empty).",
	}, []string{"result"})
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tickmon_cycle_duration_seconds",
		Help:    "Wall time of one fetch/normalize/merge cycle.",
		Buckets: prometheus.DefBuckets,
	})

	// 数据清洗
	TicksIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tickmon_ticks_ingested_total",
		Help: "Ticks surviving normalization across all cycles.",
	})
	TicksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tickmon_ticks_dropped_total",
		Help: "Raw ticks dropped during coercion.",
	})
	FetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tickmon_fetch_errors_total",
		Help: "Failed fetches from the tick provider.",
	})

	// 大单池
	LargeTradeCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tickmon_large_trades_count",
		Help: "Accumulated deduplicated large trades this session.",
	})
	LargeTradeAmount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tickmon_large_trades_amount_sum",
		Help: "Total notional amount of accumulated large trades (CNY).",
	})

	// 实时窗口
	LiveWindowSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tickmon_live_window_size",
		Help: "Ticks currently in the truncated live view.",
	})
	LastBatchSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tickmon_last_batch_size",
		Help: "Ticks in the most recent normalized batch before truncation.",
	})
)

// UpdateCycleMetrics 记录一个成功周期的清洗与批次规模。
func UpdateCycleMetrics(ingested, dropped, windowSize, batchSize int) {
	TicksIngested.Add(float64(ingested))
	TicksDropped.Add(float64(dropped))
	LiveWindowSize.Set(float64(windowSize))
	LastBatchSize.Set(float64(batchSize))
}

// UpdateAccumulatorMetrics 刷新大单池规模指标。
func UpdateAccumulatorMetrics(count int, amountSum float64) {
	LargeTradeCount.Set(float64(count))
	LargeTradeAmount.Set(amountSum)
}

// StartMetricsServer 启动Prometheus指标服务器。
func StartMetricsServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, nil)
	}()
}
