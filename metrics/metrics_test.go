package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestUpdateAccumulatorMetrics(t *testing.T) {
	LargeTradeCount.Set(0)
	LargeTradeAmount.Set(0)

	UpdateAccumulatorMetrics(3, 7500000)

	if testutil.ToFloat64(LargeTradeCount) != 3 {
		t.Errorf("Expected LargeTradeCount to be 3, got %f", testutil.ToFloat64(LargeTradeCount))
	}
	if testutil.ToFloat64(LargeTradeAmount) != 7500000 {
		t.Errorf("Expected LargeTradeAmount to be 7500000, got %f", testutil.ToFloat64(LargeTradeAmount))
	}
}

func TestUpdateCycleMetrics(t *testing.T) {
	LiveWindowSize.Set(0)
	LastBatchSize.Set(0)
	before := testutil.ToFloat64(TicksIngested)

	UpdateCycleMetrics(100, 2, 50, 100)

	if got := testutil.ToFloat64(TicksIngested) - before; got != 100 {
		t.Errorf("Expected TicksIngested to grow by 100, got %f", got)
	}
	if testutil.ToFloat64(LiveWindowSize) != 50 {
		t.Errorf("Expected LiveWindowSize to be 50, got %f", testutil.ToFloat64(LiveWindowSize))
	}
	if testutil.ToFloat64(LastBatchSize) != 100 {
		t.Errorf("Expected LastBatchSize to be 100, got %f", testutil.ToFloat64(LastBatchSize))
	}
}

func TestCycleResultCounter(t *testing.T) {
	CyclesTotal.Reset()

	CyclesTotal.WithLabelValues("ok").Inc()
	CyclesTotal.WithLabelValues("ok").Inc()
	CyclesTotal.WithLabelValues("fetch_error").Inc()

	if got := testutil.ToFloat64(CyclesTotal.WithLabelValues("ok")); got != 2 {
		t.Errorf("Expected CyclesTotal[ok] to be 2, got %f", got)
	}
	if got := testutil.ToFloat64(CyclesTotal.WithLabelValues("fetch_error")); got != 1 {
		t.Errorf("Expected CyclesTotal[fetch_error] to be 1, got %f", got)
	}
}
