package market

import (
	"math"
	"testing"
)

func mkTick(tm string, price float64, volume int64, side Side) Tick {
	return Tick{
		Time:   tm,
		Price:  price,
		Volume: volume,
		Side:   side,
		Amount: price * float64(volume),
	}
}

func TestSummarizeBySideWeightedAverage(t *testing.T) {
	// 对应场景：lot=1，(09:30:01, 10.00, 50000) 与 (09:30:02, 10.00, 100)
	ticks := []Tick{
		mkTick("09:30:01", 10.00, 50000, SideBuy),
		mkTick("09:30:02", 10.00, 100, SideBuy),
	}
	rows := SummarizeBySide(ticks)
	s, ok := rows[SideBuy]
	if !ok {
		t.Fatalf("missing buy group")
	}
	if s.Count != 2 {
		t.Fatalf("expected count 2, got %d", s.Count)
	}
	if s.AmountSum != 501000 {
		t.Fatalf("expected amount sum 501000, got %f", s.AmountSum)
	}
	// 同价加权均价仍为 10.00
	if !s.HasAvg || math.Abs(s.WeightedAvgPrice-10.00) > 1e-9 {
		t.Fatalf("expected weighted avg 10.00, got %f", s.WeightedAvgPrice)
	}
}

func TestSummarizeWeightedAverageFormula(t *testing.T) {
	ticks := []Tick{
		mkTick("09:30:01", 10.0, 100, SideSell), // amount 1000
		mkTick("09:30:02", 20.0, 150, SideSell), // amount 3000
	}
	rows := SummarizeBySide(ticks)
	s := rows[SideSell]
	want := (10.0*1000 + 20.0*3000) / 4000
	if math.Abs(s.WeightedAvgPrice-want) > 1e-9 {
		t.Fatalf("expected %f, got %f", want, s.WeightedAvgPrice)
	}
}

func TestSummarizeZeroDenominator(t *testing.T) {
	ticks := []Tick{{Time: "09:30:01", Price: 10, Volume: 1, Side: SideBuy, Amount: 0}}
	rows := SummarizeBySide(ticks)
	s := rows[SideBuy]
	if s.HasAvg {
		t.Fatalf("zero amount sum must report average as not available")
	}
	if math.IsNaN(s.WeightedAvgPrice) {
		t.Fatalf("NaN must never leak into summary rows")
	}
}

func TestSummarizeEmptyInput(t *testing.T) {
	if rows := SummarizeBySide(nil); len(rows) != 0 {
		t.Fatalf("empty input must yield empty summary, got %v", rows)
	}
	if rows := SummarizeByBand(nil, DefaultPartition()); len(rows) != 0 {
		t.Fatalf("empty input must yield empty summary, got %v", rows)
	}
}

func TestSummarizeByBand(t *testing.T) {
	p := DefaultPartition()
	ticks := []Tick{
		mkTick("09:30:01", 10, 1000, SideBuy),    // 10000 → 第一档
		mkTick("09:30:02", 100, 2000, SideSell),  // 200000 → 第二档
		mkTick("09:30:03", 100, 30000, SideBuy),  // 3000000 → 最后一档
		mkTick("09:30:04", 100, 25000, SideSell), // 2500000 → 最后一档
	}
	rows := SummarizeByBand(ticks, p)
	if len(rows) != 3 {
		t.Fatalf("expected 3 bands hit, got %d: %v", len(rows), rows)
	}
	top := rows[p.Label(3)]
	if top.Count != 2 || top.AmountSum != 5500000 {
		t.Fatalf("unexpected top band row: %+v", top)
	}
}

func TestPivotMarginsEqualSumOfRealGroups(t *testing.T) {
	p := DefaultPartition()
	ticks := []Tick{
		mkTick("09:30:01", 10, 1000, SideBuy),
		mkTick("09:30:02", 100, 2000, SideSell),
		mkTick("09:30:03", 100, 30000, SideBuy),
		mkTick("09:30:04", 50, 4000, SideNeutral),
	}
	pv := PivotBandSide(ticks, p)

	grand := pv.Cells[TotalKey][TotalKey]
	if grand.Count != len(ticks) {
		t.Fatalf("grand total count %d, want %d", grand.Count, len(ticks))
	}

	// 每个轴的 total 等于该轴真实分组之和
	for band, row := range pv.Cells {
		if band == TotalKey {
			continue
		}
		var count int
		var amount float64
		for side, cell := range row {
			if side == TotalKey {
				continue
			}
			count += cell.Count
			amount += cell.AmountSum
		}
		tot := row[TotalKey]
		if tot.Count != count || math.Abs(tot.AmountSum-amount) > 1e-6 {
			t.Fatalf("band %s margin mismatch: %+v vs %d/%f", band, tot, count, amount)
		}
	}

	var sideCount int
	for side, cell := range pv.Cells[TotalKey] {
		if side == TotalKey {
			continue
		}
		sideCount += cell.Count
	}
	if sideCount != grand.Count {
		t.Fatalf("side margins do not add up: %d vs %d", sideCount, grand.Count)
	}
}

func TestPivotEmptyInput(t *testing.T) {
	pv := PivotBandSide(nil, DefaultPartition())
	if len(pv.Cells) != 0 {
		t.Fatalf("expected empty pivot, got %v", pv.Cells)
	}
}

func TestFilterAmountRange(t *testing.T) {
	ticks := []Tick{
		mkTick("09:30:01", 10, 100, SideBuy),  // 1000
		mkTick("09:30:02", 10, 500, SideBuy),  // 5000
		mkTick("09:30:03", 10, 1000, SideBuy), // 10000
	}
	got := FilterAmountRange(ticks, 2000, 6000)
	if len(got) != 1 || got[0].Amount != 5000 {
		t.Fatalf("unexpected filter result: %+v", got)
	}
	// max<=0 视为无上界
	if got := FilterAmountRange(ticks, 5000, 0); len(got) != 2 {
		t.Fatalf("expected 2 ticks with open upper bound, got %d", len(got))
	}
}
