package market

import (
	"testing"
)

func bigTick(tm string, price float64, volume int64, side Side) Tick {
	return mkTick(tm, price, volume, side)
}

func TestMergeFiltersByThreshold(t *testing.T) {
	acc := NewAccumulator(nil)
	// 场景：lot=1，阈值 400000，只有 500000 金额的那笔入池
	batch := []Tick{
		bigTick("09:30:01", 10.00, 50000, SideBuy), // 500000
		bigTick("09:30:02", 10.00, 100, SideBuy),   // 1000
	}
	added := acc.Merge(batch, 400000)
	if len(added) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(added))
	}
	if acc.Size() != 1 {
		t.Fatalf("expected set size 1, got %d", acc.Size())
	}
	got := acc.Snapshot()
	if got[0].Amount != 500000 || got[0].Time != "09:30:01" {
		t.Fatalf("wrong tick accumulated: %+v", got[0])
	}
}

func TestMergeIdempotent(t *testing.T) {
	acc := NewAccumulator(nil)
	batch := []Tick{
		bigTick("09:30:01", 10.00, 50000, SideBuy),
		bigTick("09:30:02", 12.00, 60000, SideSell),
	}
	acc.Merge(batch, 0)
	size := acc.Size()
	amount := acc.TotalAmount()

	// 重复抓到同一批：笔数与金额都不变
	if added := acc.Merge(batch, 0); len(added) != 0 {
		t.Fatalf("re-merge inserted %d ticks", len(added))
	}
	if acc.Size() != size || acc.TotalAmount() != amount {
		t.Fatalf("re-merge mutated the set: %d/%f", acc.Size(), acc.TotalAmount())
	}
}

func TestMergeOrderIndependent(t *testing.T) {
	b1 := []Tick{bigTick("09:30:01", 10.00, 50000, SideBuy)}
	b2 := []Tick{
		bigTick("09:30:01", 10.00, 50000, SideBuy), // 与 b1 重叠
		bigTick("09:30:05", 11.00, 50000, SideSell),
	}

	a := NewAccumulator(nil)
	a.Merge(b1, 0)
	a.Merge(b2, 0)

	b := NewAccumulator(nil)
	b.Merge(b2, 0)
	b.Merge(b1, 0)

	if a.Size() != b.Size() {
		t.Fatalf("merge order changed set size: %d vs %d", a.Size(), b.Size())
	}
	for _, tk := range a.Snapshot() {
		if !b.Contains(tk.IdentityKey()) {
			t.Fatalf("set mismatch on %s", tk.IdentityKey())
		}
	}
}

func TestMergeMonotonicGrowth(t *testing.T) {
	acc := NewAccumulator(nil)
	batches := [][]Tick{
		{bigTick("09:30:01", 10, 50000, SideBuy)},
		{}, // 空批
		{bigTick("09:30:01", 10, 50000, SideBuy), bigTick("09:31:00", 10, 60000, SideSell)},
		{bigTick("09:29:00", 9, 70000, SideBuy)}, // 边界上重排过的旧数据
	}
	last := 0
	for _, b := range batches {
		acc.Merge(b, 0)
		if acc.Size() < last {
			t.Fatalf("set shrank from %d to %d", last, acc.Size())
		}
		last = acc.Size()
	}
	if last != 3 {
		t.Fatalf("expected 3 distinct ticks, got %d", last)
	}
}

func TestMergeThresholdReadAtMergeTime(t *testing.T) {
	acc := NewAccumulator(nil)
	tick := bigTick("09:30:01", 10.00, 5000, SideBuy) // 50000
	acc.Merge([]Tick{tick}, 40000)
	if acc.Size() != 1 {
		t.Fatalf("tick above threshold not accumulated")
	}
	// 之后调高阈值：已入池条目不回溯剔除
	acc.Merge([]Tick{tick}, 1000000)
	if acc.Size() != 1 {
		t.Fatalf("raising threshold must not evict prior entries, size=%d", acc.Size())
	}
}

func TestMergeSkipsMalformedTicks(t *testing.T) {
	acc := NewAccumulator(nil)
	batch := []Tick{
		{Time: "", Price: 10, Volume: 100, Amount: 1e6},       // 缺时间
		{Time: "09:30:01", Price: 10, Volume: 0, Amount: 1e6}, // 手数非法
		bigTick("09:30:02", 10, 50000, SideBuy),
	}
	added := acc.Merge(batch, 0)
	if len(added) != 1 || acc.Size() != 1 {
		t.Fatalf("malformed ticks must be skipped, got %d/%d", len(added), acc.Size())
	}
}

func TestSnapshotIsolatedAndSorted(t *testing.T) {
	acc := NewAccumulator(nil)
	acc.Merge([]Tick{
		bigTick("09:31:00", 10, 50000, SideBuy),
		bigTick("09:30:00", 11, 60000, SideSell),
	}, 0)

	snap := acc.Snapshot()
	if snap[0].Time != "09:30:00" {
		t.Fatalf("snapshot not sorted by time: %+v", snap)
	}
	snap[0].Time = "mutated"
	if acc.Snapshot()[0].Time != "09:30:00" {
		t.Fatalf("snapshot is not isolated from internal state")
	}
}

func TestMergeEmitsLargeTradeEvents(t *testing.T) {
	var events []string
	acc := NewAccumulator(func(event string, fields map[string]interface{}) {
		events = append(events, event)
	})
	acc.Merge([]Tick{bigTick("09:30:01", 10, 50000, SideBuy)}, 0)
	acc.Merge([]Tick{bigTick("09:30:01", 10, 50000, SideBuy)}, 0) // 重复
	if len(events) != 1 || events[0] != "large_trade" {
		t.Fatalf("expected exactly one large_trade event, got %v", events)
	}
}
