package market

import (
	"sort"
	"sync"
)

// EventSink 结构化事件回调，由上层接 logger。
type EventSink func(event string, fields map[string]interface{})

// Accumulator 会话期大单池：跨轮询周期累计所有金额达标的成交，
// 按身份键（时间+价格+手数）去重。只增不减，重复观测不改变内容。
//
// 每轮抓取返回的是重叠滑动窗口，Merge 必须容忍新批次是已见数据的
// 超集/子集/部分重叠。身份键哈希查找摊还 O(1)。
// 读方通过 Snapshot 拿拷贝，永远看不到半插入状态。
type Accumulator struct {
	mu     sync.RWMutex
	seen   map[string]struct{}
	ticks  []Tick // 插入序
	amount float64

	sink EventSink
}

func NewAccumulator(sink EventSink) *Accumulator {
	return &Accumulator{
		seen: make(map[string]struct{}),
		sink: sink,
	}
}

// Merge 把新批次中金额 ≥ threshold 且身份键未见过的成交并入池中，
// 返回本轮新增的成交。阈值在合并时读取：中途调高阈值不会回溯剔除
// 低阈值时期已入池的条目（既定行为）。
//
// 幂等且与批次顺序无关（作为集合）：f(f(S,B),B) == f(S,B)。
func (a *Accumulator) Merge(batch []Tick, threshold float64) []Tick {
	var added []Tick
	a.mu.Lock()
	for _, t := range batch {
		if t.Amount < threshold {
			continue
		}
		if !t.Valid() {
			a.logEvent("large_trade_skipped", map[string]interface{}{
				"time":   t.Time,
				"price":  t.Price,
				"volume": t.Volume,
			})
			continue
		}
		key := t.IdentityKey()
		if _, dup := a.seen[key]; dup {
			continue
		}
		a.seen[key] = struct{}{}
		a.ticks = append(a.ticks, t)
		a.amount += t.Amount
		added = append(added, t)
	}
	a.mu.Unlock()

	for _, t := range added {
		a.logEvent("large_trade", map[string]interface{}{
			"time":   t.Time,
			"price":  t.Price,
			"volume": t.Volume,
			"side":   string(t.Side),
			"amount": t.Amount,
		})
	}
	return added
}

// Contains reports whether a tick identity key is already accumulated.
func (a *Accumulator) Contains(key string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.seen[key]
	return ok
}

// Size 当前池内笔数。
func (a *Accumulator) Size() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.ticks)
}

// TotalAmount 池内成交金额合计。
func (a *Accumulator) TotalAmount() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.amount
}

// Snapshot 返回按时间升序（同秒保持插入序）的拷贝，与内部状态解耦。
func (a *Accumulator) Snapshot() []Tick {
	a.mu.RLock()
	out := make([]Tick, len(a.ticks))
	copy(out, a.ticks)
	a.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time < out[j].Time
	})
	return out
}

func (a *Accumulator) logEvent(event string, fields map[string]interface{}) {
	if a == nil || a.sink == nil {
		return
	}
	a.sink(event, fields)
}
