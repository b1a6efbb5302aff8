package market

import (
	"fmt"
	"sort"
)

// Partition 金额分档断点（升序，单位元）。n 个断点把 [0, ∞) 切成
// n+1 个左闭右开区间，任何非负金额恰好落入一档。
type Partition []float64

// DefaultPartition 缺省分档：15万 / 50万 / 200万。
func DefaultPartition() Partition {
	return Partition{150000, 500000, 2000000}
}

// Normalize 返回去重升序、剔除非正断点后的分档。
func (p Partition) Normalize() Partition {
	out := make(Partition, 0, len(p))
	for _, b := range p {
		if b > 0 {
			out = append(out, b)
		}
	}
	sort.Float64s(out)
	dedup := out[:0]
	var last float64 = -1
	for _, b := range out {
		if b != last {
			dedup = append(dedup, b)
			last = b
		}
	}
	return dedup
}

// BandOf 返回 amount 所在档位的下标（0..len(p)）。
func (p Partition) BandOf(amount float64) int {
	for i, high := range p {
		if amount < high {
			return i
		}
	}
	return len(p)
}

// Label 档位的显示标签，如 "[150000, 500000)"；最后一档上界为 ∞。
func (p Partition) Label(band int) string {
	low := 0.0
	if band > 0 && band <= len(p) {
		low = p[band-1]
	}
	if band >= len(p) {
		return fmt.Sprintf("[%.0f, inf)", low)
	}
	return fmt.Sprintf("[%.0f, %.0f)", low, p[band])
}

// Labels 全部档位标签，按区间下界升序。
func (p Partition) Labels() []string {
	labels := make([]string, len(p)+1)
	for i := range labels {
		labels[i] = p.Label(i)
	}
	return labels
}
