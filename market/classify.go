package market

// Summary 一个分组的统计行：笔数、金额合计、金额加权均价。
// 金额合计为零（或组为空）时均价不可得，HasAvg=false，展示层输出
// "not available"，JSON 输出 null，绝不传播 NaN。
type Summary struct {
	Count            int     `json:"count"`
	AmountSum        float64 `json:"amount_sum"`
	WeightedAvgPrice float64 `json:"weighted_avg_price"`
	HasAvg           bool    `json:"has_avg"`
}

// TotalKey 透视边际行的合成键，等于该轴上全部真实分组之和。
const TotalKey = "total"

func (s *Summary) add(t Tick) {
	s.Count++
	s.AmountSum += t.Amount
	// 加权均价推迟到 finalize，先累计 Σ(p·a)
	s.WeightedAvgPrice += t.Price * t.Amount
}

func (s *Summary) finalize() {
	if s.AmountSum > 0 {
		s.WeightedAvgPrice /= s.AmountSum
		s.HasAvg = true
	} else {
		s.WeightedAvgPrice = 0
		s.HasAvg = false
	}
}

// SummarizeBySide 按买卖性质分组统计。空输入返回空表。
func SummarizeBySide(ticks []Tick) map[Side]Summary {
	acc := make(map[Side]*Summary)
	for _, t := range ticks {
		s := acc[t.Side]
		if s == nil {
			s = &Summary{}
			acc[t.Side] = s
		}
		s.add(t)
	}
	out := make(map[Side]Summary, len(acc))
	for k, s := range acc {
		s.finalize()
		out[k] = *s
	}
	return out
}

// SummarizeByBand 按金额档位分组统计，键为档位标签。空输入返回空表。
func SummarizeByBand(ticks []Tick, partition Partition) map[string]Summary {
	acc := make(map[string]*Summary)
	for _, t := range ticks {
		label := partition.Label(partition.BandOf(t.Amount))
		s := acc[label]
		if s == nil {
			s = &Summary{}
			acc[label] = s
		}
		s.add(t)
	}
	out := make(map[string]Summary, len(acc))
	for k, s := range acc {
		s.finalize()
		out[k] = *s
	}
	return out
}

// Pivot 档位×性质 两键透视，带显式边际：每个轴各有一个 TotalKey
// 伪分组，其值等于该轴全部真实分组之和（手工累计，不依赖任何
// 库的 margin 功能，保证 total == Σ 真实分组可测）。
type Pivot struct {
	// Cells[band][side]，band、side 均含 TotalKey
	Cells map[string]map[string]Summary `json:"cells"`
}

// PivotBandSide 生成带边际合计的 档位×性质 透视表。空输入返回空 Cells。
func PivotBandSide(ticks []Tick, partition Partition) Pivot {
	acc := make(map[string]map[string]*Summary)
	bump := func(band, side string, t Tick) {
		row := acc[band]
		if row == nil {
			row = make(map[string]*Summary)
			acc[band] = row
		}
		s := row[side]
		if s == nil {
			s = &Summary{}
			row[side] = s
		}
		s.add(t)
	}
	for _, t := range ticks {
		band := partition.Label(partition.BandOf(t.Amount))
		side := string(t.Side)
		bump(band, side, t)
		bump(band, TotalKey, t)
		bump(TotalKey, side, t)
		bump(TotalKey, TotalKey, t)
	}
	out := Pivot{Cells: make(map[string]map[string]Summary, len(acc))}
	for band, row := range acc {
		cells := make(map[string]Summary, len(row))
		for side, s := range row {
			s.finalize()
			cells[side] = *s
		}
		out.Cells[band] = cells
	}
	return out
}

// FilterAmountRange 返回金额落在 [min, max] 内的子集；max<=0 视为无上界。
// 这是纯展示性过滤，每次对当前数据全量重算，与累计大单集合是两种
// 语义，互不混用。
func FilterAmountRange(ticks []Tick, min, max float64) []Tick {
	out := make([]Tick, 0, len(ticks))
	for _, t := range ticks {
		if t.Amount < min {
			continue
		}
		if max > 0 && t.Amount > max {
			continue
		}
		out = append(out, t)
	}
	return out
}
