package market

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Asdzzyandzzy/AStock-Analysis/gateway"
)

// ErrSchemaMismatch 整批数据结构不可用（缺少预期字段）。非致命：
// 调用方记一条警告并跳过该周期的合并。
var ErrSchemaMismatch = errors.New("tick batch schema mismatch")

// NormalizeResult 一次归一化的产出与清洗统计。
type NormalizeResult struct {
	Ticks   []Tick
	Dropped int // 数值清洗失败或缺字段被丢弃的笔数
}

// Normalize 把一批弱类型原始记录清洗为规范 Tick 序列：
// 数值强转（失败丢弃该笔）、重算成交金额、按时间稳定排序。
// 纯函数，不做 I/O，不改共享状态。
//
// 整批记录全部缺字段视为结构不匹配，返回空序列与 ErrSchemaMismatch。
func Normalize(raw []gateway.RawTick, lotSize int64) (NormalizeResult, error) {
	if lotSize <= 0 {
		lotSize = 1
	}
	res := NormalizeResult{Ticks: make([]Tick, 0, len(raw))}
	structural := 0
	for _, r := range raw {
		if r.Time == "" || r.Price == "" || r.Volume == "" {
			structural++
			res.Dropped++
			continue
		}
		price, err := decimal.NewFromString(r.Price)
		if err != nil || price.Sign() <= 0 {
			res.Dropped++
			continue
		}
		volume, ok := parseVolume(r.Volume)
		if !ok {
			res.Dropped++
			continue
		}
		res.Ticks = append(res.Ticks, Tick{
			Time:     r.Time,
			Price:    priceFloat(price),
			Volume:   volume,
			Side:     Side(r.Side),
			Amount:   computeAmount(price, volume, lotSize),
			priceKey: price.String(),
		})
	}
	if len(raw) > 0 && structural == len(raw) {
		return NormalizeResult{Ticks: []Tick{}, Dropped: res.Dropped}, ErrSchemaMismatch
	}
	// 时间是 "HH:MM:SS"，字典序即时间序；稳定排序保留同秒内原始相对顺序
	sort.SliceStable(res.Ticks, func(i, j int) bool {
		return res.Ticks[i].Time < res.Ticks[j].Time
	})
	return res, nil
}

func parseVolume(s string) (int64, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() || d.Sign() <= 0 {
		return 0, false
	}
	return d.IntPart(), true
}

func priceFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
