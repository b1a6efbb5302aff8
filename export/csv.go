// Package export 把大单明细与分组统计写成 CSV，供下载/落盘。
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/Asdzzyandzzy/AStock-Analysis/market"
)

// utf8BOM 让 Excel 正确识别编码（对应原始数据口径 utf-8-sig）。
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteTicks 输出逐笔明细：时间、价格、手数、性质、金额。
func WriteTicks(w io.Writer, ticks []market.Tick) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "price", "volume", "side", "amount"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range ticks {
		rec := []string{
			t.Time,
			fmt.Sprintf("%.2f", t.Price),
			fmt.Sprintf("%d", t.Volume),
			string(t.Side),
			fmt.Sprintf("%.0f", t.Amount),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write tick: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummary 输出分组统计；组按键名排序保证输出确定。
// 均价不可得时输出 "not available"。
func WriteSummary(w io.Writer, rows map[string]market.Summary) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"group", "count", "amount_sum", "weighted_avg_price"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s := rows[k]
		avg := "not available"
		if s.HasAvg {
			avg = fmt.Sprintf("%.4f", s.WeightedAvgPrice)
		}
		rec := []string{
			k,
			fmt.Sprintf("%d", s.Count),
			fmt.Sprintf("%.2f", s.AmountSum),
			avg,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SideSummaryRows 把按性质的统计转成可写的字符串键表。
func SideSummaryRows(rows map[market.Side]market.Summary) map[string]market.Summary {
	out := make(map[string]market.Summary, len(rows))
	for k, v := range rows {
		out[string(k)] = v
	}
	return out
}
