package gateway

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// 东财 bs 字段的性质代码。
const (
	bsSell    = "1"
	bsBuy     = "2"
	bsNeutral = "4"
)

// parseWireTicks 把线上格式转成弱类型 RawTick。单条转换失败只丢弃该条，
// 不中断整批。
func parseWireTicks(wire []wireTick) []RawTick {
	out := make([]RawTick, 0, len(wire))
	for _, w := range wire {
		raw, ok := parseWireTick(w)
		if !ok {
			continue
		}
		out = append(out, raw)
	}
	return out
}

func parseWireTick(w wireTick) (RawTick, bool) {
	t, err := w.T.Int64()
	if err != nil || t < 0 || t > 235959 {
		return RawTick{}, false
	}
	price, err := decimal.NewFromString(w.P.String())
	if err != nil {
		return RawTick{}, false
	}
	return RawTick{
		Time: formatHHMMSS(t),
		// 线上价格放大了 1000 倍
		Price:  price.Div(decimal.NewFromInt(1000)).String(),
		Volume: w.V.String(),
		Side:   sideLabel(w.BS.String()),
	}, true
}

func formatHHMMSS(t int64) string {
	return fmt.Sprintf("%02d:%02d:%02d", t/10000, t/100%100, t%100)
}

// sideLabel 把性质代码翻译为方向标签；未知代码原样透传，
// 下游把方向当作开放枚举处理。
func sideLabel(code string) string {
	switch code {
	case bsBuy:
		return "buy"
	case bsSell:
		return "sell"
	case bsNeutral:
		return "neutral"
	default:
		return code
	}
}
