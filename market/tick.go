package market

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Side 成交方向（买盘/卖盘/中性盘）。集合是开放的：
// 行情源出现未知标记时原样透传，分组统计按出现的标签聚合。
type Side string

const (
	SideBuy     Side = "buy"
	SideSell    Side = "sell"
	SideNeutral Side = "neutral"
)

// Tick represents one normalized executed trade.
type Tick struct {
	// Time 逐笔时刻，"HH:MM:SS"，秒级精度，同一秒可能多笔。
	Time string `json:"time"`
	// Price 成交价（元）。
	Price float64 `json:"price"`
	// Volume 成交量（手）。
	Volume int64 `json:"volume"`
	Side   Side  `json:"side"`
	// Amount 成交金额（元）= 价格 × 手数 × 每手股数，统一在归一化时重算。
	Amount float64 `json:"amount"`

	// priceKey 价格的规范十进制串，用于身份键；避免 float 格式化漂移。
	priceKey string
}

// IdentityKey 去重键：时间+价格+手数。行情源没有逐笔序号，
// 这是跨轮询周期识别同一笔成交的唯一手段（秒级碰撞视为可接受近似）。
func (t Tick) IdentityKey() string {
	pk := t.priceKey
	if pk == "" {
		pk = decimal.NewFromFloat(t.Price).String()
	}
	return t.Time + "|" + pk + "|" + strconv.FormatInt(t.Volume, 10)
}

// Valid reports whether the tick carries all identity components.
func (t Tick) Valid() bool {
	return t.Time != "" && t.Volume > 0 && t.Price > 0
}

// computeAmount 以十进制精确计算成交金额，再转回 float64 供展示与聚合。
func computeAmount(price decimal.Decimal, volume, lotSize int64) float64 {
	amt := price.Mul(decimal.NewFromInt(volume)).Mul(decimal.NewFromInt(lotSize))
	f, _ := amt.Float64()
	return f
}
