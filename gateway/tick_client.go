package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrFetchFailure 行情抓取失败（网络/提供方错误）。一个周期内的抓取
// 失败只跳过该周期，不影响已累计状态。
var ErrFetchFailure = errors.New("tick fetch failure")

// RawTick 提供方返回的单笔原始记录，字段保持弱类型，
// 数值清洗统一交给 market.Normalize。
type RawTick struct {
	Time   string // "HH:MM:SS"
	Price  string // 元，十进制串
	Volume string // 手数
	Side   string // buy / sell / neutral，未知代码原样透传
}

// TickClient 行情抓取口；实现方可能阻塞在网络 I/O 上。
type TickClient interface {
	FetchTicks(ctx context.Context, symbol string) ([]RawTick, error)
}

// EastmoneyClient 东财日内逐笔接口（push2ex getStockFenShi）的简化客户端。
// HTTPClient 可注入 httptest；Limiter 防止轮询过快触发限流。
type EastmoneyClient struct {
	BaseURL    string
	PageSize   int
	HTTPClient *http.Client
	Limiter    RateLimiter
}

// DefaultBaseURL 东财逐笔行情入口。
const DefaultBaseURL = "https://push2ex.eastmoney.com"

type fenShiResp struct {
	Data *fenShiData `json:"data"`
}

type fenShiData struct {
	Data []wireTick `json:"data"`
}

// wireTick 线上格式：t=HHMMSS 整数，p=价格×1000，v=手数，bs=性质代码。
type wireTick struct {
	T  json.Number `json:"t"`
	P  json.Number `json:"p"`
	V  json.Number `json:"v"`
	BS json.Number `json:"bs"`
}

// FetchTicks 拉取 symbol 当日逐笔全量窗口。
func (c *EastmoneyClient) FetchTicks(ctx context.Context, symbol string) ([]RawTick, error) {
	if c == nil || c.HTTPClient == nil {
		return nil, fmt.Errorf("%w: http client not set", ErrFetchFailure)
	}
	secid, err := secIDFor(symbol)
	if err != nil {
		return nil, err
	}
	if c.Limiter != nil {
		c.Limiter.Wait()
	}

	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = 50000
	}
	params := url.Values{}
	params.Set("pagesize", fmt.Sprintf("%d", pageSize))
	params.Set("ut", "7eea3edcaed734bea9cbfc24409ed989")
	params.Set("dpt", "wzfscj")
	params.Set("secid", secid)
	endpoint := base + "/getStockFenShi?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrFetchFailure, err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailure, resp.StatusCode)
	}

	var payload fenShiResp
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", ErrFetchFailure, err)
	}
	if payload.Data == nil {
		// 非交易时段或代码无效时提供方返回空 data
		return []RawTick{}, nil
	}
	return parseWireTicks(payload.Data.Data), nil
}

// secIDFor 把带交易所前缀的代码（sh600941 / sz000001）映射为东财 secid。
func secIDFor(symbol string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(symbol))
	switch {
	case strings.HasPrefix(s, "sh"):
		return "1." + s[2:], nil
	case strings.HasPrefix(s, "sz"):
		return "0." + s[2:], nil
	case len(s) == 6:
		// 无前缀时按首位推断：6 开头沪市，其余深市
		if strings.HasPrefix(s, "6") {
			return "1." + s, nil
		}
		return "0." + s, nil
	}
	return "", fmt.Errorf("%w: unrecognized symbol %q", ErrFetchFailure, symbol)
}

// NewDefaultHTTPClient 提供一个带超时的 http.Client。
func NewDefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
