package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Asdzzyandzzy/AStock-Analysis/infrastructure/logger"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env        string           `yaml:"env"`
	Symbol     string           `yaml:"symbol"` // 带交易所前缀，如 sh600941
	Market     MarketConfig     `yaml:"market"`
	Poll       PollConfig       `yaml:"poll"`
	LargeTrade LargeTradeConfig `yaml:"largeTrade"`
	Alert      AlertConfig      `yaml:"alert"`
	Server     ServerConfig     `yaml:"server"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        logger.Config    `yaml:"log"`
}

// MarketConfig 交易所约定与金额分档。
type MarketConfig struct {
	// LotSize 每手股数；A股现货 1手=100股。
	LotSize int64 `yaml:"lotSize"`
	// Bands 金额分档断点（元，升序）；空则用缺省 15万/50万/200万。
	Bands []float64 `yaml:"bands"`
}

type PollConfig struct {
	IntervalMs     int     `yaml:"intervalMs"`     // 轮询周期
	FetchTimeoutMs int     `yaml:"fetchTimeoutMs"` // 单次抓取超时
	MaxLiveRows    int     `yaml:"maxLiveRows"`    // 实时区显示最近N笔，仅影响展示
	FetchRate      float64 `yaml:"fetchRate"`      // 抓取限流：每秒令牌数
	FetchBurst     int     `yaml:"fetchBurst"`     // 抓取限流：突发令牌数
}

type LargeTradeConfig struct {
	// Threshold 大单金额下限（元）。合并时读取：中途调整只影响后续周期。
	Threshold float64 `yaml:"threshold"`
}

type AlertConfig struct {
	Enabled bool `yaml:"enabled"`
	// Threshold 告警金额下限（元），应不低于大单阈值；0 表示沿用大单阈值。
	Threshold       float64 `yaml:"threshold"`
	ThrottleSeconds int     `yaml:"throttleSeconds"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("TICKMON_SYMBOL"); v != "" {
		cfg.Symbol = v
	}
	if v := os.Getenv("TICKMON_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("parse TICKMON_THRESHOLD: %w", err)
		}
		cfg.LargeTrade.Threshold = f
	}
	return cfg, Validate(cfg)
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Market.LotSize == 0 {
		cfg.Market.LotSize = 100
	}
	if cfg.Poll.IntervalMs == 0 {
		cfg.Poll.IntervalMs = 5000
	}
	if cfg.Poll.FetchTimeoutMs == 0 {
		cfg.Poll.FetchTimeoutMs = 8000
	}
	if cfg.Poll.MaxLiveRows == 0 {
		cfg.Poll.MaxLiveRows = 300
	}
	if cfg.Poll.FetchRate == 0 {
		cfg.Poll.FetchRate = 2
	}
	if cfg.Poll.FetchBurst == 0 {
		cfg.Poll.FetchBurst = 4
	}
	if cfg.Alert.ThrottleSeconds == 0 {
		cfg.Alert.ThrottleSeconds = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log = logger.DefaultConfig()
	}
}
