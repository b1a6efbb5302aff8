package config

import (
	"errors"
	"fmt"
)

// Validate ensures required fields are present and consistent.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Symbol == "" {
		return errors.New("symbol is required")
	}
	if cfg.Market.LotSize <= 0 {
		return errors.New("market.lotSize must be > 0")
	}
	prev := 0.0
	for i, b := range cfg.Market.Bands {
		if b <= 0 {
			return fmt.Errorf("market.bands[%d] must be > 0", i)
		}
		if b <= prev {
			return fmt.Errorf("market.bands must be strictly ascending (index %d)", i)
		}
		prev = b
	}
	if cfg.Poll.IntervalMs <= 0 {
		return errors.New("poll.intervalMs must be > 0")
	}
	if cfg.Poll.FetchTimeoutMs <= 0 {
		return errors.New("poll.fetchTimeoutMs must be > 0")
	}
	if cfg.Poll.FetchTimeoutMs > cfg.Poll.IntervalMs*10 {
		return errors.New("poll.fetchTimeoutMs unreasonably large relative to intervalMs")
	}
	if cfg.Poll.MaxLiveRows <= 0 {
		return errors.New("poll.maxLiveRows must be > 0")
	}
	if cfg.Poll.FetchRate <= 0 || cfg.Poll.FetchBurst <= 0 {
		return errors.New("poll.fetchRate/fetchBurst must be > 0")
	}
	if cfg.LargeTrade.Threshold < 0 {
		return errors.New("largeTrade.threshold must be >= 0")
	}
	if cfg.Alert.Enabled {
		if cfg.Alert.Threshold != 0 && cfg.Alert.Threshold < cfg.LargeTrade.Threshold {
			return errors.New("alert.threshold must be >= largeTrade.threshold")
		}
		if cfg.Alert.ThrottleSeconds < 0 {
			return errors.New("alert.throttleSeconds must be >= 0")
		}
	}
	return nil
}
