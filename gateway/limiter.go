package gateway

import (
	"sync"
	"time"
)

// RateLimiter 控制抓取频率，避免触发行情提供方限流。
type RateLimiter interface {
	Wait()
}

// TokenBucketLimiter 简单令牌桶：每秒补充 rate 个令牌，溢出封顶 burst。
// 轮询间隔远长于补充周期时 Wait 不会阻塞。
type TokenBucketLimiter struct {
	rate   float64
	burst  int
	tokens float64
	refill time.Time
	mu     sync.Mutex
}

func NewTokenBucketLimiter(rate float64, burst int) *TokenBucketLimiter {
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucketLimiter{
		rate:   rate,
		burst:  burst,
		tokens: float64(burst),
		refill: time.Now(),
	}
}

// Wait 取走一个令牌，不足时睡到下一个令牌可用。
func (l *TokenBucketLimiter) Wait() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	elapsed := now.Sub(l.refill).Seconds()
	l.refill = now
	l.tokens += elapsed * l.rate
	if l.tokens > float64(l.burst) {
		l.tokens = float64(l.burst)
	}
	if l.tokens < 1 {
		sleep := time.Duration((1-l.tokens)/l.rate*float64(time.Second)) + time.Millisecond
		l.mu.Unlock()
		time.Sleep(sleep)
		l.mu.Lock()
		l.tokens = 0
		return
	}
	l.tokens--
}
