package alert

import (
	"testing"
	"time"
)

func TestManagerSendsToAllChannels(t *testing.T) {
	ch1 := NewMockChannel("a")
	ch2 := NewMockChannel("b")
	m := NewManager([]Channel{ch1, ch2}, time.Minute)

	err := m.SendWarning("large trade buy 2100000 CNY", "09:30:01|10.5|2000", map[string]interface{}{
		"amount": 2100000.0,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(ch1.GetAlerts()) != 1 || len(ch2.GetAlerts()) != 1 {
		t.Fatalf("alert not fanned out: %d/%d", len(ch1.GetAlerts()), len(ch2.GetAlerts()))
	}
	if ch1.GetAlerts()[0].Level != "WARNING" {
		t.Fatalf("unexpected level %q", ch1.GetAlerts()[0].Level)
	}
}

func TestThrottleByKey(t *testing.T) {
	ch := NewMockChannel("a")
	m := NewManager([]Channel{ch}, time.Minute)

	// 同一身份键限流，不同键放行
	_ = m.SendWarning("large trade", "key-1", nil)
	_ = m.SendWarning("large trade", "key-1", nil)
	_ = m.SendWarning("large trade", "key-2", nil)

	if got := len(ch.GetAlerts()); got != 2 {
		t.Fatalf("expected 2 alerts after throttling, got %d", got)
	}
}

func TestThrottleExpires(t *testing.T) {
	th := NewThrottler(10 * time.Millisecond)
	if !th.Allow("k") {
		t.Fatalf("first send must pass")
	}
	if th.Allow("k") {
		t.Fatalf("second send inside interval must be throttled")
	}
	time.Sleep(15 * time.Millisecond)
	if !th.Allow("k") {
		t.Fatalf("send after interval must pass")
	}
}

func TestAllChannelsFailing(t *testing.T) {
	bad := &MockChannel{name: "bad", shouldErr: true}
	m := NewManager([]Channel{bad}, 0)
	if err := m.SendError("boom", nil); err == nil {
		t.Fatalf("expected error when every channel fails")
	}
}
