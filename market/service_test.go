package market

import (
	"testing"
	"time"
)

func TestServiceTruncatesWindowOnly(t *testing.T) {
	svc := NewService(NewPublisher(), 2)
	batch := []Tick{
		mkTick("09:30:01", 10, 1, SideBuy),
		mkTick("09:30:02", 11, 1, SideBuy),
		mkTick("09:30:03", 12, 1, SideSell),
	}
	svc.UpdateWindow(batch, time.Now())

	win := svc.LiveWindow()
	if len(win) != 2 {
		t.Fatalf("expected truncated window of 2, got %d", len(win))
	}
	if win[0].Time != "09:30:02" {
		t.Fatalf("window must keep the newest ticks: %+v", win)
	}
	// 截断只影响展示，完整批次规模仍可见
	if svc.BatchSize() != 3 {
		t.Fatalf("expected batch size 3, got %d", svc.BatchSize())
	}
	if svc.LastTickTime() != "09:30:03" {
		t.Fatalf("unexpected last tick time %q", svc.LastTickTime())
	}
	if svc.LastPrice() != 12 {
		t.Fatalf("unexpected last price %f", svc.LastPrice())
	}
}

func TestServiceWindowIsACopy(t *testing.T) {
	svc := NewService(nil, 10)
	svc.UpdateWindow([]Tick{mkTick("09:30:01", 10, 1, SideBuy)}, time.Now())
	win := svc.LiveWindow()
	win[0].Price = 999
	if svc.LiveWindow()[0].Price != 10 {
		t.Fatalf("live window leaked a mutable reference")
	}
}

func TestServiceStaleness(t *testing.T) {
	svc := NewService(nil, 10)
	if svc.Staleness() < time.Hour {
		t.Fatalf("fresh service must report large staleness")
	}
	svc.UpdateWindow([]Tick{mkTick("09:30:01", 10, 1, SideBuy)}, time.Now())
	if svc.Staleness() > time.Minute {
		t.Fatalf("staleness too large after update: %v", svc.Staleness())
	}
}
