package session

import (
	"context"
	"time"
)

// Ticker delivers countdown ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock creates tickers. Tests swap in a ManualClock.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// SystemClock ticks on wall-clock time.
type SystemClock struct{}

func (SystemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (t systemTicker) C() <-chan time.Time { return t.t.C }
func (t systemTicker) Stop()               { t.t.Stop() }

// RunCountdown ticks the session once per second until the clock hits zero, the
// session is Submitted, or ctx is cancelled. It returns true only when time ran out;
// submitting is left to the caller. onTick sees the remaining seconds after each tick.
// Ticks arriving while a submit is in flight are skipped.
func RunCountdown(ctx context.Context, s *Session, clock Clock, onTick func(remaining int)) bool {
	if s.State() != Active {
		return false
	}
	ticker := clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C():
			remaining, ok := s.Tick()
			if !ok {
				if st := s.State(); st == Active || st == Submitting {
					continue
				}
				return false
			}
			if onTick != nil {
				onTick(remaining)
			}
			if remaining == 0 {
				return true
			}
		}
	}
}

// ManualClock hands out a single ticker whose ticks are fired by Advance.
type ManualClock struct {
	ch chan time.Time
}

func NewManualClock() *ManualClock {
	return &ManualClock{ch: make(chan time.Time)}
}

func (c *ManualClock) NewTicker(time.Duration) Ticker {
	return manualTicker{ch: c.ch}
}

// Advance fires one tick, waiting up to a second for the countdown to take it.
func (c *ManualClock) Advance() bool {
	select {
	case c.ch <- time.Now():
		return true
	case <-time.After(time.Second):
		return false
	}
}

type manualTicker struct {
	ch chan time.Time
}

func (t manualTicker) C() <-chan time.Time { return t.ch }
func (manualTicker) Stop()                 {}
