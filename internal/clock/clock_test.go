package clock_test

import (
	"testing"
	"time"

	"github.com/jensholdgaard/discord-auction-bot/internal/clock"
)

func TestReal_Now(t *testing.T) {
	clk := clock.Real{}
	before := time.Now()
	got := clk.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Real.Now() = %v, expected between %v and %v", got, before, after)
	}
}

func TestMock_Now(t *testing.T) {
	fixed := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	clk := &clock.Mock{T: fixed}

	got := clk.Now()
	if !got.Equal(fixed) {
		t.Errorf("Mock.Now() = %v, want %v", got, fixed)
	}

	// Call again to ensure determinism.
	got2 := clk.Now()
	if !got2.Equal(fixed) {
		t.Errorf("Mock.Now() second call = %v, want %v", got2, fixed)
	}
}

func TestMock_AfterFunc(t *testing.T) {
	clk := &clock.Mock{T: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}

	fired := 0
	clk.AfterFunc(time.Second, func() { fired++ })
	clk.AfterFunc(time.Minute, func() { fired++ })

	if fired != 0 {
		t.Fatalf("scheduled calls ran before Fire(), fired = %d", fired)
	}

	clk.Fire()
	if fired != 2 {
		t.Errorf("fired = %d, want 2", fired)
	}

	// Fire again: queue must be drained.
	clk.Fire()
	if fired != 2 {
		t.Errorf("fired after second Fire() = %d, want 2", fired)
	}
}

func TestReal_AfterFunc_Stop(t *testing.T) {
	clk := clock.Real{}
	timer := clk.AfterFunc(time.Hour, func() {
		t.Error("timer fired despite Stop()")
	})
	if !timer.Stop() {
		t.Error("Stop() = false, want true for an unfired timer")
	}
}
