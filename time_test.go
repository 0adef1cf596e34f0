package reactor

import (
	"testing"
	"time"
)

func TestDurationRoundTrip(t *testing.T) {
	for _, ns := range []int64{0, 1, -1, 999, -999, 1_000_000_000, -1_000_000_000, 1_500_000_001, -1_500_000_001} {
		got := FromNanos(ns).AsNanos()
		if got != ns {
			t.Errorf("FromNanos(%d).AsNanos() = %d, want %d", ns, got, ns)
		}
	}
}

func TestTimespecRoundTrip(t *testing.T) {
	cases := []Timespec{
		{Sec: 0, Nsec: 0},
		{Sec: 1, Nsec: 500},
		{Sec: -1, Nsec: 0},
		{Sec: -2, Nsec: 999_999_999},
	}
	for _, ts := range cases {
		got := FromTimespec(ts).AsTimespec()
		if got != ts {
			t.Errorf("FromTimespec(%+v).AsTimespec() = %+v, want %+v", ts, got, ts)
		}
	}
}

func TestAsSecFloors(t *testing.T) {
	if got := FromNanos(-1).AsSec(); got != -1 {
		t.Errorf("AsSec(-1ns) = %d, want -1", got)
	}
	if got := FromStd(-500 * time.Millisecond).AsSec(); got != -1 {
		t.Errorf("AsSec(-500ms) = %d, want -1", got)
	}
	if got := FromStd(500 * time.Millisecond).AsSec(); got != 0 {
		t.Errorf("AsSec(500ms) = %d, want 0", got)
	}
}

func TestAsTimespecNsecAlwaysNonNegative(t *testing.T) {
	for _, ns := range []int64{-1, -500_000_000, -1_999_999_999} {
		ts := FromNanos(ns).AsTimespec()
		if ts.Nsec < 0 || ts.Nsec >= int64(Second) {
			t.Errorf("FromNanos(%d).AsTimespec() = %+v, Nsec out of [0, 1e9)", ns, ts)
		}
	}
}

func TestInstantOrdering(t *testing.T) {
	a := Now()
	b := a.Add(FromStd(time.Millisecond))
	if !a.Before(b) {
		t.Errorf("expected %v before %v", a, b)
	}
	if b.Sub(a) != FromStd(time.Millisecond) {
		t.Errorf("b.Sub(a) = %v, want 1ms", b.Sub(a))
	}
}

func TestBootNowMonotonic(t *testing.T) {
	a := BootNow()
	time.Sleep(time.Millisecond)
	b := BootNow()
	if !a.Before(b) {
		t.Errorf("expected BootNow to advance: a=%v b=%v", a, b)
	}
}
