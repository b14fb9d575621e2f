package paw

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestTimeout_ContinuesUntilExpired(t *testing.T) {
	timeout := NewTimeoutClock(5*time.Millisecond, stepClock(time.Millisecond))

	for i := 0; i < 5; i++ {
		if r := timeout.Evaluate(); r.Signal != Continue {
			t.Fatalf("poll %d: %s, want continue", i+1, r.Signal)
		}
	}
	r := timeout.Evaluate()
	if r.Signal != Fail || !errors.Is(r.Err, ErrMotorTimeout) {
		t.Fatalf("poll 6: %s (%v), want fail with ErrMotorTimeout", r.Signal, r.Err)
	}

	// Expiry clears the clock, so the next poll starts a new window.
	if r := timeout.Evaluate(); r.Signal != Continue {
		t.Errorf("poll after expiry: %s, want continue", r.Signal)
	}
}

func TestTimeout_ResetRestartsWindow(t *testing.T) {
	timeout := NewTimeoutClock(3*time.Millisecond, stepClock(time.Millisecond))
	timeout.Reset() // safe before first use

	timeout.Evaluate()
	timeout.Evaluate()
	timeout.Reset()
	timeout.Reset()

	for i := 0; i < 3; i++ {
		if r := timeout.Evaluate(); r.Signal != Continue {
			t.Fatalf("poll %d after reset: %s, want continue", i+1, r.Signal)
		}
	}
	if r := timeout.Evaluate(); r.Signal != Fail {
		t.Errorf("poll 4 after reset: %s, want fail", r.Signal)
	}
}

func TestTimeout_ZeroFailsOnFirstPoll(t *testing.T) {
	timeout := NewTimeout(0)
	if r := timeout.Evaluate(); r.Signal != Fail {
		t.Errorf("Evaluate() = %s, want fail", r.Signal)
	}
}

func TestNullAndErrorBreakers(t *testing.T) {
	if r := (&NullBreaker{}).Evaluate(); r != Stopped {
		t.Errorf("NullBreaker.Evaluate() = %+v, want stop", r)
	}
	if r := (&LimitSwitch{Side: Front}).Evaluate(); r != Stopped {
		t.Errorf("LimitSwitch.Evaluate() = %+v, want stop", r)
	}
	r := (&ErrorBreaker{}).Evaluate()
	if r.Signal != Fail || !errors.Is(r.Err, ErrBreakerFault) {
		t.Errorf("ErrorBreaker.Evaluate() = %+v, want fail with ErrBreakerFault", r)
	}
}

func TestNewBreaker(t *testing.T) {
	tests := []struct {
		typ      string
		expected string
	}{
		{"TimeExpired", "timeout(1.4s)"},
		{"Timeout", "timeout(1.4s)"},
		{"NullBreaker", "null"},
		{"ErrorBreaker", "error"},
		{"LimitSwitch", "limit()"},
		{"Bogus", "null"},
		{"", "null"},
	}

	for _, tt := range tests {
		b := NewBreaker(tt.typ, BreakerConfig{TotalTimeMs: 1400})
		if got := Describe(b); got != tt.expected {
			t.Errorf("NewBreaker(%q) = %s, want %s", tt.typ, got, tt.expected)
		}
	}
}

func TestNewBreaker_DistinctInstances(t *testing.T) {
	a := NewBreaker("NullBreaker", BreakerConfig{})
	b := NewBreaker("NullBreaker", BreakerConfig{})
	if a == b {
		t.Error("factory returned the same breaker twice")
	}
}

func TestKnownBreaker(t *testing.T) {
	for _, typ := range []string{"TimeExpired", "Timeout", "NullBreaker", "ErrorBreaker", "LimitSwitch"} {
		if !KnownBreaker(typ) {
			t.Errorf("KnownBreaker(%q) = false", typ)
		}
	}
	if KnownBreaker("Bogus") {
		t.Error(`KnownBreaker("Bogus") = true`)
	}
}

func TestNewBreaker_TimeoutClampedToDuration(t *testing.T) {
	if int64(math.MaxInt) <= MaxTotalTimeMs {
		t.Skip("int cannot hold a value above the bound")
	}

	b := NewBreaker("TimeExpired", BreakerConfig{TotalTimeMs: math.MaxInt})
	timeout, ok := b.(*Timeout)
	if !ok {
		t.Fatalf("NewBreaker built %T, want *Timeout", b)
	}
	if want := time.Duration(MaxTotalTimeMs) * time.Millisecond; timeout.Total() != want {
		t.Errorf("Total() = %s, want %s", timeout.Total(), want)
	}
	if r := timeout.Evaluate(); r.Signal != Continue {
		t.Errorf("first poll: %s, want continue", r.Signal)
	}
}
