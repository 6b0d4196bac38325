package engine

import (
	"testing"
	"time"
)

func TestTimerFiresOnPeriod(t *testing.T) {
	tm := NewTimer(time.Second)
	fires := 0
	for i := 0; i < 25; i++ {
		if tm.Tick(100 * time.Millisecond) {
			fires++
		}
	}
	if fires != 2 {
		t.Fatalf("fires = %d, want 2", fires)
	}
	if tm.Elapsed() != 500*time.Millisecond {
		t.Fatalf("elapsed = %v, want 500ms", tm.Elapsed())
	}
}

func TestTimerNoCatchUp(t *testing.T) {
	tm := NewTimer(time.Second)
	if !tm.Tick(10500 * time.Millisecond) {
		t.Fatalf("long tick did not fire")
	}
	if tm.Elapsed() != 500*time.Millisecond {
		t.Fatalf("elapsed = %v, want remainder 500ms", tm.Elapsed())
	}
	if tm.Tick(100 * time.Millisecond) {
		t.Fatalf("fired again without a full period")
	}
}

func TestTimerIgnoresNonPositive(t *testing.T) {
	tm := NewTimer(time.Second)
	if tm.Tick(0) || tm.Tick(-time.Second) {
		t.Fatalf("fired on non-positive dt")
	}
	if (&Timer{}).Tick(time.Second) {
		t.Fatalf("zero-period timer fired")
	}
}
