package entropy

import "testing"

func TestSeededIsDeterministic(t *testing.T) {
	a := NewSeeded(42)
	b := NewSeeded(42)
	for i := 0; i < 100; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
	}
}

func TestZeroSeedIsReplaced(t *testing.T) {
	if s := NewSeeded(0); s.Seed() == 0 {
		t.Fatalf("seed 0 was not replaced")
	}
}

func TestChanceBounds(t *testing.T) {
	seq := NewSequence(0.3)
	if Chance(seq, 0) {
		t.Fatalf("p=0 fired")
	}
	if seq.Draws() != 0 {
		t.Fatalf("p=0 consumed %d draws", seq.Draws())
	}
	if !Chance(seq, 1) {
		t.Fatalf("p=1 did not fire")
	}
	if !Chance(seq, 0.5) {
		t.Fatalf("0.3 < 0.5 should fire")
	}
	if Chance(seq, 0.2) {
		t.Fatalf("0.3 < 0.2 should not fire")
	}
}

func TestSequenceIntn(t *testing.T) {
	seq := NewSequence(0, 0.5, 0.999999)
	got := []int{seq.Intn(5), seq.Intn(5), seq.Intn(5)}
	want := []int{0, 2, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Intn #%d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestRange(t *testing.T) {
	seq := NewSequence(0, 0.5)
	if v := Range(seq, -10, 10); v != -10 {
		t.Fatalf("Range lo = %v", v)
	}
	if v := Range(seq, -10, 10); v != 0 {
		t.Fatalf("Range mid = %v", v)
	}
}
