package util

import (
	"math/rand"
	"testing"
)

func TestRangeValidate(t *testing.T) {
	valid := []Range{{Min: 1, Max: 1}, {Min: 0.5, Max: 2}}
	for _, r := range valid {
		if err := r.Validate(); err != nil {
			t.Errorf("%+v: unexpected error %v", r, err)
		}
	}

	invalid := []Range{{Min: 0, Max: 1}, {Min: -1, Max: 1}, {Min: 2, Max: 1}}
	for _, r := range invalid {
		if err := r.Validate(); err == nil {
			t.Errorf("%+v: expected error", r)
		}
	}
}

func TestRangeDrawStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := Range{Min: 0.5, Max: 2.0004}
	for i := 0; i < 10000; i++ {
		v := r.Draw(rng)
		if v < r.Min || v > r.Max {
			t.Fatalf("draw %v outside %+v", v, r)
		}
		if v != RoundMillis(v) && v != r.Max {
			t.Fatalf("draw %v is not millisecond aligned", v)
		}
	}

	fixed := Range{Min: 1, Max: 1}
	if v := fixed.Draw(rng); v != 1 {
		t.Errorf("fixed range drew %v", v)
	}
}

func TestNewRandSeeded(t *testing.T) {
	seed := int64(42)
	a, usedA := NewRand(&seed)
	b, usedB := NewRand(&seed)
	if usedA != 42 || usedB != 42 {
		t.Fatalf("seed not honored: %d %d", usedA, usedB)
	}
	for i := 0; i < 5; i++ {
		if a.Int63() != b.Int63() {
			t.Fatal("same seed produced different sequences")
		}
	}
}

func TestFloorMillis(t *testing.T) {
	if got := FloorMillis(27.9999); got != 27.999 {
		t.Errorf("got %v", got)
	}
}
