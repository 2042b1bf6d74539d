package util

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Range is a closed interval of seconds
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Validate requires 0 < Min <= Max
func (r Range) Validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) {
		return fmt.Errorf("range bounds must be numbers")
	}
	if r.Min <= 0 {
		return fmt.Errorf("min must be > 0, got %v", r.Min)
	}
	if r.Max < r.Min {
		return fmt.Errorf("max %v is below min %v", r.Max, r.Min)
	}
	return nil
}

// Fixed reports whether the range holds a single value
func (r Range) Fixed() bool {
	return r.Min == r.Max
}

// Draw picks a value uniformly from the range at millisecond precision.
// The result never leaves [Min, Max].
func (r Range) Draw(rng *rand.Rand) float64 {
	if r.Fixed() {
		return r.Min
	}
	v := RoundMillis(r.Min + rng.Float64()*(r.Max-r.Min))
	return math.Min(math.Max(v, r.Min), r.Max)
}

// FloorMillis truncates a non-negative second count to millisecond precision
func FloorMillis(s float64) float64 {
	return math.Floor(s*1000) / 1000
}

// NewRand returns a generator seeded with seed, or with the clock when seed is nil.
// The seed actually used is returned so runs can be reproduced.
func NewRand(seed *int64) (*rand.Rand, int64) {
	s := time.Now().UnixNano()
	if seed != nil {
		s = *seed
	}
	return rand.New(rand.NewSource(s)), s
}
