package glitch

import (
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/glitchreel/internal/apperr"
	"github.com/kikiluvv/glitchreel/pkg/util"
)

func newScheduler(cfg Config, seed int64) *Scheduler {
	return NewScheduler(zerolog.Nop(), cfg, rand.New(rand.NewSource(seed)))
}

func TestEvenlySpaced(t *testing.T) {
	s := newScheduler(Config{
		Count:         3,
		DurationRange: util.Range{Min: 1, Max: 2},
		Policy:        Evenly,
		Effects:       AllEffects(),
	}, 1)

	segs, err := s.Schedule(30)
	require.NoError(t, err)
	require.Len(t, segs, 3)

	assert.InDelta(t, 0, segs[0].Start, 1e-9)
	assert.InDelta(t, 14, segs[1].Start, 1e-9)
	assert.InDelta(t, 28, segs[2].Start, 1e-9)
	for i, seg := range segs {
		assert.Equal(t, i, seg.Index)
		assert.GreaterOrEqual(t, seg.Duration, 1.0)
		assert.LessOrEqual(t, seg.Duration, 2.0)
		assert.LessOrEqual(t, seg.End(), 30.0)
		assert.True(t, seg.Effect.Known())
	}
}

func TestEvenlySpacingProperty(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		count := 2 + rng.Intn(20)
		audio := 10 + rng.Float64()*300
		r := util.Range{Min: 0.2, Max: 0.2 + rng.Float64()*3}

		segs, err := newScheduler(Config{Count: count, DurationRange: r, Policy: Evenly, Effects: AllEffects()}, seed).Schedule(audio)
		require.NoError(t, err)
		require.Len(t, segs, count)

		step := (audio - r.Max) / float64(count-1)
		for i, seg := range segs {
			assert.InDelta(t, step*float64(i), seg.Start, 1e-3)
			assert.GreaterOrEqual(t, seg.Start, 0.0)
			assert.LessOrEqual(t, seg.End(), audio)
		}
	}
}

func TestSingleEvenGlitchStartsAtZero(t *testing.T) {
	segs, err := newScheduler(Config{Count: 1, DurationRange: util.Range{Min: 1, Max: 1}, Policy: Evenly, Effects: []Effect{Negate}}, 3).Schedule(10)
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, Segment{Index: 0, Start: 0, Duration: 1, Effect: Negate}, segs[0])
}

func TestRandomWithinBounds(t *testing.T) {
	cfg := Config{
		Count:         40,
		DurationRange: util.Range{Min: 0.5, Max: 1.5},
		Policy:        Random,
		Effects:       AllEffects(),
		AllowOverlap:  true,
	}
	segs, err := newScheduler(cfg, 99).Schedule(20)
	require.NoError(t, err)
	require.Len(t, segs, 40)
	for _, seg := range segs {
		assert.GreaterOrEqual(t, seg.Start, 0.0)
		assert.LessOrEqual(t, seg.Start, 20-1.5)
		assert.LessOrEqual(t, seg.End(), 20.0)
	}
}

func TestRandomWithoutOverlap(t *testing.T) {
	cfg := Config{
		Count:         8,
		DurationRange: util.Range{Min: 1, Max: 2},
		Policy:        Random,
		Effects:       AllEffects(),
	}
	for seed := int64(0); seed < 20; seed++ {
		segs, err := newScheduler(cfg, seed).Schedule(120)
		require.NoError(t, err)
		for i := range segs {
			for j := i + 1; j < len(segs); j++ {
				assert.False(t, segs[i].Overlaps(segs[j]), "seed %d: %v overlaps %v", seed, segs[i], segs[j])
			}
		}
	}
}

func TestRandomWithoutOverlapImpossible(t *testing.T) {
	cfg := Config{
		Count:         10,
		DurationRange: util.Range{Min: 2, Max: 2},
		Policy:        Random,
		Effects:       AllEffects(),
	}
	_, err := newScheduler(cfg, 5).Schedule(5)
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestDeterministicForSeed(t *testing.T) {
	cfg := Config{Count: 6, DurationRange: util.Range{Min: 0.5, Max: 2}, Policy: Random, Effects: AllEffects(), AllowOverlap: true}
	a, err := newScheduler(cfg, 1234).Schedule(60)
	require.NoError(t, err)
	b, err := newScheduler(cfg, 1234).Schedule(60)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestScheduleErrors(t *testing.T) {
	base := Config{Count: 3, DurationRange: util.Range{Min: 1, Max: 2}, Policy: Evenly, Effects: AllEffects()}

	cases := map[string]struct {
		mutate func(*Config)
		audio  float64
	}{
		"max equals audio":  {func(c *Config) {}, 2},
		"max exceeds audio": {func(c *Config) { c.DurationRange = util.Range{Min: 1, Max: 40} }, 30},
		"bad range":         {func(c *Config) { c.DurationRange = util.Range{Min: 2, Max: 1} }, 30},
		"unknown policy":    {func(c *Config) { c.Policy = "clustered" }, 30},
		"no effects":        {func(c *Config) { c.Effects = nil }, 30},
		"unknown effect":    {func(c *Config) { c.Effects = []Effect{"melt"} }, 30},
		"negative count":    {func(c *Config) { c.Count = -1 }, 30},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			_, err := newScheduler(cfg, 1).Schedule(tc.audio)
			assert.ErrorIs(t, err, apperr.ErrConfiguration)
		})
	}
}

func TestZeroCount(t *testing.T) {
	segs, err := newScheduler(Config{}, 1).Schedule(30)
	require.NoError(t, err)
	assert.Empty(t, segs)
}

func TestParseEffects(t *testing.T) {
	effects, err := ParseEffects([]string{"Noise", "negate", "noise"})
	require.NoError(t, err)
	assert.Equal(t, []Effect{Noise, Negate}, effects)

	all, err := ParseEffects(nil)
	require.NoError(t, err)
	assert.Equal(t, AllEffects(), all)

	_, err = ParseEffects([]string{"melt"})
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("random")
	require.NoError(t, err)
	assert.Equal(t, Random, p)

	_, err = ParsePolicy("bursty")
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestSegmentString(t *testing.T) {
	seg := Segment{Start: 12.5, Duration: 0.75, Effect: Negate}
	assert.Equal(t, "negate@12.500+0.750", seg.String())
	assert.Equal(t, 13.25, seg.End())
}
