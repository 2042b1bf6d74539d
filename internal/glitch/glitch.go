// Package glitch schedules short windows of visual effects over a timeline.
package glitch

import (
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/glitchreel/internal/apperr"
	"github.com/kikiluvv/glitchreel/pkg/util"
)

// maxPlacementAttempts bounds redraws per segment when overlap is refused
const maxPlacementAttempts = 1000

// Policy decides where segment start times fall
type Policy string

const (
	// Evenly spaces starts uniformly over the valid interval
	Evenly Policy = "evenly"
	// Random draws each start independently
	Random Policy = "random"
)

// ParsePolicy validates a policy name
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case Evenly, Random:
		return p, nil
	}
	return "", apperr.Configf("glitch.policy", "unknown distribution policy %q (want %s or %s)", s, Evenly, Random)
}

// Segment is one glitch window
type Segment struct {
	Index    int     `yaml:"index"`
	Start    float64 `yaml:"start"`
	Duration float64 `yaml:"duration"`
	Effect   Effect  `yaml:"effect"`
}

// End is the time the effect stops
func (s Segment) End() float64 {
	return s.Start + s.Duration
}

// Overlaps reports whether two segments share any time. Touching is not overlap.
func (s Segment) Overlaps(o Segment) bool {
	return s.Start < o.End() && o.Start < s.End()
}

// String is used in logs
func (s Segment) String() string {
	return fmt.Sprintf("%s@%.3f+%.3f", s.Effect, s.Start, s.Duration)
}

// Config controls the scheduler
type Config struct {
	Count         int
	DurationRange util.Range
	Policy        Policy
	Effects       []Effect
	// AllowOverlap lets random starts stack effects on top of each other
	AllowOverlap bool
}

// Scheduler places glitch segments. Randomness comes only from rng.
type Scheduler struct {
	logger zerolog.Logger
	cfg    Config
	rng    *rand.Rand
}

// NewScheduler creates a scheduler drawing from rng
func NewScheduler(logger zerolog.Logger, cfg Config, rng *rand.Rand) *Scheduler {
	return &Scheduler{
		logger: logger.With().Str("component", "glitch").Logger(),
		cfg:    cfg,
		rng:    rng,
	}
}

// Schedule returns Count segments in generation order, which is not
// necessarily chronological.
func (s *Scheduler) Schedule(audioDuration float64) ([]Segment, error) {
	if err := s.validate(audioDuration); err != nil {
		return nil, err
	}
	if s.cfg.Count == 0 {
		return nil, nil
	}

	// Every start lies in [0, span] so that start+duration <= audioDuration
	span := audioDuration - s.cfg.DurationRange.Max

	segments := make([]Segment, 0, s.cfg.Count)
	for i := 0; i < s.cfg.Count; i++ {
		seg := Segment{
			Index:    i,
			Duration: s.cfg.DurationRange.Draw(s.rng),
			Effect:   s.cfg.Effects[s.rng.Intn(len(s.cfg.Effects))],
		}

		switch s.cfg.Policy {
		case Evenly:
			seg.Start = evenStart(i, s.cfg.Count, span)
		case Random:
			start, err := s.randomStart(seg.Duration, span, segments)
			if err != nil {
				return nil, err
			}
			seg.Start = start
		}

		segments = append(segments, seg)
	}

	s.logger.Debug().
		Str("policy", string(s.cfg.Policy)).
		Int("segments", len(segments)).
		Float64("span", span).
		Msg("glitches scheduled")

	return segments, nil
}

// evenStart linearly interpolates over the closed interval [0, span]
func evenStart(i, count int, span float64) float64 {
	if count == 1 {
		return 0
	}
	return util.FloorMillis(span * float64(i) / float64(count-1))
}

func (s *Scheduler) randomStart(duration, span float64, placed []Segment) (float64, error) {
	if s.cfg.AllowOverlap {
		return util.FloorMillis(s.rng.Float64() * span), nil
	}

	for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
		candidate := Segment{Start: util.FloorMillis(s.rng.Float64() * span), Duration: duration}
		if !overlapsAny(candidate, placed) {
			return candidate.Start, nil
		}
	}
	return 0, apperr.Configf("glitch.count", "could not place %d non-overlapping glitches in %.3fs", s.cfg.Count, span)
}

func overlapsAny(seg Segment, placed []Segment) bool {
	for _, p := range placed {
		if seg.Overlaps(p) {
			return true
		}
	}
	return false
}

func (s *Scheduler) validate(audioDuration float64) error {
	if s.cfg.Count < 0 {
		return apperr.Configf("glitch.count", "must be >= 0, got %d", s.cfg.Count)
	}
	if s.cfg.Count == 0 {
		return nil
	}
	if audioDuration <= 0 {
		return apperr.Configf("audio_duration", "must be > 0, got %v", audioDuration)
	}
	if err := s.cfg.DurationRange.Validate(); err != nil {
		return apperr.Configf("glitch.duration", "%v", err)
	}
	if s.cfg.DurationRange.Max >= audioDuration {
		return apperr.Configf("glitch.duration", "max %v must be below the audio duration %v", s.cfg.DurationRange.Max, audioDuration)
	}
	if _, err := ParsePolicy(string(s.cfg.Policy)); err != nil {
		return err
	}
	if len(s.cfg.Effects) == 0 {
		return apperr.Configf("glitch.effects", "catalog is empty")
	}
	for _, e := range s.cfg.Effects {
		if !e.Known() {
			return apperr.Configf("glitch.effects", "unknown effect %q", e)
		}
	}
	return nil
}
