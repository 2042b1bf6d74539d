package timeline

import (
	"fmt"

	"github.com/kikiluvv/glitchreel/internal/glitch"
	"github.com/kikiluvv/glitchreel/internal/images"
)

// epsilon absorbs float noise in invariant checks
const epsilon = 1e-9

// Slot is one displayed image instance
type Slot struct {
	Index int          `yaml:"index"`
	Image images.Image `yaml:"image"`
	// Duration is the length of the still input, long enough to hold the
	// slot's advance plus any crossfade into the next slot.
	Duration float64 `yaml:"duration"`
}

// Edge is the crossfade from slot From to slot To
type Edge struct {
	Index    int        `yaml:"index"`
	From     int        `yaml:"from"`
	To       int        `yaml:"to"`
	Kind     Transition `yaml:"kind"`
	Duration float64    `yaml:"duration"`
	// Offset is the absolute start of the crossfade on the master timeline
	Offset float64 `yaml:"offset"`
}

// End is the time the crossfade completes
func (e Edge) End() float64 {
	return e.Offset + e.Duration
}

// Plan is everything the filter graph builder needs for one run
type Plan struct {
	AudioDuration float64 `yaml:"audio_duration"`
	SlotDuration  float64 `yaml:"slot_duration"`
	// Representative is the transition length the slot count was derived from
	Representative float64          `yaml:"representative_transition"`
	Advance        float64          `yaml:"advance"`
	Slots          []Slot           `yaml:"slots"`
	Edges          []Edge           `yaml:"edges"`
	Glitches       []glitch.Segment `yaml:"glitches,omitempty"`
}

// Span is the length of the chained slideshow before it is cut to the audio
func (p *Plan) Span() float64 {
	if len(p.Slots) == 0 {
		return 0
	}
	last := p.Slots[len(p.Slots)-1]
	if len(p.Edges) == 0 {
		return last.Duration
	}
	return p.Edges[len(p.Edges)-1].Offset + last.Duration
}

// Validate checks the chaining and coverage invariants
func (p *Plan) Validate() error {
	if len(p.Slots) < 2 {
		return fmt.Errorf("plan needs at least 2 slots, has %d", len(p.Slots))
	}
	if len(p.Edges) != len(p.Slots)-1 {
		return fmt.Errorf("plan has %d slots but %d edges", len(p.Slots), len(p.Edges))
	}

	for i, s := range p.Slots {
		if s.Index != i {
			return fmt.Errorf("slot %d has index %d", i, s.Index)
		}
		if s.Duration <= 0 {
			return fmt.Errorf("slot %d has non-positive duration %v", i, s.Duration)
		}
	}

	// chain is the length of the accumulated crossfade output so far
	chain := p.Slots[0].Duration
	for i, e := range p.Edges {
		if e.Index != i || e.From != i || e.To != i+1 {
			return fmt.Errorf("edge %d connects %d->%d", i, e.From, e.To)
		}
		if e.Duration <= 0 {
			return fmt.Errorf("edge %d has non-positive duration %v", i, e.Duration)
		}
		if e.Offset < 0 {
			return fmt.Errorf("edge %d has negative offset %v", i, e.Offset)
		}
		if i > 0 && e.Offset < p.Edges[i-1].Offset {
			return fmt.Errorf("edge %d offset %v precedes edge %d offset %v", i, e.Offset, i-1, p.Edges[i-1].Offset)
		}
		if e.Duration > p.Slots[e.To].Duration+epsilon {
			return fmt.Errorf("edge %d lasts %v, longer than slot %d", i, e.Duration, e.To)
		}
		if e.End() > chain+epsilon {
			return fmt.Errorf("edge %d ends at %v, past the chained span %v", i, e.End(), chain)
		}
		chain = e.Offset + p.Slots[e.To].Duration
	}

	if p.Span()+epsilon < p.AudioDuration {
		return fmt.Errorf("plan spans %v, short of the audio duration %v", p.Span(), p.AudioDuration)
	}

	for i, g := range p.Glitches {
		if g.Start < 0 || g.Duration <= 0 || g.End() > p.AudioDuration+epsilon {
			return fmt.Errorf("glitch %d (%v) falls outside [0, %v]", i, g, p.AudioDuration)
		}
	}
	return nil
}
