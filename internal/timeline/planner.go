// Package timeline plans the slot sequence and crossfades of a slideshow.
package timeline

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/glitchreel/internal/apperr"
	"github.com/kikiluvv/glitchreel/internal/images"
	"github.com/kikiluvv/glitchreel/pkg/util"
)

// Config controls the planner
type Config struct {
	SlotDuration    float64
	TransitionRange util.Range
	Catalog         []Transition
	// History is how many preceding edges a style must not repeat within
	History int
}

// Planner builds timeline plans. Randomness comes only from rng.
type Planner struct {
	logger zerolog.Logger
	cfg    Config
	rng    *rand.Rand
}

// NewPlanner creates a planner drawing from rng
func NewPlanner(logger zerolog.Logger, cfg Config, rng *rand.Rand) *Planner {
	return &Planner{
		logger: logger.With().Str("component", "timeline").Logger(),
		cfg:    cfg,
		rng:    rng,
	}
}

// Plan lays out enough slots to cover audioDuration and the crossfades between them
func (p *Planner) Plan(imgs []images.Image, audioDuration float64) (*Plan, error) {
	if len(imgs) < images.MinImages {
		return nil, &apperr.InsufficientInputError{Found: len(imgs), Required: images.MinImages}
	}
	if err := p.validate(audioDuration); err != nil {
		return nil, err
	}

	representative := p.cfg.TransitionRange.Draw(p.rng)
	advance := util.RoundMillis(p.cfg.SlotDuration - representative)
	if advance <= 0 {
		return nil, apperr.Configf("slot_duration", "%v leaves no advance after a %vs transition", p.cfg.SlotDuration, representative)
	}

	// ceil, not floor, so the tail of the audio is never left uncovered
	n := int(math.Ceil(audioDuration/advance)) + 1

	// Each still runs long enough to host the longest possible crossfade
	slotLen := util.RoundMillis(p.cfg.SlotDuration + p.cfg.TransitionRange.Max)

	plan := &Plan{
		AudioDuration:  audioDuration,
		SlotDuration:   p.cfg.SlotDuration,
		Representative: representative,
		Advance:        advance,
		Slots:          make([]Slot, n),
		Edges:          make([]Edge, n-1),
	}

	for i := range plan.Slots {
		plan.Slots[i] = Slot{
			Index:    i,
			Image:    imgs[i%len(imgs)],
			Duration: slotLen,
		}
	}

	for i := range plan.Edges {
		plan.Edges[i] = Edge{
			Index:    i,
			From:     i,
			To:       i + 1,
			Kind:     p.pickTransition(plan.Edges[:i]),
			Duration: p.cfg.TransitionRange.Draw(p.rng),
			Offset:   util.RoundMillis(float64(i) * advance),
		}
	}

	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("planner produced an invalid plan: %w", err)
	}

	p.logger.Info().
		Int("images", len(imgs)).
		Int("slots", len(plan.Slots)).
		Float64("advance", advance).
		Float64("span", plan.Span()).
		Msg("timeline planned")

	return plan, nil
}

// pickTransition draws uniformly from the catalog minus the styles used by
// the last History edges. The window shrinks so at least one style remains.
func (p *Planner) pickTransition(prior []Edge) Transition {
	window := p.cfg.History
	if window > len(p.cfg.Catalog)-1 {
		window = len(p.cfg.Catalog) - 1
	}
	if window > len(prior) {
		window = len(prior)
	}
	if window <= 0 {
		return p.cfg.Catalog[p.rng.Intn(len(p.cfg.Catalog))]
	}

	recent := make(map[Transition]bool, window)
	for _, e := range prior[len(prior)-window:] {
		recent[e.Kind] = true
	}

	candidates := make([]Transition, 0, len(p.cfg.Catalog))
	for _, t := range p.cfg.Catalog {
		if !recent[t] {
			candidates = append(candidates, t)
		}
	}
	return candidates[p.rng.Intn(len(candidates))]
}

func (p *Planner) validate(audioDuration float64) error {
	if math.IsNaN(audioDuration) || math.IsInf(audioDuration, 0) || audioDuration <= 0 {
		return apperr.Configf("audio_duration", "must be > 0, got %v", audioDuration)
	}
	if p.cfg.SlotDuration <= 0 {
		return apperr.Configf("slot_duration", "must be > 0, got %v", p.cfg.SlotDuration)
	}
	if err := p.cfg.TransitionRange.Validate(); err != nil {
		return apperr.Configf("transition.duration", "%v", err)
	}
	if p.cfg.SlotDuration <= p.cfg.TransitionRange.Max {
		return apperr.Configf("slot_duration", "%v must exceed the longest transition %v",
			p.cfg.SlotDuration, p.cfg.TransitionRange.Max)
	}
	if p.cfg.History < 0 {
		return apperr.Configf("transition.history", "must be >= 0, got %d", p.cfg.History)
	}
	if len(p.cfg.Catalog) == 0 {
		return apperr.Configf("transition.catalog", "catalog is empty")
	}
	seen := make(map[Transition]bool, len(p.cfg.Catalog))
	for _, t := range p.cfg.Catalog {
		if !t.Known() {
			return apperr.Configf("transition.catalog", "unknown transition %q", t)
		}
		if seen[t] {
			return apperr.Configf("transition.catalog", "duplicate transition %q", t)
		}
		seen[t] = true
	}
	return nil
}
