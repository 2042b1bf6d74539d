// Package audio answers how long the backing track runs.
package audio

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/glitchreel/internal/apperr"
)

// Prober reports the duration of a media file in seconds
type Prober interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Oracle wraps a Prober; every failure it returns is an apperr.ProbeError
type Oracle struct {
	logger zerolog.Logger
	prober Prober
}

// NewOracle creates an audio duration oracle
func NewOracle(logger zerolog.Logger, prober Prober) *Oracle {
	return &Oracle{
		logger: logger.With().Str("component", "audio").Logger(),
		prober: prober,
	}
}

// Duration returns the audio length of path in seconds
func (o *Oracle) Duration(ctx context.Context, path string) (float64, error) {
	if path == "" {
		return 0, &apperr.ProbeError{Path: path, Err: fmt.Errorf("audio path is empty")}
	}

	d, err := o.prober.ProbeDuration(ctx, path)
	if err != nil {
		return 0, &apperr.ProbeError{Path: path, Err: err}
	}
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return 0, &apperr.ProbeError{Path: path, Err: fmt.Errorf("invalid duration %v", d)}
	}

	o.logger.Info().Str("audio", path).Float64("duration", d).Msg("audio duration probed")
	return d, nil
}
