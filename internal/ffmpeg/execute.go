package ffmpeg

import (
	"context"
	"fmt"
	"strings"

	"github.com/kikiluvv/glitchreel/internal/apperr"
)

// Execute runs a declarative job. Any failure is reported as an
// apperr.MediaEngineError naming the job.
func (e *Executor) Execute(ctx context.Context, job Job) (*Result, error) {
	if err := validateJob(job); err != nil {
		return nil, &apperr.MediaEngineError{Pass: job.Name, ExitCode: -1, Err: fmt.Errorf("invalid job: %w", err)}
	}

	e.logger.Info().
		Str("pass", job.Name).
		Int("inputs", len(job.Inputs)).
		Int("chains", len(job.Graph.Chains)).
		Str("output", job.Output).
		Msg("starting pass")

	runOpts := RunOptions{
		Args:            job.Args(),
		ProgressHandler: job.Progress,
		TotalDuration:   job.TotalDuration,
		LogHandler: func(line string) {
			e.logger.Debug().Str("pass", job.Name).Str("ffmpeg", line).Msg("engine output")
		},
	}

	result, err := e.Run(ctx, runOpts)
	if err != nil {
		engineErr := &apperr.MediaEngineError{Pass: job.Name, ExitCode: -1, Err: err}
		if result != nil {
			engineErr.ExitCode = result.ExitCode
			engineErr.Diagnostic = result.Diagnostic
		}
		return result, engineErr
	}

	e.logger.Info().
		Str("pass", job.Name).
		Str("output", job.Output).
		Dur("elapsed", result.Elapsed).
		Msg("pass completed")
	return result, nil
}

// validateJob checks the job before any process is started
func validateJob(job Job) error {
	if len(job.Inputs) == 0 {
		return fmt.Errorf("at least one input is required")
	}
	for i, in := range job.Inputs {
		if in.Path == "" {
			return fmt.Errorf("input %d has no path", i)
		}
	}
	if job.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if err := job.Graph.Validate(); err != nil {
		return fmt.Errorf("filter graph: %w", err)
	}
	outputs := make(map[string]bool)
	for _, out := range job.Graph.Outputs() {
		outputs[Label(out)] = true
	}
	for _, m := range job.Maps {
		if m == "" {
			return fmt.Errorf("empty stream mapping")
		}
		if strings.HasPrefix(m, "[") && !outputs[m] {
			return fmt.Errorf("map %s is not an unconsumed graph output", m)
		}
	}
	if crf := job.Encoding.CRF; crf < 0 || crf > 51 {
		return fmt.Errorf("CRF must be between 0 and 51")
	}
	return nil
}
