package pipeline

import (
	"context"
	"time"

	"github.com/kikiluvv/glitchreel/internal/config"
	"github.com/kikiluvv/glitchreel/internal/ffmpeg"
	"github.com/kikiluvv/glitchreel/internal/timeline"
)

// Engine runs one media engine job to completion
type Engine interface {
	Execute(ctx context.Context, job ffmpeg.Job) (*ffmpeg.Result, error)
}

// ProgressFunc receives engine progress for the pass at index (0-based) of total
type ProgressFunc func(pass string, index, total int, p *ffmpeg.Progress)

// Request describes one render
type Request struct {
	Config   *config.Config
	Progress ProgressFunc
}

// Build is everything decided before the engine runs: the plan and the
// ordered jobs that realize it.
type Build struct {
	RunID string         `yaml:"run_id"`
	Seed  int64          `yaml:"seed"`
	Plan  *timeline.Plan `yaml:"plan"`
	Jobs  []ffmpeg.Job   `yaml:"-"`
	// Output is where the final artifact is moved
	Output string `yaml:"output"`
}

// PassResult reports one completed engine pass
type PassResult struct {
	Name    string
	Output  string
	Elapsed time.Duration
}

// Result is the outcome of a successful render
type Result struct {
	RunID   string
	Seed    int64
	Output  string
	Plan    *timeline.Plan
	Passes  []PassResult
	Elapsed time.Duration
}
