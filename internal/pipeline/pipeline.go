package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/glitchreel/internal/audio"
	"github.com/kikiluvv/glitchreel/internal/compose"
	"github.com/kikiluvv/glitchreel/internal/config"
	"github.com/kikiluvv/glitchreel/internal/ffmpeg"
	"github.com/kikiluvv/glitchreel/internal/glitch"
	"github.com/kikiluvv/glitchreel/internal/images"
	"github.com/kikiluvv/glitchreel/internal/logging"
	"github.com/kikiluvv/glitchreel/internal/timeline"
	"github.com/kikiluvv/glitchreel/pkg/util"
)

// Pipeline orchestrates the whole render: planning, then one engine pass
// for the slideshow, one for the fades and one per glitch segment.
type Pipeline struct {
	logger zerolog.Logger
	engine Engine
	oracle *audio.Oracle
}

// New creates a new pipeline instance
func New(logger zerolog.Logger, engine Engine, prober audio.Prober) *Pipeline {
	return &Pipeline{
		logger: logger.With().Str("component", "pipeline").Logger(),
		engine: engine,
		oracle: audio.NewOracle(logger, prober),
	}
}

// prepare validates the configuration and plans the run without touching
// the engine. Every configuration, input and probe error surfaces here.
func (p *Pipeline) prepare(ctx context.Context, cfg *config.Config) (*Build, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Stage 1: inputs
	imgs, err := images.Resolve(cfg.ImageDir)
	if err != nil {
		return nil, err
	}

	duration, err := p.oracle.Duration(ctx, cfg.AudioFile)
	if err != nil {
		return nil, err
	}

	// Stage 2: plan. Planner and scheduler share one generator, in this order.
	rng, seed := util.NewRand(cfg.Seed)

	timelineCfg, err := cfg.Timeline()
	if err != nil {
		return nil, err
	}
	plan, err := timeline.NewPlanner(p.logger, timelineCfg, rng).Plan(imgs, duration)
	if err != nil {
		return nil, fmt.Errorf("plan timeline: %w", err)
	}

	glitchCfg, err := cfg.Glitch()
	if err != nil {
		return nil, err
	}
	segments, err := glitch.NewScheduler(p.logger, glitchCfg, rng).Schedule(duration)
	if err != nil {
		return nil, fmt.Errorf("schedule glitches: %w", err)
	}
	plan.Glitches = segments
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("plan timeline: %w", err)
	}

	if err := compose.CheckFades(duration, cfg.FadeIn, cfg.FadeOut); err != nil {
		return nil, err
	}

	// Stage 3: jobs
	build := &Build{
		RunID:  uuid.NewString(),
		Seed:   seed,
		Plan:   plan,
		Output: cfg.Output,
	}
	build.Jobs = p.jobs(cfg, build)

	p.logger.Info().
		Str("run", build.RunID).
		Int64("seed", seed).
		Int("images", len(imgs)).
		Float64("audio_duration", duration).
		Int("glitches", len(segments)).
		Int("passes", len(build.Jobs)).
		Msg("render prepared")

	return build, nil
}

// jobs lays out the pass chain; every pass reads the previous pass's artifact
func (p *Pipeline) jobs(cfg *config.Config, build *Build) []ffmpeg.Job {
	plan := build.Plan
	enc := cfg.Encoding()
	format := compose.Format{Width: cfg.FFmpeg.Width, Height: cfg.FFmpeg.Height}

	tempDir := cfg.TempDir
	if tempDir == "" {
		// Same filesystem as the output so the final move is a rename
		tempDir = filepath.Dir(cfg.Output)
	}
	ext := filepath.Ext(cfg.Output)
	if ext == "" {
		ext = ".mp4"
	}
	artifact := func(pass string) string {
		return filepath.Join(tempDir, fmt.Sprintf("%s-%s%s", build.RunID, pass, ext))
	}

	jobs := make([]ffmpeg.Job, 0, 2+len(plan.Glitches))

	base := compose.SlideshowJob(plan, cfg.AudioFile, "", format, enc)
	base.Output = artifact(base.Name)
	jobs = append(jobs, base)

	fade := compose.FadeJob(base.Output, "", plan.AudioDuration, cfg.FadeIn, cfg.FadeOut, enc)
	fade.Output = artifact(fade.Name)
	jobs = append(jobs, fade)

	prev := fade.Output
	for _, seg := range plan.Glitches {
		g := compose.GlitchJob(seg, prev, "", plan.AudioDuration, enc)
		g.Output = artifact(g.Name)
		jobs = append(jobs, g)
		prev = g.Output
	}
	return jobs
}

// DryRun plans a render and returns its jobs without invoking the engine
func (p *Pipeline) DryRun(ctx context.Context, cfg *config.Config) (*Build, error) {
	return p.prepare(ctx, cfg)
}

// Run executes the render pipeline. Passes run strictly in order; an
// intermediate artifact is removed once the pass consuming it succeeds.
// On failure the artifacts produced so far are left on disk.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()

	build, err := p.prepare(ctx, req.Config)
	if err != nil {
		return nil, err
	}
	logger := logging.WithRun(p.logger, build.RunID)

	if len(build.Jobs) > 0 {
		if err := util.EnsureDir(filepath.Dir(build.Jobs[0].Output)); err != nil {
			return nil, fmt.Errorf("create temp dir: %w", err)
		}
	}

	result := &Result{
		RunID:  build.RunID,
		Seed:   build.Seed,
		Output: build.Output,
		Plan:   build.Plan,
	}

	total := len(build.Jobs)
	var last string
	for i, job := range build.Jobs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if req.Progress != nil {
			name, index := job.Name, i
			job.Progress = func(pr *ffmpeg.Progress) {
				req.Progress(name, index, total, pr)
			}
		}

		res, err := p.engine.Execute(ctx, job)
		if err != nil {
			logger.Error().
				Err(err).
				Str("pass", job.Name).
				Str("kept", last).
				Msg("pass failed, artifacts left in place")
			return nil, fmt.Errorf("render pass %d/%d: %w", i+1, total, err)
		}

		pass := PassResult{Name: job.Name, Output: job.Output}
		if res != nil {
			pass.Elapsed = res.Elapsed
		}
		result.Passes = append(result.Passes, pass)

		// The previous artifact was this pass's only input
		util.CleanupFiles(last)
		last = job.Output
	}

	if err := util.MoveFile(last, build.Output); err != nil {
		return nil, fmt.Errorf("finalize output: %w", err)
	}

	result.Elapsed = time.Since(started)
	logger.Info().
		Str("output", build.Output).
		Int("passes", len(result.Passes)).
		Dur("elapsed", result.Elapsed).
		Msg("render complete")

	return result, nil
}
