package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kikiluvv/glitchreel/pkg/util"
)

// diagnosticLines bounds how much engine output a Result keeps
const diagnosticLines = 200

// Options locates the engine binaries
type Options struct {
	FFmpegPath  string
	FFprobePath string
	Threads     int
	LogLevel    string
}

// Executor handles all ffmpeg operations with progress streaming
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int
	logLevel    string
}

// New creates a new ffmpeg executor
func New(logger zerolog.Logger, opts Options) (*Executor, error) {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.FFprobePath == "" {
		opts.FFprobePath = "ffprobe"
	}
	if opts.LogLevel == "" {
		opts.LogLevel = "error"
	}

	ffmpegPath, err := exec.LookPath(opts.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found (%s): %w", opts.FFmpegPath, err)
	}

	ffprobePath, err := exec.LookPath(opts.FFprobePath)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found (%s): %w", opts.FFprobePath, err)
	}

	return &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		threads:     opts.Threads,
		logLevel:    opts.LogLevel,
	}, nil
}

// Run executes ffmpeg with the given arguments and streams progress.
// The Result is returned even on failure so callers can surface the
// engine's diagnostic output.
func (e *Executor) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	if len(opts.Args) == 0 {
		return nil, fmt.Errorf("no arguments provided")
	}

	// Global options must precede the inputs
	baseArgs := []string{"-y", "-hide_banner", "-nostdin", "-loglevel", e.logLevel}

	if e.threads > 0 {
		baseArgs = append(baseArgs, "-threads", strconv.Itoa(e.threads))
	}

	baseArgs = append(baseArgs, "-progress", "pipe:2")
	args := append(baseArgs, opts.Args...)

	e.logger.Debug().
		Str("cmd", "ffmpeg").
		Strs("args", args).
		Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return &Result{ExitCode: -1}, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	diag := newTail(diagnosticLines)

	var g errgroup.Group

	// Stream stderr (progress + logs)
	g.Go(func() error {
		return e.streamOutput(stderr, opts, diag)
	})

	// Stream stdout
	g.Go(func() error {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if opts.LogHandler != nil {
				opts.LogHandler(scanner.Text())
			}
		}
		return scanner.Err()
	})

	streamErr := g.Wait()
	waitErr := cmd.Wait()

	result := &Result{
		ExitCode:   cmd.ProcessState.ExitCode(),
		Elapsed:    time.Since(started),
		Diagnostic: diag.String(),
	}

	if waitErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, fmt.Errorf("ffmpeg execution failed: %w", waitErr)
	}
	if streamErr != nil {
		e.logger.Warn().Err(streamErr).Msg("reading ffmpeg output")
	}

	e.logger.Debug().Dur("elapsed", result.Elapsed).Msg("ffmpeg execution completed")
	return result, nil
}

// progressKeys are the fields ffmpeg writes for -progress
var progressKeys = map[string]bool{
	"frame": true, "fps": true, "stream_0_0_q": true, "bitrate": true,
	"total_size": true, "out_time_us": true, "out_time_ms": true,
	"out_time": true, "dup_frames": true, "drop_frames": true,
	"speed": true, "progress": true,
}

// streamOutput parses ffmpeg output and calls handlers. Lines that are not
// part of a progress block are kept as diagnostic text.
func (e *Executor) streamOutput(r io.Reader, opts RunOptions, diag *tail) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	progressData := &Progress{}

	for scanner.Scan() {
		line := scanner.Text()

		key, value, ok := strings.Cut(line, "=")
		if !ok || !progressKeys[key] {
			diag.Add(line)
			if opts.LogHandler != nil {
				opts.LogHandler(line)
			}
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "frame":
			progressData.Frame, _ = strconv.Atoi(value)
		case "fps":
			progressData.FPS, _ = strconv.ParseFloat(value, 64)
		case "bitrate":
			progressData.Bitrate = value
		case "out_time":
			progressData.Time = value
			if d, err := util.ParseTimestamp(value); err == nil {
				progressData.Elapsed = d
			}
		case "speed":
			progressData.Speed = value
		case "progress":
			// End of progress block
			progressData.Done = value == "end"
			if opts.TotalDuration > 0 {
				pct := progressData.Elapsed.Seconds() / opts.TotalDuration * 100
				if pct > 100 || progressData.Done {
					pct = 100
				}
				progressData.Percentage = pct
			}
			if opts.ProgressHandler != nil {
				opts.ProgressHandler(progressData)
			}
			progressData = &Progress{}
		}
	}
	return scanner.Err()
}

// tail keeps the last n lines written to it
type tail struct {
	lines []string
	max   int
}

func newTail(max int) *tail {
	return &tail{max: max}
}

func (t *tail) Add(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *tail) String() string {
	return strings.Join(t.lines, "\n")
}
