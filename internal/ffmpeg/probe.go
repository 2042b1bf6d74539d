package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ProbeDuration reports the container duration of a media file in seconds
func (e *Executor) ProbeDuration(ctx context.Context, filePath string) (float64, error) {
	if filePath == "" {
		return 0, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_entries", "format=duration",
		filePath,
	}

	e.logger.Debug().Str("cmd", "ffprobe").Strs("args", args).Msg("probing duration")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseDuration(stdout.Bytes())
}

// parseDuration extracts format.duration from ffprobe json output
func parseDuration(output []byte) (float64, error) {
	if !gjson.ValidBytes(output) {
		return 0, fmt.Errorf("failed to parse ffprobe output: invalid json")
	}

	field := gjson.GetBytes(output, "format.duration")
	if !field.Exists() {
		return 0, fmt.Errorf("ffprobe output has no format.duration")
	}

	// ffprobe reports durations as strings ("62.000000") or "N/A"
	var duration float64
	switch field.Type {
	case gjson.Number:
		duration = field.Float()
	case gjson.String:
		d, err := strconv.ParseFloat(strings.TrimSpace(field.Str), 64)
		if err != nil {
			return 0, fmt.Errorf("unparseable duration %q", field.Str)
		}
		duration = d
	default:
		return 0, fmt.Errorf("unexpected duration value %s", field.Raw)
	}

	if duration <= 0 {
		return 0, fmt.Errorf("non-positive duration %v", duration)
	}
	return duration, nil
}
