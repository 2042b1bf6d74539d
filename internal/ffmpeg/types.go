package ffmpeg

import (
	"fmt"
	"time"

	"github.com/kikiluvv/glitchreel/pkg/util"
)

// Progress represents ffmpeg progress data
type Progress struct {
	Frame      int
	FPS        float64
	Bitrate    string
	Time       string
	Elapsed    time.Duration
	Speed      string
	Percentage float64
	Done       bool
}

// ProgressFunc is a callback for progress updates during ffmpeg operations.
// Called once per -progress block as the operation executes.
type ProgressFunc func(*Progress)

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler ProgressFunc
	LogHandler      func(line string)
	// TotalDuration in seconds, used to fill Progress.Percentage
	TotalDuration float64
}

// Result is the outcome of one engine process
type Result struct {
	ExitCode   int
	Elapsed    time.Duration
	Diagnostic string
}

// Default encoding settings
const (
	DefaultCRF          = 23
	DefaultPreset       = "medium"
	DefaultVideoCodec   = "libx264"
	DefaultAudioCodec   = "aac"
	DefaultAudioBitrate = "192k"
	DefaultPixelFormat  = "yuv420p"
)

// Encoding holds the target codec and quality parameters of a job
type Encoding struct {
	VideoCodec   string `yaml:"video_codec"`
	Preset       string `yaml:"preset"`
	CRF          int    `yaml:"crf"`
	AudioCodec   string `yaml:"audio_codec"`
	AudioBitrate string `yaml:"audio_bitrate"`
	// CopyAudio passes the input audio through untouched
	CopyAudio bool `yaml:"-"`
	Shortest  bool `yaml:"-"`
}

// DefaultEncoding returns the stock encoding settings
func DefaultEncoding() Encoding {
	return Encoding{
		VideoCodec:   DefaultVideoCodec,
		Preset:       DefaultPreset,
		CRF:          DefaultCRF,
		AudioCodec:   DefaultAudioCodec,
		AudioBitrate: DefaultAudioBitrate,
	}
}

// Args renders the encoding as output options, filling empty codec and
// preset names with defaults
func (enc Encoding) Args() []string {
	videoCodec := enc.VideoCodec
	if videoCodec == "" {
		videoCodec = DefaultVideoCodec
	}
	preset := enc.Preset
	if preset == "" {
		preset = DefaultPreset
	}
	// CRF 0 is lossless, not unset
	args := []string{
		"-c:v", videoCodec,
		"-preset", preset,
		"-crf", fmt.Sprintf("%d", enc.CRF),
	}

	if enc.CopyAudio {
		args = append(args, "-c:a", "copy")
	} else {
		audioCodec := enc.AudioCodec
		if audioCodec == "" {
			audioCodec = DefaultAudioCodec
		}
		bitrate := enc.AudioBitrate
		if bitrate == "" {
			bitrate = DefaultAudioBitrate
		}
		args = append(args, "-c:a", audioCodec, "-b:a", bitrate)
	}

	if enc.Shortest {
		args = append(args, "-shortest")
	}
	return args
}

// Input is one engine input file with the options that precede its -i
type Input struct {
	Path    string
	Options []string
}

// StillInput loops a single image for the given number of seconds
func StillInput(path string, seconds float64) Input {
	return Input{
		Path:    path,
		Options: []string{"-loop", "1", "-t", util.FormatSeconds(seconds)},
	}
}

// FileInput is a plain media input
func FileInput(path string) Input {
	return Input{Path: path}
}

// Job is a single declarative engine invocation: inputs, a filter graph,
// output stream mapping and encoding.
type Job struct {
	// Name identifies the pass in logs and errors
	Name     string
	Inputs   []Input
	Graph    Graph
	Maps     []string
	Encoding Encoding
	Output   string
	// TotalDuration of the output in seconds, for progress reporting
	TotalDuration float64
	Progress      ProgressFunc
}

// Args renders the job as an ffmpeg argument vector (without global options)
func (j Job) Args() []string {
	var args []string
	for _, in := range j.Inputs {
		args = append(args, in.Options...)
		args = append(args, "-i", in.Path)
	}

	if !j.Graph.Empty() {
		args = append(args, "-filter_complex", j.Graph.String())
	}

	for _, m := range j.Maps {
		args = append(args, "-map", m)
	}

	args = append(args, j.Encoding.Args()...)
	args = append(args, j.Output)
	return args
}
