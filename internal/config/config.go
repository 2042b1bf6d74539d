package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/glitchreel/internal/apperr"
	"github.com/kikiluvv/glitchreel/internal/ffmpeg"
	"github.com/kikiluvv/glitchreel/internal/glitch"
	"github.com/kikiluvv/glitchreel/internal/timeline"
	"github.com/kikiluvv/glitchreel/pkg/util"
)

type contextKey string

const configKey contextKey = "config"

// envPrefix namespaces every environment override
const envPrefix = "GLITCHREEL_"

// Config holds all application configuration
type Config struct {
	// Core settings
	ImageDir  string `yaml:"image_dir"`
	AudioFile string `yaml:"audio_file"`
	Output    string `yaml:"output"`
	TempDir   string `yaml:"temp_dir"`
	// Seed makes a run reproducible; unset means seeded from the clock
	Seed *int64 `yaml:"seed,omitempty"`

	// Timing settings
	SlotDuration float64 `yaml:"slot_duration"`
	FadeIn       float64 `yaml:"fade_in"`
	FadeOut      float64 `yaml:"fade_out"`

	Transitions TransitionConfig `yaml:"transitions"`
	Glitches    GlitchConfig     `yaml:"glitches"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
}

type TransitionConfig struct {
	Duration util.Range `yaml:"duration"`
	// Catalog lists xfade styles; empty means all of them
	Catalog []string `yaml:"catalog,omitempty"`
	History int      `yaml:"history"`
}

type GlitchConfig struct {
	Count        int        `yaml:"count"`
	Duration     util.Range `yaml:"duration"`
	Policy       string     `yaml:"policy"`
	Effects      []string   `yaml:"effects,omitempty"`
	AllowOverlap bool       `yaml:"allow_overlap"`
}

type FFmpegConfig struct {
	BinaryPath   string `yaml:"binary_path"`
	ProbePath    string `yaml:"probe_path"`
	Threads      int    `yaml:"threads"`
	LogLevel     string `yaml:"log_level"`
	VideoCodec   string `yaml:"video_codec"`
	Preset       string `yaml:"preset"`
	CRF          int    `yaml:"crf"`
	AudioCodec   string `yaml:"audio_codec"`
	AudioBitrate string `yaml:"audio_bitrate"`
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
}

// Load reads configuration from file or returns defaults. A .env file in
// the working directory and GLITCHREEL_* variables are applied on top.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	// Missing .env is fine
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := util.EnsureDir(dir); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Default returns the built-in configuration
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		ImageDir:     "./images",
		AudioFile:    "./audio.wav",
		Output:       "./output.mp4",
		SlotDuration: 5,
		FadeIn:       2,
		FadeOut:      2,
		Transitions: TransitionConfig{
			Duration: util.Range{Min: 0.5, Max: 2},
			History:  3,
		},
		Glitches: GlitchConfig{
			Count:    0,
			Duration: util.Range{Min: 0.2, Max: 1},
			Policy:   string(glitch.Evenly),
		},
		FFmpeg: FFmpegConfig{
			BinaryPath:   "ffmpeg",
			ProbePath:    "ffprobe",
			Threads:      0,
			LogLevel:     "error",
			VideoCodec:   ffmpeg.DefaultVideoCodec,
			Preset:       "slow",
			CRF:          18,
			AudioCodec:   ffmpeg.DefaultAudioCodec,
			AudioBitrate: "320k",
			Width:        1400,
			Height:       1400,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./glitchreel.yaml",
		"./glitchreel.yml",
		filepath.Join(os.Getenv("HOME"), ".glitchreel", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// applyEnv overrides paths and the seed from the environment
func (c *Config) applyEnv() error {
	c.ImageDir = getEnv("IMAGE_DIR", c.ImageDir)
	c.AudioFile = getEnv("AUDIO_FILE", c.AudioFile)
	c.Output = getEnv("OUTPUT", c.Output)
	c.TempDir = getEnv("TEMP_DIR", c.TempDir)
	c.FFmpeg.BinaryPath = getEnv("FFMPEG_PATH", c.FFmpeg.BinaryPath)
	c.FFmpeg.ProbePath = getEnv("FFPROBE_PATH", c.FFmpeg.ProbePath)

	if v := getEnv("SEED", ""); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return apperr.Configf("seed", "%s%s is not an integer: %q", envPrefix, "SEED", v)
		}
		c.Seed = &seed
	}
	return nil
}

// getEnv gets a prefixed environment variable or returns a default value
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(envPrefix + key); exists {
		return value
	}
	return fallback
}

// Validate checks every option before any work is done
func (c *Config) Validate() error {
	if c.ImageDir == "" {
		return apperr.Configf("image_dir", "is required")
	}
	if c.AudioFile == "" {
		return apperr.Configf("audio_file", "is required")
	}
	if c.Output == "" {
		return apperr.Configf("output", "is required")
	}
	if c.SlotDuration <= 0 {
		return apperr.Configf("slot_duration", "must be > 0, got %v", c.SlotDuration)
	}
	if c.FadeIn < 0 {
		return apperr.Configf("fade_in", "must be >= 0, got %v", c.FadeIn)
	}
	if c.FadeOut < 0 {
		return apperr.Configf("fade_out", "must be >= 0, got %v", c.FadeOut)
	}

	if err := c.Transitions.Duration.Validate(); err != nil {
		return apperr.Configf("transitions.duration", "%v", err)
	}
	if c.Transitions.Duration.Max >= c.SlotDuration {
		return apperr.Configf("transitions.duration", "max %v must be below slot_duration %v",
			c.Transitions.Duration.Max, c.SlotDuration)
	}
	if c.Transitions.History < 0 {
		return apperr.Configf("transitions.history", "must be >= 0, got %d", c.Transitions.History)
	}
	if _, err := timeline.ParseTransitions(c.Transitions.Catalog); err != nil {
		return err
	}

	if c.Glitches.Count < 0 {
		return apperr.Configf("glitches.count", "must be >= 0, got %d", c.Glitches.Count)
	}
	if c.Glitches.Count > 0 {
		if err := c.Glitches.Duration.Validate(); err != nil {
			return apperr.Configf("glitches.duration", "%v", err)
		}
		if _, err := glitch.ParsePolicy(c.Glitches.Policy); err != nil {
			return err
		}
		if _, err := glitch.ParseEffects(c.Glitches.Effects); err != nil {
			return err
		}
	}

	if c.FFmpeg.CRF < 0 || c.FFmpeg.CRF > 51 {
		return apperr.Configf("ffmpeg.crf", "must be between 0 and 51, got %d", c.FFmpeg.CRF)
	}
	if c.FFmpeg.Width <= 0 || c.FFmpeg.Height <= 0 {
		return apperr.Configf("ffmpeg.width/height", "frame size must be positive, got %dx%d",
			c.FFmpeg.Width, c.FFmpeg.Height)
	}
	return nil
}

// Encoding returns the codec settings for every pass
func (c *Config) Encoding() ffmpeg.Encoding {
	return ffmpeg.Encoding{
		VideoCodec:   c.FFmpeg.VideoCodec,
		Preset:       c.FFmpeg.Preset,
		CRF:          c.FFmpeg.CRF,
		AudioCodec:   c.FFmpeg.AudioCodec,
		AudioBitrate: c.FFmpeg.AudioBitrate,
	}
}

// Timeline returns the planner settings
func (c *Config) Timeline() (timeline.Config, error) {
	catalog, err := timeline.ParseTransitions(c.Transitions.Catalog)
	if err != nil {
		return timeline.Config{}, err
	}
	return timeline.Config{
		SlotDuration:    c.SlotDuration,
		TransitionRange: c.Transitions.Duration,
		Catalog:         catalog,
		History:         c.Transitions.History,
	}, nil
}

// Glitch returns the scheduler settings
func (c *Config) Glitch() (glitch.Config, error) {
	if c.Glitches.Count == 0 {
		return glitch.Config{}, nil
	}
	policy, err := glitch.ParsePolicy(c.Glitches.Policy)
	if err != nil {
		return glitch.Config{}, err
	}
	effects, err := glitch.ParseEffects(c.Glitches.Effects)
	if err != nil {
		return glitch.Config{}, err
	}
	return glitch.Config{
		Count:         c.Glitches.Count,
		DurationRange: c.Glitches.Duration,
		Policy:        policy,
		Effects:       effects,
		AllowOverlap:  c.Glitches.AllowOverlap,
	}, nil
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
