package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/glitchreel/internal/apperr"
	"github.com/kikiluvv/glitchreel/internal/glitch"
)

// inTempDir runs the test from an empty directory so no stray
// glitchreel.yaml or .env is picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	return dir
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5.0, cfg.SlotDuration)
	assert.Equal(t, 2.0, cfg.FadeIn)
	assert.Nil(t, cfg.Seed)
}

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	inTempDir(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoadMissingExplicitPathReturnsDefaults(t *testing.T) {
	dir := inTempDir(t)
	cfg, err := Load(filepath.Join(dir, "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig().Output, cfg.Output)
}

func TestLoadFindsProjectFile(t *testing.T) {
	dir := inTempDir(t)
	yaml := `
image_dir: ./pics
slot_duration: 6
transitions:
  duration: {min: 1, max: 1}
  catalog: [fade, wipeleft]
glitches:
  count: 3
  policy: random
seed: 42
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "glitchreel.yaml"), []byte(yaml), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "./pics", cfg.ImageDir)
	assert.Equal(t, 6.0, cfg.SlotDuration)
	assert.Equal(t, []string{"fade", "wipeleft"}, cfg.Transitions.Catalog)
	assert.Equal(t, 3, cfg.Glitches.Count)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, int64(42), *cfg.Seed)
	// untouched keys keep their defaults
	assert.Equal(t, 2.0, cfg.FadeOut)
	assert.Equal(t, 1400, cfg.FFmpeg.Width)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("slot_duration: [oops"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	inTempDir(t)
	t.Setenv("GLITCHREEL_IMAGE_DIR", "/data/imgs")
	t.Setenv("GLITCHREEL_OUTPUT", "/data/out.mp4")
	t.Setenv("GLITCHREEL_SEED", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/data/imgs", cfg.ImageDir)
	assert.Equal(t, "/data/out.mp4", cfg.Output)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, int64(7), *cfg.Seed)
}

func TestDotEnvOverrides(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GLITCHREEL_AUDIO_FILE=song.flac\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("GLITCHREEL_AUDIO_FILE") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "song.flac", cfg.AudioFile)
}

func TestEnvSeedMustBeInteger(t *testing.T) {
	inTempDir(t)
	t.Setenv("GLITCHREEL_SEED", "abc")

	_, err := Load("")
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := inTempDir(t)
	seed := int64(99)
	cfg := defaultConfig()
	cfg.Seed = &seed
	cfg.Glitches.Effects = []string{"negate"}

	path := filepath.Join(dir, "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"no images", func(c *Config) { c.ImageDir = "" }, "image_dir"},
		{"no audio", func(c *Config) { c.AudioFile = "" }, "audio_file"},
		{"no output", func(c *Config) { c.Output = "" }, "output"},
		{"zero slot", func(c *Config) { c.SlotDuration = 0 }, "slot_duration"},
		{"negative fade", func(c *Config) { c.FadeIn = -1 }, "fade_in"},
		{"inverted range", func(c *Config) { c.Transitions.Duration.Min = 3 }, "transitions.duration"},
		{"transition too long", func(c *Config) { c.Transitions.Duration.Max = 5 }, "transitions.duration"},
		{"negative history", func(c *Config) { c.Transitions.History = -1 }, "transitions.history"},
		{"unknown transition", func(c *Config) { c.Transitions.Catalog = []string{"swirl"} }, "transition.catalog"},
		{"negative glitches", func(c *Config) { c.Glitches.Count = -2 }, "glitches.count"},
		{"bad policy", func(c *Config) { c.Glitches.Count = 1; c.Glitches.Policy = "burst" }, "glitch.policy"},
		{"bad effect", func(c *Config) { c.Glitches.Count = 1; c.Glitches.Effects = []string{"melt"} }, "glitch.effects"},
		{"crf", func(c *Config) { c.FFmpeg.CRF = 60 }, "ffmpeg.crf"},
		{"frame", func(c *Config) { c.FFmpeg.Width = 0 }, "ffmpeg.width/height"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			var cfgErr *apperr.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestGlitchOptionsIgnoredWhenDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.Glitches.Policy = "burst"
	assert.NoError(t, cfg.Validate())

	gc, err := cfg.Glitch()
	require.NoError(t, err)
	assert.Zero(t, gc.Count)
}

func TestDerivedSettings(t *testing.T) {
	cfg := defaultConfig()
	cfg.Glitches.Count = 2
	cfg.Glitches.Effects = []string{"Negate", "negate", "vflip"}

	tc, err := cfg.Timeline()
	require.NoError(t, err)
	assert.Equal(t, 5.0, tc.SlotDuration)
	assert.NotEmpty(t, tc.Catalog)

	gc, err := cfg.Glitch()
	require.NoError(t, err)
	assert.Equal(t, glitch.Evenly, gc.Policy)
	assert.Equal(t, []glitch.Effect{glitch.Negate, glitch.VFlip}, gc.Effects)

	enc := cfg.Encoding()
	assert.Equal(t, "slow", enc.Preset)
	assert.Equal(t, 18, enc.CRF)
	assert.Equal(t, "320k", enc.AudioBitrate)
}

func TestContext(t *testing.T) {
	cfg := defaultConfig()
	cfg.Output = "x.mp4"
	ctx := WithConfig(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
	assert.Equal(t, defaultConfig(), FromContext(context.Background()))
}
