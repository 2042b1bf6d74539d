package compose

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/glitchreel/internal/apperr"
	"github.com/kikiluvv/glitchreel/internal/ffmpeg"
	"github.com/kikiluvv/glitchreel/internal/glitch"
	"github.com/kikiluvv/glitchreel/internal/images"
	"github.com/kikiluvv/glitchreel/internal/timeline"
)

var square = Format{Width: 1400, Height: 1400}

func threeSlotPlan() *timeline.Plan {
	imgs := []images.Image{
		{Index: 0, Path: "a.png", Format: images.PNG},
		{Index: 1, Path: "b.jpg", Format: images.JPG},
	}
	return &timeline.Plan{
		AudioDuration: 9,
		SlotDuration:  5,
		Advance:       4,
		Slots: []timeline.Slot{
			{Index: 0, Image: imgs[0], Duration: 7},
			{Index: 1, Image: imgs[1], Duration: 7},
			{Index: 2, Image: imgs[0], Duration: 7},
		},
		Edges: []timeline.Edge{
			{Index: 0, From: 0, To: 1, Kind: "fade", Duration: 1, Offset: 0},
			{Index: 1, From: 1, To: 2, Kind: "circleopen", Duration: 1.5, Offset: 4},
		},
	}
}

func TestSlideshowGraph(t *testing.T) {
	g := Slideshow(threeSlotPlan(), square)
	require.NoError(t, g.Validate())

	want := strings.Join([]string{
		"[0:v]format=yuv420p,scale=1400:1400,setsar=1[v0]",
		"[1:v]format=yuv420p,scale=1400:1400,setsar=1[v1]",
		"[2:v]format=yuv420p,scale=1400:1400,setsar=1[v2]",
		"[v0][v1]xfade=transition=fade:duration=1:offset=0[x0]",
		"[x0][v2]xfade=transition=circleopen:duration=1.5:offset=4[x1]",
		"[x1]format=yuv420p[video]",
	}, ";")
	assert.Equal(t, want, g.String())
	assert.Equal(t, []string{VideoOut}, g.Outputs())
}

func TestSlideshowIsDeterministic(t *testing.T) {
	plan := threeSlotPlan()
	first := Slideshow(plan, square).String()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Slideshow(plan, square).String())
	}
}

func TestSlideshowJobArgs(t *testing.T) {
	job := SlideshowJob(threeSlotPlan(), "song.wav", "base.mp4", square, ffmpeg.Encoding{Preset: "slow", CRF: 18, AudioBitrate: "320k"})

	assert.Equal(t, "base", job.Name)
	assert.Equal(t, 9.0, job.TotalDuration)
	require.Len(t, job.Inputs, 4)
	assert.Equal(t, []string{"-loop", "1", "-t", "7"}, job.Inputs[0].Options)
	assert.Equal(t, "song.wav", job.Inputs[3].Path)
	assert.Equal(t, []string{"[video]", "3:a"}, job.Maps)

	args := strings.Join(job.Args(), " ")
	assert.Contains(t, args, "-map [video] -map 3:a")
	assert.Contains(t, args, "-preset slow -crf 18")
	assert.Contains(t, args, "-b:a 320k -shortest base.mp4")
}

func TestFadesGraph(t *testing.T) {
	g := Fades(62, 2, 2)
	require.NoError(t, g.Validate())
	assert.Equal(t,
		"[0:v]fade=t=in:st=0:d=2,fade=t=out:st=60:d=2[v];[0:a]afade=t=in:st=0:d=2,afade=t=out:st=60:d=2[a]",
		g.String())
}

func TestFadesZeroLengthPassThrough(t *testing.T) {
	g := Fades(10, 0, 0)
	require.NoError(t, g.Validate())
	assert.Equal(t, "[0:v]null[v];[0:a]anull[a]", g.String())

	g = Fades(10, 0, 1.5)
	assert.Equal(t, "[0:v]fade=t=out:st=8.5:d=1.5[v];[0:a]afade=t=out:st=8.5:d=1.5[a]", g.String())
}

func TestFadeJob(t *testing.T) {
	job := FadeJob("base.mp4", "out.mp4", 62, 2, 2, ffmpeg.Encoding{CopyAudio: true, Shortest: true})
	assert.Equal(t, "fade", job.Name)
	assert.Equal(t, []string{"[v]", "[a]"}, job.Maps)
	assert.False(t, job.Encoding.CopyAudio)
	assert.NotContains(t, job.Args(), "-shortest")
}

func TestCheckFades(t *testing.T) {
	assert.NoError(t, CheckFades(62, 2, 2))
	assert.NoError(t, CheckFades(4, 4, 0))

	for _, tc := range []struct{ in, out float64 }{{-1, 0}, {0, -1}, {5, 0}, {0, 5}} {
		err := CheckFades(4, tc.in, tc.out)
		assert.ErrorIs(t, err, apperr.ErrConfiguration, "in=%v out=%v", tc.in, tc.out)
	}
}

func TestGlitchGraph(t *testing.T) {
	seg := glitch.Segment{Index: 2, Start: 12.5, Duration: 0.75, Effect: glitch.Negate}
	g := Glitch(seg)
	require.NoError(t, g.Validate())

	want := strings.Join([]string{
		"[0:v]split=2[base][src]",
		"[src]trim=start=12.5:duration=0.75,setpts=PTS-STARTPTS,negate,setpts=PTS+12.5/TB[fx]",
		"[base][fx]overlay=enable='between(t,12.5,13.25)',format=yuv420p[final]",
	}, ";")
	assert.Equal(t, want, g.String())
	assert.Equal(t, []string{GlitchOut}, g.Outputs())
}

func TestGlitchJobCopiesAudio(t *testing.T) {
	seg := glitch.Segment{Index: 1, Start: 3, Duration: 1, Effect: glitch.Noise}
	job := GlitchJob(seg, "in.mp4", "out.mp4", 30, ffmpeg.Encoding{})

	assert.Equal(t, "glitch-1", job.Name)
	assert.True(t, job.Encoding.CopyAudio)
	assert.Equal(t, []string{"[final]", "0:a?"}, job.Maps)
	assert.Contains(t, strings.Join(job.Args(), " "), "-c:a copy out.mp4")
}

func TestEveryEffectHasFilters(t *testing.T) {
	for _, e := range glitch.AllEffects() {
		filters := EffectFilters(e)
		require.NotEmpty(t, filters, e)

		seg := glitch.Segment{Start: 1, Duration: 1, Effect: e}
		assert.NoError(t, Glitch(seg).Validate(), e)
	}
}

func TestEffectFiltersText(t *testing.T) {
	cases := map[glitch.Effect]string{
		glitch.Pixelate:  "scale=iw/16:ih/16:flags=neighbor,scale=iw*16:ih*16:flags=neighbor",
		glitch.Posterize: "lutrgb=r='bitand(val,224)':g='bitand(val,224)':b='bitand(val,224)'",
		glitch.Mirror:    "hflip",
	}
	for e, want := range cases {
		assert.Equal(t, want, ffmpeg.NewFilterBuilder().Custom(EffectFilters(e)...).Build(), e)
	}
	assert.Equal(t, "null", EffectFilters("bogus")[0].String())
}

func TestEffectFiltersReturnsCopy(t *testing.T) {
	filters := EffectFilters(glitch.Pixelate)
	filters[0] = ffmpeg.NewFilter("null")
	assert.Equal(t, "scale", EffectFilters(glitch.Pixelate)[0].Name)
}
