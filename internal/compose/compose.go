// Package compose translates plans into media engine jobs.
//
// Everything here is pure: the same plan always yields byte-identical
// filter graph text.
package compose

import (
	"fmt"

	"github.com/kikiluvv/glitchreel/internal/apperr"
	"github.com/kikiluvv/glitchreel/internal/ffmpeg"
	"github.com/kikiluvv/glitchreel/internal/glitch"
	"github.com/kikiluvv/glitchreel/internal/timeline"
	"github.com/kikiluvv/glitchreel/pkg/util"
)

// Final buffer names mapped to the output streams
const (
	VideoOut   = "video"
	FadedVideo = "v"
	FadedAudio = "a"
	GlitchOut  = "final"
)

// Format is the frame geometry every slot is normalized to
type Format struct {
	Width       int
	Height      int
	PixelFormat string
}

func (f Format) pixelFormat() string {
	if f.PixelFormat == "" {
		return ffmpeg.DefaultPixelFormat
	}
	return f.PixelFormat
}

func slotLabel(i int) string  { return fmt.Sprintf("v%d", i) }
func xfadeLabel(i int) string { return fmt.Sprintf("x%d", i) }

// Slideshow builds the crossfade chain: every slot is normalized into its
// own buffer, then each edge blends the running chain with the next slot.
func Slideshow(plan *timeline.Plan, f Format) ffmpeg.Graph {
	var g ffmpeg.Graph

	for _, s := range plan.Slots {
		filters := ffmpeg.NewFilterBuilder().
			Format(f.pixelFormat()).
			Scale(f.Width, f.Height).
			SetSAR(1).
			BuildAll()
		g.Add([]string{fmt.Sprintf("%d:v", s.Index)}, filters, slotLabel(s.Index))
	}

	trailing := slotLabel(0)
	for _, e := range plan.Edges {
		xfade := ffmpeg.NewFilter("xfade",
			ffmpeg.KV("transition", string(e.Kind)),
			ffmpeg.Secs("duration", e.Duration),
			ffmpeg.Secs("offset", e.Offset),
		)
		g.Add([]string{trailing, slotLabel(e.To)}, []ffmpeg.Filter{xfade}, xfadeLabel(e.Index))
		trailing = xfadeLabel(e.Index)
	}

	g.Add([]string{trailing}, ffmpeg.NewFilterBuilder().Format(f.pixelFormat()).BuildAll(), VideoOut)
	return g
}

// SlideshowJob is the base pass: one looped still per slot plus the audio track
func SlideshowJob(plan *timeline.Plan, audioPath, output string, f Format, enc ffmpeg.Encoding) ffmpeg.Job {
	inputs := make([]ffmpeg.Input, 0, len(plan.Slots)+1)
	for _, s := range plan.Slots {
		inputs = append(inputs, ffmpeg.StillInput(s.Image.Path, s.Duration))
	}
	inputs = append(inputs, ffmpeg.FileInput(audioPath))

	enc.CopyAudio = false
	enc.Shortest = true

	return ffmpeg.Job{
		Name:          "base",
		Inputs:        inputs,
		Graph:         Slideshow(plan, f),
		Maps:          []string{ffmpeg.Label(VideoOut), fmt.Sprintf("%d:a", len(plan.Slots))},
		Encoding:      enc,
		Output:        output,
		TotalDuration: plan.AudioDuration,
	}
}

// CheckFades rejects fades that do not fit in the video
func CheckFades(duration, fadeIn, fadeOut float64) error {
	if fadeIn < 0 {
		return apperr.Configf("fade_in", "must be >= 0, got %v", fadeIn)
	}
	if fadeOut < 0 {
		return apperr.Configf("fade_out", "must be >= 0, got %v", fadeOut)
	}
	if fadeIn > duration || fadeOut > duration {
		return apperr.Configf("fade_in/fade_out", "fades of %vs/%vs exceed the %vs video", fadeIn, fadeOut, duration)
	}
	return nil
}

// Fades wraps video and audio in a fade in at 0 and a fade out ending at duration
func Fades(duration, fadeIn, fadeOut float64) ffmpeg.Graph {
	outStart := util.RoundMillis(duration - fadeOut)

	video := ffmpeg.NewFilterBuilder().FadeIn(0, fadeIn).FadeOut(outStart, fadeOut).BuildAll()
	if len(video) == 0 {
		video = []ffmpeg.Filter{ffmpeg.NewFilter("null")}
	}
	audio := ffmpeg.NewFilterBuilder().AudioFadeIn(0, fadeIn).AudioFadeOut(outStart, fadeOut).BuildAll()
	if len(audio) == 0 {
		audio = []ffmpeg.Filter{ffmpeg.NewFilter("anull")}
	}

	var g ffmpeg.Graph
	g.Add([]string{"0:v"}, video, FadedVideo)
	g.Add([]string{"0:a"}, audio, FadedAudio)
	return g
}

// FadeJob is the second pass over the base artifact
func FadeJob(input, output string, duration, fadeIn, fadeOut float64, enc ffmpeg.Encoding) ffmpeg.Job {
	enc.CopyAudio = false
	enc.Shortest = false

	return ffmpeg.Job{
		Name:          "fade",
		Inputs:        []ffmpeg.Input{ffmpeg.FileInput(input)},
		Graph:         Fades(duration, fadeIn, fadeOut),
		Maps:          []string{ffmpeg.Label(FadedVideo), ffmpeg.Label(FadedAudio)},
		Encoding:      enc,
		Output:        output,
		TotalDuration: duration,
	}
}

// Glitch cuts the segment's window out of the input, resets its clock,
// applies the effect, shifts it back and overlays it only inside the window.
func Glitch(seg glitch.Segment) ffmpeg.Graph {
	effect := ffmpeg.NewFilterBuilder().
		Trim(seg.Start, seg.Duration).
		SetPTS("PTS-STARTPTS").
		Custom(EffectFilters(seg.Effect)...).
		SetPTS(fmt.Sprintf("PTS+%s/TB", util.FormatSeconds(seg.Start))).
		BuildAll()

	window := fmt.Sprintf("between(t,%s,%s)", util.FormatSeconds(seg.Start), util.FormatSeconds(seg.End()))
	overlay := ffmpeg.NewFilterBuilder().
		Custom(ffmpeg.NewFilter("overlay", ffmpeg.KV("enable", ffmpeg.Quote(window)))).
		Format(ffmpeg.DefaultPixelFormat).
		BuildAll()

	var g ffmpeg.Graph
	g.Add([]string{"0:v"}, []ffmpeg.Filter{ffmpeg.NewFilter("split", ffmpeg.Pos("2"))}, "base", "src")
	g.Add([]string{"src"}, effect, "fx")
	g.Add([]string{"base", "fx"}, overlay, GlitchOut)
	return g
}

// GlitchJob applies one segment on top of the previous pass's output
func GlitchJob(seg glitch.Segment, input, output string, duration float64, enc ffmpeg.Encoding) ffmpeg.Job {
	enc.CopyAudio = true
	enc.Shortest = false

	return ffmpeg.Job{
		Name:          fmt.Sprintf("glitch-%d", seg.Index),
		Inputs:        []ffmpeg.Input{ffmpeg.FileInput(input)},
		Graph:         Glitch(seg),
		Maps:          []string{ffmpeg.Label(GlitchOut), "0:a?"},
		Encoding:      enc,
		Output:        output,
		TotalDuration: duration,
	}
}
