package compose

import (
	"github.com/kikiluvv/glitchreel/internal/ffmpeg"
	"github.com/kikiluvv/glitchreel/internal/glitch"
)

// posterizeLUT keeps the top three bits of each channel
var posterizeLUT = ffmpeg.Quote("bitand(val,224)")

var effectFilters = map[glitch.Effect][]ffmpeg.Filter{
	glitch.Noise: {
		ffmpeg.NewFilter("noise", ffmpeg.KV("alls", "80"), ffmpeg.KV("allf", "t+u")),
	},
	glitch.RGBShift: {
		ffmpeg.NewFilter("rgbashift", ffmpeg.KV("rh", "-16"), ffmpeg.KV("bh", "16"), ffmpeg.KV("gv", "8")),
	},
	glitch.ChromaShift: {
		ffmpeg.NewFilter("chromashift", ffmpeg.KV("cbh", "24"), ffmpeg.KV("crv", "-24")),
	},
	glitch.Negate: {ffmpeg.NewFilter("negate")},
	glitch.HueShift: {
		ffmpeg.NewFilter("hue", ffmpeg.KV("h", "180"), ffmpeg.KV("s", "3")),
	},
	glitch.EdgeDetect: {
		ffmpeg.NewFilter("edgedetect", ffmpeg.KV("mode", "colormix"), ffmpeg.KV("high", "0.1")),
	},
	glitch.Pixelate: {
		ffmpeg.NewFilter("scale", ffmpeg.Pos("iw/16"), ffmpeg.Pos("ih/16"), ffmpeg.KV("flags", "neighbor")),
		ffmpeg.NewFilter("scale", ffmpeg.Pos("iw*16"), ffmpeg.Pos("ih*16"), ffmpeg.KV("flags", "neighbor")),
	},
	glitch.Lagfun: {ffmpeg.NewFilter("lagfun", ffmpeg.KV("decay", "0.96"))},
	glitch.TBlend: {ffmpeg.NewFilter("tblend", ffmpeg.KV("all_mode", "difference"))},
	glitch.Mirror: {ffmpeg.NewFilter("hflip")},
	glitch.VFlip:  {ffmpeg.NewFilter("vflip")},
	glitch.Posterize: {
		ffmpeg.NewFilter("lutrgb", ffmpeg.KV("r", posterizeLUT), ffmpeg.KV("g", posterizeLUT), ffmpeg.KV("b", posterizeLUT)),
	},
}

// EffectFilters returns the filter chain implementing e. Unknown effects
// pass frames through unchanged.
func EffectFilters(e glitch.Effect) []ffmpeg.Filter {
	filters, ok := effectFilters[e]
	if !ok {
		return []ffmpeg.Filter{ffmpeg.NewFilter("null")}
	}
	out := make([]ffmpeg.Filter, len(filters))
	copy(out, filters)
	return out
}
