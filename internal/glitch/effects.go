package glitch

import (
	"strings"

	"github.com/kikiluvv/glitchreel/internal/apperr"
)

// Effect names a visual glitch filter
type Effect string

const (
	Noise       Effect = "noise"
	RGBShift    Effect = "rgbshift"
	ChromaShift Effect = "chromashift"
	Negate      Effect = "negate"
	HueShift    Effect = "hueshift"
	EdgeDetect  Effect = "edgedetect"
	Pixelate    Effect = "pixelate"
	Lagfun      Effect = "lagfun"
	TBlend      Effect = "tblend"
	Mirror      Effect = "mirror"
	VFlip       Effect = "vflip"
	Posterize   Effect = "posterize"
)

var allEffects = []Effect{
	Noise, RGBShift, ChromaShift, Negate, HueShift, EdgeDetect,
	Pixelate, Lagfun, TBlend, Mirror, VFlip, Posterize,
}

// AllEffects returns the full effect catalog
func AllEffects() []Effect {
	out := make([]Effect, len(allEffects))
	copy(out, allEffects)
	return out
}

// Known reports whether e is in the catalog
func (e Effect) Known() bool {
	for _, k := range allEffects {
		if k == e {
			return true
		}
	}
	return false
}

// ParseEffects validates effect names, dropping duplicates. An empty list
// selects the whole catalog.
func ParseEffects(names []string) ([]Effect, error) {
	if len(names) == 0 {
		return AllEffects(), nil
	}
	seen := make(map[Effect]bool, len(names))
	out := make([]Effect, 0, len(names))
	for _, n := range names {
		e := Effect(strings.ToLower(strings.TrimSpace(n)))
		if !e.Known() {
			return nil, apperr.Configf("glitch.effects", "unknown effect %q", n)
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out, nil
}
