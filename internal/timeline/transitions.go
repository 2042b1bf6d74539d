package timeline

import (
	"strings"

	"github.com/kikiluvv/glitchreel/internal/apperr"
)

// Transition is a named crossfade style understood by the xfade filter
type Transition string

// Slides and wipes are left out on purpose; they read as UI motion, not blends.
var allTransitions = []Transition{
	"fade", "fadeblack", "fadewhite", "distance",
	"smoothleft", "smoothright", "smoothup", "smoothdown",
	"circlecrop", "rectcrop", "circleclose", "circleopen",
	"horzclose", "horzopen", "vertclose", "vertopen",
	"diagbl", "diagbr", "diagtl", "diagtr",
	"hlslice", "hrslice", "vuslice", "vdslice",
	"dissolve", "pixelize", "radial", "hblur",
	"fadegrays", "squeezev", "squeezeh", "zoomin",
	"hlwind", "hrwind", "vuwind", "vdwind",
}

// AllTransitions returns the full transition catalog
func AllTransitions() []Transition {
	out := make([]Transition, len(allTransitions))
	copy(out, allTransitions)
	return out
}

// Known reports whether t is in the catalog
func (t Transition) Known() bool {
	for _, k := range allTransitions {
		if k == t {
			return true
		}
	}
	return false
}

// ParseTransitions validates style names, dropping duplicates. An empty
// list selects the whole catalog.
func ParseTransitions(names []string) ([]Transition, error) {
	if len(names) == 0 {
		return AllTransitions(), nil
	}
	seen := make(map[Transition]bool, len(names))
	out := make([]Transition, 0, len(names))
	for _, n := range names {
		t := Transition(strings.ToLower(strings.TrimSpace(n)))
		if !t.Known() {
			return nil, apperr.Configf("transition.catalog", "unknown transition %q", n)
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}
