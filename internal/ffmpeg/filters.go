package ffmpeg

import (
	"fmt"
	"strings"

	"github.com/kikiluvv/glitchreel/pkg/util"
)

// Arg is a single filter option. An empty Key renders as a positional value.
type Arg struct {
	Key   string
	Value string
}

// KV returns a key=value option
func KV(key, value string) Arg {
	return Arg{Key: key, Value: value}
}

// Secs returns a key=value option holding a second count
func Secs(key string, seconds float64) Arg {
	return Arg{Key: key, Value: util.FormatSeconds(seconds)}
}

// Pos returns a positional option
func Pos(value string) Arg {
	return Arg{Value: value}
}

// Filter is one filter of a chain: a name and its options
type Filter struct {
	Name string
	Args []Arg
}

// NewFilter creates a filter
func NewFilter(name string, args ...Arg) Filter {
	return Filter{Name: name, Args: args}
}

// String renders the filter in filtergraph syntax (name=k=v:k=v)
func (f Filter) String() string {
	if len(f.Args) == 0 {
		return f.Name
	}
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		if a.Key == "" {
			parts[i] = a.Value
		} else {
			parts[i] = a.Key + "=" + a.Value
		}
	}
	return f.Name + "=" + strings.Join(parts, ":")
}

// Quote wraps an option value in single quotes so that separators inside
// it survive filtergraph parsing.
func Quote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}

// FilterBuilder helps construct ffmpeg filter chains
type FilterBuilder struct {
	filters []Filter
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make([]Filter, 0),
	}
}

// Format adds a pixel format conversion
func (fb *FilterBuilder) Format(pixFmt string) *FilterBuilder {
	if pixFmt == "" {
		return fb
	}
	fb.filters = append(fb.filters, NewFilter("format", Pos(pixFmt)))
	return fb
}

// Scale adds a scale filter
func (fb *FilterBuilder) Scale(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		// Return self without adding filter - allows chaining to continue
		return fb
	}
	fb.filters = append(fb.filters, NewFilter("scale", Pos(fmt.Sprint(width)), Pos(fmt.Sprint(height))))
	return fb
}

// SetSAR forces the sample aspect ratio
func (fb *FilterBuilder) SetSAR(sar int) *FilterBuilder {
	fb.filters = append(fb.filters, NewFilter("setsar", Pos(fmt.Sprint(sar))))
	return fb
}

// FadeIn adds a video fade in starting at start
func (fb *FilterBuilder) FadeIn(start, duration float64) *FilterBuilder {
	return fb.fade("fade", "in", start, duration)
}

// FadeOut adds a video fade out starting at start
func (fb *FilterBuilder) FadeOut(start, duration float64) *FilterBuilder {
	return fb.fade("fade", "out", start, duration)
}

// AudioFadeIn adds an audio fade in starting at start
func (fb *FilterBuilder) AudioFadeIn(start, duration float64) *FilterBuilder {
	return fb.fade("afade", "in", start, duration)
}

// AudioFadeOut adds an audio fade out starting at start
func (fb *FilterBuilder) AudioFadeOut(start, duration float64) *FilterBuilder {
	return fb.fade("afade", "out", start, duration)
}

func (fb *FilterBuilder) fade(name, kind string, start, duration float64) *FilterBuilder {
	if duration <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, NewFilter(name, KV("t", kind), Secs("st", start), Secs("d", duration)))
	return fb
}

// Trim keeps duration seconds starting at start
func (fb *FilterBuilder) Trim(start, duration float64) *FilterBuilder {
	fb.filters = append(fb.filters, NewFilter("trim", Secs("start", start), Secs("duration", duration)))
	return fb
}

// SetPTS rewrites presentation timestamps
func (fb *FilterBuilder) SetPTS(expr string) *FilterBuilder {
	fb.filters = append(fb.filters, NewFilter("setpts", Pos(expr)))
	return fb
}

// Custom adds arbitrary filters
func (fb *FilterBuilder) Custom(filters ...Filter) *FilterBuilder {
	fb.filters = append(fb.filters, filters...)
	return fb
}

// Build returns the complete filter string joined with commas
func (fb *FilterBuilder) Build() string {
	if len(fb.filters) == 0 {
		return ""
	}
	parts := make([]string, len(fb.filters))
	for i, f := range fb.filters {
		parts[i] = f.String()
	}
	return strings.Join(parts, ",")
}

// BuildAll returns all filters as a slice
func (fb *FilterBuilder) BuildAll() []Filter {
	return fb.filters
}
