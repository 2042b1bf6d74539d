package ffmpeg

import (
	"fmt"
	"strings"
)

// Chain is one edge of a filter graph: it consumes the named input
// buffers, runs its filters in order and produces the named outputs.
type Chain struct {
	Inputs  []string
	Filters []Filter
	Outputs []string
}

// String renders the chain as "[in][in]f1,f2[out]"
func (c Chain) String() string {
	var sb strings.Builder
	for _, in := range c.Inputs {
		sb.WriteString(Label(in))
	}
	sb.WriteString(NewFilterBuilder().Custom(c.Filters...).Build())
	for _, out := range c.Outputs {
		sb.WriteString(Label(out))
	}
	return sb.String()
}

// Label brackets a buffer name for use in filtergraph text and -map
func Label(name string) string {
	return "[" + name + "]"
}

// Graph is an ordered filter graph. Buffers are the nodes, chains the edges.
type Graph struct {
	Chains []Chain
}

// Add appends a chain and returns the graph for chaining
func (g *Graph) Add(inputs []string, filters []Filter, outputs ...string) *Graph {
	g.Chains = append(g.Chains, Chain{Inputs: inputs, Filters: filters, Outputs: outputs})
	return g
}

// Empty reports whether the graph has no chains
func (g Graph) Empty() bool {
	return len(g.Chains) == 0
}

// String serializes the graph for -filter_complex
func (g Graph) String() string {
	parts := make([]string, len(g.Chains))
	for i, c := range g.Chains {
		parts[i] = c.String()
	}
	return strings.Join(parts, ";")
}

// Outputs returns the buffers produced but never consumed, in order
func (g Graph) Outputs() []string {
	consumed := make(map[string]bool)
	for _, c := range g.Chains {
		for _, in := range c.Inputs {
			consumed[in] = true
		}
	}
	var outs []string
	for _, c := range g.Chains {
		for _, out := range c.Outputs {
			if !consumed[out] {
				outs = append(outs, out)
			}
		}
	}
	return outs
}

// Validate checks that every named buffer is produced once, before it is
// consumed, and consumed at most once. Stream specifiers such as "0:v"
// refer to job inputs and are not tracked.
func (g Graph) Validate() error {
	produced := make(map[string]bool)
	consumed := make(map[string]bool)

	for i, c := range g.Chains {
		if len(c.Filters) == 0 {
			return fmt.Errorf("chain %d has no filters", i)
		}
		for _, in := range c.Inputs {
			if isStreamSpecifier(in) {
				continue
			}
			if !produced[in] {
				return fmt.Errorf("chain %d consumes %s before it is produced", i, Label(in))
			}
			if consumed[in] {
				return fmt.Errorf("chain %d consumes %s a second time", i, Label(in))
			}
			consumed[in] = true
		}
		for _, out := range c.Outputs {
			if produced[out] {
				return fmt.Errorf("chain %d produces %s a second time", i, Label(out))
			}
			produced[out] = true
		}
	}
	return nil
}

// isStreamSpecifier matches input references like "0:v" or "12:a"
func isStreamSpecifier(name string) bool {
	idx, _, ok := strings.Cut(name, ":")
	if !ok || idx == "" {
		return false
	}
	for _, r := range idx {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
