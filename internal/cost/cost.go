package cost

import (
	"strings"
)

// Price is the USD cost of one million tokens for a model.
type Price struct {
	InputPerMillion  float64 `yaml:"input"`
	OutputPerMillion float64 `yaml:"output"`
}

// Table maps a model name, or a model name prefix, to its price.
type Table map[string]Price

// Default returns the built-in price table.
func Default() Table {
	return Table{
		"claude-3-5-sonnet": {InputPerMillion: 3, OutputPerMillion: 15},
		"claude-3-7-sonnet": {InputPerMillion: 3, OutputPerMillion: 15},
		"claude-sonnet-4":   {InputPerMillion: 3, OutputPerMillion: 15},
		"claude-opus-4":     {InputPerMillion: 15, OutputPerMillion: 75},
		"claude-3-5-haiku":  {InputPerMillion: 0.8, OutputPerMillion: 4},
		"gpt-4o":            {InputPerMillion: 2.5, OutputPerMillion: 10},
		"gpt-4o-mini":       {InputPerMillion: 0.15, OutputPerMillion: 0.6},
		"gpt-4.1":           {InputPerMillion: 2, OutputPerMillion: 8},
		"gpt-4.1-mini":      {InputPerMillion: 0.4, OutputPerMillion: 1.6},
		"gemini-2.5-pro":    {InputPerMillion: 1.25, OutputPerMillion: 10},
		"gemini-2.5-flash":  {InputPerMillion: 0.3, OutputPerMillion: 2.5},
	}
}

// Merge returns a copy of t with every entry of over applied on top.
func (t Table) Merge(over Table) Table {
	out := make(Table, len(t)+len(over))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Lookup returns the price for model: an exact match, or else the longest key that is a
// prefix of model ("gpt-4o-mini-2024-07-18" matches "gpt-4o-mini", not "gpt-4o").
func (t Table) Lookup(model string) (Price, bool) {
	if model == "" {
		return Price{}, false
	}
	if p, ok := t[model]; ok {
		return p, true
	}

	best := ""
	for k := range t {
		if len(k) > len(best) && strings.HasPrefix(model, k) {
			best = k
		}
	}
	if best == "" {
		return Price{}, false
	}
	return t[best], true
}

// Calculate returns the USD cost of the given token counts, or false when model has no
// price.
func (t Table) Calculate(model string, inputTokens, outputTokens int) (float64, bool) {
	p, ok := t.Lookup(model)
	if !ok {
		return 0, false
	}
	return float64(inputTokens)/1e6*p.InputPerMillion + float64(outputTokens)/1e6*p.OutputPerMillion, true
}
