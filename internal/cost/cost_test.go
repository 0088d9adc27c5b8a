package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	table := Table{
		"gpt-4o":      {InputPerMillion: 2.5, OutputPerMillion: 10},
		"gpt-4o-mini": {InputPerMillion: 0.15, OutputPerMillion: 0.6},
	}

	tests := []struct {
		model    string
		expected Price
		found    bool
	}{
		{"gpt-4o", table["gpt-4o"], true},
		{"gpt-4o-2024-08-06", table["gpt-4o"], true},
		{"gpt-4o-mini-2024-07-18", table["gpt-4o-mini"], true},
		{"gpt-3.5", Price{}, false},
		{"", Price{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			p, ok := table.Lookup(tt.model)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestCalculate(t *testing.T) {
	table := Table{"m": {InputPerMillion: 3, OutputPerMillion: 15}}

	c, ok := table.Calculate("m", 1_000_000, 200_000)
	assert.True(t, ok)
	assert.InDelta(t, 6.0, c, 1e-9)

	_, ok = table.Calculate("unknown", 10, 10)
	assert.False(t, ok)

	var empty Table
	_, ok = empty.Calculate("m", 1, 1)
	assert.False(t, ok)
}

func TestMerge(t *testing.T) {
	base := Default()
	merged := base.Merge(Table{
		"gpt-4o":   {InputPerMillion: 1, OutputPerMillion: 1},
		"my-model": {InputPerMillion: 0.5, OutputPerMillion: 0.5},
	})

	assert.Equal(t, Price{InputPerMillion: 1, OutputPerMillion: 1}, merged["gpt-4o"])
	assert.Contains(t, merged, "my-model")
	assert.Equal(t, Price{InputPerMillion: 2.5, OutputPerMillion: 10}, base["gpt-4o"])
}
