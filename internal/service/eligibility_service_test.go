package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluatePass(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		max      int
		passed   bool
		criteria string
	}{
		{name: "no scores", total: 0, max: 0, passed: false},
		{name: "below both thresholds", total: 2, max: 1, passed: false},
		{name: "single session threshold", total: 2, max: 2, passed: true, criteria: "single-session>=2"},
		{name: "cumulative threshold", total: 3, max: 1, passed: true, criteria: "cumulative>=3"},
		{name: "both thresholds", total: 5, max: 3, passed: true, criteria: "single-session>=2, cumulative>=3"},
		{name: "exactly cumulative boundary", total: 3, max: 0, passed: true, criteria: "cumulative>=3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passed, criteria := EvaluatePass(tt.total, tt.max)
			assert.Equal(t, tt.passed, passed)
			if tt.passed {
				require.NotNil(t, criteria)
				assert.Equal(t, tt.criteria, *criteria)
			} else {
				assert.Nil(t, criteria)
			}
		})
	}
}

func TestEvaluatePassIsPure(t *testing.T) {
	p1, c1 := EvaluatePass(4, 2)
	p2, c2 := EvaluatePass(4, 2)
	assert.Equal(t, p1, p2)
	assert.Equal(t, *c1, *c2)
}
