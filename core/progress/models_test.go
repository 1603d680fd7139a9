package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjustStripes(t *testing.T) {
	tests := []struct {
		name       string
		current    int
		delta      int
		maxStripes int
		want       int
	}{
		{name: "increment", current: 1, delta: 1, maxStripes: 4, want: 2},
		{name: "decrement", current: 2, delta: -1, maxStripes: 4, want: 1},
		{name: "saturates at max", current: 4, delta: 1, maxStripes: 4, want: 4},
		{name: "saturates at zero", current: 0, delta: -1, maxStripes: 4, want: 0},
		{name: "large positive clamped", current: 2, delta: 100, maxStripes: 4, want: 4},
		{name: "large negative clamped", current: 2, delta: -100, maxStripes: 4, want: 0},
		{name: "zero delta", current: 3, delta: 0, maxStripes: 4, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AdjustStripes(tt.current, tt.delta, tt.maxStripes))
		})
	}
}

// repeated boundary hits stay put; no wrap-around in either direction
func TestAdjustStripes_boundaryIsNoop(t *testing.T) {
	n := 4
	for i := 0; i < 3; i++ {
		n = AdjustStripes(n, 1, 4)
	}
	assert.Equal(t, 4, n)

	n = 0
	for i := 0; i < 3; i++ {
		n = AdjustStripes(n, -1, 4)
	}
	assert.Equal(t, 0, n)
}
