package floatutils

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r1"
)

func TestClip(t *testing.T) {
	tests := []struct {
		value, min, max, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-3, -1, 1, -1},
		{3, -1, 1, 1},
		{math.Inf(1), 0, 1, 1},
		{math.NaN(), -1, 1, 0},
		{math.NaN(), 0.5, 1, 0.5},
	}

	for _, test := range tests {
		if got := Clip(test.value, test.min, test.max); got != test.want {
			t.Errorf("Clip(%v, %v, %v): want %v, have %v", test.value,
				test.min, test.max, test.want, got)
		}
	}

	if got := ClipInterval(2, r1.Interval{Min: 0, Max: 1}); got != 1 {
		t.Errorf("ClipInterval: want 1, have %v", got)
	}
}
