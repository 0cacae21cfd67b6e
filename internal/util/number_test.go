package util

import (
	"math"
	"testing"
)

func TestRound1(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{41.26, 41.3},
		{41.24, 41.2},
		{18.2, 18.2},
		{0.25, 0.3},
		{0.75, 0.8},
		{18.25, 18.3},
		{1.45, 1.4},
		{-0.25, -0.3},
		{-41.26, -41.3},
		{0, 0},
		{100, 100},
	}

	for _, tt := range tests {
		if got := Round1(tt.in); got != tt.want {
			t.Errorf("Round1(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if !math.IsNaN(Round1(math.NaN())) {
		t.Error("Round1(NaN) should stay NaN")
	}
}
