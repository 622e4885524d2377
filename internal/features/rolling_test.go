package features

import (
	"math"
	"testing"
)

func TestSampleStd(t *testing.T) {
	tests := []struct {
		name string
		vals []float64
		want float64
	}{
		{"empty", nil, 0.0},
		{"single sample", []float64{0.05}, 0.0},
		{"two equal", []float64{0.05, 0.05}, 0.0},
		// var = ((1.5)^2 + (0.5)^2 + (0.5)^2 + (1.5)^2) / 3 = 5/3
		{"spread out", []float64{1, 2, 3, 4}, math.Sqrt(5.0 / 3.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sampleStd(tt.vals); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("sampleStd = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRollingStdGrowingWindow(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	got := rollingStd(vals, 3)

	want := []float64{
		0.0,            // 1 sample
		math.Sqrt(0.5), // std of {1,2}
		1.0,            // std of {1,2,3}
		1.0,            // std of {2,3,4}: window trails
		1.0,            // std of {3,4,5}
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("rollingStd[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRollingStdConstantSeries(t *testing.T) {
	vals := []float64{0.04, 0.04, 0.04, 0.04}
	for i, v := range rollingStd(vals, 2) {
		if v != 0.0 {
			t.Errorf("rollingStd[%d] = %v, want 0.0 for constant spreads", i, v)
		}
	}
}
