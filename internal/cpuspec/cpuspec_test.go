package cpuspec

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerformanceCores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		brand string
		want  int
	}{
		{"12th Gen Intel(R) Core(TM) i9-12900K", 8},
		{"12th Gen Intel(R) Core(TM) i5-12400F", 6},
		{"13th Gen Intel(R) Core(TM) i7-13700", 8},
		{"Intel(R) Core(TM) i5-13600KF", 6},
		{"Intel(R) Core(TM) i3-14100", 4},
		{"Intel(R) Core(TM) Ultra 9 285K", 8},
		{"Intel(R) Core(TM) Ultra 7 Processor 265", 8},
		{"Intel(R) Core(TM) Ultra 5 225", 4},
		{"Apple M1", 4},
		{"Apple M1 Ultra", 16},
		{"Apple M2 Max", 12},
		{"Apple M4 Pro", 8},
		// Homogeneous or unknown parts fall back to logical cores
		{"Intel(R) Core(TM) i7-9700K CPU @ 3.60GHz", 0},
		{"AMD Ryzen 9 5950X 16-Core Processor", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.brand, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, performanceCores(tt.brand), "brand %q", tt.brand)
		})
	}
}

func TestOptimalThreadCountBounds(t *testing.T) {
	t.Parallel()

	available := runtime.NumCPU()

	hybrid := Spec{BrandName: "test", PerformanceCores: 4}
	got := hybrid.OptimalThreadCount()
	assert.LessOrEqual(t, got, available, "thread count must not exceed available CPUs")
	assert.GreaterOrEqual(t, got, 1)

	oversized := Spec{BrandName: "test", PerformanceCores: available + 32}
	assert.Equal(t, available, oversized.OptimalThreadCount(), "P-core count is capped at available CPUs")

	unknown := Detect()
	unknown.PerformanceCores = 0
	assert.GreaterOrEqual(t, unknown.OptimalThreadCount(), 1, "fallback must stay positive")
}
