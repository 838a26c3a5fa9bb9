// Package cpuspec sizes the inference thread pool for the host CPU. Hybrid
// parts (Intel P/E designs, Apple Silicon) run the interpreter fastest when
// its threads stay on the performance cores, so known hybrid models map to
// their P-core counts and everything else falls back to logical cores.
package cpuspec

import (
	"regexp"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// Spec describes the host CPU as far as thread sizing cares.
type Spec struct {
	BrandName        string
	PerformanceCores int
}

// Detect inspects the host CPU brand string and resolves its P-core count.
func Detect() Spec {
	brand := cpuid.CPU.BrandName
	return Spec{
		BrandName:        brand,
		PerformanceCores: performanceCores(brand),
	}
}

// OptimalThreadCount returns the recommended number of interpreter threads.
// Hybrid CPUs get their P-core count, capped at the CPUs actually available
// to the process (VMs and cgroups may expose fewer than the part has).
func (s Spec) OptimalThreadCount() int {
	available := runtime.NumCPU()

	if s.PerformanceCores > 0 {
		if s.PerformanceCores > available {
			return available
		}
		return s.PerformanceCores
	}

	if logical := cpuid.CPU.LogicalCores; logical > 0 {
		return logical
	}
	return available
}

// intelPCores maps hybrid Intel model numbers to P-core counts. Suffix
// variants (K, KF, F, H) share the model number and the same P-core count.
var intelPCores = map[string]int{
	// 12th gen
	"12900": 8, "12700": 8, "12600": 6, "12400": 6, "12100": 4,
	// 13th gen
	"13900": 8, "13700": 8, "13600": 6, "13500": 6, "13400": 6, "13100": 4,
	// 14th gen
	"14900": 8, "14700": 8, "14600": 6, "14400": 6, "14100": 4,
	// Core Ultra series 2
	"285": 8, "265": 8, "255": 8, "235": 6, "225": 4,
}

// applePCores maps Apple Silicon chip names to P-core counts. Where a chip
// shipped in more than one binning the higher count is used.
var applePCores = map[string]int{
	"m1": 4, "m1 pro": 8, "m1 max": 8, "m1 ultra": 16,
	"m2": 4, "m2 pro": 8, "m2 max": 12, "m2 ultra": 24,
	"m3": 4, "m3 pro": 8, "m3 max": 12, "m3 ultra": 24,
	"m4": 6, "m4 pro": 8, "m4 max": 12,
}

// Brand strings are lowercased before matching, so the patterns are too.
var (
	intelCoreRegex  = regexp.MustCompile(`intel.*core.*i[3579]-(\d{5})`)
	intelUltraRegex = regexp.MustCompile(`intel.*core.*ultra\s+[579]\s+(?:processor\s+)?(\d{3})`)
	appleRegex      = regexp.MustCompile(`apple\s+(m\d(?:\s+(?:pro|max|ultra))?)`)
)

// performanceCores resolves a CPU brand string against the known hybrid
// parts. Unknown or homogeneous CPUs return 0.
func performanceCores(brand string) int {
	brand = strings.ToLower(brand)

	if m := intelCoreRegex.FindStringSubmatch(brand); len(m) > 1 {
		return intelPCores[m[1]]
	}
	if m := intelUltraRegex.FindStringSubmatch(brand); len(m) > 1 {
		return intelPCores[m[1]]
	}
	if m := appleRegex.FindStringSubmatch(brand); len(m) > 1 {
		return applePCores[strings.TrimSpace(m[1])]
	}
	return 0
}
