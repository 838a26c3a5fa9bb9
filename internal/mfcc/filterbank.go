package mfcc

import "math"

// hzToMel converts a frequency in Hz to the mel scale.
func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// melToHz converts a mel-scale value back to Hz.
func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// melFilterbank builds numFilters triangular filters spanning 0 Hz to the
// Nyquist frequency, evenly spaced on the mel scale. Each filter is a row
// of weights over the fftSize/2+1 spectrum bins.
func melFilterbank(numFilters, fftSize, sampleRate int) [][]float64 {
	numBins := fftSize/2 + 1
	lowMel := hzToMel(0)
	highMel := hzToMel(float64(sampleRate) / 2.0)

	// numFilters+2 equally spaced mel points give the left edge, peak and
	// right edge of each triangle
	melPoints := make([]float64, numFilters+2)
	step := (highMel - lowMel) / float64(numFilters+1)
	for i := range melPoints {
		melPoints[i] = lowMel + float64(i)*step
	}

	// Snap the mel points to FFT bin indices
	bins := make([]int, len(melPoints))
	for i, mel := range melPoints {
		bins[i] = int(math.Floor((float64(fftSize) + 1.0) * melToHz(mel) / float64(sampleRate)))
	}

	bank := make([][]float64, numFilters)
	for m := 1; m <= numFilters; m++ {
		filter := make([]float64, numBins)
		left, center, right := bins[m-1], bins[m], bins[m+1]

		for k := left; k < center; k++ {
			filter[k] = float64(k-left) / float64(center-left)
		}
		for k := center; k < right; k++ {
			filter[k] = float64(right-k) / float64(right-center)
		}
		bank[m-1] = filter
	}
	return bank
}
