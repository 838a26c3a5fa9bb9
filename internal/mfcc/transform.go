package mfcc

import "math"

// hammingWindow returns the length-n Hamming window.
func hammingWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// dctBasis returns the first numCoeffs rows of the orthonormal DCT-II
// matrix over numFilters inputs:
//
//	basis[c][m] = norm(c) * cos(pi*c*(2m+1) / (2*numFilters))
//
// with norm(0) = sqrt(1/N) and norm(c>0) = sqrt(2/N), matching the
// transform the model was trained against.
func dctBasis(numCoeffs, numFilters int) [][]float64 {
	basis := make([][]float64, numCoeffs)
	norm0 := math.Sqrt(1.0 / float64(numFilters))
	norm := math.Sqrt(2.0 / float64(numFilters))

	for c := 0; c < numCoeffs; c++ {
		row := make([]float64, numFilters)
		scale := norm
		if c == 0 {
			scale = norm0
		}
		for m := 0; m < numFilters; m++ {
			row[m] = scale * math.Cos(math.Pi*float64(c)*(2.0*float64(m)+1.0)/(2.0*float64(numFilters)))
		}
		basis[c] = row
	}
	return basis
}

// lifterWeights returns the sinusoidal liftering multipliers
// 1 + (L/2)*sin(pi*c/L) that re-emphasize the higher cepstral
// coefficients flattened by the DCT.
func lifterWeights(numCoeffs int, l float64) []float64 {
	weights := make([]float64, numCoeffs)
	for c := range weights {
		weights[c] = 1.0 + (l/2.0)*math.Sin(math.Pi*float64(c)/l)
	}
	return weights
}
