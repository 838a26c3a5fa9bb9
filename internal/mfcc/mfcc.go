// Package mfcc implements mel-frequency cepstral coefficient extraction
// from PCM audio. The output feature matrix feeds the TCN voice classifier.
//
// The extraction pipeline is fixed by the trained model: pre-emphasis,
// 25 ms Hamming-windowed frames on a 10 ms hop, 512-point power spectrum,
// a 26-filter mel bank, log compression, an orthonormal DCT-II keeping the
// first 13 coefficients, and sinusoidal liftering. Extraction is
// deterministic: identical input always yields identical output.
package mfcc

import (
	"math"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/cognivox/voicescreen-go/internal/errors"
	"github.com/cognivox/voicescreen-go/internal/logger"
)

const (
	// preEmphasisCoeff is the first-order high-pass filter coefficient
	preEmphasisCoeff = 0.97

	// cepLifter is the sinusoidal liftering parameter
	cepLifter = 22.0

	// logFloor guards the filterbank energies against log(0)
	logFloor = 2.220446049250313e-16
)

// Config holds the extraction parameters. The values are part of the model
// contract; changing them invalidates the trained classifier.
type Config struct {
	SampleRate      int     // audio sample rate in Hz
	WindowLength    float64 // analysis window length in seconds
	HopLength       float64 // hop between successive windows in seconds
	NumCoefficients int     // cepstral coefficients kept per frame
	NumFilters      int     // mel filterbank size
	FFTSize         int     // FFT length in samples
}

// DefaultConfig returns the extraction parameters the classifier was
// trained with.
func DefaultConfig() Config {
	return Config{
		SampleRate:      16000,
		WindowLength:    0.025,
		HopLength:       0.010,
		NumCoefficients: 13,
		NumFilters:      26,
		FFTSize:         512,
	}
}

// Extractor converts PCM samples into MFCC feature matrices.
// The precomputed tables are read-only after construction, so a single
// Extractor is safe for concurrent use.
type Extractor struct {
	cfg        Config
	windowSize int // analysis window in samples
	hopSize    int // hop in samples

	window     []float64   // Hamming window, length windowSize
	filterbank [][]float64 // [NumFilters][FFTSize/2+1] mel filter weights
	dctBasis   [][]float64 // [NumCoefficients][NumFilters] orthonormal DCT-II rows
	lifter     []float64   // [NumCoefficients] liftering multipliers
}

// New creates an Extractor for the given configuration.
func New(cfg Config) (*Extractor, error) {
	if cfg.SampleRate <= 0 {
		return nil, errors.Newf("sample rate must be positive, got %d", cfg.SampleRate).
			Category(errors.CategoryValidation).
			Context("operation", "mfcc-config").
			Build()
	}
	if cfg.WindowLength <= 0 || cfg.HopLength <= 0 {
		return nil, errors.Newf("window length and hop length must be positive, got %g and %g",
			cfg.WindowLength, cfg.HopLength).
			Category(errors.CategoryValidation).
			Context("operation", "mfcc-config").
			Build()
	}
	if cfg.NumCoefficients <= 0 || cfg.NumCoefficients > cfg.NumFilters {
		return nil, errors.Newf("coefficient count must be between 1 and the filter count %d, got %d",
			cfg.NumFilters, cfg.NumCoefficients).
			Category(errors.CategoryValidation).
			Context("operation", "mfcc-config").
			Build()
	}

	windowSize := int(math.Round(cfg.WindowLength * float64(cfg.SampleRate)))
	hopSize := int(math.Round(cfg.HopLength * float64(cfg.SampleRate)))
	if cfg.FFTSize < windowSize {
		return nil, errors.Newf("FFT size %d is smaller than the %d-sample analysis window",
			cfg.FFTSize, windowSize).
			Category(errors.CategoryValidation).
			Context("operation", "mfcc-config").
			Build()
	}

	return &Extractor{
		cfg:        cfg,
		windowSize: windowSize,
		hopSize:    hopSize,
		window:     hammingWindow(windowSize),
		filterbank: melFilterbank(cfg.NumFilters, cfg.FFTSize, cfg.SampleRate),
		dctBasis:   dctBasis(cfg.NumCoefficients, cfg.NumFilters),
		lifter:     lifterWeights(cfg.NumCoefficients, cepLifter),
	}, nil
}

// NumFrames returns the number of analysis frames Extract will produce for
// a buffer of the given sample count. Buffers shorter than one window still
// produce a single zero-padded frame.
func (e *Extractor) NumFrames(sampleCount int) int {
	if sampleCount <= e.windowSize {
		return 1
	}
	return 1 + (sampleCount-e.windowSize)/e.hopSize
}

// Extract computes the MFCC feature matrix for the given samples.
// The result has shape [frames][NumCoefficients] and is freshly allocated
// on every call. An empty buffer is an error; a buffer shorter than one
// window yields a single zero-padded frame.
func (e *Extractor) Extract(samples []float32) ([][]float32, error) {
	if len(samples) == 0 {
		return nil, errors.Newf("audio sample buffer is empty").
			Category(errors.CategoryValidation).
			Context("operation", "mfcc-extract").
			Build()
	}

	start := time.Now()

	emphasized := preEmphasize(samples)
	numFrames := e.NumFrames(len(emphasized))
	numBins := e.cfg.FFTSize/2 + 1

	// The FFT plan buffers are not safe for concurrent use, so each call
	// gets its own plan; the table setup is cheap next to decoding.
	fft := fourier.NewFFT(e.cfg.FFTSize)
	frameBuf := make([]float64, e.cfg.FFTSize)
	powerSpec := make([]float64, numBins)
	filterEnergies := make([]float64, e.cfg.NumFilters)

	features := make([][]float32, numFrames)
	for i := 0; i < numFrames; i++ {
		frameStart := i * e.hopSize

		// Window the frame, zero-padding past the end of the signal and up
		// to the FFT length
		for k := 0; k < e.cfg.FFTSize; k++ {
			if k < e.windowSize && frameStart+k < len(emphasized) {
				frameBuf[k] = emphasized[frameStart+k] * e.window[k]
			} else {
				frameBuf[k] = 0
			}
		}

		// Periodogram estimate of the power spectrum
		coeffs := fft.Coefficients(nil, frameBuf)
		for k := 0; k < numBins; k++ {
			re := real(coeffs[k])
			im := imag(coeffs[k])
			powerSpec[k] = (re*re + im*im) / float64(e.cfg.FFTSize)
		}

		// Log mel filterbank energies
		for m := 0; m < e.cfg.NumFilters; m++ {
			var energy float64
			bank := e.filterbank[m]
			for k := 0; k < numBins; k++ {
				energy += powerSpec[k] * bank[k]
			}
			if energy < logFloor {
				energy = logFloor
			}
			filterEnergies[m] = math.Log(energy)
		}

		// DCT-II to the cepstral domain, then liftering
		frame := make([]float32, e.cfg.NumCoefficients)
		for c := 0; c < e.cfg.NumCoefficients; c++ {
			var sum float64
			basis := e.dctBasis[c]
			for m := 0; m < e.cfg.NumFilters; m++ {
				sum += filterEnergies[m] * basis[m]
			}
			frame[c] = float32(sum * e.lifter[c])
		}
		features[i] = frame
	}

	GetLogger().Debug("Extracted MFCC features",
		logger.Int("samples", len(samples)),
		logger.Int("frames", numFrames),
		logger.Int("coefficients", e.cfg.NumCoefficients),
		logger.Duration("elapsed", time.Since(start)))

	return features, nil
}

// preEmphasize applies the first-order high-pass filter
// y[t] = x[t] - 0.97*x[t-1] in float64 precision.
func preEmphasize(samples []float32) []float64 {
	out := make([]float64, len(samples))
	if len(samples) == 0 {
		return out
	}
	out[0] = float64(samples[0])
	for t := 1; t < len(samples); t++ {
		out[t] = float64(samples[t]) - preEmphasisCoeff*float64(samples[t-1])
	}
	return out
}
