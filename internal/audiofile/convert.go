package audiofile

import (
	"github.com/cognivox/voicescreen-go/internal/errors"
)

// audioDivisor returns the divisor for normalizing integer PCM samples of
// the given bit depth into the [-1, 1) float range.
func audioDivisor(bitDepth int) (float32, error) {
	switch bitDepth {
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, errors.Newf("unsupported audio bit depth: %d", bitDepth).
			Component("audiofile").
			Category(errors.CategoryAudioDecode).
			Context("operation", "audio-divisor").
			Context("bit_depth", bitDepth).
			Context("supported_bit_depths", "16,24,32").
			Build()
	}
}

// downmixInterleaved averages interleaved integer PCM frames across channels
// and normalizes by divisor. Trailing samples of an incomplete frame are
// dropped.
func downmixInterleaved(data []int, numChannels int, divisor float32) []float32 {
	if numChannels <= 1 {
		out := make([]float32, len(data))
		for i, s := range data {
			out[i] = float32(s) / divisor
		}
		return out
	}

	frames := len(data) / numChannels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < numChannels; c++ {
			sum += float32(data[i*numChannels+c]) / divisor
		}
		out[i] = sum / float32(numChannels)
	}
	return out
}

// resampleLinear converts samples from sourceRate to targetRate using linear
// interpolation. The input is returned unchanged when the rates match.
func resampleLinear(samples []float32, sourceRate, targetRate int) ([]float32, error) {
	if sourceRate <= 0 || targetRate <= 0 {
		return nil, errors.Newf("invalid sample rate conversion: %d -> %d", sourceRate, targetRate).
			Component("audiofile").
			Category(errors.CategoryAudioDecode).
			Context("operation", "resample").
			Build()
	}
	if sourceRate == targetRate || len(samples) == 0 {
		return samples, nil
	}

	ratio := float64(sourceRate) / float64(targetRate)
	outLen := int(float64(len(samples)) / ratio)
	if outLen == 0 {
		outLen = 1
	}

	out := make([]float32, outLen)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out, nil
}
