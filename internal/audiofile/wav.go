package audiofile

import (
	"bytes"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cognivox/voicescreen-go/internal/errors"
)

// wavReadBufferSize is the number of integer samples read per PCMBuffer call.
const wavReadBufferSize = 65536

func decodeWAV(data []byte) (*AudioSample, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, errors.Newf("input is not a valid WAV audio file").
			Component("audiofile").
			Category(errors.CategoryAudioDecode).
			Context("operation", "decode-wav").
			Build()
	}

	divisor, err := audioDivisor(int(decoder.BitDepth))
	if err != nil {
		return nil, err
	}

	sourceRate := int(decoder.SampleRate)
	numChannels := int(decoder.NumChans)
	if numChannels < 1 {
		numChannels = 1
	}

	buf := &audio.IntBuffer{
		Data:   make([]int, wavReadBufferSize),
		Format: &audio.Format{SampleRate: sourceRate, NumChannels: numChannels},
	}

	var samples []float32
	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return nil, errors.New(err).
				Component("audiofile").
				Category(errors.CategoryAudioDecode).
				Context("operation", "decode-wav").
				Context("sample_rate", sourceRate).
				Context("channels", numChannels).
				Build()
		}
		if n == 0 {
			break
		}
		samples = append(samples, downmixInterleaved(buf.Data[:n], numChannels, divisor)...)
	}

	samples, err = resampleLinear(samples, sourceRate, TargetSampleRate)
	if err != nil {
		return nil, err
	}

	return &AudioSample{Samples: samples, SampleRate: TargetSampleRate}, nil
}
