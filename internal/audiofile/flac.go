package audiofile

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/tphakala/flac"

	"github.com/cognivox/voicescreen-go/internal/errors"
)

func decodeFLAC(data []byte) (*AudioSample, error) {
	decoder, err := flac.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New(err).
			Component("audiofile").
			Category(errors.CategoryAudioDecode).
			Context("operation", "decode-flac").
			Build()
	}

	divisor, err := audioDivisor(decoder.BitsPerSample)
	if err != nil {
		return nil, err
	}

	bytesPerSample := decoder.BitsPerSample / 8
	numChannels := decoder.NChannels
	if numChannels < 1 {
		numChannels = 1
	}

	var samples []float32
	for {
		frame, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, errors.New(err).
				Component("audiofile").
				Category(errors.CategoryAudioDecode).
				Context("operation", "decode-flac").
				Context("sample_rate", decoder.SampleRate).
				Context("channels", numChannels).
				Build()
		}

		ints := make([]int, 0, len(frame)/bytesPerSample)
		for i := 0; i+bytesPerSample <= len(frame); i += bytesPerSample {
			var sample int32
			switch decoder.BitsPerSample {
			case 16:
				sample = int32(int16(binary.LittleEndian.Uint16(frame[i:])))
			case 24:
				sample = int32(frame[i]) | int32(frame[i+1])<<8 | int32(frame[i+2])<<16
				if (sample & 0x00800000) > 0 {
					sample |= ^0x00FFFFFF // Two's complement sign extension
				}
			case 32:
				sample = int32(binary.LittleEndian.Uint32(frame[i:]))
			}
			ints = append(ints, int(sample))
		}
		samples = append(samples, downmixInterleaved(ints, numChannels, divisor)...)
	}

	samples, err = resampleLinear(samples, decoder.SampleRate, TargetSampleRate)
	if err != nil {
		return nil, err
	}

	return &AudioSample{Samples: samples, SampleRate: TargetSampleRate}, nil
}
