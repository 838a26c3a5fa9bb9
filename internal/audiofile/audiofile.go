// Package audiofile decodes uploaded audio into 16 kHz mono PCM suitable
// for feature extraction. WAV and FLAC are decoded natively, compressed
// formats are handed to an ffmpeg subprocess. Multi-channel input is
// averaged down to mono and all output is resampled to the target rate.
package audiofile

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cognivox/voicescreen-go/internal/conf"
	"github.com/cognivox/voicescreen-go/internal/errors"
	"github.com/cognivox/voicescreen-go/internal/logger"
)

// TargetSampleRate is the sample rate every decoded file is converted to.
// The classifier was trained on 16 kHz audio.
const TargetSampleRate = 16000

// allowedExtensions is the closed set of accepted upload formats, in the
// order they are listed in user-facing error messages.
var allowedExtensions = []string{".mp3", ".wav", ".flac", ".m4a", ".ogg", ".aac"}

// AllowedExtensions returns the accepted audio file extensions.
func AllowedExtensions() []string {
	return slices.Clone(allowedExtensions)
}

// IsSupported reports whether ext names an accepted audio format.
// Matching is case-insensitive and expects a leading dot.
func IsSupported(ext string) bool {
	return slices.Contains(allowedExtensions, strings.ToLower(ext))
}

// ValidateExtension returns nil for a supported extension and a validation
// error with the user-facing message otherwise.
func ValidateExtension(ext string) error {
	if IsSupported(ext) {
		return nil
	}
	return errors.Newf("Unsupported file type: %s. Allowed types: %s",
		strings.ToLower(ext), strings.Join(allowedExtensions, ", ")).
		Component("audiofile").
		Category(errors.CategoryValidation).
		Context("operation", "validate-extension").
		Context("extension", strings.ToLower(ext)).
		Build()
}

// AudioSample is decoded mono PCM at TargetSampleRate.
type AudioSample struct {
	Samples    []float32
	SampleRate int
}

// LengthSeconds returns the duration of the decoded audio.
func (a *AudioSample) LengthSeconds() float64 {
	if a.SampleRate == 0 {
		return 0
	}
	return float64(len(a.Samples)) / float64(a.SampleRate)
}

// Decoder converts raw audio bytes into AudioSamples.
type Decoder struct {
	ffmpegPath string
	timeout    time.Duration
}

// New creates a Decoder using the audio settings. The ffmpeg binary is
// resolved once here; compressed formats fail to decode when it is absent.
func New(settings *conf.Settings) *Decoder {
	return &Decoder{
		ffmpegPath: settings.ResolveFfmpegPath(),
		timeout:    time.Duration(settings.Audio.DecodeTimeout) * time.Second,
	}
}

// Decode converts data into 16 kHz mono PCM. The extension selects the
// decode path and is validated before any bytes are touched. Corrupt or
// truncated data yields a decode error, zero decoded samples are returned
// as-is for the caller to treat as empty audio.
func (d *Decoder) Decode(ctx context.Context, data []byte, ext string) (*AudioSample, error) {
	ext = strings.ToLower(ext)
	if err := ValidateExtension(ext); err != nil {
		return nil, err
	}

	start := time.Now()

	var (
		sample *AudioSample
		err    error
	)
	switch ext {
	case ".wav":
		sample, err = decodeWAV(data)
	case ".flac":
		sample, err = decodeFLAC(data)
	default:
		sample, err = d.decodeWithFFmpeg(ctx, data, ext)
	}
	if err != nil {
		return nil, err
	}

	GetLogger().Debug("Decoded audio",
		logger.String("extension", ext),
		logger.Int("bytes", len(data)),
		logger.Int("samples", len(sample.Samples)),
		logger.Float64("seconds", sample.LengthSeconds()),
		logger.Duration("elapsed", time.Since(start)))

	return sample, nil
}
