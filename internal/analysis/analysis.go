// Package analysis wires the audio decoding, feature extraction and
// classification stages into complete analysis pipelines.
package analysis

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cognivox/voicescreen-go/internal/audiofile"
	"github.com/cognivox/voicescreen-go/internal/conf"
	"github.com/cognivox/voicescreen-go/internal/errors"
	"github.com/cognivox/voicescreen-go/internal/fetcher"
	"github.com/cognivox/voicescreen-go/internal/mfcc"
	"github.com/cognivox/voicescreen-go/internal/observability/metrics"
	"github.com/cognivox/voicescreen-go/internal/tcn"
)

// Result is the outcome of one complete analysis: the classifier prediction
// plus the audio and feature dimensions it was made from.
type Result struct {
	Prediction    *tcn.Result
	LengthSeconds float64
	Frames        int
	Coefficients  int
}

// Analyzer runs the voice screening pipeline: decode the audio, extract
// MFCC features, classify with the TCN model.
type Analyzer struct {
	decoder   *audiofile.Decoder
	extractor *mfcc.Extractor
	registry  *tcn.Registry
	fetcher   *fetcher.Fetcher
	metrics   *metrics.TCNMetrics
}

// New creates an Analyzer backed by the given model registry. tcnMetrics
// may be nil, in which case no metrics are recorded.
func New(settings *conf.Settings, registry *tcn.Registry, tcnMetrics *metrics.TCNMetrics) (*Analyzer, error) {
	extractor, err := mfcc.New(mfcc.DefaultConfig())
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		decoder:   audiofile.New(settings),
		extractor: extractor,
		registry:  registry,
		fetcher:   fetcher.New(settings),
		metrics:   tcnMetrics,
	}, nil
}

// AnalyzeBytes runs the pipeline on in-memory audio data. The ext parameter
// selects the decoder and source labels the request metrics.
func (a *Analyzer) AnalyzeBytes(ctx context.Context, data []byte, ext, source string) (*Result, error) {
	start := time.Now()
	result, err := a.analyze(ctx, data, ext)
	a.recordPrediction(source, time.Since(start), err)
	return result, err
}

// AnalyzeURL downloads the audio object at rawURL and runs the pipeline on
// it. The URL path extension selects the decoder, URLs without a usable
// extension are treated as MP3.
func (a *Analyzer) AnalyzeURL(ctx context.Context, rawURL, bearer string) (*Result, error) {
	start := time.Now()
	result, err := a.fetchAndAnalyze(ctx, rawURL, bearer)
	a.recordPrediction(metrics.SourceURL, time.Since(start), err)
	return result, err
}

// AnalyzeFile reads an audio file from disk and runs the pipeline on it.
func (a *Analyzer) AnalyzeFile(ctx context.Context, audioPath, source string) (*Result, error) {
	start := time.Now()
	result, err := a.readAndAnalyze(ctx, audioPath)
	a.recordPrediction(source, time.Since(start), err)
	return result, err
}

func (a *Analyzer) fetchAndAnalyze(ctx context.Context, rawURL, bearer string) (*Result, error) {
	// Reject unsupported formats and an unavailable model before spending
	// bandwidth on the download.
	ext := ExtensionFromURL(rawURL)
	if err := audiofile.ValidateExtension(ext); err != nil {
		return nil, err
	}
	if _, err := a.registry.EnsureReady(ctx); err != nil {
		return nil, err
	}

	var data []byte
	err := tcn.TraceStage(ctx, "fetch", func() error {
		var fetchErr error
		data, fetchErr = a.fetcher.Fetch(ctx, fetcher.Request{URL: rawURL, Bearer: bearer})
		return fetchErr
	})
	a.recordStage(metrics.OpFetch, err)
	if err != nil {
		return nil, err
	}

	return a.analyze(ctx, data, ext)
}

func (a *Analyzer) readAndAnalyze(ctx context.Context, audioPath string) (*Result, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, errors.New(err).
			Component("analysis").
			Category(errors.CategoryFileIO).
			Context("operation", "read_audio_file").
			Build()
	}
	return a.analyze(ctx, data, strings.ToLower(filepath.Ext(audioPath)))
}

// analyze runs decode, extract and classify on raw audio bytes.
func (a *Analyzer) analyze(ctx context.Context, data []byte, ext string) (*Result, error) {
	// Fail fast when the model is unavailable, before any decode work.
	model, err := a.registry.EnsureReady(ctx)
	if err != nil {
		return nil, err
	}

	var sample *audiofile.AudioSample
	err = tcn.TraceStage(ctx, "decode", func() error {
		var decodeErr error
		sample, decodeErr = a.decoder.Decode(ctx, data, ext)
		return decodeErr
	})
	a.recordStage(metrics.OpDecode, err)
	if err != nil {
		return nil, err
	}

	var features [][]float32
	err = tcn.TraceStage(ctx, "extract", func() error {
		var extractErr error
		features, extractErr = a.extractor.Extract(sample.Samples)
		return extractErr
	})
	a.recordStage(metrics.OpExtract, err)
	if err != nil {
		return nil, err
	}

	// Predict records its own invoke duration and result label.
	prediction, err := model.Predict(features)
	if err != nil {
		return nil, err
	}

	return &Result{
		Prediction:    prediction,
		LengthSeconds: sample.LengthSeconds(),
		Frames:        len(features),
		Coefficients:  len(features[0]),
	}, nil
}

func (a *Analyzer) recordStage(stage string, err error) {
	if a.metrics != nil {
		a.metrics.RecordStage(stage, err)
	}
}

func (a *Analyzer) recordPrediction(source string, elapsed time.Duration, err error) {
	if a.metrics == nil {
		return
	}
	a.metrics.RecordPrediction(source, elapsed.Seconds(), err)
	if err == nil {
		a.metrics.SetProcessTime(float64(elapsed.Milliseconds()))
	}
}

// ExtensionFromURL returns the lowercased file extension of the URL path.
// URLs that do not carry a usable extension default to ".mp3", the most
// common container for voice recordings served over HTTP.
func ExtensionFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ".mp3"
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	if ext == "" {
		return ".mp3"
	}
	return ext
}
