// Package metrics defines the label values and bucket layouts shared by
// the collectors in this package.
package metrics

// Operation names used as metric label values and in the Recorder interface.
// TraceStage and the analysis pipeline pass these to RecordOperation and
// RecordDuration, so adding a stage means adding a constant here.
const (
	// OpPrediction covers an entire prediction request end to end.
	OpPrediction = "prediction"
	// OpModelLoad covers reading and initializing the TFLite model.
	OpModelLoad = "model_load"
	// OpModelInvoke covers a single TFLite interpreter invocation.
	OpModelInvoke = "model_invoke"
	// OpFetch covers downloading audio from a remote URL.
	OpFetch = "fetch"
	// OpDecode covers decoding audio bytes into PCM samples.
	OpDecode = "decode"
	// OpExtract covers MFCC feature extraction.
	OpExtract = "extract"
)

// Source labels distinguishing where the audio for a prediction came from.
const (
	// SourceUpload marks multipart file uploads.
	SourceUpload = "upload"
	// SourceURL marks remote URL fetches.
	SourceURL = "url"
	// SourceFile marks local file analysis.
	SourceFile = "file"
	// SourceDirectory marks batch directory analysis.
	SourceDirectory = "directory"
)

// Base values for exponential histogram buckets.
const (
	// BucketStart1ms anchors duration histograms at 1ms.
	BucketStart1ms = 0.001
	// BucketStart100B anchors size histograms at 100 bytes.
	BucketStart100B = 100.0

	// BucketFactor2 doubles each successive bucket.
	BucketFactor2 = 2
	// BucketFactor10 grows buckets by a decade, for wide ranges.
	BucketFactor10 = 10

	// BucketCount6 yields 6 buckets.
	BucketCount6 = 6
	// BucketCount12 yields 12 buckets.
	BucketCount12 = 12
)
