package tcn

import (
	"math"
	"time"

	"github.com/tphakala/go-tflite"

	"github.com/cognivox/voicescreen-go/internal/errors"
	"github.com/cognivox/voicescreen-go/internal/logger"
)

// Classification labels emitted by Predict.
const (
	LabelNormal   = "normal"
	LabelDementia = "dementia_detected"
)

// Result is the outcome of classifying one recording.
type Result struct {
	Label        string  // LabelNormal or LabelDementia
	ProbNormal   float64 // probability of the normal class
	ProbDementia float64 // probability of the dementia class
	Confidence   float64 // probability of the winning class
}

// Predict classifies one recording from its MFCC feature frames. The frames
// are laid out channels first and padded or truncated to the receptive field
// before the forward pass. The interpreter is locked for the duration of the
// pass, so concurrent callers queue up rather than interleave.
func (t *TCN) Predict(features [][]float32) (*Result, error) {
	start := time.Now()

	input, err := buildInput(features)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	inputTensor := t.interpreter.GetInputTensor(0)
	if inputTensor == nil {
		return nil, errors.Newf("cannot get input tensor").
			Component("tcn").
			Category(errors.CategoryInference).
			Build()
	}
	copy(inputTensor.Float32s(), input)

	invokeStart := time.Now()
	if status := t.interpreter.Invoke(); status != tflite.OK {
		return nil, errors.Newf("tensor invoke failed: %v", status).
			Component("tcn").
			Category(errors.CategoryInference).
			Timing("inference", time.Since(start)).
			Build()
	}
	if m := getMetrics(); m != nil {
		m.RecordModelInvoke(time.Since(invokeStart).Seconds())
	}

	outputTensor := t.interpreter.GetOutputTensor(0)
	if outputTensor == nil {
		return nil, errors.Newf("cannot get output tensor").
			Component("tcn").
			Category(errors.CategoryInference).
			Build()
	}
	logits := extractLogits(outputTensor)
	if len(logits) != numClasses {
		return nil, errors.Newf("unexpected output size %d, want %d", len(logits), numClasses).
			Component("tcn").
			Category(errors.CategoryInference).
			Build()
	}

	probs, err := softmax(logits)
	if err != nil {
		return nil, err
	}

	// The trained network emits class 0 = dementia, class 1 = normal.
	result := resultFromProbabilities(probs[0], probs[1])
	if m := getMetrics(); m != nil {
		m.RecordResult(result.Label)
	}

	GetLogger().Debug("Prediction complete",
		logger.String("label", result.Label),
		logger.Float64("confidence", result.Confidence),
		logger.Int("frames", len(features)),
		logger.Duration("elapsed", time.Since(start)))
	return result, nil
}

// resultFromProbabilities picks the label. Dementia wins only above 0.5, an
// exact tie counts as normal.
func resultFromProbabilities(probDementia, probNormal float64) *Result {
	result := &Result{
		Label:        LabelNormal,
		ProbNormal:   probNormal,
		ProbDementia: probDementia,
		Confidence:   probNormal,
	}
	if probDementia > 0.5 {
		result.Label = LabelDementia
		result.Confidence = probDementia
	}
	return result
}

// buildInput transposes [frames][NumCoefficients] features into the channels
// first layout the network expects, zero padding or truncating the frame axis
// to ReceptiveField.
func buildInput(features [][]float32) ([]float32, error) {
	if len(features) == 0 {
		return nil, errors.Newf("no feature frames to classify").
			Component("tcn").
			Category(errors.CategoryInference).
			Build()
	}
	for i := range features {
		if len(features[i]) != NumCoefficients {
			return nil, errors.Newf("feature frame %d has %d coefficients, want %d", i, len(features[i]), NumCoefficients).
				Component("tcn").
				Category(errors.CategoryInference).
				Build()
		}
	}

	frames := min(len(features), ReceptiveField)
	input := make([]float32, NumCoefficients*ReceptiveField)
	for f := 0; f < frames; f++ {
		for c := 0; c < NumCoefficients; c++ {
			input[c*ReceptiveField+f] = features[f][c]
		}
	}
	return input, nil
}

// extractLogits copies the raw scores out of the output tensor.
func extractLogits(tensor *tflite.Tensor) []float32 {
	size := tensor.Dim(tensor.NumDims() - 1)
	logits := make([]float32, size)
	copy(logits, tensor.Float32s())
	return logits
}

// softmax converts logits to probabilities. The maximum logit is subtracted
// before exponentiation so large scores do not overflow.
func softmax(logits []float32) ([]float64, error) {
	maxLogit := math.Inf(-1)
	for _, l := range logits {
		v := float64(l)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Newf("model produced non-finite output: %v", v).
				Component("tcn").
				Category(errors.CategoryInference).
				Build()
		}
		if v > maxLogit {
			maxLogit = v
		}
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		probs[i] = math.Exp(float64(l) - maxLogit)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs, nil
}
