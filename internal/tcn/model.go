// Package tcn loads the temporal convolutional network that classifies voice
// recordings and runs inference against it. The model lifecycle is owned by
// Registry; a loaded TCN is safe for concurrent Predict calls.
package tcn

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tphakala/go-tflite"
	"github.com/tphakala/go-tflite/delegates/xnnpack"

	"github.com/cognivox/voicescreen-go/internal/conf"
	"github.com/cognivox/voicescreen-go/internal/cpuspec"
	"github.com/cognivox/voicescreen-go/internal/errors"
	"github.com/cognivox/voicescreen-go/internal/logger"
)

// Tensor geometry of the trained network. The extractor produces frames of
// NumCoefficients values each; the frame axis is padded or truncated to
// ReceptiveField before the forward pass.
const (
	NumCoefficients = 13
	ReceptiveField  = 16384
	numClasses      = 2
)

// TCN wraps a TensorFlow Lite interpreter holding the trained voice
// classification network. Interpreter access is serialized internally, so a
// single TCN can be shared by concurrent requests.
type TCN struct {
	Settings *conf.Settings

	interpreter *tflite.Interpreter
	mu          sync.Mutex
}

// New loads the model file named in the settings and prepares an interpreter
// for inference. The returned TCN is fully allocated and validated.
func New(settings *conf.Settings) (*TCN, error) {
	t := &TCN{Settings: settings}
	if err := t.initializeModel(); err != nil {
		return nil, err
	}
	return t, nil
}

// initializeModel reads the model file and builds the TensorFlow Lite
// interpreter around it.
func (t *TCN) initializeModel() error {
	start := time.Now()

	modelPath, err := resolveModelPath(t.Settings.Model.Path)
	if err != nil {
		return err
	}

	modelData, err := os.ReadFile(modelPath) //nolint:gosec // G304: modelPath is from application settings
	if err != nil {
		return errors.New(err).
			Component("tcn").
			Category(errors.CategoryModelLoad).
			ModelContext(modelPath).
			Timing("model-load", time.Since(start)).
			Build()
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return errors.New(fmt.Errorf("cannot load TensorFlow Lite model")).
			Component("tcn").
			Category(errors.CategoryModelInit).
			ModelContext(modelPath).
			Context("model_size_mb", len(modelData)/1024/1024).
			Context("use_xnnpack", t.Settings.Model.UseXNNPACK).
			Timing("model-init", time.Since(start)).
			Build()
	}

	// Determine the number of threads for the interpreter based on settings and system capacity.
	threads := determineThreadCount(t.Settings.Model.Threads)

	// Configure interpreter options.
	options := tflite.NewInterpreterOptions()

	// Try to use XNNPACK delegate if enabled in settings
	log := GetLogger()
	if t.Settings.Model.UseXNNPACK {
		delegate := xnnpack.New(xnnpack.DelegateOptions{NumThreads: int32(max(1, threads-1))}) //nolint:gosec // G115: thread count bounded by CPU count, safe conversion
		if delegate == nil {
			log.Warn("Failed to create XNNPACK delegate, falling back to default CPU",
				logger.String("tflite_download", "https://github.com/tphakala/tflite_c/releases/tag/v2.17.1"))
			options.SetNumThread(threads)
		} else {
			options.AddDelegate(delegate)
			options.SetNumThread(1)
		}
	} else {
		options.SetNumThread(threads)
	}

	options.SetErrorReporter(func(msg string, user_data any) {
		GetLogger().Error("TFLite error", logger.String("message", msg))
	}, nil)

	// Create and allocate the TensorFlow Lite interpreter.
	t.interpreter = tflite.NewInterpreter(model, options)
	if t.interpreter == nil {
		return errors.New(fmt.Errorf("cannot create TensorFlow Lite interpreter")).
			Component("tcn").
			Category(errors.CategoryModelInit).
			ModelContext(modelPath).
			Build()
	}
	if status := t.interpreter.AllocateTensors(); status != tflite.OK {
		return errors.New(fmt.Errorf("tensor allocation failed")).
			Component("tcn").
			Category(errors.CategoryModelInit).
			ModelContext(modelPath).
			Build()
	}

	if err := t.validateTensorShapes(); err != nil {
		return errors.New(err).
			Component("tcn").
			Category(errors.CategoryModelInit).
			ModelContext(modelPath).
			Build()
	}

	// Force garbage collection to reclaim memory from model loading
	// The model data is no longer needed as TFLite has created its own internal copy
	runtime.GC()

	log.Info("TCN model initialized",
		logger.String("path", modelPath),
		logger.Int("threads", threads),
		logger.Int("total_cpus", runtime.NumCPU()),
		logger.Bool("xnnpack", t.Settings.Model.UseXNNPACK),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

// validateTensorShapes confirms the loaded network matches the feature
// geometry the extractor produces, one [1, NumCoefficients, ReceptiveField]
// input and one [1, numClasses] output.
func (t *TCN) validateTensorShapes() error {
	input := t.interpreter.GetInputTensor(0)
	if input == nil {
		return fmt.Errorf("cannot get input tensor")
	}
	if dims := tensorDims(input); !slices.Equal(dims, []int{1, NumCoefficients, ReceptiveField}) {
		return fmt.Errorf("unexpected input tensor shape %v, want [1 %d %d]", dims, NumCoefficients, ReceptiveField)
	}

	output := t.interpreter.GetOutputTensor(0)
	if output == nil {
		return fmt.Errorf("cannot get output tensor")
	}
	if dims := tensorDims(output); !slices.Equal(dims, []int{1, numClasses}) {
		return fmt.Errorf("unexpected output tensor shape %v, want [1 %d]", dims, numClasses)
	}
	return nil
}

// tensorDims returns the full shape of a tensor.
func tensorDims(tensor *tflite.Tensor) []int {
	dims := make([]int, tensor.NumDims())
	for i := range dims {
		dims[i] = tensor.Dim(i)
	}
	return dims
}

// Delete frees up resources used by the TensorFlow Lite interpreter.
func (t *TCN) Delete() {
	if t.interpreter != nil {
		t.interpreter.Delete()
	}
}

// resolveModelPath expands environment variables and a leading ~ in the
// configured model path.
func resolveModelPath(path string) (string, error) {
	if path == "" {
		return "", errors.Newf("model path is not configured").
			Component("tcn").
			Category(errors.CategoryConfiguration).
			Build()
	}

	// Expand environment variables first
	path = os.ExpandEnv(path)

	// Then expand ~ to home directory if needed
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", errors.New(err).
				Component("tcn").
				Category(errors.CategoryFileIO).
				Context("path", path).
				Build()
		}
		path = filepath.Join(homeDir, path[2:])
	}

	return path, nil
}

// determineThreadCount calculates the appropriate number of interpreter
// threads based on settings and system capabilities.
func determineThreadCount(configuredThreads int) int {
	systemCpuCount := runtime.NumCPU()

	// If threads are configured to 0, try to get optimal count from cpuspec
	if configuredThreads == 0 {
		optimalThreads := cpuspec.Detect().OptimalThreadCount()
		if optimalThreads > 0 {
			return min(optimalThreads, systemCpuCount)
		}

		// If cpuspec doesn't know the CPU, use all available cores
		return systemCpuCount
	}

	// If threads are configured but exceed system CPU count, limit to system CPU count
	if configuredThreads > systemCpuCount {
		return systemCpuCount
	}

	return configuredThreads
}
