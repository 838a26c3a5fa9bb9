package tcn

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cognivox/voicescreen-go/internal/conf"
	"github.com/cognivox/voicescreen-go/internal/errors"
	"github.com/cognivox/voicescreen-go/internal/httpclient"
	"github.com/cognivox/voicescreen-go/internal/logger"
)

const (
	// modelDownloadTimeout bounds the whole model download request.
	modelDownloadTimeout = 5 * time.Minute

	// maxModelSize caps how many bytes of a model download are accepted.
	maxModelSize = 512 << 20
)

// State describes where the registry is in the model lifecycle.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateFailed
)

// String returns the lowercase state name used in logs and status payloads.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Registry owns the model lifecycle. It starts Unloaded, moves to Loading
// while an attempt is in flight, and settles in Ready or Failed. Ready is
// terminal and the published handle is never replaced. Failed keeps the error
// and the next EnsureReady call retries the load.
type Registry struct {
	settings *conf.Settings

	// loader performs one load attempt. Tests swap in a stub.
	loader func(ctx context.Context) (*TCN, error)

	group singleflight.Group

	mu           sync.Mutex
	state        State
	model        *TCN
	lastErr      error
	loadAttempts int
}

// NewRegistry returns a registry in the Unloaded state. Nothing is loaded
// until StartBackgroundLoad or EnsureReady is called.
func NewRegistry(settings *conf.Settings) *Registry {
	r := &Registry{settings: settings}
	r.loader = r.loadModel
	return r
}

// StartBackgroundLoad kicks off the startup load attempt without blocking the
// caller. A failure is logged and left in place for EnsureReady to retry.
func (r *Registry) StartBackgroundLoad(ctx context.Context) {
	go func() {
		if _, err := r.EnsureReady(ctx); err != nil {
			GetLogger().Error("Background model load failed", logger.Error(err))
		}
	}()
}

// EnsureReady returns the loaded model, triggering a load attempt when none
// is in flight. Concurrent callers share a single attempt and its outcome.
// A caller that gives up through ctx does not cancel the shared load.
func (r *Registry) EnsureReady(ctx context.Context) (*TCN, error) {
	r.mu.Lock()
	if r.state == StateReady {
		model := r.model
		r.mu.Unlock()
		return model, nil
	}
	r.mu.Unlock()

	ch := r.group.DoChan("model", func() (any, error) {
		return r.load(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*TCN), nil
	case <-ctx.Done():
		return nil, errors.New(ctx.Err()).
			Component("tcn").
			Category(errors.CategoryTimeout).
			Context("operation", "model-load-wait").
			Build()
	}
}

// load runs one attempt and publishes the outcome. It only ever executes
// inside the singleflight group, so at most one attempt is in flight.
func (r *Registry) load(ctx context.Context) (*TCN, error) {
	r.mu.Lock()
	if r.state == StateReady {
		// A caller raced a completed load, hand out the existing model.
		model := r.model
		r.mu.Unlock()
		return model, nil
	}
	r.state = StateLoading
	r.loadAttempts++
	attempt := r.loadAttempts
	r.mu.Unlock()

	start := time.Now()
	model, err := r.loader(ctx)
	if m := getMetrics(); m != nil {
		m.RecordModelLoad(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.state = StateFailed
		r.lastErr = err
		GetLogger().Error("Model load failed",
			logger.Int("attempt", attempt),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err))
		return nil, err
	}

	r.state = StateReady
	r.model = model
	r.lastErr = nil
	GetLogger().Info("Model ready",
		logger.Int("attempt", attempt),
		logger.Duration("elapsed", time.Since(start)))
	return model, nil
}

// State reports the current lifecycle state.
func (r *Registry) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Loaded reports whether the model is ready to serve predictions.
func (r *Registry) Loaded() bool {
	return r.State() == StateReady
}

// LastError returns the error from the most recent failed attempt, nil once
// the model is ready.
func (r *Registry) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// LoadAttempts returns how many load attempts have started.
func (r *Registry) LoadAttempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadAttempts
}

// loadModel is the production loader. It makes sure the model file exists
// locally, downloading it when a source URL is configured, then builds the
// interpreter from it.
func (r *Registry) loadModel(ctx context.Context) (*TCN, error) {
	if err := r.ensureModelFile(ctx); err != nil {
		return nil, err
	}
	return New(r.settings)
}

// ensureModelFile downloads the model to the configured path when the file
// is missing and a download URL is configured.
func (r *Registry) ensureModelFile(ctx context.Context) error {
	modelPath, err := resolveModelPath(r.settings.Model.Path)
	if err != nil {
		return err
	}

	if _, err := os.Stat(modelPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.New(err).
			Component("tcn").
			Category(errors.CategoryFileIO).
			Context("path", modelPath).
			Build()
	}

	if r.settings.Model.URL == "" {
		return errors.Newf("model file not found at %s and no model URL is configured", modelPath).
			Component("tcn").
			Category(errors.CategoryModelLoad).
			ModelContext(modelPath).
			Build()
	}

	return r.downloadModel(ctx, modelPath)
}

// downloadModel fetches the model over HTTP and writes it to modelPath. The
// write goes through a temp file in the target directory, renamed only after
// the download completed, so a partial file never shows up at the model path.
func (r *Registry) downloadModel(ctx context.Context, modelPath string) error {
	start := time.Now()
	log := GetLogger()
	log.Info("Downloading model",
		logger.String("url", r.settings.Model.URL),
		logger.String("path", modelPath))

	client := httpclient.New(&httpclient.Config{DefaultTimeout: modelDownloadTimeout})
	defer client.Close()

	resp, err := client.Get(ctx, r.settings.Model.URL)
	if err != nil {
		return errors.New(err).
			Component("tcn").
			Category(errors.CategoryModelLoad).
			NetworkContext(r.settings.Model.URL, modelDownloadTimeout).
			Context("operation", "model-download").
			Build()
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warn("Failed to close model download body", logger.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("model download failed: HTTP %d - %s", resp.StatusCode, http.StatusText(resp.StatusCode)).
			Component("tcn").
			Category(errors.CategoryModelLoad).
			NetworkContext(r.settings.Model.URL, modelDownloadTimeout).
			Context("status_code", resp.StatusCode).
			Build()
	}

	data, err := httpclient.ReadAllCapped(resp.Body, maxModelSize)
	if err != nil {
		return errors.New(err).
			Component("tcn").
			Category(errors.CategoryModelLoad).
			NetworkContext(r.settings.Model.URL, modelDownloadTimeout).
			Context("operation", "model-download-read").
			Build()
	}

	if err := os.MkdirAll(filepath.Dir(modelPath), 0o755); err != nil {
		return errors.New(err).
			Component("tcn").
			Category(errors.CategoryFileIO).
			Context("path", filepath.Dir(modelPath)).
			Build()
	}

	tmp, err := os.CreateTemp(filepath.Dir(modelPath), ".model-*.tmp")
	if err != nil {
		return errors.New(err).
			Component("tcn").
			Category(errors.CategoryFileIO).
			Context("path", filepath.Dir(modelPath)).
			Build()
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.New(err).
			Component("tcn").
			Category(errors.CategoryFileIO).
			Context("path", tmpPath).
			Build()
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.New(err).
			Component("tcn").
			Category(errors.CategoryFileIO).
			Context("path", tmpPath).
			Build()
	}
	if err := os.Rename(tmpPath, modelPath); err != nil {
		_ = os.Remove(tmpPath)
		return errors.New(err).
			Component("tcn").
			Category(errors.CategoryFileIO).
			Context("path", tmpPath).
			Build()
	}

	log.Info("Model downloaded",
		logger.Int("bytes", len(data)),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}
