// Package fetcher downloads remote audio referenced by prediction requests.
// URLs are classified structurally before any network traffic: signed URLs
// carry their own time-limited credentials, public object URLs need none,
// and everything else may use a caller-supplied bearer credential.
package fetcher

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cognivox/voicescreen-go/internal/conf"
	"github.com/cognivox/voicescreen-go/internal/errors"
	"github.com/cognivox/voicescreen-go/internal/httpclient"
	"github.com/cognivox/voicescreen-go/internal/logger"
)

// retryBaseDelay is the backoff before the first retry, doubled per attempt.
const retryBaseDelay = 500 * time.Millisecond

// URLKind classifies how a remote audio URL should be fetched.
type URLKind int

const (
	// Public object URLs are fetched without credentials.
	Public URLKind = iota
	// Signed URLs embed a time-limited token issued by the storage provider.
	Signed
	// BearerRequired URLs may need a caller-supplied bearer credential.
	BearerRequired
)

func (k URLKind) String() string {
	switch k {
	case Public:
		return "public"
	case Signed:
		return "signed"
	case BearerRequired:
		return "bearer-required"
	default:
		return "unknown"
	}
}

// signedQueryParams mark a URL as carrying its own time-limited credential.
var signedQueryParams = []string{"token", "X-Amz-Signature", "sig", "se"}

// Classify inspects rawURL structurally. It is pure and never touches the
// network, so authorization branching is testable without a server.
func Classify(rawURL string) URLKind {
	u, err := url.Parse(rawURL)
	if err != nil {
		return BearerRequired
	}

	if strings.Contains(u.Path, "/object/sign/") {
		return Signed
	}
	query := u.Query()
	for _, param := range signedQueryParams {
		if query.Has(param) {
			return Signed
		}
	}
	if strings.Contains(u.Path, "/object/public/") {
		return Public
	}
	return BearerRequired
}

// NormalizeBearer returns the Authorization header value for a credential
// supplied with or without the "Bearer " prefix.
func NormalizeBearer(credential string) string {
	if credential == "" || strings.HasPrefix(credential, "Bearer ") {
		return credential
	}
	return "Bearer " + credential
}

// Request identifies one remote audio object.
type Request struct {
	URL    string
	Bearer string // optional credential, with or without the "Bearer " prefix
}

// Fetcher downloads remote audio with a bounded timeout, bounded body size
// and bounded retries on connection-level failures.
type Fetcher struct {
	client      *httpclient.Client
	retries     int
	timeout     time.Duration
	maxBodySize int64
}

// New creates a Fetcher from the fetch settings.
func New(settings *conf.Settings) *Fetcher {
	timeout := time.Duration(settings.Fetch.Timeout) * time.Second
	return &Fetcher{
		client:      httpclient.New(&httpclient.Config{DefaultTimeout: timeout}),
		retries:     settings.Fetch.Retries,
		timeout:     timeout,
		maxBodySize: settings.Fetch.MaxBodySize,
	}
}

// Fetch downloads the audio object named by req. HTTP 401/403/404 map to
// their error categories and are never retried; connection-level failures
// are retried up to the configured attempt budget with a short backoff.
func (f *Fetcher) Fetch(ctx context.Context, req Request) ([]byte, error) {
	kind := Classify(req.URL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, http.NoBody)
	if err != nil {
		return nil, errors.New(err).
			Component("fetcher").
			Category(errors.CategoryNetwork).
			Context("operation", "build-request").
			Build()
	}
	if kind == BearerRequired && req.Bearer != "" {
		httpReq.Header.Set("Authorization", NormalizeBearer(req.Bearer))
	}

	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			GetLogger().Warn("Retrying remote audio fetch",
				logger.String("url", req.URL),
				logger.Int("attempt", attempt+1),
				logger.Duration("backoff", delay),
				logger.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, fetchError(ctx.Err(), req.URL)
			case <-time.After(delay):
			}
		}

		data, retryable, err := f.fetchOnce(ctx, httpReq)
		if err == nil {
			GetLogger().Debug("Fetched remote audio",
				logger.String("url", req.URL),
				logger.String("kind", kind.String()),
				logger.Int("bytes", len(data)),
				logger.Duration("elapsed", time.Since(start)))
			return data, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

// fetchOnce performs a single GET attempt. The retryable result is true only
// for connection-level failures while the caller's context is still live.
func (f *Fetcher) fetchOnce(ctx context.Context, httpReq *http.Request) (data []byte, retryable bool, err error) {
	resp, err := f.client.Do(ctx, httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, fetchError(err, httpReq.URL.String())
		}
		return nil, true, fetchError(err, httpReq.URL.String())
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, false, errors.Newf("Unauthorized: Invalid or missing authentication token. For Supabase, provide a valid Bearer token.").
			Component("fetcher").
			Category(errors.CategoryUnauthorized).
			Context("operation", "fetch").
			Context("status_code", resp.StatusCode).
			Build()
	case http.StatusForbidden:
		return nil, false, errors.Newf("Forbidden: Access denied. Check if the file is public or use a signed URL with proper authentication.").
			Component("fetcher").
			Category(errors.CategoryForbidden).
			Context("operation", "fetch").
			Context("status_code", resp.StatusCode).
			Build()
	case http.StatusNotFound:
		return nil, false, errors.Newf("File not found at the provided URL.").
			Component("fetcher").
			Category(errors.CategoryNotFound).
			Context("operation", "fetch").
			Context("status_code", resp.StatusCode).
			Build()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, false, errors.Newf("Error downloading file: HTTP %d - %s", resp.StatusCode, http.StatusText(resp.StatusCode)).
			Component("fetcher").
			Category(errors.CategoryNetwork).
			Context("operation", "fetch").
			Context("status_code", resp.StatusCode).
			Build()
	}

	data, err = httpclient.ReadAllCapped(resp.Body, f.maxBodySize)
	if err != nil {
		if errors.Is(err, httpclient.ErrBodyTooLarge) {
			return nil, false, errors.Newf("Remote file exceeds the maximum allowed size of %d bytes", f.maxBodySize).
				Component("fetcher").
				Category(errors.CategoryValidation).
				Context("operation", "read-body").
				Context("max_body_size", f.maxBodySize).
				Build()
		}
		// Interrupted body read, worth another attempt
		return nil, true, fetchError(err, httpReq.URL.String())
	}
	return data, false, nil
}

// fetchError wraps a connection-level failure in the network category with
// the user-facing guidance message.
func fetchError(cause error, rawURL string) error {
	return errors.Newf("Error accessing URL: %v. Check if the URL is valid and accessible.", cause).
		Component("fetcher").
		Category(errors.CategoryNetwork).
		Context("operation", "fetch").
		Context("url", rawURL).
		Build()
}
