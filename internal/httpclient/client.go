// Package httpclient is the outbound HTTP layer shared by the audio fetcher
// and the model downloader. It wraps http.Client with a default timeout
// tied to the response body lifetime, tuned connection pooling, User-Agent
// injection, and observability hooks.
package httpclient

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	// DefaultTimeout applies to requests whose context has no deadline.
	DefaultTimeout = 30 * time.Second

	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 90 * time.Second

	defaultTLSHandshakeTimeout   = 10 * time.Second
	defaultResponseHeaderTimeout = 10 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultDialTimeout           = 30 * time.Second
	defaultDialKeepAlive         = 30 * time.Second

	defaultUserAgent = "VoiceScreen-Go"
)

// ErrBodyTooLarge is returned by ReadAllCapped when a response body exceeds
// the given size limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// Client is a thread-safe HTTP client. A zero per-request deadline falls
// back to the configured default timeout.
type Client struct {
	client         *http.Client
	defaultTimeout time.Duration
	userAgent      string

	hookMu        sync.RWMutex
	beforeRequest func(*http.Request)
	afterResponse func(*http.Request, *http.Response, error)
}

// Config holds client construction options. Zero values fall back to the
// DefaultConfig equivalents.
type Config struct {
	// DefaultTimeout applies when the request context has no deadline.
	DefaultTimeout time.Duration

	// UserAgent is set on requests that do not carry one.
	UserAgent string

	// Connection pool tuning.
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	// Per-phase transport timeouts.
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	ExpectContinueTimeout time.Duration

	DisableKeepAlives  bool
	DisableCompression bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout:        DefaultTimeout,
		UserAgent:             defaultUserAgent,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshakeTimeout,
		ResponseHeaderTimeout: defaultResponseHeaderTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
	}
}

// New creates a client from cfg. A nil cfg means DefaultConfig; the caller's
// struct is never mutated.
func New(cfg *Config) *Client {
	c := DefaultConfig()
	if cfg != nil {
		c = Config{
			DefaultTimeout:        cmp.Or(cfg.DefaultTimeout, c.DefaultTimeout),
			UserAgent:             cmp.Or(cfg.UserAgent, c.UserAgent),
			MaxIdleConns:          cmp.Or(cfg.MaxIdleConns, c.MaxIdleConns),
			MaxIdleConnsPerHost:   cmp.Or(cfg.MaxIdleConnsPerHost, c.MaxIdleConnsPerHost),
			IdleConnTimeout:       cmp.Or(cfg.IdleConnTimeout, c.IdleConnTimeout),
			TLSHandshakeTimeout:   cmp.Or(cfg.TLSHandshakeTimeout, c.TLSHandshakeTimeout),
			ResponseHeaderTimeout: cmp.Or(cfg.ResponseHeaderTimeout, c.ResponseHeaderTimeout),
			ExpectContinueTimeout: cmp.Or(cfg.ExpectContinueTimeout, c.ExpectContinueTimeout),
			DisableKeepAlives:     cfg.DisableKeepAlives,
			DisableCompression:    cfg.DisableCompression,
		}
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   defaultDialTimeout,
			KeepAlive: defaultDialKeepAlive,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          c.MaxIdleConns,
		MaxIdleConnsPerHost:   c.MaxIdleConnsPerHost,
		IdleConnTimeout:       c.IdleConnTimeout,
		TLSHandshakeTimeout:   c.TLSHandshakeTimeout,
		ResponseHeaderTimeout: c.ResponseHeaderTimeout,
		ExpectContinueTimeout: c.ExpectContinueTimeout,
		DisableKeepAlives:     c.DisableKeepAlives,
		DisableCompression:    c.DisableCompression,
	}

	return &Client{
		// Timeouts are handled per request through contexts, not on the
		// http.Client itself.
		client:         &http.Client{Transport: transport},
		defaultTimeout: c.DefaultTimeout,
		userAgent:      c.UserAgent,
	}
}

func (c *Client) hooks() (before func(*http.Request), after func(*http.Request, *http.Response, error)) {
	c.hookMu.RLock()
	defer c.hookMu.RUnlock()
	return c.beforeRequest, c.afterResponse
}

// Do executes req. A context deadline set by the caller wins; otherwise the
// default timeout applies. On success the caller must close the response
// body, which also releases the timeout.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	// The default timeout's cancel func is tied to the response body below.
	// Cancelling on return would abort the caller's read mid-stream.
	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.defaultTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.defaultTimeout)
	}
	req = req.WithContext(ctx)

	if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	before, after := c.hooks()
	if before != nil {
		before(req)
	}

	resp, err := c.client.Do(req)
	if cancel != nil {
		if err != nil {
			cancel()
		} else {
			resp.Body = &cancelOnCloseBody{ReadCloser: resp.Body, cancel: cancel}
		}
	}

	if after != nil {
		after(req, resp, err)
	}
	return resp, err
}

// cancelOnCloseBody releases the request's timeout context once the caller
// is done with the response body.
type cancelOnCloseBody struct {
	io.ReadCloser
	cancel context.CancelFunc
	once   sync.Once
}

func (b *cancelOnCloseBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.cancel)
	return err
}

// Get issues a GET request for url.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}
	return c.Do(ctx, req)
}

// ReadAllCapped reads r to completion, failing with ErrBodyTooLarge when
// more than limit bytes are available. Response bodies (remote audio, model
// downloads) go through this instead of io.ReadAll.
func ReadAllCapped(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("invalid body size limit %d", limit)
	}

	// One byte past the limit distinguishes exactly-at-limit from over.
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit)
	}
	return data, nil
}

// SetBeforeRequestHook installs fn to run before each request. Safe to call
// concurrently with Do.
func (c *Client) SetBeforeRequestHook(fn func(*http.Request)) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.beforeRequest = fn
}

// SetAfterResponseHook installs fn to run after each request completes or
// fails. Safe to call concurrently with Do.
func (c *Client) SetAfterResponseHook(fn func(*http.Request, *http.Response, error)) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.afterResponse = fn
}

// StandardClient exposes the underlying http.Client for libraries that take
// one, and for installing mock transports in tests.
func (c *Client) StandardClient() *http.Client {
	return c.client
}

// Close drops idle pooled connections.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
