package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/kpcyrd/spotify-launcher/internal/logger"
	"github.com/kpcyrd/spotify-launcher/internal/version"
)

const (
	// DefaultConnectTimeout bounds connection establishment when no timeout is configured.
	DefaultConnectTimeout = 10 * time.Second
	// DefaultTimeout bounds every other operation when no timeout is configured.
	DefaultTimeout = 30 * time.Second

	maxRedirects = 8
)

// Client fetches repository files over HTTP.
type Client struct {
	http           *http.Client
	userAgent      string
	connectTimeout time.Duration
	timeout        time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds connecting and every single operation by d.
// Zero disables bounding altogether.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.connectTimeout = d
		c.timeout = d
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithHTTPClient replaces the underlying client. The redirect limit is
// applied unless the client has its own policy.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

// New creates a Client. Without options it connects within 10s and fails
// operations that stall for 30s.
func New(opts ...Option) *Client {
	c := &Client{
		userAgent:      version.UserAgent(),
		connectTimeout: DefaultConnectTimeout,
		timeout:        DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = newHTTPClient(c.connectTimeout)
	} else {
		cp := *c.http
		c.http = &cp
	}

	if c.http.CheckRedirect == nil {
		c.http.CheckRedirect = checkRedirect
	}

	return c
}

func newHTTPClient(connectTimeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}

	//nolint:exhaustruct // Zero values are the net/http defaults.
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: connectTimeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		ForceAttemptHTTP2: true,
		// Bodies are hashed and resumed byte for byte.
		DisableCompression: true,
	}

	return &http.Client{Transport: transport}
}

func checkRedirect(_ *http.Request, via []*http.Request) error {
	if len(via) > maxRedirects {
		return fmt.Errorf("after %d hops: %w", maxRedirects, ErrTooManyRedirects)
	}

	return nil
}

// Timeout is the per-operation timeout, 0 when disabled.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Fetch downloads url into memory.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	logger.Debugf(ctx, "Fetching %q", url)

	ctx, dog := newWatchdog(ctx, c.timeout)
	defer dog.stop()

	resp, err := c.send(ctx, dog, url, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	dog.arm()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("read response of %s: %w", url, err))
	}

	logger.Debugf(ctx, "Fetched %d bytes", len(body))

	return body, nil
}

// FetchStream opens url for streaming, starting at offset. A non-zero
// offset must be answered with 206 Partial Content starting exactly there.
func (c *Client) FetchStream(ctx context.Context, url string, offset uint64) (*Stream, error) {
	logger.DebugKV(ctx, "Opening download stream", "url", url, "offset", offset)

	var header http.Header
	if offset > 0 {
		header = http.Header{"Range": []string{fmt.Sprintf("bytes=%d-", offset)}}
	}

	ctx, dog := newWatchdog(ctx, c.timeout)

	resp, err := c.send(ctx, dog, url, header)
	if err != nil {
		dog.stop()

		return nil, err
	}

	total, err := streamTotal(resp, offset)
	if err != nil {
		resp.Body.Close()
		dog.stop()

		return nil, fmt.Errorf("%s: %w", url, err)
	}

	return &Stream{
		ctx:      ctx,
		body:     resp.Body,
		dog:      dog,
		buf:      make([]byte, chunkSize),
		progress: offset,
		total:    total,
	}, nil
}

// send performs a GET and returns the response of a 2xx status.
// The header phase is bounded by the watchdog.
func (c *Client) send(ctx context.Context, dog *watchdog, url string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request for %s: %w", url, err)
	}

	for key, values := range header {
		req.Header[key] = values
	}

	req.Header.Set("User-Agent", c.userAgent)

	dog.arm()
	resp, err := c.http.Do(req)
	dog.disarm()

	if err != nil {
		return nil, classify(ctx, fmt.Errorf("send request to %s: %w", url, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()

		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	return resp, nil
}

// classify attaches ErrTimeout or ErrNetwork to err. Cancellation of the
// caller's context is left unmarked, so it is never retried.
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(context.Cause(ctx), errInactive):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, ErrTooManyRedirects):
		return err
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %w", err, ctx.Err())
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %w", ErrNetwork, err)
}
