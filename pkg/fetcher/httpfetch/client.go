// Package httpfetch provides a fetcher.Fetcher that loads partner pages over
// plain HTTP. Pages are returned as served; no script is executed.
package httpfetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"domainscan/pkg/fetcher"
	"domainscan/pkg/serrors"

	"golang.org/x/net/html/charset"
)

const (
	// DefaultUserAgent is sent when Options.UserAgent is empty.
	DefaultUserAgent = "Mozilla/5.0 (compatible; domainscan/1.0)"
	// DefaultMaxBodyBytes bounds how much of a page is read.
	DefaultMaxBodyBytes int64 = 8 << 20
)

// Options configures the HTTP fetcher.
type Options struct {
	UserAgent    string
	MaxBodyBytes int64
	// Transport is used by every session. http.DefaultTransport is used when nil.
	Transport http.RoundTripper
}

// Client opens HTTP sessions. It is safe for concurrent use.
type Client struct {
	opts Options
}

// New constructs a Client, filling in defaults for unset options.
func New(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}

	return &Client{opts: opts}
}

// Open creates a session with its own cookie jar so that partner pages see one
// consistent visitor for the duration of a scan.
func (c *Client) Open(ctx context.Context) (fetcher.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, serrors.Wrap(serrors.ErrUnavailable, err, "could not open session")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrUnavailable, err, "could not create cookie jar")
	}

	return &Session{
		httpClient: &http.Client{Transport: c.opts.Transport, Jar: jar},
		userAgent:  c.opts.UserAgent,
		maxBytes:   c.opts.MaxBodyBytes,
	}, nil
}

// Session fetches pages sharing one cookie jar.
type Session struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
}

// ParseRetryAfter reads the Retry-After header, which is either a number of
// seconds or an HTTP date. It returns false when the header is absent or
// malformed.
func ParseRetryAfter(h http.Header, now time.Time) (time.Duration, bool) {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}

		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d, true
		}

		return 0, true
	}

	return 0, false
}

// Fetch loads URL and returns its body decoded to UTF-8.
func (s *Session) Fetch(ctx context.Context, URL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, URL, nil)
	if err != nil {
		return "", serrors.Wrap(serrors.ErrFetchFailed, err, "could not create request")
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", classify(ctx, err, "could not send request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		if wait, ok := ParseRetryAfter(resp.Header, time.Now()); ok {
			return "", serrors.Wrap(serrors.ErrRateLimited, &fetcher.RetryAfterError{Wait: wait}, "rate limited")
		}

		return "", serrors.With(serrors.ErrRateLimited, "rate limited")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", serrors.With(serrors.ErrFetchFailed, "unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return "", classify(ctx, err, "could not read response body")
	}
	if int64(len(raw)) > s.maxBytes {
		return "", serrors.With(serrors.ErrFetchFailed, "page exceeds %d bytes", s.maxBytes)
	}

	body, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", serrors.Wrap(serrors.ErrFetchFailed, err, "could not detect page encoding")
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", serrors.Wrap(serrors.ErrFetchFailed, err, "could not decode page")
	}

	return string(b), nil
}

// Close drops idle connections held by the session.
func (s *Session) Close() error {
	s.httpClient.CloseIdleConnections()

	return nil
}

func classify(ctx context.Context, err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return serrors.Wrap(serrors.ErrTimeout, err, "%s", msg)
	}
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return serrors.Wrap(serrors.ErrTimeout, err, "%s", msg)
	}

	return serrors.Wrap(serrors.ErrFetchFailed, err, "%s", msg)
}

var (
	_ fetcher.Fetcher = (*Client)(nil)
	_ fetcher.Session = (*Session)(nil)
)
