package unsubscribe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/ignite/email-sorter/internal/pkg/httpretry"
)

// browserUserAgent is sent on every request: many unsubscribe gateways
// reject clients that do not identify as a desktop browser.
const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// maxBodyBytes caps how much of a response we read; unsubscribe pages are
// small and anything larger is not worth parsing.
const maxBodyBytes = 4 << 20

// Session is one logical browsing session for a single unsubscribe attempt.
// It owns a cookie jar so cookies set by the initial page visit survive the
// form-submit and link-click sub-steps, and routes every request through a
// retrying transport (bounded retries on 5xx only).
type Session struct {
	doer    httpretry.HTTPDoer
	timeout time.Duration
}

// NewSession creates a session with the given per-attempt timeout and retry
// budget. Callers must create one session per unsubscribe attempt; sessions
// are not safe to share across attempts.
func NewSession(timeout time.Duration, maxRetries int) *Session {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	jar, _ := cookiejar.New(nil)
	hc := &http.Client{Jar: jar, Timeout: timeout}
	return &Session{
		doer:    httpretry.NewRetryClient(hc, maxRetries),
		timeout: timeout,
	}
}

// Visit GETs a page and returns its body text along with the final URL after
// redirects. On any error the original request URL is returned as the final
// URL so callers can still report context.
func (s *Session) Visit(ctx context.Context, pageURL string) (body, finalURL string, err error) {
	resp, err := s.do(ctx, http.MethodGet, pageURL, nil, "")
	if err != nil {
		return "", pageURL, err
	}
	defer resp.Body.Close()

	final := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", final, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, pageURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", final, fmt.Errorf("read body: %w", err)
	}
	return string(data), final, nil
}

// do builds and executes a request with the browser identity attached.
func (s *Session) do(ctx context.Context, method, reqURL string, body io.Reader, contentType string) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := s.doer.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	// The cancel func is tied to the response body's lifetime.
	resp.Body = &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
