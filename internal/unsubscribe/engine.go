package unsubscribe

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/email-sorter/internal/pkg/logger"
)

// Status is the tri-state result of one unsubscribe attempt.
type Status int

const (
	// StatusFailed means no automatable mechanism was found or it could
	// not be reached.
	StatusFailed Status = iota
	// StatusPartial means the page was visited but no safe automatable
	// action completed; a human can follow up via Outcome.URL.
	StatusPartial
	// StatusSuccess means the unsubscribe was confirmed.
	StatusSuccess
)

// Outcome is the result of one message's unsubscribe attempt.
type Outcome struct {
	Status  Status
	Message string // set for Success and Partial
	URL     string // set for Partial: where a human should follow up
	Err     string // set for Failed
}

func success(message string) Outcome { return Outcome{Status: StatusSuccess, Message: message} }
func failed(reason string) Outcome   { return Outcome{Status: StatusFailed, Err: reason} }

func partial(message, url string) Outcome {
	return Outcome{Status: StatusPartial, Message: message, URL: url}
}

// Engine runs unsubscribe attempts. It is stateless across messages: every
// attempt owns its own HTTP session, so attempts for distinct messages may
// run concurrently.
type Engine struct {
	timeout       time.Duration
	maxRetries    int
	maxLinkClicks int
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout overrides the default 15s per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithMaxRetries overrides the transport retry budget.
func WithMaxRetries(n int) Option {
	return func(e *Engine) { e.maxRetries = n }
}

// WithMaxLinkClicks caps how many candidate links are attempted per page,
// bounding tail latency.
func WithMaxLinkClicks(n int) Option {
	return func(e *Engine) { e.maxLinkClicks = n }
}

// NewEngine creates an unsubscribe engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		timeout:       15 * time.Second,
		maxRetries:    3,
		maxLinkClicks: 5,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Attempt walks one message through the unsubscribe state machine:
//
//	HeaderCheck → MailtoBlocked | NoTargetFound | PageVisit
//	PageVisit   → VisitFailed | AlreadyDone | FormAttempt
//	FormAttempt → FormSucceeded | LinkAttempt
//	LinkAttempt → LinkSucceeded | Exhausted
//
// Attempt never panics and never returns an error: anything thrown by a
// lower layer is converted to a Failed outcome so one message can never
// abort a batch.
func (e *Engine) Attempt(ctx context.Context, headers []Header, htmlBody string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("unsubscribe: attempt panicked", "panic", fmt.Sprintf("%v", r))
			out = failed(fmt.Sprintf("internal error: %v", r))
		}
	}()

	target := FindTarget(headers, htmlBody)
	if target == nil {
		return failed("no unsubscribe link found")
	}
	if target.IsMailto {
		return failed("requires sending email, cannot automate")
	}

	logger.Debug("unsubscribe: visiting target", "url", target.URL, "source", target.Source.String())

	// One session per attempt: cookies set by the landing page must be
	// presented again on the form submit / link clicks.
	session := NewSession(e.timeout, e.maxRetries)

	pageText, finalURL, err := session.Visit(ctx, target.URL)
	if err != nil {
		logger.Warn("unsubscribe: page visit failed", "url", target.URL, "error", err)
		return failed("failed to visit page")
	}

	if AlreadyDone(pageText) {
		return success("already unsubscribed or one-click successful")
	}

	// Candidates resolve against the final URL: tracking domains redirect
	// to the real preference center, and relative actions belong there.
	for _, form := range ExtractForms(pageText, finalURL) {
		if SubmitForm(ctx, session, form) {
			return success("unsubscribed via form submission")
		}
	}

	links := ExtractLinks(pageText, finalURL)
	if len(links) > e.maxLinkClicks {
		links = links[:e.maxLinkClicks]
	}
	if ClickLinks(ctx, session, links) {
		return success("unsubscribed via confirmation link")
	}

	return partial("visited page but could not auto-complete; login or JavaScript may be required", target.URL)
}
