package unsubscribe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	return NewEngine(WithTimeout(5*time.Second), WithMaxRetries(0))
}

func headerFor(rawURL string) []Header {
	return []Header{{Name: "List-Unsubscribe", Value: "<" + rawURL + ">"}}
}

func TestAttemptNoTarget(t *testing.T) {
	out := newTestEngine().Attempt(context.Background(), nil, "<p>Nothing to click.</p>")
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, "no unsubscribe link found", out.Err)
}

func TestAttemptSocialLinksOnly(t *testing.T) {
	body := `<p>Unsubscribe options are in your account settings.</p>
		<a href="https://facebook.com/acme">Facebook</a>
		<a href="https://twitter.com/acme">Twitter</a>`

	out := newTestEngine().Attempt(context.Background(), nil, body)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, "no unsubscribe link found", out.Err)
}

func TestAttemptMailtoBlocked(t *testing.T) {
	headers := []Header{{Name: "List-Unsubscribe", Value: "<mailto:unsub@acme.com>"}}

	out := newTestEngine().Attempt(context.Background(), headers, "")
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, "requires sending email, cannot automate", out.Err)
}

func TestAttemptVisitFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	out := newTestEngine().Attempt(context.Background(), headerFor(srv.URL+"/u"), "")
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, "failed to visit page", out.Err)
}

func TestAttemptOneClickSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<h1>You have been unsubscribed</h1>")
	}))
	defer srv.Close()

	out := newTestEngine().Attempt(context.Background(), headerFor(srv.URL+"/u"), "")
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, "already unsubscribed or one-click successful", out.Message)
}

func TestAttemptFormSubmission(t *testing.T) {
	var gotToken atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/u", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<h1>Unsubscribe from our mailing list</h1>
			<form action="/confirm" method="post">
				<p>Click below to opt out.</p>
				<input type="hidden" name="token" value="abc123">
				<button type="submit">Unsubscribe</button>
			</form>`)
	})
	mux.HandleFunc("/confirm", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		gotToken.Store(r.PostFormValue("token"))
		io.WriteString(w, "You have been removed from the list.")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out := newTestEngine().Attempt(context.Background(), headerFor(srv.URL+"/u"), "")
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, "unsubscribed via form submission", out.Message)
	assert.Equal(t, "abc123", gotToken.Load())
}

func TestAttemptConfirmationLink(t *testing.T) {
	// Login-walled page with a bare confirmation link and no form.
	mux := http.NewServeMux()
	mux.HandleFunc("/u", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<p>Please verify your request.</p>
			<a href="/confirm?id=42">Click here to unsubscribe</a>`)
	})
	mux.HandleFunc("/confirm", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "42", r.URL.Query().Get("id"))
		io.WriteString(w, "You have been successfully removed.")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out := newTestEngine().Attempt(context.Background(), headerFor(srv.URL+"/u"), "")
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, "unsubscribed via confirmation link", out.Message)
}

func TestAttemptPartialWhenNothingActionable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<p>Please log in to manage your subscription.</p>")
	}))
	defer srv.Close()

	target := srv.URL + "/u"
	out := newTestEngine().Attempt(context.Background(), headerFor(target), "")
	assert.Equal(t, StatusPartial, out.Status)
	assert.Equal(t, target, out.URL)
	assert.Contains(t, out.Message, "could not auto-complete")
}

func TestAttemptResolvesAgainstFinalURL(t *testing.T) {
	// The header URL redirects to the real preference center; the form's
	// relative action must resolve against the post-redirect location.
	mux := http.NewServeMux()
	mux.HandleFunc("/go", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/prefs/center", http.StatusFound)
	})
	mux.HandleFunc("/prefs/center", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<form action="confirm" method="post">Unsubscribe<input type="hidden" name="t" value="1"></form>`)
	})
	var confirmed atomic.Bool
	mux.HandleFunc("/prefs/confirm", func(w http.ResponseWriter, r *http.Request) {
		confirmed.Store(true)
		io.WriteString(w, "unsubscribed")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out := newTestEngine().Attempt(context.Background(), headerFor(srv.URL+"/go"), "")
	assert.Equal(t, StatusSuccess, out.Status)
	assert.True(t, confirmed.Load())
}

func TestAttemptLinkClickCap(t *testing.T) {
	var clicks int32
	mux := http.NewServeMux()
	mux.HandleFunc("/u", func(w http.ResponseWriter, r *http.Request) {
		page := "<p>Pick an option below.</p>"
		for i := 0; i < 8; i++ {
			page += fmt.Sprintf(`<a href="/opt/%d">Unsubscribe option %d</a>`, i, i)
		}
		io.WriteString(w, page)
	})
	mux.HandleFunc("/opt/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&clicks, 1)
		io.WriteString(w, "still thinking about it")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	eng := NewEngine(WithTimeout(5*time.Second), WithMaxRetries(0), WithMaxLinkClicks(2))
	out := eng.Attempt(context.Background(), headerFor(srv.URL+"/u"), "")
	assert.Equal(t, StatusPartial, out.Status)
	assert.Equal(t, int32(2), atomic.LoadInt32(&clicks))
}

func TestAttemptBodyTargetWhenHeaderAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "You are unsubscribed.")
	}))
	defer srv.Close()

	body := fmt.Sprintf(`<a href="%s/u">Unsubscribe</a>`, srv.URL)
	out := newTestEngine().Attempt(context.Background(), nil, body)
	assert.Equal(t, StatusSuccess, out.Status)
}

func TestAttemptUnreachableHost(t *testing.T) {
	// Reserved TEST-NET address, nothing listens there.
	out := NewEngine(WithTimeout(500*time.Millisecond), WithMaxRetries(0)).
		Attempt(context.Background(), headerFor("http://192.0.2.1:9/u"), "")
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, "failed to visit page", out.Err)
}
