package unsubscribe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSession avoids retry delays in tests.
func newTestSession(t *testing.T) *Session {
	t.Helper()
	return NewSession(5*time.Second, 0)
}

func TestSubmitFormPost(t *testing.T) {
	var gotBody string
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		io.WriteString(w, "You have been unsubscribed.")
	}))
	defer srv.Close()

	form := Form{
		SubmitURL: srv.URL + "/confirm",
		Method:    "POST",
		Fields:    []FormField{{Name: "token", Value: "abc123"}},
	}

	ok := SubmitForm(context.Background(), newTestSession(t), form)
	assert.True(t, ok)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "token=abc123", gotBody)
}

func TestSubmitFormGetAppendsQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		gotQuery = r.URL.RawQuery
		io.WriteString(w, "Success, preferences saved.")
	}))
	defer srv.Close()

	form := Form{
		SubmitURL: srv.URL + "/u?id=42",
		Method:    "GET",
		Fields:    []FormField{{Name: "token", Value: "abc123"}},
	}

	ok := SubmitForm(context.Background(), newTestSession(t), form)
	assert.True(t, ok)
	assert.Equal(t, "id=42&token=abc123", gotQuery)
}

func TestSubmitFormUnconvincingResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "Please check your inbox to finish.")
	}))
	defer srv.Close()

	form := Form{SubmitURL: srv.URL, Method: "POST"}
	assert.False(t, SubmitForm(context.Background(), newTestSession(t), form))
}

func TestSubmitFormErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Body says success but the status disqualifies it.
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, "unsubscribed")
	}))
	defer srv.Close()

	form := Form{SubmitURL: srv.URL, Method: "GET"}
	assert.False(t, SubmitForm(context.Background(), newTestSession(t), form))
}

func TestClickLinksStopsAtFirstSuccess(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch r.URL.Path {
		case "/bad":
			w.WriteHeader(http.StatusNotFound)
		case "/maybe":
			io.WriteString(w, "Are you sure?")
		case "/good":
			io.WriteString(w, "You have been removed from the list.")
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	links := []Link{
		{URL: srv.URL + "/bad", Text: "Unsubscribe"},
		{URL: srv.URL + "/maybe", Text: "Confirm"},
		{URL: srv.URL + "/good", Text: "Remove me"},
		{URL: srv.URL + "/never", Text: "Unsubscribe"},
	}

	ok := ClickLinks(context.Background(), newTestSession(t), links)
	assert.True(t, ok)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits), "should stop before the fourth link")
}

func TestClickLinksExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "nothing to see here")
	}))
	defer srv.Close()

	links := []Link{{URL: srv.URL + "/a"}, {URL: srv.URL + "/b"}}
	assert.False(t, ClickLinks(context.Background(), newTestSession(t), links))
}

func TestClickLinksEmpty(t *testing.T) {
	assert.False(t, ClickLinks(context.Background(), newTestSession(t), nil))
}

func TestSessionVisitFinalURLAfterRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/center/page", http.StatusFound)
	})
	mux.HandleFunc("/center/page", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "preference center")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	body, finalURL, err := newTestSession(t).Visit(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	assert.Equal(t, "preference center", body)
	assert.Equal(t, srv.URL+"/center/page", finalURL)
}

func TestSessionVisitErrorKeepsOriginalURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, finalURL, err := newTestSession(t).Visit(context.Background(), srv.URL+"/gone")
	require.Error(t, err)
	assert.Equal(t, srv.URL+"/gone", finalURL)
}

func TestSessionSendsBrowserUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	_, _, err := newTestSession(t).Visit(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, browserUserAgent, gotUA)
}

func TestSessionCookiesSurviveAcrossRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/first", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "xyz"})
		io.WriteString(w, "ok")
	})
	var gotCookie string
	mux.HandleFunc("/second", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sid"); err == nil {
			gotCookie = c.Value
		}
		io.WriteString(w, "ok")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := newTestSession(t)
	_, _, err := s.Visit(context.Background(), srv.URL+"/first")
	require.NoError(t, err)
	_, _, err = s.Visit(context.Background(), srv.URL+"/second")
	require.NoError(t, err)
	assert.Equal(t, "xyz", gotCookie)
}
