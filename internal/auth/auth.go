// Package auth implements Google OAuth login and cookie sessions. A login
// links the user's Gmail account: the OAuth token is stored with the
// account so the background processor can read the mailbox later.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ignite/email-sorter/internal/config"
	"github.com/ignite/email-sorter/internal/pkg/logger"
	"github.com/ignite/email-sorter/internal/session"
	"github.com/ignite/email-sorter/internal/store"
)

const defaultUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// scopes cover reading and archiving mail plus basic profile info.
var scopes = []string{
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/gmail.modify",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// GoogleUserInfo is the profile returned by Google's userinfo endpoint.
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// UserStore is the persistence surface the login flow needs.
type UserStore interface {
	UpsertUser(ctx context.Context, email, name string) (*store.User, error)
	UpsertGmailAccount(ctx context.Context, userID uuid.UUID, email, credentials string) (*store.GmailAccount, error)
}

// Manager handles the OAuth flow and request authentication.
type Manager struct {
	cfg          config.AuthConfig
	oauth        *oauth2.Config
	sessions     session.Store
	users        UserStore
	userinfoURL  string
	exemptPaths  map[string]bool
	exemptPrefix []string
}

// NewManager creates an auth manager. baseURL is the externally visible
// origin used to build the OAuth redirect URL.
func NewManager(authCfg config.AuthConfig, googleCfg config.GoogleConfig, baseURL string, sessions session.Store, users UserStore) *Manager {
	return &Manager{
		cfg: authCfg,
		oauth: &oauth2.Config{
			ClientID:     googleCfg.ClientID,
			ClientSecret: googleCfg.ClientSecret,
			RedirectURL:  strings.TrimRight(baseURL, "/") + "/auth/callback",
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
		sessions:    sessions,
		users:       users,
		userinfoURL: defaultUserinfoURL,
		exemptPaths: map[string]bool{
			"/":                       true,
			"/health":                 true,
			"/api/process-emails":     true,
			"/api/emails/unsubscribe": true,
		},
		exemptPrefix: []string{"/auth/"},
	}
}

// OAuthConfig exposes the OAuth client config so stored account tokens can
// be turned into Gmail clients.
func (m *Manager) OAuthConfig() *oauth2.Config { return m.oauth }

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// HandleLogin starts the Google OAuth flow. Offline access is requested so
// the stored token carries a refresh token for background mailbox reads.
func (m *Manager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	url := m.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// HandleCallback finishes the flow: verifies state, exchanges the code,
// stores the user and their Gmail credentials, and sets the session cookie.
func (m *Manager) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || r.URL.Query().Get("state") != stateCookie.Value {
		logger.Warn("auth: state mismatch on callback")
		http.Redirect(w, r, "/?error=invalid_state", http.StatusTemporaryRedirect)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		logger.Warn("auth: provider returned error", "error", errMsg)
		http.Redirect(w, r, "/?error="+errMsg, http.StatusTemporaryRedirect)
		return
	}

	token, err := m.oauth.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		logger.Error("auth: code exchange failed", "error", err)
		http.Redirect(w, r, "/?error=exchange_failed", http.StatusTemporaryRedirect)
		return
	}

	userInfo, err := m.getUserInfo(r.Context(), token)
	if err != nil {
		logger.Error("auth: userinfo fetch failed", "error", err)
		http.Redirect(w, r, "/?error=userinfo_failed", http.StatusTemporaryRedirect)
		return
	}

	user, err := m.users.UpsertUser(r.Context(), userInfo.Email, userInfo.Name)
	if err != nil {
		logger.Error("auth: user upsert failed", "error", err)
		http.Redirect(w, r, "/?error=login_failed", http.StatusTemporaryRedirect)
		return
	}

	credentials, err := json.Marshal(token)
	if err != nil {
		http.Redirect(w, r, "/?error=login_failed", http.StatusTemporaryRedirect)
		return
	}
	if _, err := m.users.UpsertGmailAccount(r.Context(), user.ID, userInfo.Email, string(credentials)); err != nil {
		logger.Error("auth: gmail account upsert failed", "error", err)
		http.Redirect(w, r, "/?error=login_failed", http.StatusTemporaryRedirect)
		return
	}

	sess, err := m.sessions.Create(r.Context(), user.ID, user.Email, m.cfg.SessionTTL())
	if err != nil {
		logger.Error("auth: session create failed", "error", err)
		http.Redirect(w, r, "/?error=session_failed", http.StatusTemporaryRedirect)
		return
	}

	logger.Info("auth: user logged in", "email", user.Email)

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   m.cfg.CookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// HandleLogout drops the session and clears the cookie.
func (m *Manager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(m.cfg.CookieName); err == nil {
		if err := m.sessions.Delete(r.Context(), cookie.Value); err != nil {
			logger.Warn("auth: session delete failed", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{Name: m.cfg.CookieName, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// HandleMe reports the current login state as JSON.
func (m *Manager) HandleMe(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	sess := m.GetSession(r)
	if sess == nil {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"authenticated": false})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"authenticated": true,
		"user": map[string]string{
			"id":    sess.UserID.String(),
			"email": sess.Email,
		},
	})
}

// GetSession returns the request's session, or nil when unauthenticated.
func (m *Manager) GetSession(r *http.Request) *session.Session {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return nil
	}
	sess, err := m.sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	return sess
}

type contextKey struct{}

// SessionFromContext returns the session injected by RequireAuth.
func SessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(contextKey{}).(*session.Session)
	return sess
}

// RequireAuth rejects unauthenticated /api/ requests with a 401 JSON body.
// Auth endpoints, the health check, and the endpoints the scheduler calls
// stay open. When auth is disabled in config, everything passes through.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.cfg.Enabled || m.isExempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		sess := m.GetSession(r)
		if sess == nil {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, sess)))
	})
}

func (m *Manager) isExempt(path string) bool {
	if m.exemptPaths[path] {
		return true
	}
	for _, prefix := range m.exemptPrefix {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (m *Manager) getUserInfo(ctx context.Context, token *oauth2.Token) (*GoogleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		m.userinfoURL+"?access_token="+token.AccessToken, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}
	info := &GoogleUserInfo{}
	if err := json.NewDecoder(resp.Body).Decode(info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("userinfo missing email")
	}
	return info, nil
}
