package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"

	"github.com/cybercell/complaint-portal-api/config"
	"github.com/cybercell/complaint-portal-api/services"
)

// SessionCookieName is the HTTP-only cookie carrying a citizen session token
const SessionCookieName = "cyb_token"

// tokenCacheTTL bounds how long a verified token is trusted without re-parsing
const tokenCacheTTL = 5 * time.Minute

// sessionExpiresExt is the auth.Info extension holding the token's exp as unix seconds
const sessionExpiresExt = "expires"

// SessionAuth authenticates citizens by their session token, taken from a bearer
// Authorization header or the session cookie
type SessionAuth struct {
	authenticator auth.Authenticator
	sessions      *services.SessionIssuer
	now           func() time.Time
}

// NewSessionAuth sets up a go-guardian bearer strategy that verifies tokens with sessions
func NewSessionAuth(sessions *services.SessionIssuer) *SessionAuth {
	s := &SessionAuth{sessions: sessions, now: time.Now}
	cache := store.NewFIFO(context.Background(), tokenCacheTTL)
	s.authenticator = auth.New()
	s.authenticator.EnableStrategy(bearer.CachedStrategyKey, bearer.New(s.validateToken, cache))
	return s
}

func (s *SessionAuth) validateToken(_ context.Context, _ *http.Request, token string) (auth.Info, error) {
	claims, err := s.sessions.Parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("session token has no subject")
	}
	var ext map[string][]string
	if claims.ExpiresAt != nil {
		ext = map[string][]string{sessionExpiresExt: {strconv.FormatInt(claims.ExpiresAt.Unix(), 10)}}
	}
	return auth.NewDefaultUser(claims.Email, claims.Subject, nil, ext), nil
}

// expired reports whether a cached identity has outlived its token
func (s *SessionAuth) expired(user auth.Info) bool {
	v := user.Extensions()[sessionExpiresExt]
	if len(v) == 0 {
		return false
	}
	exp, err := strconv.ParseInt(v[0], 10, 64)
	if err != nil {
		return true
	}
	return !s.now().Before(time.Unix(exp, 0))
}

// Middleware rejects requests without a valid session and stores the citizen in
// the request context otherwise
func (s *SessionAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
				r = r.Clone(r.Context())
				r.Header.Set("Authorization", "Bearer "+c.Value)
			}
		}
		user, err := s.authenticator.Authenticate(r)
		if err == nil && s.expired(user) {
			err = errors.New("session token has expired")
		}
		if err != nil {
			zap.S().Debugw("unauthorized", "url", r.URL.String(), "requestId", RequestID(r.Context()))
			config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}
