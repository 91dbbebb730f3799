package api

import (
	"context"
	"net/http"
	"strings"

	"ideaboard/internal/config"
	"ideaboard/internal/state"

	"go.uber.org/zap"
)

type contextKey int

const sessionKey contextKey = iota

// requestSession is what RequireSession resolves a token into.
type requestSession struct {
	Session state.Session
	Profile config.UserProfile
}

// RequireSession rejects requests without a valid token whose session still
// exists, and stores the session on the request context.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := h.Auth.Parse(token)
		if err != nil {
			h.Logger.Debug("Rejected token", zap.Error(err))
			writeError(w, http.StatusUnauthorized, "Invalid or expired session")
			return
		}

		sess, ok := h.Sessions.Get(claims.ID)
		if !ok || sess.Username != claims.Subject {
			writeError(w, http.StatusUnauthorized, "Session has ended")
			return
		}
		profile, ok := h.Config.Profile(sess.Username)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unknown user")
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, requestSession{Session: sess, Profile: profile})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func sessionFrom(r *http.Request) requestSession {
	rs, _ := r.Context().Value(sessionKey).(requestSession)
	return rs
}
