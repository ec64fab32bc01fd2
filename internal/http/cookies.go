package http

import (
	"context"
	"net/http"

	"finsight/internal/log"
	"finsight/internal/session"
)

type sessionKey struct{}

// withSession resolves the browser's session from its cookie, issuing a new
// ID when the cookie is missing or malformed. The ID is put on the request
// context and the request logger.
func (s *Server) withSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(s.cookieName); err == nil && session.ValidID(c.Value) {
			id = c.Value
		} else {
			id = session.NewID()
		}
		// refreshed on every request so the cookie outlives activity, not creation
		http.SetCookie(w, &http.Cookie{
			Name:     s.cookieName,
			Value:    id,
			Path:     "/",
			MaxAge:   int(s.sessionTTL.Seconds()),
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})

		ctx := context.WithValue(r.Context(), sessionKey{}, id)
		ctx = log.WithLogger(ctx, log.FromContext(ctx).WithComponent(log.ComponentHTTP).With(log.FieldSessionID, id))
		next(w, r.WithContext(ctx))
	})
}

// sessionID returns the ID set by withSession.
func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionKey{}).(string)
	return id
}
