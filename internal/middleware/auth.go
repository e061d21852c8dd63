package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/ayush/todo-webapp/internal/auth"
	"github.com/ayush/todo-webapp/internal/models"
	"github.com/ayush/todo-webapp/internal/web"
)

type ctxKey struct{}

// Session is the per-request view of the carrier state: the verified
// token, the stored state, and the identity deserialized from it. User is
// nil for anonymous requests.
type Session struct {
	Token string
	State auth.State
	User  *models.User
}

// CurrentSession returns the request's session, never nil once
// WithSession has run.
func CurrentSession(r *http.Request) *Session {
	if s, ok := r.Context().Value(ctxKey{}).(*Session); ok {
		return s
	}
	return &Session{}
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(r *http.Request) *models.User {
	return CurrentSession(r).User
}

// WithSession restores identity from the session cookie into the request
// context. The strategy's Deserialize runs at most once per request. A
// token that fails signature, lookup, or identity resolution yields an
// anonymous session rather than an error; identity resolution for a
// since-deleted user fails closed the same way.
func WithSession(carrier auth.Carrier, codec *auth.CookieCodec, strategy auth.Strategy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := &Session{}

			if token, ok := codec.ReadCookie(r); ok {
				state, err := carrier.Get(r.Context(), token)
				switch {
				case err == nil:
					sess.Token = token
					sess.State = state
					if state.UserID != "" {
						u, err := strategy.Deserialize(r.Context(), state.UserID)
						if err == nil {
							sess.User = u
						} else if !errors.Is(err, auth.ErrNoIdentity) {
							log.Printf("deserialize identity: %v", err)
						}
					}
				case errors.Is(err, auth.ErrNoSession):
					// stale cookie, carry on anonymous
				default:
					log.Printf("session restore: %v", err)
				}
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(responder *web.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if CurrentUser(r) == nil {
				responder.Error(w, r, web.Unauthorized())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin redirects anonymous visitors to the login page with a
// flash notice and rejects non-admin users with 403.
func RequireAdmin(carrier auth.Carrier, codec *auth.CookieCodec, responder *web.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := CurrentUser(r)
			if u == nil {
				redirectWithFlash(w, r, carrier, codec, "Please sign in first.")
				return
			}
			if !u.IsAdmin {
				responder.Error(w, r, web.Forbidden())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// redirectWithFlash records a one-shot notice and sends the visitor to
// the login page. The session save completes before the redirect is
// written.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, carrier auth.Carrier, codec *auth.CookieCodec, msg string) {
	sess := CurrentSession(r)
	sess.State.Flash = append(sess.State.Flash, msg)

	if sess.Token == "" {
		token, err := carrier.Create(r.Context(), sess.State)
		if err != nil {
			log.Printf("create session: %v", err)
		} else {
			sess.Token = token
			codec.SetCookie(w, token)
		}
	} else if err := carrier.Save(r.Context(), sess.Token, sess.State); err != nil {
		log.Printf("save session: %v", err)
	}

	http.Redirect(w, r, "/login", http.StatusFound)
}
