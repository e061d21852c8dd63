package web

import (
	"errors"
	"fmt"
	"log"
	"net/http"
)

// Error is a request-level failure carrying the status code and the
// message shown to the client. Err holds the underlying cause and is
// logged server-side only.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// BadRequest reports malformed input (missing route parameter, empty form).
func BadRequest(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

// Unauthorized reports a protected route reached without an identity.
func Unauthorized() *Error {
	return &Error{Status: http.StatusUnauthorized, Message: "Unauthorized"}
}

// Forbidden reports an authenticated identity lacking the required role.
func Forbidden() *Error {
	return &Error{Status: http.StatusForbidden, Message: "Forbidden"}
}

// NotFound reports an unresolvable resource identifier.
func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Message: msg}
}

// Internal wraps a store or hashing failure. The client sees a generic
// message; the cause is logged by the responder.
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "Internal Server Error", Err: err}
}

// HandlerFunc is an http handler that reports failure instead of writing
// it, so every error funnels through one responder.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// Responder renders the error view for every failed request.
type Responder struct {
	views Renderer
}

func NewResponder(views Renderer) *Responder {
	return &Responder{views: views}
}

// Handle adapts a HandlerFunc into a stdlib handler, routing any returned
// error through Error.
func (rp *Responder) Handle(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			rp.Error(w, r, err)
		}
	}
}

// Error maps err to a status and renders the generic error view. Unknown
// errors are treated as internal failures.
func (rp *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	var we *Error
	if !errors.As(err, &we) {
		we = Internal(err)
	}
	if we.Err != nil {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, we.Err)
	}
	rp.views.Render(w, we.Status, "error", map[string]any{
		"Title":   "Error",
		"Status":  we.Status,
		"Message": we.Message,
	})
}
