package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/todo-webapp/internal/models"
	"github.com/ayush/todo-webapp/internal/store"
	"github.com/ayush/todo-webapp/internal/web"
)

// IndexPurger lets the cascading user delete notify the todo index.
type IndexPurger interface {
	Purge(userID string)
}

// Handler holds the auth and user-management HTTP handlers.
type Handler struct {
	users    UserStore
	strategy Strategy
	hasher   Hasher
	sessions Carrier
	cookies  *CookieCodec
	views    web.Renderer
	purger   IndexPurger
}

func NewHandler(users UserStore, strategy Strategy, sessions Carrier, cookies *CookieCodec, views web.Renderer, purger IndexPurger) *Handler {
	return &Handler{
		users:    users,
		strategy: strategy,
		sessions: sessions,
		cookies:  cookies,
		views:    views,
		purger:   purger,
	}
}

// ShowRegister renders the registration form.
func (h *Handler) ShowRegister(w http.ResponseWriter, r *http.Request) error {
	h.views.Render(w, http.StatusOK, "register", map[string]any{"Title": "Create User"})
	return nil
}

// Register creates a user and establishes a session for it.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) error {
	username := strings.TrimSpace(r.FormValue("username"))
	password := strings.TrimSpace(r.FormValue("password"))
	confirm := strings.TrimSpace(r.FormValue("confirm_password"))

	var msgs []string
	if username == "" {
		msgs = append(msgs, "Username must not be empty.")
	}
	if password == "" {
		msgs = append(msgs, "Password must not be empty.")
	}
	if confirm == "" {
		msgs = append(msgs, "Confirm Password must not be empty.")
	}
	if len(msgs) == 0 && password != confirm {
		msgs = append(msgs, "Passwords do not match.")
	}
	if len(msgs) > 0 {
		h.views.Render(w, http.StatusBadRequest, "register", map[string]any{
			"Title": "Create User", "Errors": msgs,
		})
		return nil
	}

	hash, err := h.hasher.Hash(password)
	if err != nil {
		return web.Internal(err)
	}

	u, err := h.users.CreateUser(r.Context(), username, hash, false)
	if errors.Is(err, store.ErrUsernameTaken) {
		h.views.Render(w, http.StatusBadRequest, "register", map[string]any{
			"Title": "Create User", "Errors": []string{"Username already taken."},
		})
		return nil
	}
	if err != nil {
		return web.Internal(err)
	}

	return h.establish(w, r, u)
}

// ShowLogin renders the login form.
func (h *Handler) ShowLogin(w http.ResponseWriter, r *http.Request) error {
	h.views.Render(w, http.StatusOK, "login", map[string]any{"Title": "Sign In"})
	return nil
}

// Login authenticates through the active strategy and establishes a
// session. Any credential failure re-renders with one generic message;
// the form never learns whether the username existed.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) error {
	u, err := h.strategy.Authenticate(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if errors.Is(err, ErrBadCredentials) {
		h.views.Render(w, http.StatusUnauthorized, "login", map[string]any{
			"Title": "Sign In", "Errors": []string{"Invalid username or password."},
		})
		return nil
	}
	if err != nil {
		return web.Internal(err)
	}

	return h.establish(w, r, u)
}

// establish issues a fresh session for u and redirects home. Any session
// the browser already held is destroyed first so login always rotates
// the token. The save completes before the redirect depends on it.
func (h *Handler) establish(w http.ResponseWriter, r *http.Request, u *models.User) error {
	if old, ok := h.cookies.ReadCookie(r); ok {
		if err := h.sessions.Destroy(r.Context(), old); err != nil {
			return web.Internal(err)
		}
	}

	token, err := h.sessions.Create(r.Context(), State{UserID: h.strategy.Serialize(u)})
	if err != nil {
		return web.Internal(err)
	}
	h.cookies.SetCookie(w, token)
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

// Logout destroys the session server-side before clearing the cookie. A
// stale cookie replayed afterward resolves to no identity.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) error {
	if token, ok := h.cookies.ReadCookie(r); ok {
		if err := h.sessions.Destroy(r.Context(), token); err != nil {
			return web.Internal(err)
		}
	}
	h.cookies.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

// Users lists every non-admin user. Admin-gated by the router.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) error {
	users, err := h.users.ListNonAdminUsers(r.Context())
	if err != nil {
		return web.Internal(err)
	}
	h.views.Render(w, http.StatusOK, "users", map[string]any{
		"Title": "Users", "Users": users,
	})
	return nil
}

// DeleteUser removes a user and cascades to its todos, then drops the
// user's todo-index slice.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if id == "" {
		return web.BadRequest("No user ID provided.")
	}
	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		return web.Internal(err)
	}
	h.purger.Purge(id)
	http.Redirect(w, r, "/users", http.StatusFound)
	return nil
}
