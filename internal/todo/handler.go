package todo

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/todo-webapp/internal/auth"
	"github.com/ayush/todo-webapp/internal/middleware"
	"github.com/ayush/todo-webapp/internal/web"
)

// Handler holds the home page and todo HTTP handlers.
type Handler struct {
	svc      *Service
	sessions auth.Carrier
	views    web.Renderer
}

func NewHandler(svc *Service, sessions auth.Carrier, views web.Renderer) *Handler {
	return &Handler{svc: svc, sessions: sessions, views: views}
}

// Home renders the todo listing for an authenticated visitor, or the
// anonymous landing page. Pending flash messages are shown once and
// cleared, with the clearing save completed before the render.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) error {
	sess := middleware.CurrentSession(r)

	flash := sess.State.Flash
	if len(flash) > 0 && sess.Token != "" {
		sess.State.Flash = nil
		if err := h.sessions.Save(r.Context(), sess.Token, sess.State); err != nil {
			log.Printf("clear flash: %v", err)
		}
	}

	if sess.User == nil {
		h.views.Render(w, http.StatusOK, "index", map[string]any{
			"Title": "Home", "Flash": flash,
		})
		return nil
	}

	todos, err := h.svc.List(r.Context(), sess.User.ID)
	if err != nil {
		return web.Internal(err)
	}
	h.views.Render(w, http.StatusOK, "index", map[string]any{
		"Title": "Home", "User": sess.User, "Todos": todos, "Flash": flash,
	})
	return nil
}

// ShowCreate renders the new-todo form.
func (h *Handler) ShowCreate(w http.ResponseWriter, r *http.Request) error {
	h.views.Render(w, http.StatusOK, "create_todo", map[string]any{"Title": "Create Todo"})
	return nil
}

// Create stores a new todo for the current user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) error {
	title := strings.TrimSpace(r.FormValue("todo"))
	if title == "" {
		h.views.Render(w, http.StatusBadRequest, "create_todo", map[string]any{
			"Title": "Create Todo", "Errors": []string{"Todo must not be empty."},
		})
		return nil
	}

	if _, err := h.svc.Create(r.Context(), middleware.CurrentUser(r).ID, title); err != nil {
		return web.Internal(err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

// ShowEdit renders the edit form for one todo, addressed by payload id.
func (h *Handler) ShowEdit(w http.ResponseWriter, r *http.Request) error {
	payloadID, err := todoID(r)
	if err != nil {
		return err
	}

	p, err := h.svc.Find(r.Context(), middleware.CurrentUser(r).ID, payloadID)
	if errors.Is(err, ErrNotFound) {
		return web.NotFound("Todo not found.")
	}
	if err != nil {
		return web.Internal(err)
	}

	h.views.Render(w, http.StatusOK, "edit_todo", map[string]any{
		"Title": "Edit Todo", "Todo": p,
	})
	return nil
}

// Edit replaces a todo's title and completion flag. The payload id is
// preserved across the update.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) error {
	payloadID, err := todoID(r)
	if err != nil {
		return err
	}

	title := strings.TrimSpace(r.FormValue("todo"))
	completed := r.FormValue("completed") == "true"
	if title == "" {
		h.views.Render(w, http.StatusBadRequest, "edit_todo", map[string]any{
			"Title":  "Edit Todo",
			"Errors": []string{"Todo must not be empty."},
			"Todo":   map[string]any{"ID": payloadID, "Title": title, "Completed": completed},
		})
		return nil
	}

	err = h.svc.Update(r.Context(), middleware.CurrentUser(r).ID, payloadID, title, completed)
	if errors.Is(err, ErrNotFound) {
		return web.NotFound("Todo not found.")
	}
	if err != nil {
		return web.Internal(err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

// Delete removes one todo, addressed by payload id.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) error {
	payloadID, err := todoID(r)
	if err != nil {
		return err
	}

	err = h.svc.Delete(r.Context(), middleware.CurrentUser(r).ID, payloadID)
	if errors.Is(err, ErrNotFound) {
		return web.NotFound("Todo not found.")
	}
	if err != nil {
		return web.Internal(err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

// todoID extracts the payload id route parameter. Its absence is a
// malformed request, distinct from an id that fails to resolve.
func todoID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if id == "" {
		return "", web.BadRequest("No Todo ID provided.")
	}
	return id, nil
}
