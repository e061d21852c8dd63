package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/ayush/todo-webapp/internal/models"
	"github.com/ayush/todo-webapp/internal/store"
)

var (
	// ErrBadCredentials is the single failure answer for login attempts.
	// Whether the username was unknown or the password wrong is never
	// revealed to the client.
	ErrBadCredentials = errors.New("invalid username or password")
	// ErrNoIdentity means a serialized identity no longer resolves to a
	// user, typically because the user was deleted after login.
	ErrNoIdentity = errors.New("no identity")
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, hashedPassword string, isAdmin bool) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListNonAdminUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// Strategy is a swappable way of establishing and re-establishing an
// identity: Authenticate checks credentials once at login, Serialize
// reduces the identity to the token kept in the session, and Deserialize
// resolves that token back to a user on each request.
type Strategy interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	Serialize(u *models.User) string
	Deserialize(ctx context.Context, id string) (*models.User, error)
}

// LocalStrategy checks a username/password pair against the user store.
type LocalStrategy struct {
	users  UserStore
	hasher Hasher
}

func NewLocalStrategy(users UserStore) *LocalStrategy {
	return &LocalStrategy{users: users}
}

// Authenticate resolves credentials to a user. Empty or whitespace-only
// credentials fail before any store or bcrypt work. A store failure is
// surfaced as-is so it becomes a 500, not a silent "no match".
func (s *LocalStrategy) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, ErrBadCredentials
	}

	u, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(password, u.Password) {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// Serialize reduces a user to the id stored in the session. Sessions are
// keyed on this server-validated id only, never on anything the client
// supplied.
func (s *LocalStrategy) Serialize(u *models.User) string { return u.ID }

// Deserialize resolves a stored id back to the current user row. A
// deleted user fails closed with ErrNoIdentity.
func (s *LocalStrategy) Deserialize(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoIdentity
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
