package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayush/todo-webapp/internal/models"
)

var (
	// ErrNotFound means no row matched the lookup.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken means the username unique constraint fired.
	ErrUsernameTaken = errors.New("username already taken")
)

const uniqueViolation = "23505"

// PostgresStore handles user and todo persistence against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users and todos tables if they don't exist. The todo
// column holds the JSON-encoded payload; the payload's own id is not a
// column, so it is not indexable here.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id       UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username VARCHAR(50)  UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			is_admin BOOLEAN      NOT NULL DEFAULT FALSE
		);
		CREATE TABLE IF NOT EXISTS todos (
			id      BIGSERIAL PRIMARY KEY,
			user_id UUID NOT NULL,
			todo    TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS todos_user_id_idx ON todos (user_id)
	`)
	return err
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, hashedPassword string, isAdmin bool) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password, is_admin)
		 VALUES ($1, $2, $3)
		 RETURNING id, username, password, is_admin`,
		username, hashedPassword, isAdmin,
	).Scan(&u.ID, &u.Username, &u.Password, &u.IsAdmin)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password, is_admin FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.Password, &u.IsAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password, is_admin FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.Password, &u.IsAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) ListNonAdminUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, username, is_admin FROM users WHERE is_admin = FALSE ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.IsAdmin); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser removes a user and all todos owned by it in one transaction.
func (s *PostgresStore) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("delete user: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM todos WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("delete user todos: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ListTodosForUser(ctx context.Context, userID string) ([]models.Todo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, todo FROM todos WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var todos []models.Todo
	for rows.Next() {
		var (
			t   models.Todo
			raw string
		)
		if err := rows.Scan(&t.RowID, &t.UserID, &raw); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		if t.Payload, err = models.DecodePayload(raw); err != nil {
			return nil, fmt.Errorf("decode todo %d: %w", t.RowID, err)
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

func (s *PostgresStore) InsertTodo(ctx context.Context, userID string, payload models.TodoPayload) (int64, error) {
	raw, err := models.EncodePayload(payload)
	if err != nil {
		return 0, fmt.Errorf("encode todo: %w", err)
	}
	var rowID int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO todos (user_id, todo) VALUES ($1, $2) RETURNING id`,
		userID, raw,
	).Scan(&rowID)
	if err != nil {
		return 0, fmt.Errorf("insert todo: %w", err)
	}
	return rowID, nil
}

func (s *PostgresStore) UpdateTodo(ctx context.Context, rowID int64, payload models.TodoPayload) error {
	raw, err := models.EncodePayload(payload)
	if err != nil {
		return fmt.Errorf("encode todo: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE todos SET todo = $1 WHERE id = $2`, raw, rowID)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteTodo(ctx context.Context, rowID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1`, rowID)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
