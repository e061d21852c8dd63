package todo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ayush/todo-webapp/internal/models"
	"github.com/ayush/todo-webapp/internal/store"
)

// ErrNotFound means no todo owned by the user carries the payload id.
var ErrNotFound = errors.New("todo not found")

// TodoStore defines the interface for todo persistence.
type TodoStore interface {
	ListTodosForUser(ctx context.Context, userID string) ([]models.Todo, error)
	InsertTodo(ctx context.Context, userID string, payload models.TodoPayload) (int64, error)
	UpdateTodo(ctx context.Context, rowID int64, payload models.TodoPayload) error
	DeleteTodo(ctx context.Context, rowID int64) error
}

// Service implements the todo identity scheme: each todo's payload
// carries its own client-facing id, independent of the surrogate row id
// the store assigns. Because the payload id lives inside the encoded
// column, the store cannot look it up directly; Service keeps an explicit
// per-user index from payload id to row id, maintained on writes and
// rebuilt from a full owned-row scan on miss.
type Service struct {
	store TodoStore

	mu    sync.Mutex
	index map[string]map[string]int64 // userID -> payloadID -> rowID
}

func NewService(st TodoStore) *Service {
	return &Service{store: st, index: make(map[string]map[string]int64)}
}

// Create stores a new incomplete todo under a fresh payload id.
func (s *Service) Create(ctx context.Context, userID, title string) (string, error) {
	p := models.TodoPayload{ID: uuid.NewString(), Title: title, Completed: false}
	rowID, err := s.store.InsertTodo(ctx, userID, p)
	if err != nil {
		return "", err
	}
	s.remember(userID, p.ID, rowID)
	return p.ID, nil
}

// List returns the user's todos in row order and refreshes the index as
// a side effect.
func (s *Service) List(ctx context.Context, userID string) ([]models.TodoPayload, error) {
	todos, err := s.scan(ctx, userID)
	if err != nil {
		return nil, err
	}
	payloads := make([]models.TodoPayload, len(todos))
	for i, t := range todos {
		payloads[i] = t.Payload
	}
	return payloads, nil
}

// Find resolves a payload id to the current payload. The lookup decodes
// every row the user owns; constant time is not provided.
func (s *Service) Find(ctx context.Context, userID, payloadID string) (models.TodoPayload, error) {
	todos, err := s.scan(ctx, userID)
	if err != nil {
		return models.TodoPayload{}, err
	}
	for _, t := range todos {
		if t.Payload.ID == payloadID {
			return t.Payload, nil
		}
	}
	return models.TodoPayload{}, ErrNotFound
}

// Update fully replaces the payload behind payloadID, preserving the id.
func (s *Service) Update(ctx context.Context, userID, payloadID, title string, completed bool) error {
	p := models.TodoPayload{ID: payloadID, Title: title, Completed: completed}
	return s.withRow(ctx, userID, payloadID, func(rowID int64) error {
		return s.store.UpdateTodo(ctx, rowID, p)
	})
}

// Delete removes the owning row behind payloadID.
func (s *Service) Delete(ctx context.Context, userID, payloadID string) error {
	return s.withRow(ctx, userID, payloadID, func(rowID int64) error {
		return s.store.DeleteTodo(ctx, rowID)
	})
}

// withRow resolves payloadID to its row and applies op. A stale index
// entry (row changed underneath this process) is dropped and resolution
// retried once from a fresh scan.
func (s *Service) withRow(ctx context.Context, userID, payloadID string, op func(rowID int64) error) error {
	rowID, ok := s.lookup(userID, payloadID)
	if ok {
		err := op(rowID)
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		s.forget(userID, payloadID)
	}

	if _, err := s.scan(ctx, userID); err != nil {
		return err
	}
	rowID, ok = s.lookup(userID, payloadID)
	if !ok {
		return ErrNotFound
	}
	if err := op(rowID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.forget(userID, payloadID)
			return ErrNotFound
		}
		return err
	}
	return nil
}

// scan lists the user's rows and rebuilds that user's index slice.
func (s *Service) scan(ctx context.Context, userID string) ([]models.Todo, error) {
	todos, err := s.store.ListTodosForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("scan todos: %w", err)
	}

	fresh := make(map[string]int64, len(todos))
	for _, t := range todos {
		fresh[t.Payload.ID] = t.RowID
	}
	s.mu.Lock()
	s.index[userID] = fresh
	s.mu.Unlock()

	return todos, nil
}

func (s *Service) lookup(userID, payloadID string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rowID, ok := s.index[userID][payloadID]
	return rowID, ok
}

func (s *Service) remember(userID, payloadID string, rowID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.index[userID]
	if !ok {
		m = make(map[string]int64)
		s.index[userID] = m
	}
	m[payloadID] = rowID
}

// Purge drops a user's entire index slice. Called after a cascading user
// delete so stale row ids don't linger.
func (s *Service) Purge(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.index, userID)
}

func (s *Service) forget(userID, payloadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.index[userID], payloadID)
}
