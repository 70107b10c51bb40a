package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool the Postgres repositories use.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Entity is a base interface for all entities.
type Entity interface {
	GetID() string
}

// InMemoryRepository is a mutex-guarded map keyed by entity ID.
// It backs the memory storage driver.
type InMemoryRepository[T Entity] struct {
	mu   sync.RWMutex
	data map[string]T
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository[T Entity]() *InMemoryRepository[T] {
	return &InMemoryRepository[T]{
		data: make(map[string]T),
	}
}

// GetByID retrieves an entity by ID.
func (r *InMemoryRepository[T]) GetByID(ctx context.Context, id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T
	if entity, ok := r.data[id]; ok {
		return entity, nil
	}
	return zero, ErrNotFound
}

// GetAll retrieves all entities ordered by ID.
func (r *InMemoryRepository[T]) GetAll(ctx context.Context) ([]T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entities := make([]T, 0, len(r.data))
	for _, entity := range r.data {
		entities = append(entities, entity)
	}
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].GetID() < entities[j].GetID()
	})
	return entities, nil
}

// Count returns the number of stored entities.
func (r *InMemoryRepository[T]) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data), nil
}

// Create creates a new entity.
func (r *InMemoryRepository[T]) Create(ctx context.Context, entity T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[entity.GetID()]; ok {
		return ErrAlreadyExists
	}
	r.data[entity.GetID()] = entity
	return nil
}

// Delete deletes an entity by ID.
func (r *InMemoryRepository[T]) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// Common repository errors
var (
	ErrNotFound      = &RepositoryError{Code: "NOT_FOUND", Message: "entity not found"}
	ErrAlreadyExists = &RepositoryError{Code: "ALREADY_EXISTS", Message: "entity already exists"}
)

// RepositoryError represents a repository error.
type RepositoryError struct {
	Code    string
	Message string
}

func (e *RepositoryError) Error() string {
	return e.Code + ": " + e.Message
}
