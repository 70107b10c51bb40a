package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Spell is a reference word with its catalog attributes.
type Spell struct {
	Name        string `json:"spell"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Difficulty  string `json:"difficulty"`
}

// GetID returns the spell name, which is its key.
func (s *Spell) GetID() string {
	return s.Name
}

// SpellRepository defines the interface for spell data access.
type SpellRepository interface {
	ListAll(ctx context.Context) ([]*Spell, error)
	GetByName(ctx context.Context, name string) (*Spell, error)
	Count(ctx context.Context) (int, error)
	InsertMany(ctx context.Context, spells []*Spell) (int, error)
}

// PostgresSpellRepository implements SpellRepository with PostgreSQL.
type PostgresSpellRepository struct {
	db DBTX
}

// NewPostgresSpellRepository creates a new PostgresSpellRepository.
func NewPostgresSpellRepository(db DBTX) *PostgresSpellRepository {
	return &PostgresSpellRepository{db: db}
}

// ListAll returns every spell ordered by name.
func (r *PostgresSpellRepository) ListAll(ctx context.Context) ([]*Spell, error) {
	query := `
		SELECT name, description, type, difficulty
		FROM spells
		ORDER BY name ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list spells: %w", err)
	}
	defer rows.Close()

	spells := make([]*Spell, 0)
	for rows.Next() {
		var s Spell
		if err := rows.Scan(&s.Name, &s.Description, &s.Type, &s.Difficulty); err != nil {
			return nil, fmt.Errorf("failed to scan spell: %w", err)
		}
		spells = append(spells, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate spells: %w", err)
	}

	return spells, nil
}

// GetByName retrieves a spell by exact name. Returns nil, nil when absent.
func (r *PostgresSpellRepository) GetByName(ctx context.Context, name string) (*Spell, error) {
	query := `
		SELECT name, description, type, difficulty
		FROM spells
		WHERE name = $1
	`

	var s Spell
	err := r.db.QueryRow(ctx, query, name).Scan(&s.Name, &s.Description, &s.Type, &s.Difficulty)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get spell: %w", err)
	}

	return &s, nil
}

// Count returns the number of stored spells.
func (r *PostgresSpellRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM spells`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count spells: %w", err)
	}
	return n, nil
}

// InsertMany inserts spells in one transaction, skipping names that already exist.
// It returns how many rows were inserted.
func (r *PostgresSpellRepository) InsertMany(ctx context.Context, spells []*Spell) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := `
		INSERT INTO spells (name, description, type, difficulty)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING
	`

	inserted := 0
	for _, s := range spells {
		tag, err := tx.Exec(ctx, query, s.Name, s.Description, s.Type, s.Difficulty)
		if err != nil {
			_ = tx.Rollback(ctx)
			return 0, fmt.Errorf("failed to insert spell %q: %w", s.Name, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit spells: %w", err)
	}

	return inserted, nil
}

// MemorySpellRepository implements SpellRepository in memory.
type MemorySpellRepository struct {
	store *InMemoryRepository[*Spell]
}

// NewMemorySpellRepository creates an empty MemorySpellRepository.
func NewMemorySpellRepository() *MemorySpellRepository {
	return &MemorySpellRepository{store: NewInMemoryRepository[*Spell]()}
}

func (r *MemorySpellRepository) ListAll(ctx context.Context) ([]*Spell, error) {
	return r.store.GetAll(ctx)
}

func (r *MemorySpellRepository) GetByName(ctx context.Context, name string) (*Spell, error) {
	s, err := r.store.GetByID(ctx, name)
	if err == ErrNotFound {
		return nil, nil
	}
	return s, err
}

func (r *MemorySpellRepository) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}

func (r *MemorySpellRepository) InsertMany(ctx context.Context, spells []*Spell) (int, error) {
	inserted := 0
	for _, s := range spells {
		cp := *s
		if err := r.store.Create(ctx, &cp); err != nil {
			if err == ErrAlreadyExists {
				continue
			}
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
