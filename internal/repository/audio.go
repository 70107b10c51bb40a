package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AudioFile is the metadata row of a stored audio blob.
type AudioFile struct {
	ID          uuid.UUID       `json:"id"`
	Filename    string          `json:"filename"`
	ContentType string          `json:"content_type"`
	SizeBytes   int64           `json:"size_bytes"`
	Metadata    json.RawMessage `json:"metadata"`
	UploadedAt  time.Time       `json:"uploaded_at"`
}

// GetID returns the file ID as a string.
func (f *AudioFile) GetID() string {
	return f.ID.String()
}

// Attempt is one recorded pronunciation try. AudioFileID is a weak reference.
type Attempt struct {
	ID          int64     `json:"id"`
	Spell       string    `json:"spell"`
	AudioFileID uuid.UUID `json:"audio_file_id"`
	RecordedAt  time.Time `json:"recorded_at"`
	Score       *float64  `json:"score,omitempty"`
	Transcript  *string   `json:"transcript,omitempty"`
}

// AudioRepository defines the interface for audio metadata and attempt access.
type AudioRepository interface {
	// CreateWithAttempt stores the file row and its single attempt atomically and sets attempt.ID.
	CreateWithAttempt(ctx context.Context, file *AudioFile, attempt *Attempt) error
	// GetByID returns nil, nil when the file is unknown.
	GetByID(ctx context.Context, id uuid.UUID) (*AudioFile, error)
	// DeleteCascade removes the file row and every attempt that references it.
	DeleteCascade(ctx context.Context, id uuid.UUID) (bool, error)
	ListAttemptsBySpell(ctx context.Context, spell string) ([]*Attempt, error)
	UpdateAttemptScore(ctx context.Context, audioFileID uuid.UUID, score float64, transcript string) error
}

// PostgresAudioRepository implements AudioRepository with PostgreSQL.
type PostgresAudioRepository struct {
	db DBTX
}

// NewPostgresAudioRepository creates a new PostgresAudioRepository.
func NewPostgresAudioRepository(db DBTX) *PostgresAudioRepository {
	return &PostgresAudioRepository{db: db}
}

// CreateWithAttempt inserts an audio_files row and its pronunciation_attempts row.
func (r *PostgresAudioRepository) CreateWithAttempt(ctx context.Context, file *AudioFile, attempt *Attempt) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	fileQuery := `
		INSERT INTO audio_files (
			id, filename, content_type, size_bytes, metadata, uploaded_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`
	if _, err := tx.Exec(ctx, fileQuery,
		file.ID,
		file.Filename,
		file.ContentType,
		file.SizeBytes,
		file.Metadata,
		file.UploadedAt,
	); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to create audio file: %w", err)
	}

	attemptQuery := `
		INSERT INTO pronunciation_attempts (
			spell, audio_file_id, recorded_at, score, transcript
		) VALUES (
			$1, $2, $3, $4, $5
		) RETURNING id
	`
	if err := tx.QueryRow(ctx, attemptQuery,
		attempt.Spell,
		attempt.AudioFileID,
		attempt.RecordedAt,
		attempt.Score,
		attempt.Transcript,
	).Scan(&attempt.ID); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to create attempt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit audio file: %w", err)
	}

	return nil
}

// GetByID retrieves audio file metadata by ID.
func (r *PostgresAudioRepository) GetByID(ctx context.Context, id uuid.UUID) (*AudioFile, error) {
	query := `
		SELECT id, filename, content_type, size_bytes, metadata, uploaded_at
		FROM audio_files
		WHERE id = $1
	`

	var f AudioFile
	err := r.db.QueryRow(ctx, query, id).Scan(
		&f.ID,
		&f.Filename,
		&f.ContentType,
		&f.SizeBytes,
		&f.Metadata,
		&f.UploadedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get audio file: %w", err)
	}

	return &f, nil
}

// DeleteCascade deletes attempts referencing id, then the file row.
// It reports whether the file row existed.
func (r *PostgresAudioRepository) DeleteCascade(ctx context.Context, id uuid.UUID) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM pronunciation_attempts WHERE audio_file_id = $1`, id); err != nil {
		_ = tx.Rollback(ctx)
		return false, fmt.Errorf("failed to delete attempts: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM audio_files WHERE id = $1`, id)
	if err != nil {
		_ = tx.Rollback(ctx)
		return false, fmt.Errorf("failed to delete audio file: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit delete: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListAttemptsBySpell returns attempts for spell, most recent first.
func (r *PostgresAudioRepository) ListAttemptsBySpell(ctx context.Context, spell string) ([]*Attempt, error) {
	query := `
		SELECT id, spell, audio_file_id, recorded_at, score, transcript
		FROM pronunciation_attempts
		WHERE spell = $1
		ORDER BY recorded_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, spell)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]*Attempt, 0)
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(
			&a.ID,
			&a.Spell,
			&a.AudioFileID,
			&a.RecordedAt,
			&a.Score,
			&a.Transcript,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attempts: %w", err)
	}

	return attempts, nil
}

// UpdateAttemptScore stores the assessed score on the attempt created with the file.
func (r *PostgresAudioRepository) UpdateAttemptScore(ctx context.Context, audioFileID uuid.UUID, score float64, transcript string) error {
	query := `
		UPDATE pronunciation_attempts
		SET score = $2, transcript = $3
		WHERE audio_file_id = $1
	`

	if _, err := r.db.Exec(ctx, query, audioFileID, score, nullableString(transcript)); err != nil {
		return fmt.Errorf("failed to update attempt score: %w", err)
	}
	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// MemoryAudioRepository implements AudioRepository in memory.
type MemoryAudioRepository struct {
	files *InMemoryRepository[*AudioFile]

	mu       sync.RWMutex
	attempts []*Attempt
	nextID   int64
}

// NewMemoryAudioRepository creates an empty MemoryAudioRepository.
func NewMemoryAudioRepository() *MemoryAudioRepository {
	return &MemoryAudioRepository{files: NewInMemoryRepository[*AudioFile]()}
}

func (r *MemoryAudioRepository) CreateWithAttempt(ctx context.Context, file *AudioFile, attempt *Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.files.Create(ctx, file); err != nil {
		return fmt.Errorf("failed to create audio file: %w", err)
	}

	r.nextID++
	attempt.ID = r.nextID
	cp := *attempt
	r.attempts = append(r.attempts, &cp)
	return nil
}

func (r *MemoryAudioRepository) GetByID(ctx context.Context, id uuid.UUID) (*AudioFile, error) {
	f, err := r.files.GetByID(ctx, id.String())
	if err == ErrNotFound {
		return nil, nil
	}
	return f, err
}

func (r *MemoryAudioRepository) DeleteCascade(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.attempts[:0]
	for _, a := range r.attempts {
		if a.AudioFileID != id {
			kept = append(kept, a)
		}
	}
	r.attempts = kept

	if err := r.files.Delete(ctx, id.String()); err != nil {
		if err == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *MemoryAudioRepository) ListAttemptsBySpell(ctx context.Context, spell string) ([]*Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Attempt, 0)
	for _, a := range r.attempts {
		if a.Spell == spell {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	return out, nil
}

func (r *MemoryAudioRepository) UpdateAttemptScore(ctx context.Context, audioFileID uuid.UUID, score float64, transcript string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.attempts {
		if a.AudioFileID == audioFileID {
			s := score
			a.Score = &s
			a.Transcript = nullableString(transcript)
		}
	}
	return nil
}
