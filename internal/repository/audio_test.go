package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAudioTestRepository(t *testing.T) (*PostgresAudioRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewPostgresAudioRepository(mock), mock
}

func ptr[T any](v T) *T { return &v }

func TestPostgresAudioRepository_CreateWithAttempt(t *testing.T) {
	id := uuid.New()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	newFile := func() *AudioFile {
		return &AudioFile{
			ID:          id,
			Filename:    "lumos.webm",
			ContentType: "audio/webm",
			SizeBytes:   4,
			Metadata:    json.RawMessage(`{"spell":"Lumos"}`),
			UploadedAt:  now,
		}
	}
	newAttempt := func() *Attempt {
		return &Attempt{Spell: "Lumos", AudioFileID: id, RecordedAt: now}
	}

	tests := []struct {
		name          string
		setupMock     func(pgxmock.PgxPoolIface)
		expectedError bool
		expectedID    int64
	}{
		{
			name: "success",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT INTO audio_files`).
					WithArgs(id, "lumos.webm", "audio/webm", int64(4), pgxmock.AnyArg(), now).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectQuery(`INSERT INTO pronunciation_attempts`).
					WithArgs("Lumos", id, now, pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
				mock.ExpectCommit()
			},
			expectedID: 7,
		},
		{
			name: "file insert fails",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT INTO audio_files`).
					WithArgs(id, "lumos.webm", "audio/webm", int64(4), pgxmock.AnyArg(), now).
					WillReturnError(errors.New("database error"))
				mock.ExpectRollback()
			},
			expectedError: true,
		},
		{
			name: "attempt insert fails",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT INTO audio_files`).
					WithArgs(id, "lumos.webm", "audio/webm", int64(4), pgxmock.AnyArg(), now).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectQuery(`INSERT INTO pronunciation_attempts`).
					WithArgs("Lumos", id, now, pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(errors.New("database error"))
				mock.ExpectRollback()
			},
			expectedError: true,
		},
		{
			name: "begin fails",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := setupAudioTestRepository(t)
			tt.setupMock(mock)

			attempt := newAttempt()
			err := repo.CreateWithAttempt(context.Background(), newFile(), attempt)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedID, attempt.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresAudioRepository_GetByID(t *testing.T) {
	id := uuid.New()
	now := time.Now().UTC()
	columns := []string{"id", "filename", "content_type", "size_bytes", "metadata", "uploaded_at"}

	t.Run("found", func(t *testing.T) {
		repo, mock := setupAudioTestRepository(t)
		mock.ExpectQuery(`SELECT id, filename, content_type, size_bytes, metadata, uploaded_at`).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(id, "a.webm", "audio/webm", int64(10), json.RawMessage(`{}`), now))

		f, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, f)
		assert.Equal(t, "a.webm", f.Filename)
		assert.Equal(t, int64(10), f.SizeBytes)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := setupAudioTestRepository(t)
		mock.ExpectQuery(`SELECT id, filename`).
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)

		f, err := repo.GetByID(context.Background(), id)
		assert.NoError(t, err)
		assert.Nil(t, f)
	})

	t.Run("database error", func(t *testing.T) {
		repo, mock := setupAudioTestRepository(t)
		mock.ExpectQuery(`SELECT id, filename`).
			WithArgs(id).
			WillReturnError(errors.New("boom"))

		_, err := repo.GetByID(context.Background(), id)
		assert.Error(t, err)
	})
}

func TestPostgresAudioRepository_DeleteCascade(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name          string
		setupMock     func(pgxmock.PgxPoolIface)
		expectedFound bool
		expectedError bool
	}{
		{
			name: "deletes attempts then file",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`DELETE FROM pronunciation_attempts WHERE audio_file_id`).
					WithArgs(id).
					WillReturnResult(pgxmock.NewResult("DELETE", 2))
				mock.ExpectExec(`DELETE FROM audio_files WHERE id`).
					WithArgs(id).
					WillReturnResult(pgxmock.NewResult("DELETE", 1))
				mock.ExpectCommit()
			},
			expectedFound: true,
		},
		{
			name: "unknown id",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`DELETE FROM pronunciation_attempts`).
					WithArgs(id).
					WillReturnResult(pgxmock.NewResult("DELETE", 0))
				mock.ExpectExec(`DELETE FROM audio_files`).
					WithArgs(id).
					WillReturnResult(pgxmock.NewResult("DELETE", 0))
				mock.ExpectCommit()
			},
			expectedFound: false,
		},
		{
			name: "attempt delete fails",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`DELETE FROM pronunciation_attempts`).
					WithArgs(id).
					WillReturnError(errors.New("database error"))
				mock.ExpectRollback()
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := setupAudioTestRepository(t)
			tt.setupMock(mock)

			found, err := repo.DeleteCascade(context.Background(), id)
			if tt.expectedError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedFound, found)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresAudioRepository_ListAttemptsBySpell(t *testing.T) {
	repo, mock := setupAudioTestRepository(t)
	id1, id2 := uuid.New(), uuid.New()
	newer := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	mock.ExpectQuery(`FROM pronunciation_attempts\s+WHERE spell = \$1\s+ORDER BY recorded_at DESC`).
		WithArgs("Lumos").
		WillReturnRows(pgxmock.NewRows([]string{"id", "spell", "audio_file_id", "recorded_at", "score", "transcript"}).
			AddRow(int64(2), "Lumos", id2, newer, ptr(85.5), ptr("Lumos.")).
			AddRow(int64(1), "Lumos", id1, older, ptr(12.0), ptr("Lumen.")))

	attempts, err := repo.ListAttemptsBySpell(context.Background(), "Lumos")
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, id2, attempts[0].AudioFileID)
	assert.Equal(t, 85.5, *attempts[0].Score)
	assert.Equal(t, "Lumen.", *attempts[1].Transcript)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAudioRepository_UpdateAttemptScore(t *testing.T) {
	repo, mock := setupAudioTestRepository(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE pronunciation_attempts`).
		WithArgs(id, 85.5, ptr("Lumos.")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdateAttemptScore(context.Background(), id, 85.5, "Lumos."))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryAudioRepository_CascadeAndOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAudioRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for i, id := range ids {
		at := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.CreateWithAttempt(ctx,
			&AudioFile{ID: id, UploadedAt: at},
			&Attempt{Spell: "Lumos", AudioFileID: id, RecordedAt: at},
		))
	}

	attempts, err := repo.ListAttemptsBySpell(ctx, "Lumos")
	require.NoError(t, err)
	require.Len(t, attempts, 3)
	assert.Equal(t, ids[2], attempts[0].AudioFileID)
	assert.Equal(t, ids[0], attempts[2].AudioFileID)

	found, err := repo.DeleteCascade(ctx, ids[1])
	require.NoError(t, err)
	assert.True(t, found)

	attempts, err = repo.ListAttemptsBySpell(ctx, "Lumos")
	require.NoError(t, err)
	assert.Len(t, attempts, 2)

	f, err := repo.GetByID(ctx, ids[1])
	assert.NoError(t, err)
	assert.Nil(t, f)

	found, err = repo.DeleteCascade(ctx, ids[1])
	assert.NoError(t, err)
	assert.False(t, found)
}
