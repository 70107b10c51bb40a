package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/windfall/spellcheck_service/internal/errors"
	"github.com/windfall/spellcheck_service/internal/repository"
)

// BlobStore holds the raw audio bytes. Missing keys yield a NOT_FOUND AppError.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Stream(ctx context.Context, key string, w io.Writer) error
	Delete(ctx context.Context, key string) error
}

// AudioMetadata describes an uploaded recording.
type AudioMetadata struct {
	Spell       string
	Filename    string
	ContentType string
	Score       *float64
	Transcript  string
	Extra       map[string]any
}

// AudioStore persists recordings as blob plus metadata row and keeps one
// pronunciation attempt per recording.
type AudioStore struct {
	repo  repository.AudioRepository
	blobs BlobStore
	now   func() time.Time
	log   zerolog.Logger
}

// NewAudioStore creates a new AudioStore.
func NewAudioStore(repo repository.AudioRepository, blobs BlobStore, log zerolog.Logger) (*AudioStore, error) {
	if repo == nil || blobs == nil {
		return nil, errors.Configuration("audio store requires a metadata repository and a blob store")
	}
	return &AudioStore{
		repo:  repo,
		blobs: blobs,
		now:   func() time.Time { return time.Now().UTC() },
		log:   log.With().Str("component", "audio_store").Logger(),
	}, nil
}

func blobKey(id uuid.UUID) string {
	return "audio/" + id.String()
}

// Save stores the recording and creates its attempt record. It returns the new file id.
func (s *AudioStore) Save(ctx context.Context, r io.Reader, meta AudioMetadata) (uuid.UUID, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return uuid.Nil, errors.Storage("failed to read audio", err)
	}

	metadata := make(map[string]any, len(meta.Extra)+1)
	for k, v := range meta.Extra {
		metadata[k] = v
	}
	metadata["spell"] = meta.Spell
	rawMeta, err := json.Marshal(metadata)
	if err != nil {
		return uuid.Nil, errors.InternalWrap("failed to encode audio metadata", err)
	}

	id := uuid.New()
	if err := s.blobs.Put(ctx, blobKey(id), data, meta.ContentType); err != nil {
		return uuid.Nil, err
	}

	now := s.now()
	file := &repository.AudioFile{
		ID:          id,
		Filename:    meta.Filename,
		ContentType: meta.ContentType,
		SizeBytes:   int64(len(data)),
		Metadata:    rawMeta,
		UploadedAt:  now,
	}
	attempt := &repository.Attempt{
		Spell:       meta.Spell,
		AudioFileID: id,
		RecordedAt:  now,
		Score:       meta.Score,
	}
	if meta.Transcript != "" {
		t := meta.Transcript
		attempt.Transcript = &t
	}

	if err := s.repo.CreateWithAttempt(ctx, file, attempt); err != nil {
		if delErr := s.blobs.Delete(ctx, blobKey(id)); delErr != nil {
			s.log.Warn().Err(delErr).Str("file_id", id.String()).Msg("Failed to remove orphaned blob")
		}
		return uuid.Nil, errors.Wrap(errors.ErrDatabase, "failed to save audio metadata", err)
	}

	s.log.Debug().
		Str("file_id", id.String()).
		Str("spell", meta.Spell).
		Int64("size_bytes", file.SizeBytes).
		Msg("Audio saved")

	return id, nil
}

// Load returns the stored bytes and metadata row.
func (s *AudioStore) Load(ctx context.Context, id uuid.UUID) ([]byte, *repository.AudioFile, error) {
	file, err := s.lookup(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.blobs.Get(ctx, blobKey(id))
	if err != nil {
		return nil, nil, err
	}
	return data, file, nil
}

// LoadToStream writes the stored bytes into w.
func (s *AudioStore) LoadToStream(ctx context.Context, id uuid.UUID, w io.Writer) error {
	if _, err := s.lookup(ctx, id); err != nil {
		return err
	}

	if err := s.blobs.Stream(ctx, blobKey(id), w); err != nil {
		if _, ok := errors.As(err); ok {
			return err
		}
		return errors.Storage("failed to write audio", err)
	}
	return nil
}

// Metadata returns the metadata row for id.
func (s *AudioStore) Metadata(ctx context.Context, id uuid.UUID) (*repository.AudioFile, error) {
	return s.lookup(ctx, id)
}

func (s *AudioStore) lookup(ctx context.Context, id uuid.UUID) (*repository.AudioFile, error) {
	file, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load audio metadata", err)
	}
	if file == nil {
		return nil, errors.NotFound(fmt.Sprintf("audio file %s", id))
	}
	return file, nil
}

// Delete removes the recording, its metadata and every attempt referencing it.
// Unknown ids are ignored.
func (s *AudioStore) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.DeleteCascade(ctx, id)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to delete audio metadata", err)
	}

	if err := s.blobs.Delete(ctx, blobKey(id)); err != nil && !errors.IsNotFound(err) {
		return err
	}

	s.log.Debug().Str("file_id", id.String()).Bool("found", found).Msg("Audio deleted")
	return nil
}

// ListAttempts returns the attempts for spell, most recent first.
func (s *AudioStore) ListAttempts(ctx context.Context, spell string) ([]*repository.Attempt, error) {
	attempts, err := s.repo.ListAttemptsBySpell(ctx, spell)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to list attempts", err)
	}
	return attempts, nil
}

// RecordScore sets the score and transcript on the attempt created with the recording.
func (s *AudioStore) RecordScore(ctx context.Context, id uuid.UUID, score float64, transcript string) error {
	if err := s.repo.UpdateAttemptScore(ctx, id, score, transcript); err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to record score", err)
	}
	return nil
}
