package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/windfall/spellcheck_service/internal/errors"
	"github.com/windfall/spellcheck_service/internal/models"
)

const defaultContentType = "audio/webm"

// Assessor runs the store, convert and assess pipeline. It is implemented
// in-process by AssessmentService and remotely by client.AssessorClient.
type Assessor interface {
	Assess(ctx context.Context, req models.AssessRequest) (*models.AssessmentResult, error)
	AssessStored(ctx context.Context, fileID uuid.UUID, spell string) (*models.AssessmentResult, error)
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// AssessmentService is the in-process Assessor.
type AssessmentService struct {
	store     *AudioStore
	converter Converter
	scorer    Scorer
	events    EventPublisher
	tempDir   string
	log       zerolog.Logger
}

// NewAssessmentService creates a new AssessmentService. An empty tempDir uses the OS default.
func NewAssessmentService(store *AudioStore, converter Converter, scorer Scorer, tempDir string, log zerolog.Logger) *AssessmentService {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &AssessmentService{
		store:     store,
		converter: converter,
		scorer:    scorer,
		tempDir:   tempDir,
		log:       log.With().Str("component", "assessment").Logger(),
	}
}

// WithEvents enables attempt event publishing.
func (s *AssessmentService) WithEvents(events EventPublisher) *AssessmentService {
	s.events = events
	return s
}

// NormalizeContentType defaults an empty type to audio/webm and maps
// video/webm to audio/webm, keeping any parameters.
func NormalizeContentType(contentType string) string {
	ct := strings.TrimSpace(contentType)
	if ct == "" {
		return defaultContentType
	}

	base, params, _ := strings.Cut(ct, ";")
	if strings.EqualFold(strings.TrimSpace(base), "video/webm") {
		if params != "" {
			return defaultContentType + ";" + params
		}
		return defaultContentType
	}
	return ct
}

// Assess stores the upload and assesses it against req.Spell.
func (s *AssessmentService) Assess(ctx context.Context, req models.AssessRequest) (*models.AssessmentResult, error) {
	if req.Spell == "" {
		return nil, errors.Unprocessable("spell is required")
	}
	if req.Audio == nil {
		return nil, errors.Unprocessable("audio is required")
	}

	id, err := s.store.Save(ctx, req.Audio, AudioMetadata{
		Spell:       req.Spell,
		Filename:    req.Filename,
		ContentType: NormalizeContentType(req.ContentType),
	})
	if err != nil {
		return nil, err
	}

	return s.run(ctx, id, req.Spell, inputExt(req.Filename))
}

// AssessStored assesses an already stored recording against spell.
func (s *AssessmentService) AssessStored(ctx context.Context, fileID uuid.UUID, spell string) (*models.AssessmentResult, error) {
	if spell == "" {
		return nil, errors.Unprocessable("spell is required")
	}

	file, err := s.store.Metadata(ctx, fileID)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, fileID, spell, inputExt(file.Filename))
}

func inputExt(filename string) string {
	if ext := filepath.Ext(filename); ext != "" {
		return ext
	}
	return ".webm"
}

func (s *AssessmentService) run(ctx context.Context, id uuid.UUID, spell, ext string) (*models.AssessmentResult, error) {
	log := s.log.With().Str("file_id", id.String()).Str("spell", spell).Logger()

	inputPath := filepath.Join(s.tempDir, id.String()+"_input"+ext)
	var wavPath string
	defer func() {
		_ = os.Remove(inputPath)
		_ = os.Remove(inputPath + ".wav")
		if wavPath != "" && wavPath != inputPath+".wav" {
			_ = os.Remove(wavPath)
		}
	}()

	if err := s.writeInput(ctx, id, inputPath); err != nil {
		return nil, err
	}
	log.Debug().Str("path", inputPath).Msg("Recording staged")

	wavPath, err := s.converter.Normalize(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", wavPath).Msg("Recording normalized")

	result, err := s.scorer.Assess(ctx, spell, wavPath)
	if err != nil {
		return nil, err
	}
	result.FileID = id.String()

	if result.Outcome == models.OutcomeRecognized && result.AccuracyScore != nil {
		s.recordRecognized(ctx, log, id, spell, result)
	}

	log.Info().
		Str("outcome", string(result.Outcome)).
		Bool("success", result.Success).
		Msg("Assessment finished")

	return result, nil
}

func (s *AssessmentService) writeInput(ctx context.Context, id uuid.UUID, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.InternalWrap("failed to create temp file", err)
	}

	if err := s.store.LoadToStream(ctx, id, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.InternalWrap("failed to write temp file", err)
	}
	return nil
}

// recordRecognized is best-effort; failures are logged only.
func (s *AssessmentService) recordRecognized(ctx context.Context, log zerolog.Logger, id uuid.UUID, spell string, result *models.AssessmentResult) {
	score := *result.AccuracyScore

	if err := s.store.RecordScore(ctx, id, score, result.RecognizedText); err != nil {
		log.Warn().Err(err).Msg("Failed to record attempt score")
	}

	if s.events == nil {
		return
	}
	event := models.AttemptAssessedEvent{
		FileID:        id.String(),
		Spell:         spell,
		AccuracyScore: score,
		Grade:         result.Grade,
		Transcript:    result.RecognizedText,
	}
	if err := s.events.Publish(ctx, models.EventAttemptAssessed, event); err != nil {
		log.Warn().Err(err).Msg("Failed to publish attempt event")
	}
}
