package service

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windfall/spellcheck_service/internal/client"
	"github.com/windfall/spellcheck_service/internal/errors"
	"github.com/windfall/spellcheck_service/internal/logger"
	"github.com/windfall/spellcheck_service/internal/models"
	"github.com/windfall/spellcheck_service/internal/repository"
)

// copyConverter writes the input unchanged to the .wav path.
type copyConverter struct {
	mu     sync.Mutex
	inputs []string
	err    error
}

func (c *copyConverter) Normalize(ctx context.Context, srcPath string) (string, error) {
	c.mu.Lock()
	c.inputs = append(c.inputs, srcPath)
	c.mu.Unlock()
	out := srcPath + ".wav"
	if c.err != nil {
		// a failed conversion can leave a partial output behind
		_ = os.WriteFile(out, []byte("RIFF"), 0o600)
		return "", c.err
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return "", err
	}
	return out, os.WriteFile(out, data, 0o600)
}

// fakeProvider returns a fixed provider result.
type fakeProvider struct {
	result *client.PronunciationResult
	gotWav []byte
	gotRef string
}

func (p *fakeProvider) AssessPronunciation(ctx context.Context, wav []byte, referenceText string) (*client.PronunciationResult, error) {
	p.gotWav = wav
	p.gotRef = referenceText
	return p.result, nil
}

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType string, data any) error {
	p.events = append(p.events, eventType)
	return nil
}

type pipeline struct {
	svc       *AssessmentService
	store     *AudioStore
	repo      *repository.MemoryAudioRepository
	converter *copyConverter
	provider  *fakeProvider
	events    *recordingPublisher
	tempDir   string
}

func newPipeline(t *testing.T, res *client.PronunciationResult) *pipeline {
	t.Helper()
	repo := repository.NewMemoryAudioRepository()
	store, err := NewAudioStore(repo, client.NewMemoryBlobStore(), logger.NewNop())
	require.NoError(t, err)

	p := &pipeline{
		store:     store,
		repo:      repo,
		converter: &copyConverter{},
		provider:  &fakeProvider{result: res},
		events:    &recordingPublisher{},
		tempDir:   t.TempDir(),
	}
	scorer := NewSpeechScorer(p.provider, logger.NewNop())
	p.svc = NewAssessmentService(store, p.converter, scorer, p.tempDir, logger.NewNop()).WithEvents(p.events)
	return p
}

func recognized(score float64, text string) *client.PronunciationResult {
	return &client.PronunciationResult{
		Outcome:           client.OutcomeRecognized,
		RecognitionStatus: "Success",
		DisplayText:       text,
		AccuracyScore:     score,
	}
}

func TestNormalizeContentType(t *testing.T) {
	tests := []struct {
		in, expected string
	}{
		{"", "audio/webm"},
		{"video/webm", "audio/webm"},
		{"video/webm;codecs=opus", "audio/webm;codecs=opus"},
		{"audio/ogg", "audio/ogg"},
		{"audio/webm", "audio/webm"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeContentType(tt.in), tt.in)
	}
}

func TestAssessmentService_Recognized(t *testing.T) {
	p := newPipeline(t, recognized(85.5, "Lumos."))
	ctx := context.Background()

	res, err := p.svc.Assess(ctx, models.AssessRequest{
		Spell:       "Lumos",
		Filename:    "lumos.webm",
		ContentType: "audio/webm",
		Audio:       strings.NewReader("webm-bytes"),
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, models.OutcomeRecognized, res.Outcome)
	assert.Equal(t, "Lumos.", res.RecognizedText)
	require.NotNil(t, res.AccuracyScore)
	assert.Equal(t, 85.5, *res.AccuracyScore)
	assert.Equal(t, "O", res.Grade)
	assert.Equal(t, "Outstanding", res.GradeLabel)
	assert.Equal(t, "good", res.GradeColor)
	assert.Equal(t, "Lumos", res.ReferenceText)
	assert.Equal(t, "Lumos", p.provider.gotRef)
	assert.Equal(t, "webm-bytes", string(p.provider.gotWav))

	id, err := uuid.Parse(res.FileID)
	require.NoError(t, err)
	data, file, err := p.store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "webm-bytes", string(data))
	assert.Equal(t, "audio/webm", file.ContentType)

	attempts, err := p.store.ListAttempts(ctx, "Lumos")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	require.NotNil(t, attempts[0].Score)
	assert.Equal(t, 85.5, *attempts[0].Score)

	assert.Equal(t, []string{models.EventAttemptAssessed}, p.events.events)

	require.Len(t, p.converter.inputs, 1)
	assert.Contains(t, p.converter.inputs[0], id.String()+"_input.webm")
	entries, err := os.ReadDir(p.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files are removed")
}

func TestAssessmentService_NoMatch(t *testing.T) {
	p := newPipeline(t, &client.PronunciationResult{
		Outcome:           client.OutcomeNoMatch,
		RecognitionStatus: "NoMatch",
		Reason:            "NoMatch",
	})

	res, err := p.svc.Assess(context.Background(), models.AssessRequest{
		Spell: "Nox",
		Audio: strings.NewReader("silence"),
	})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, models.OutcomeNoMatch, res.Outcome)
	assert.Equal(t, "No speech could be recognized: NoMatch", res.Error)
	assert.Nil(t, res.AccuracyScore)
	assert.Empty(t, res.Grade)
	assert.NotEmpty(t, res.FileID)
	assert.Empty(t, p.events.events)
}

func TestAssessmentService_Canceled(t *testing.T) {
	p := newPipeline(t, &client.PronunciationResult{
		Outcome:      client.OutcomeCanceled,
		Reason:       "HTTP 401",
		ErrorDetails: "invalid subscription key",
	})

	res, err := p.svc.Assess(context.Background(), models.AssessRequest{
		Spell: "Nox",
		Audio: strings.NewReader("x"),
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Recognition canceled: HTTP 401", res.Error)
	assert.Equal(t, "invalid subscription key", res.ErrorDetails)
}

func TestAssessmentService_VideoWebmStoredAsAudio(t *testing.T) {
	p := newPipeline(t, recognized(50, "Accio."))
	ctx := context.Background()

	res, err := p.svc.Assess(ctx, models.AssessRequest{
		Spell:       "Accio",
		Filename:    "rec.webm",
		ContentType: "video/webm",
		Audio:       strings.NewReader("x"),
	})
	require.NoError(t, err)

	_, file, err := p.store.Load(ctx, uuid.MustParse(res.FileID))
	require.NoError(t, err)
	assert.Equal(t, "audio/webm", file.ContentType)
}

func TestAssessmentService_MissingFields(t *testing.T) {
	p := newPipeline(t, recognized(50, "x"))

	_, err := p.svc.Assess(context.Background(), models.AssessRequest{Audio: strings.NewReader("x")})
	assert.Equal(t, errors.ErrUnprocessable, errors.CodeOf(err))

	_, err = p.svc.Assess(context.Background(), models.AssessRequest{Spell: "Lumos"})
	assert.Equal(t, errors.ErrUnprocessable, errors.CodeOf(err))
}

func TestAssessmentService_ConversionFailure(t *testing.T) {
	p := newPipeline(t, recognized(50, "x"))
	p.converter.err = errors.New(errors.ErrConversion, "ffmpeg failed: invalid data")

	_, err := p.svc.Assess(context.Background(), models.AssessRequest{
		Spell: "Lumos",
		Audio: strings.NewReader("not audio"),
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrConversion, errors.CodeOf(err))

	entries, err := os.ReadDir(p.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAssessmentService_StoreFailure(t *testing.T) {
	store, err := NewAudioStore(repository.NewMemoryAudioRepository(),
		failingBlobStore{client.NewMemoryBlobStore()}, logger.NewNop())
	require.NoError(t, err)
	svc := NewAssessmentService(store, &copyConverter{}, NewSpeechScorer(&fakeProvider{}, logger.NewNop()),
		t.TempDir(), logger.NewNop())

	_, err = svc.Assess(context.Background(), models.AssessRequest{
		Spell: "Lumos",
		Audio: strings.NewReader("x"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")
}

func TestAssessmentService_AssessStored(t *testing.T) {
	p := newPipeline(t, recognized(30, "Lumen."))
	ctx := context.Background()

	id, err := p.store.Save(ctx, strings.NewReader("old"), AudioMetadata{Spell: "Lumos", Filename: "a.ogg"})
	require.NoError(t, err)

	res, err := p.svc.AssessStored(ctx, id, "Lumos")
	require.NoError(t, err)
	assert.Equal(t, id.String(), res.FileID)
	assert.Equal(t, "A", res.Grade)
	assert.Contains(t, p.converter.inputs[0], "_input.ogg")

	_, err = p.svc.AssessStored(ctx, uuid.New(), "Lumos")
	assert.True(t, errors.IsNotFound(err))
}
