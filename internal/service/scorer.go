package service

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/windfall/spellcheck_service/internal/client"
	"github.com/windfall/spellcheck_service/internal/errors"
	"github.com/windfall/spellcheck_service/internal/models"
)

// Scorer assesses a normalized WAV recording against a reference text.
type Scorer interface {
	Assess(ctx context.Context, referenceText, wavPath string) (*models.AssessmentResult, error)
}

// PronunciationAssessor is the provider call SpeechScorer depends on.
type PronunciationAssessor interface {
	AssessPronunciation(ctx context.Context, wav []byte, referenceText string) (*client.PronunciationResult, error)
}

// SpeechScorer scores recordings with a pronunciation-assessment provider.
type SpeechScorer struct {
	provider PronunciationAssessor
	log      zerolog.Logger
}

// NewSpeechScorer creates a new SpeechScorer.
func NewSpeechScorer(provider PronunciationAssessor, log zerolog.Logger) *SpeechScorer {
	return &SpeechScorer{
		provider: provider,
		log:      log.With().Str("component", "scorer").Logger(),
	}
}

// Assess reads wavPath and performs one assessment. Provider-side failures
// become unsuccessful results; only local faults are returned as errors.
func (s *SpeechScorer) Assess(ctx context.Context, referenceText, wavPath string) (*models.AssessmentResult, error) {
	if s.provider == nil {
		return nil, errors.Configuration("speech provider not configured")
	}

	wav, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, errors.InternalWrap("failed to read converted audio", err)
	}

	res, err := s.provider.AssessPronunciation(ctx, wav, referenceText)
	if err != nil {
		return nil, errors.Wrap(errors.ErrAIService, "pronunciation assessment failed", err)
	}

	result := &models.AssessmentResult{ReferenceText: referenceText}

	switch res.Outcome {
	case client.OutcomeRecognized:
		score := res.AccuracyScore
		grade := GradeFromScore(score)
		result.Success = true
		result.Outcome = models.OutcomeRecognized
		result.RecognizedText = res.DisplayText
		result.AccuracyScore = &score
		result.Grade = grade.Letter
		result.GradeLabel = grade.Label
		result.GradeColor = grade.Color
	case client.OutcomeNoMatch:
		result.Outcome = models.OutcomeNoMatch
		result.Error = "No speech could be recognized: " + res.Reason
	default:
		result.Outcome = models.OutcomeCanceled
		result.Error = "Recognition canceled: " + res.Reason
		result.ErrorDetails = res.ErrorDetails
	}

	s.log.Info().
		Str("spell", referenceText).
		Str("outcome", string(result.Outcome)).
		Str("recognition_status", res.RecognitionStatus).
		Msg("Pronunciation assessed")

	return result, nil
}
