package models

import "io"

// Outcome is the terminal state of a pronunciation assessment.
type Outcome string

const (
	OutcomeRecognized Outcome = "recognized"
	OutcomeNoMatch    Outcome = "no_match"
	OutcomeCanceled   Outcome = "canceled"
)

// AssessRequest is one uploaded recording to be assessed against Spell.
type AssessRequest struct {
	Spell       string
	Filename    string
	ContentType string
	Audio       io.Reader
}

// AssessmentResult is the outcome of one assessment. Success is true only
// for OutcomeRecognized; grade fields are set only then.
type AssessmentResult struct {
	Success        bool     `json:"success"`
	Outcome        Outcome  `json:"outcome"`
	RecognizedText string   `json:"recognized_text,omitempty"`
	AccuracyScore  *float64 `json:"accuracy_score,omitempty"`
	ReferenceText  string   `json:"reference_text"`
	Grade          string   `json:"grade,omitempty"`
	GradeLabel     string   `json:"grade_label,omitempty"`
	GradeColor     string   `json:"grade_color,omitempty"`
	Error          string   `json:"error,omitempty"`
	ErrorDetails   string   `json:"error_details,omitempty"`
	FileID         string   `json:"file_id"`
}

// AttemptAssessedEvent is published after a recognized assessment.
type AttemptAssessedEvent struct {
	FileID        string  `json:"file_id"`
	Spell         string  `json:"spell"`
	AccuracyScore float64 `json:"accuracy_score"`
	Grade         string  `json:"grade"`
	Transcript    string  `json:"transcript"`
}

// EventAttemptAssessed is the event type attribute for AttemptAssessedEvent.
const EventAttemptAssessed = "attempt.assessed"
