package service

import "math"

// Grade is a letter grade with its display label and color class.
type Grade struct {
	Letter string
	Label  string
	Color  string
}

var (
	GradeOutstanding = Grade{Letter: "O", Label: "Outstanding", Color: "good"}
	GradeExceeds     = Grade{Letter: "E", Label: "Exceeds Expectations", Color: "ok"}
	GradeAcceptable  = Grade{Letter: "A", Label: "Acceptable", Color: "warn"}
	GradeTroll       = Grade{Letter: "T", Label: "Troll", Color: "bad"}
)

// GradeFromScore maps an accuracy score to a grade. Scores outside [0,100]
// are clamped and NaN counts as 0.
func GradeFromScore(score float64) Grade {
	switch {
	case math.IsNaN(score) || score < 0:
		score = 0
	case score > 100:
		score = 100
	}

	switch {
	case score >= 70:
		return GradeOutstanding
	case score >= 40:
		return GradeExceeds
	case score >= 20:
		return GradeAcceptable
	default:
		return GradeTroll
	}
}
