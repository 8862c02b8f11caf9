package app

import (
	"context"
	"math"

	"pylearn-quiz-service/internal/domain"
	"pylearn-quiz-service/internal/grading"
)

// Processor turns one question submission into an outcome. It is stateless and
// safe for concurrent use; persistence and UI feedback belong to the caller.
type Processor struct {
	runner grading.CodeRunner
}

// NewProcessor builds a processor. The runner may be nil when no debug
// questions will be submitted.
func NewProcessor(runner grading.CodeRunner) *Processor {
	return &Processor{runner: runner}
}

// Submit grades userInput against the question and computes the awarded points
// and currency, rounding partial credit to the nearest integer. Malformed input
// degrades to an incorrect outcome; the only error is the configuration case of
// a debug question without a wired runner.
func (p *Processor) Submit(ctx context.Context, q domain.Question, userInput any) (domain.SubmissionOutcome, error) {
	if q.Type == domain.TypeDebug && p.runner == nil {
		return domain.SubmissionOutcome{QuestionID: q.ID}, domain.ErrRunnerRequired
	}

	result := grading.Grade(ctx, q.Type, userInput, q.CorrectAnswer, grading.Options{
		Runner:    p.runner,
		TestCases: q.TestCases,
	})

	return domain.SubmissionOutcome{
		QuestionID:      q.ID,
		Result:          result,
		PointsAwarded:   roundShare(q.PointsOrDefault(), result.PartialScore),
		CurrencyAwarded: roundShare(q.CurrencyOrDefault(), result.PartialScore),
	}, nil
}

func roundShare(total int, partial float64) int {
	return int(math.Round(float64(total) * partial))
}
