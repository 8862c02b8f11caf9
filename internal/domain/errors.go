package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned when a quiz session has not been started.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionNotFound indicates a submitted question ID is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrSessionCompleted is returned by mutating calls on a finalized session.
	ErrSessionCompleted = errors.New("quiz session already completed")
	// ErrQuizIncomplete is returned when finalize is refused because unanswered
	// questions remain and auto-submit was not requested.
	ErrQuizIncomplete = errors.New("quiz has unanswered questions")
	// ErrRunnerRequired is a configuration error: a debug question was submitted
	// without a code-execution runner wired in.
	ErrRunnerRequired = errors.New("debug grading requires a code runner")
)
