package app

import (
	"context"
	"math"
	"sync"

	"pylearn-quiz-service/internal/domain"
)

// Session is the state machine for one multi-question quiz attempt: ordered
// questions, current position, recorded answers, the logical countdown, pause
// and completion state.
//
// All methods serialize on an internal mutex, so a session may be shared
// between the host's event loop and its clock goroutine. The session does not
// own a clock; the host calls Tick once per second while the quiz is running.
type Session struct {
	mu        sync.Mutex
	id        string
	questions []domain.Question
	processor *Processor

	currentIndex  int
	answers       map[string]any
	awarded       map[string]bool
	timeLimit     int // seconds; 0 means untimed
	timeRemaining int
	paused        bool
	completed     bool
	result        *domain.QuizResult
}

// SessionOption configures a session at creation time.
type SessionOption func(*Session)

// WithTimeLimit arms the countdown with the given number of seconds.
func WithTimeLimit(seconds int) SessionOption {
	return func(s *Session) {
		if seconds > 0 {
			s.timeLimit = seconds
		}
	}
}

// NewSession creates an active session positioned at the first question.
func NewSession(id string, questions []domain.Question, processor *Processor, opts ...SessionOption) *Session {
	s := &Session{
		id:        id,
		questions: questions,
		processor: processor,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.initLocked()
	return s
}

// initLocked reinitializes every mutable field; shared by NewSession and Reset.
func (s *Session) initLocked() {
	s.currentIndex = 0
	s.answers = make(map[string]any)
	s.awarded = make(map[string]bool)
	s.timeRemaining = s.timeLimit
	s.paused = false
	s.completed = false
	s.result = nil
}

// MaxScore is the sum of all question point values.
func (s *Session) MaxScore() int {
	total := 0
	for _, q := range s.questions {
		total += q.PointsOrDefault()
	}
	return total
}

// GoTo moves to the given question. Out-of-range indexes and completed
// sessions are silent no-ops: navigation is driven by forgiving UI events.
func (s *Session) GoTo(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goToLocked(index)
}

func (s *Session) goToLocked(index int) {
	if s.completed || index < 0 || index >= len(s.questions) {
		return
	}
	s.currentIndex = index
}

// Next advances one question; a no-op at the last question. Finishing the quiz
// always requires an explicit Finalize.
func (s *Session) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goToLocked(s.currentIndex + 1)
}

// Previous moves back one question; a no-op at the first.
func (s *Session) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goToLocked(s.currentIndex - 1)
}

// RecordAnswer stores (or overwrites) the user's answer for a question.
func (s *Session) RecordAnswer(questionID string, userInput any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return domain.ErrSessionCompleted
	}
	if !s.hasQuestionLocked(questionID) {
		return domain.ErrQuestionNotFound
	}
	s.answers[questionID] = userInput
	return nil
}

// MarkAwarded notes that a question's rewards were already credited to the
// user's progress, so finalizing the session does not credit them twice.
func (s *Session) MarkAwarded(questionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.awarded[questionID] = true
}

// Awarded reports whether a question's rewards were already credited.
func (s *Session) Awarded(questionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awarded[questionID]
}

func (s *Session) hasQuestionLocked(questionID string) bool {
	for _, q := range s.questions {
		if q.ID == questionID {
			return true
		}
	}
	return false
}

// Pause freezes the logical countdown. No effect once completed.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.completed {
		s.paused = true
	}
}

// Resume unfreezes the countdown. No effect once completed.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.completed {
		s.paused = false
	}
}

// Tick consumes one second of the countdown. When the timer reaches zero the
// session finalizes with auto-submit and the result is returned with expired
// set. Paused, completed and untimed sessions ignore ticks.
func (s *Session) Tick(ctx context.Context) (result domain.QuizResult, expired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused || s.completed || s.timeLimit == 0 {
		return domain.QuizResult{}, false
	}
	s.timeRemaining--
	if s.timeRemaining > 0 {
		return domain.QuizResult{}, false
	}
	s.timeRemaining = 0
	return s.finalizeLocked(ctx), true
}

// FirstUnanswered returns the index of the first question without a recorded
// answer, or -1 when every question is answered.
func (s *Session) FirstUnanswered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstUnansweredLocked()
}

func (s *Session) firstUnansweredLocked() int {
	for i, q := range s.questions {
		if _, ok := s.answers[q.ID]; !ok {
			return i
		}
	}
	return -1
}

// Finalize grades the whole set and completes the session.
//
// Without autoSubmit it refuses with ErrQuizIncomplete while unanswered
// questions remain, so the caller can navigate via FirstUnanswered. With
// autoSubmit (explicit submit-anyway or timer expiry) absent answers grade as
// incorrect. Finalizing a completed session returns ErrSessionCompleted.
func (s *Session) Finalize(ctx context.Context, autoSubmit bool) (domain.QuizResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return domain.QuizResult{}, domain.ErrSessionCompleted
	}
	if !autoSubmit && s.firstUnansweredLocked() >= 0 {
		return domain.QuizResult{}, domain.ErrQuizIncomplete
	}
	return s.finalizeLocked(ctx), nil
}

func (s *Session) finalizeLocked(ctx context.Context) domain.QuizResult {
	result := domain.QuizResult{
		MaxScore:       s.MaxScore(),
		TotalQuestions: len(s.questions),
		PerQuestion:    make([]domain.SubmissionOutcome, 0, len(s.questions)),
	}

	for _, q := range s.questions {
		outcome, err := s.processor.Submit(ctx, q, s.answers[q.ID])
		if err != nil {
			// Runner misconfiguration must not corrupt the rest of the set;
			// the affected question simply scores zero.
			outcome = domain.SubmissionOutcome{QuestionID: q.ID}
		}
		result.Score += outcome.PointsAwarded
		if outcome.Result.IsCorrect || (q.Type == domain.TypeDragAndDrop && outcome.Result.PartialScore > 0) {
			result.CorrectCount++
		}
		result.PerQuestion = append(result.PerQuestion, outcome)
	}

	if result.MaxScore > 0 {
		result.Percentage = int(math.Round(100 * float64(result.Score) / float64(result.MaxScore)))
	}

	s.completed = true
	s.result = &result
	return result
}

// Result returns the final summary once the session is completed.
func (s *Session) Result() (domain.QuizResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return domain.QuizResult{}, false
	}
	return *s.result, true
}

// Reset reinitializes the session with the same question list, exactly as
// created. Legal from any state, including completed, and idempotent.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initLocked()
}

// CurrentQuestion returns the question at the current position.
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.questions) == 0 {
		return domain.Question{}, false
	}
	return s.questions[s.currentIndex], true
}

// Question looks up a question by ID.
func (s *Session) Question(questionID string) (domain.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return domain.Question{}, false
}

// Snapshot returns a host-facing view of the session state.
func (s *Session) Snapshot() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	answered := make(map[string]bool, len(s.answers))
	for id := range s.answers {
		answered[id] = true
	}
	state := domain.SessionState{
		QuizID:         s.id,
		CurrentIndex:   s.currentIndex,
		TotalQuestions: len(s.questions),
		Answered:       answered,
		Paused:         s.paused,
		Completed:      s.completed,
	}
	if s.timeLimit > 0 {
		remaining := s.timeRemaining
		state.TimeRemaining = &remaining
	}
	return state
}
