package app

import (
	"context"

	"pylearn-quiz-service/internal/domain"
)

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis
// liveness, etc). Sessions are keyed by quiz and user so every learner gets
// their own attempt.
type SessionRepository interface {
	GetOrCreate(key string, build func() *Session) *Session
	Get(key string) (*Session, bool)
	Delete(key string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ProgressSync persists awarded points and currency after a submission and
// reports the user's new running totals. Called by the service, never by the
// grading core.
type ProgressSync interface {
	Sync(ctx context.Context, userID string, outcome domain.SubmissionOutcome) (domain.ProgressTotals, error)
}

// QuizService contains the quiz engine use cases: the inline single-question
// submit path and the multi-question session path.
type QuizService struct {
	sessions  SessionRepository
	quizzes   QuizRepository
	processor *Processor
	progress  ProgressSync
	ledger    *RetakeLedger
	balances  BalanceStore
}

func NewQuizService(sessions SessionRepository, quizzes QuizRepository, processor *Processor, progress ProgressSync, balances BalanceStore) *QuizService {
	return &QuizService{
		sessions:  sessions,
		quizzes:   quizzes,
		processor: processor,
		progress:  progress,
		ledger:    NewRetakeLedger(),
		balances:  balances,
	}
}

// Start opens (or resumes) a session for the quiz and returns its state.
func (s *QuizService) Start(ctx context.Context, quizID, userID string) (domain.SessionState, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.SessionState{}, err
	}
	session := s.sessions.GetOrCreate(sessionKey(quizID, userID), func() *Session {
		return NewSession(quiz.ID, quiz.Questions, s.processor, WithTimeLimit(quiz.TimeLimitSeconds))
	})
	return session.Snapshot(), nil
}

// SubmitAnswer is the inline path: grade one question immediately, sync the
// awarded points and currency, and record the answer into the session so a
// later finalize sees it. The one-attempt gate stays with the caller, matching
// the answered flag the UI keeps per block.
func (s *QuizService) SubmitAnswer(ctx context.Context, quizID, userID, questionID string, userInput any) (domain.SubmissionOutcome, domain.ProgressTotals, error) {
	session, ok := s.sessions.Get(sessionKey(quizID, userID))
	if !ok {
		return domain.SubmissionOutcome{}, domain.ProgressTotals{}, domain.ErrSessionNotFound
	}
	question, ok := session.Question(questionID)
	if !ok {
		return domain.SubmissionOutcome{}, domain.ProgressTotals{}, domain.ErrQuestionNotFound
	}

	outcome, err := s.processor.Submit(ctx, question, userInput)
	if err != nil {
		return domain.SubmissionOutcome{}, domain.ProgressTotals{}, err
	}
	if err := session.RecordAnswer(questionID, userInput); err != nil {
		return domain.SubmissionOutcome{}, domain.ProgressTotals{}, err
	}

	totals, err := s.progress.Sync(ctx, userID, outcome)
	if err != nil {
		// Grading already succeeded; a sync failure must not void the outcome.
		// The rewards stay uncredited so finalize picks them up.
		return outcome, domain.ProgressTotals{}, nil
	}
	session.MarkAwarded(questionID)
	return outcome, totals, nil
}

// RecordAnswer stores an answer without grading it (comprehensive-quiz path).
func (s *QuizService) RecordAnswer(ctx context.Context, quizID, userID, questionID string, userInput any) (domain.SessionState, error) {
	session, ok := s.sessions.Get(sessionKey(quizID, userID))
	if !ok {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	if err := session.RecordAnswer(questionID, userInput); err != nil {
		return domain.SessionState{}, err
	}
	return session.Snapshot(), nil
}

// Navigate applies a navigation action ("next", "prev", or an explicit index).
func (s *QuizService) Navigate(_ context.Context, quizID, userID string, apply func(*Session)) (domain.SessionState, error) {
	session, ok := s.sessions.Get(sessionKey(quizID, userID))
	if !ok {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	apply(session)
	return session.Snapshot(), nil
}

// Tick feeds one clock second into the session.
func (s *QuizService) Tick(ctx context.Context, quizID, userID string) (domain.QuizResult, bool, error) {
	session, ok := s.sessions.Get(sessionKey(quizID, userID))
	if !ok {
		return domain.QuizResult{}, false, domain.ErrSessionNotFound
	}
	result, expired := session.Tick(ctx)
	if expired {
		s.syncResult(ctx, userID, session, result)
	}
	return result, expired, nil
}

// Finalize grades the whole session. Refusals (unanswered questions without
// autoSubmit) surface as ErrQuizIncomplete with the session left active.
func (s *QuizService) Finalize(ctx context.Context, quizID, userID string, autoSubmit bool) (domain.QuizResult, error) {
	session, ok := s.sessions.Get(sessionKey(quizID, userID))
	if !ok {
		return domain.QuizResult{}, domain.ErrSessionNotFound
	}
	result, err := session.Finalize(ctx, autoSubmit)
	if err != nil {
		return domain.QuizResult{}, err
	}
	s.syncResult(ctx, userID, session, result)
	return result, nil
}

// RequestRetake gates a paid retake for one question through the balance store.
func (s *QuizService) RequestRetake(ctx context.Context, questionID string, cost int) (bool, error) {
	return s.ledger.RequestRetake(ctx, questionID, cost, s.balances)
}

// RetakeCount reports how many paid retakes a question has had.
func (s *QuizService) RetakeCount(questionID string) int {
	return s.ledger.RetakeCount(questionID)
}

// RetakeQuiz debits the retake cost and, on success, resets the session for a
// fresh attempt.
func (s *QuizService) RetakeQuiz(ctx context.Context, quizID, userID string, cost int) (domain.SessionState, bool, error) {
	session, ok := s.sessions.Get(sessionKey(quizID, userID))
	if !ok {
		return domain.SessionState{}, false, domain.ErrSessionNotFound
	}
	granted, err := s.ledger.RequestRetake(ctx, quizID, cost, s.balances)
	if err != nil || !granted {
		return session.Snapshot(), false, err
	}
	session.Reset()
	return session.Snapshot(), true, nil
}

// Leave drops the user's session.
func (s *QuizService) Leave(_ context.Context, quizID, userID string) {
	s.sessions.Delete(sessionKey(quizID, userID))
}

// syncResult pushes the per-question outcomes of a finalized quiz to the
// progress store. Questions credited earlier on the inline path are skipped so
// running totals never count a question twice. Best effort: failed syncs stay
// uncredited and land on the next attempt.
func (s *QuizService) syncResult(ctx context.Context, userID string, session *Session, result domain.QuizResult) {
	for _, outcome := range result.PerQuestion {
		if session.Awarded(outcome.QuestionID) {
			continue
		}
		if _, err := s.progress.Sync(ctx, userID, outcome); err == nil {
			session.MarkAwarded(outcome.QuestionID)
		}
	}
}

func sessionKey(quizID, userID string) string {
	return quizID + ":" + userID
}
