package app

import (
	"context"
	"errors"
	"testing"

	"pylearn-quiz-service/internal/domain"
)

func threeQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Type: domain.TypeMultipleChoice, CorrectAnswer: 1, Points: 1},
		{ID: "q2", Type: domain.TypeFillInBlank, CorrectAnswer: []any{"tuple"}, Points: 2},
		{ID: "q3", Type: domain.TypeCode, CorrectAnswer: "42", Points: 3},
	}
}

func newTestSession(opts ...SessionOption) *Session {
	return NewSession("py-basics", threeQuestions(), NewProcessor(nil), opts...)
}

func TestSessionCreateAndNavigation(t *testing.T) {
	s := newTestSession()
	if s.MaxScore() != 6 {
		t.Fatalf("expected max score 6, got %d", s.MaxScore())
	}

	state := s.Snapshot()
	if state.CurrentIndex != 0 || state.Completed || state.Paused || len(state.Answered) != 0 {
		t.Fatalf("unexpected initial state %+v", state)
	}
	if state.TimeRemaining != nil {
		t.Fatalf("untimed session must not expose a countdown")
	}

	s.Next()
	s.Next()
	s.Next() // at the last question already: silent no-op
	if idx := s.Snapshot().CurrentIndex; idx != 2 {
		t.Fatalf("expected index pinned at 2, got %d", idx)
	}

	s.GoTo(5) // out of range: silent no-op
	s.GoTo(-1)
	if idx := s.Snapshot().CurrentIndex; idx != 2 {
		t.Fatalf("expected out-of-range goto to be ignored, got %d", idx)
	}

	s.Previous()
	if idx := s.Snapshot().CurrentIndex; idx != 1 {
		t.Fatalf("expected previous to move to 1, got %d", idx)
	}
}

func TestSessionRecordAnswerOverwrites(t *testing.T) {
	s := newTestSession()
	if err := s.RecordAnswer("q2", "list"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.RecordAnswer("q2", "tuple"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := s.RecordAnswer("nope", "x"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestSessionFinalizeRefusesIncomplete(t *testing.T) {
	ctx := context.Background()
	s := newTestSession()
	_ = s.RecordAnswer("q1", 1)
	_ = s.RecordAnswer("q3", "42")

	_, err := s.Finalize(ctx, false)
	if !errors.Is(err, domain.ErrQuizIncomplete) {
		t.Fatalf("expected refusal, got %v", err)
	}
	if s.Snapshot().Completed {
		t.Fatalf("refused finalize must leave the session active")
	}
	if idx := s.FirstUnanswered(); idx != 1 {
		t.Fatalf("expected first unanswered index 1, got %d", idx)
	}

	// Auto-submit grades the missing answer as incorrect.
	result, err := s.Finalize(ctx, true)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if result.Score != 4 || result.MaxScore != 6 || result.CorrectCount != 2 || result.TotalQuestions != 3 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Percentage != 67 {
		t.Fatalf("expected 67%%, got %d", result.Percentage)
	}
	if !s.Snapshot().Completed {
		t.Fatalf("expected completed session")
	}
}

func TestSessionCompletedIsTerminal(t *testing.T) {
	ctx := context.Background()
	s := newTestSession()
	_ = s.RecordAnswer("q1", 1)
	_ = s.RecordAnswer("q2", "tuple")
	_ = s.RecordAnswer("q3", "42")

	result, err := s.Finalize(ctx, false)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if result.Score != 6 || result.Percentage != 100 || result.CorrectCount != 3 {
		t.Fatalf("unexpected perfect result %+v", result)
	}

	if err := s.RecordAnswer("q1", 0); !errors.Is(err, domain.ErrSessionCompleted) {
		t.Fatalf("expected ErrSessionCompleted, got %v", err)
	}
	if _, err := s.Finalize(ctx, true); !errors.Is(err, domain.ErrSessionCompleted) {
		t.Fatalf("expected ErrSessionCompleted on double finalize, got %v", err)
	}
	s.GoTo(1) // no-op after completion
	if idx := s.Snapshot().CurrentIndex; idx != 0 {
		t.Fatalf("expected navigation frozen after completion, got %d", idx)
	}
	stored, ok := s.Result()
	if !ok || stored.Score != result.Score {
		t.Fatalf("expected stored result to match, ok=%v stored=%+v", ok, stored)
	}
}

func TestSessionTimerExpiryAutoSubmits(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(WithTimeLimit(3))
	_ = s.RecordAnswer("q1", 1)

	if state := s.Snapshot(); state.TimeRemaining == nil || *state.TimeRemaining != 3 {
		t.Fatalf("expected countdown armed at 3, got %+v", state.TimeRemaining)
	}

	finalized := 0
	for i := 0; i < 5; i++ {
		if _, expired := s.Tick(ctx); expired {
			finalized++
		}
	}
	if finalized != 1 {
		t.Fatalf("expected exactly one timeout finalize, got %d", finalized)
	}
	if !s.Snapshot().Completed {
		t.Fatalf("expected session completed after timeout")
	}
	result, ok := s.Result()
	if !ok || result.Score != 1 || result.CorrectCount != 1 {
		t.Fatalf("expected only the recorded answer to score, got %+v", result)
	}
}

func TestSessionPauseFreezesCountdown(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(WithTimeLimit(10))

	s.Tick(ctx)
	s.Pause()
	s.Tick(ctx)
	s.Tick(ctx)
	if remaining := *s.Snapshot().TimeRemaining; remaining != 9 {
		t.Fatalf("expected paused ticks ignored, remaining=%d", remaining)
	}
	if !s.Snapshot().Paused {
		t.Fatalf("expected paused state")
	}

	s.Resume()
	s.Tick(ctx)
	if remaining := *s.Snapshot().TimeRemaining; remaining != 8 {
		t.Fatalf("expected resumed tick to count, remaining=%d", remaining)
	}
}

func TestSessionResetRestoresInitialState(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(WithTimeLimit(5))
	_ = s.RecordAnswer("q1", 1)
	s.Next()
	s.Tick(ctx)
	if _, err := s.Finalize(ctx, true); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	s.Reset()
	state := s.Snapshot()
	if state.Completed || state.Paused || state.CurrentIndex != 0 || len(state.Answered) != 0 {
		t.Fatalf("expected pristine state after reset, got %+v", state)
	}
	if state.TimeRemaining == nil || *state.TimeRemaining != 5 {
		t.Fatalf("expected countdown rearmed at 5, got %+v", state.TimeRemaining)
	}

	// Reset is idempotent.
	s.Reset()
	if state := s.Snapshot(); state.Completed || state.CurrentIndex != 0 {
		t.Fatalf("expected second reset to be a no-op, got %+v", state)
	}

	if err := s.RecordAnswer("q1", 1); err != nil {
		t.Fatalf("expected session usable after reset: %v", err)
	}
}

func TestSessionEmptyQuizFinalizes(t *testing.T) {
	s := NewSession("empty", nil, NewProcessor(nil))
	result, err := s.Finalize(context.Background(), false)
	if err != nil {
		t.Fatalf("finalize empty quiz: %v", err)
	}
	if result.MaxScore != 0 || result.Percentage != 0 || result.TotalQuestions != 0 {
		t.Fatalf("expected zeroed result, got %+v", result)
	}
}

func TestSessionDragAndDropPartialCountsAsCorrect(t *testing.T) {
	questions := []domain.Question{
		{
			ID:   "dnd",
			Type: domain.TypeDragAndDrop,
			CorrectAnswer: map[string]any{
				"a": "zone1",
				"b": "zone2",
			},
			Points: 10,
		},
	}
	s := NewSession("dnd-quiz", questions, NewProcessor(nil))
	_ = s.RecordAnswer("dnd", map[string]any{"a": "zone1", "b": "zone3"})

	result, err := s.Finalize(context.Background(), false)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if result.Score != 5 {
		t.Fatalf("expected 5 of 10 points, got %d", result.Score)
	}
	if result.CorrectCount != 1 {
		t.Fatalf("expected partial drag-and-drop to count toward correctCount, got %d", result.CorrectCount)
	}
}
