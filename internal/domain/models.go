package domain

// QuestionType discriminates the grading path for a question.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeFillInBlank    QuestionType = "fill_in_the_blank"
	TypeDragAndDrop    QuestionType = "drag_and_drop"
	TypeCode           QuestionType = "code"
	TypeDebug          QuestionType = "debug"
)

// TestCase is a single input/expected pair handed to the code-execution runner
// for debug questions. The engine never interprets it.
type TestCase struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// Question is immutable once a session is created.
//
// CorrectAnswer is deliberately loose: depending on Type it is an option index,
// a list of accepted strings, an item→zone mapping or an ordered sequence, or an
// expected stdout string. The grader resolves the shape at grading time.
type Question struct {
	ID               string       `json:"id"`
	Type             QuestionType `json:"type"`
	Prompt           string       `json:"prompt"`
	Points           int          `json:"points"`   // defaults to 1 if zero
	Currency         int          `json:"currency"` // defaults to 1 if zero
	CorrectAnswer    any          `json:"correctAnswer"`
	TestCases        []TestCase   `json:"testCases,omitempty"`
	TimeLimitSeconds int          `json:"timeLimitSeconds,omitempty"`
}

// PointsOrDefault returns the question's point value, treating zero as 1.
func (q Question) PointsOrDefault() int {
	if q.Points == 0 {
		return 1
	}
	return q.Points
}

// CurrencyOrDefault returns the question's currency reward, treating zero as 1.
func (q Question) CurrencyOrDefault() int {
	if q.Currency == 0 {
		return 1
	}
	return q.Currency
}

// Quiz is an ordered collection of questions.
type Quiz struct {
	ID               string     `json:"id"`
	Title            string     `json:"title,omitempty"`
	Questions        []Question `json:"questions"`
	TimeLimitSeconds int        `json:"timeLimitSeconds,omitempty"` // 0 means untimed
}

// GradeResult is the verdict for one answer.
//
// Invariant: IsCorrect is true iff PartialScore == 1.0. For every type except
// drag-and-drop PartialScore is exactly 0 or 1.
type GradeResult struct {
	IsCorrect    bool    `json:"isCorrect"`
	PartialScore float64 `json:"partialScore"`
}

// SubmissionOutcome combines the verdict with the awarded points and currency
// for a single processed submission.
type SubmissionOutcome struct {
	QuestionID      string      `json:"questionId"`
	Result          GradeResult `json:"result"`
	PointsAwarded   int         `json:"pointsAwarded"`
	CurrencyAwarded int         `json:"currencyAwarded"`
}

// QuizResult is the final summary of a completed session.
type QuizResult struct {
	Score          int                 `json:"score"`
	MaxScore       int                 `json:"maxScore"`
	Percentage     int                 `json:"percentage"`
	CorrectCount   int                 `json:"correctCount"`
	TotalQuestions int                 `json:"totalQuestions"`
	PerQuestion    []SubmissionOutcome `json:"perQuestion"`
}

// SessionState is a snapshot-friendly view of a quiz session for hosts.
type SessionState struct {
	QuizID         string          `json:"quizId"`
	CurrentIndex   int             `json:"currentIndex"`
	TotalQuestions int             `json:"totalQuestions"`
	Answered       map[string]bool `json:"answered"`
	TimeRemaining  *int            `json:"timeRemaining,omitempty"`
	Paused         bool            `json:"paused"`
	Completed      bool            `json:"completed"`
}

// ProgressTotals are the running per-user totals kept by the progress store.
type ProgressTotals struct {
	Points   int `json:"points"`
	Currency int `json:"currency"`
}
