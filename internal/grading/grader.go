package grading

import (
	"context"
	"fmt"
	"math"
	"strings"

	"pylearn-quiz-service/internal/domain"
)

// CodeRunner executes user code against test cases in an external sandbox.
// Implementations own their own timeout/cancellation policy; the grader only
// contains failures.
type CodeRunner interface {
	Run(ctx context.Context, code string, tests []domain.TestCase) (bool, error)
}

// RunnerFunc adapts a plain function to CodeRunner.
type RunnerFunc func(ctx context.Context, code string, tests []domain.TestCase) (bool, error)

func (f RunnerFunc) Run(ctx context.Context, code string, tests []domain.TestCase) (bool, error) {
	return f(ctx, code, tests)
}

// Options carries the optional collaborators a grading call may need.
type Options struct {
	Runner    CodeRunner
	TestCases []domain.TestCase
}

// Grade dispatches to the per-type grader and converts the verdict into a
// GradeResult. It never panics and never returns an error: malformed input and
// unknown types degrade to an incorrect result, because grading runs against
// user-controlled data and must not abort the session.
func Grade(ctx context.Context, qtype domain.QuestionType, userInput, correctAnswer any, opts Options) domain.GradeResult {
	switch qtype {
	case domain.TypeMultipleChoice:
		selected, okSel := asInt(userInput)
		correct, okCor := asInt(correctAnswer)
		return boolResult(okSel && okCor && MultipleChoice(selected, correct))
	case domain.TypeFillInBlank:
		answer, ok := asString(userInput)
		if !ok {
			return boolResult(false)
		}
		accepted, _ := asStringSlice(correctAnswer)
		return boolResult(FillInBlank(answer, accepted))
	case domain.TypeDragAndDrop:
		partial := DragAndDrop(userInput, correctAnswer)
		return domain.GradeResult{IsCorrect: partial == 1.0, PartialScore: partial}
	case domain.TypeCode:
		output, okOut := asString(userInput)
		expected, okExp := asString(correctAnswer)
		return boolResult(okOut && okExp && Code(output, expected))
	case domain.TypeDebug:
		code, ok := asString(userInput)
		if !ok || opts.Runner == nil {
			return boolResult(false)
		}
		return boolResult(Debug(ctx, code, opts.TestCases, opts.Runner))
	default:
		return boolResult(false)
	}
}

// MultipleChoice compares the selected option index with the correct one.
// No normalization.
func MultipleChoice(selected, correct int) bool {
	return selected == correct
}

// FillInBlank reports whether the answer matches any accepted string, ignoring
// case and surrounding whitespace. An empty accepted list grades false.
func FillInBlank(answer string, accepted []string) bool {
	normalized := normalize(answer)
	for _, want := range accepted {
		if normalize(want) == normalized {
			return true
		}
	}
	return false
}

// DragAndDrop returns the partial score in [0,1] for either supported answer
// shape: two ordered sequences of equal length are scored positionally, two
// item-to-zone mappings are scored by matched key. Every other shape combination
// scores 0.
func DragAndDrop(userInput, correctAnswer any) float64 {
	if userSeq, ok := asSlice(userInput); ok {
		correctSeq, ok := asSlice(correctAnswer)
		if !ok || len(userSeq) != len(correctSeq) || len(correctSeq) == 0 {
			return 0
		}
		matched := 0
		for i := range correctSeq {
			if scalarKey(userSeq[i]) == scalarKey(correctSeq[i]) {
				matched++
			}
		}
		return float64(matched) / float64(len(correctSeq))
	}

	userMap, okUser := asMap(userInput)
	correctMap, okCorrect := asMap(correctAnswer)
	if !okUser || !okCorrect || len(correctMap) == 0 {
		return 0
	}
	matched := 0
	for key, want := range correctMap {
		if got, ok := userMap[key]; ok && scalarKey(got) == scalarKey(want) {
			matched++
		}
	}
	return float64(matched) / float64(len(correctMap))
}

// Code compares program output with the expected output. Leading and trailing
// whitespace is ignored; internal whitespace and case are significant.
func Code(output, expected string) bool {
	return strings.TrimSpace(output) == strings.TrimSpace(expected)
}

// Debug forwards to the runner and contains every failure mode: a returned
// error, or a panic from a misbehaving runner, both grade false.
func Debug(ctx context.Context, code string, tests []domain.TestCase, runner CodeRunner) (passed bool) {
	defer func() {
		if recover() != nil {
			passed = false
		}
	}()
	passed, err := runner.Run(ctx, code, tests)
	if err != nil {
		return false
	}
	return passed
}

func boolResult(correct bool) domain.GradeResult {
	if correct {
		return domain.GradeResult{IsCorrect: true, PartialScore: 1.0}
	}
	return domain.GradeResult{}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// scalarKey canonicalizes drag-and-drop item values so that JSON-decoded
// numbers (float64) and native ints compare equal.
func scalarKey(v any) string {
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) {
			return fmt.Sprintf("%d", int64(n))
		}
	case float32:
		return scalarKey(float64(n))
	}
	return fmt.Sprint(v)
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	}
	return 0, false
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asStringSlice(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}
