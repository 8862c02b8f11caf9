// Package sandbox provides the HTTP client for the external code-execution
// service used to grade debug questions. The engine only forwards code and
// test cases; every sandbox failure grades false at the caller.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pylearn-quiz-service/internal/domain"
)

type runRequest struct {
	Code      string            `json:"code"`
	TestCases []domain.TestCase `json:"testCases"`
}

type runResponse struct {
	Passed bool `json:"passed"`
}

// HTTPRunner implements grading.CodeRunner against a sandbox endpoint that
// accepts POST {code, testCases} and answers {passed}.
type HTTPRunner struct {
	url    string
	client *http.Client
}

func NewHTTPRunner(url string, timeout time.Duration) *HTTPRunner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPRunner{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (r *HTTPRunner) Run(ctx context.Context, code string, tests []domain.TestCase) (bool, error) {
	body, err := json.Marshal(runRequest{Code: code, TestCases: tests})
	if err != nil {
		return false, fmt.Errorf("encode run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("call sandbox: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("sandbox returned status %d", resp.StatusCode)
	}

	var out runResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("decode run response: %w", err)
	}
	return out.Passed, nil
}
