package memory

import (
	"context"
	"sync"

	"pylearn-quiz-service/internal/domain"
)

// ProgressStore keeps per-user point and currency totals in memory,
// implementing app.ProgressSync.
type ProgressStore struct {
	mu     sync.Mutex
	totals map[string]domain.ProgressTotals
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{totals: make(map[string]domain.ProgressTotals)}
}

func (p *ProgressStore) Sync(_ context.Context, userID string, outcome domain.SubmissionOutcome) (domain.ProgressTotals, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	totals := p.totals[userID]
	totals.Points += outcome.PointsAwarded
	totals.Currency += outcome.CurrencyAwarded
	p.totals[userID] = totals
	return totals, nil
}

// Totals returns the user's current running totals.
func (p *ProgressStore) Totals(userID string) domain.ProgressTotals {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totals[userID]
}
