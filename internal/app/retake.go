package app

import (
	"context"
	"sync"
)

// BalanceStore is the injected currency wallet. The ledger never stores
// currency itself; it only proposes a debit and records whether it happened.
type BalanceStore interface {
	Get(ctx context.Context) (int, error)
	TrySpend(ctx context.Context, amount int) (bool, error)
}

// RetakeLedger gates paid retakes through a balance store and counts retakes
// per question for the life of the process.
type RetakeLedger struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewRetakeLedger() *RetakeLedger {
	return &RetakeLedger{counts: make(map[string]int)}
}

// RequestRetake attempts to debit cost from the store. On success the
// question's retake counter goes up by exactly one; on refusal nothing
// changes and the caller reports insufficient balance.
func (l *RetakeLedger) RequestRetake(ctx context.Context, questionID string, cost int, store BalanceStore) (bool, error) {
	ok, err := store.TrySpend(ctx, cost)
	if err != nil || !ok {
		return false, err
	}
	l.mu.Lock()
	l.counts[questionID]++
	l.mu.Unlock()
	return true, nil
}

// RetakeCount returns how many retakes were granted for a question; zero if
// it was never retaken.
func (l *RetakeLedger) RetakeCount(questionID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[questionID]
}
