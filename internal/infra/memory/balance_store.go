package memory

import (
	"context"
	"sync"
)

// BalanceStore is an in-memory wallet implementing app.BalanceStore. It stands
// in for the durable currency economy during tests and demo runs.
type BalanceStore struct {
	mu      sync.Mutex
	balance int
}

func NewBalanceStore(initial int) *BalanceStore {
	return &BalanceStore{balance: initial}
}

func (b *BalanceStore) Get(_ context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance, nil
}

// TrySpend debits amount if the balance covers it; otherwise the balance is
// left untouched and false is returned.
func (b *BalanceStore) TrySpend(_ context.Context, amount int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if amount < 0 || b.balance < amount {
		return false, nil
	}
	b.balance -= amount
	return true, nil
}

// Deposit credits the wallet (used when currency rewards land).
func (b *BalanceStore) Deposit(_ context.Context, amount int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if amount > 0 {
		b.balance += amount
	}
}
