package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// trySpendScript debits atomically so concurrent retakes cannot overdraw.
var trySpendScript = redis.NewScript(`
local balance = tonumber(redis.call('GET', KEYS[1]) or '0')
local cost = tonumber(ARGV[1])
if cost < 0 or balance < cost then
	return 0
end
redis.call('DECRBY', KEYS[1], cost)
return 1
`)

// BalanceStore keeps the per-user currency balance in Redis, implementing
// app.BalanceStore. It is the durable replacement for the client-side wallet.
type BalanceStore struct {
	client *redis.Client
	userID string
}

func NewBalanceStore(client *redis.Client, userID string) *BalanceStore {
	return &BalanceStore{client: client, userID: userID}
}

func (b *BalanceStore) Get(ctx context.Context) (int, error) {
	balance, err := b.client.Get(ctx, b.key()).Int()
	if err == redis.Nil {
		return 0, nil
	}
	return balance, err
}

func (b *BalanceStore) TrySpend(ctx context.Context, amount int) (bool, error) {
	ok, err := trySpendScript.Run(ctx, b.client, []string{b.key()}, amount).Int()
	if err != nil {
		return false, err
	}
	return ok == 1, nil
}

// Deposit credits the wallet with earned currency.
func (b *BalanceStore) Deposit(ctx context.Context, amount int) error {
	if amount <= 0 {
		return nil
	}
	return b.client.IncrBy(ctx, b.key(), int64(amount)).Err()
}

func (b *BalanceStore) key() string {
	return "user:" + b.userID + ":balance"
}
