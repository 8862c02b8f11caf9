package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"pylearn-quiz-service/internal/domain"
)

// ProgressStore persists per-user point and currency totals in a Redis hash,
// implementing app.ProgressSync: HINCRBY user:{id}:progress points/currency.
type ProgressStore struct {
	client *redis.Client
}

func NewProgressStore(client *redis.Client) *ProgressStore {
	return &ProgressStore{client: client}
}

func (p *ProgressStore) Sync(ctx context.Context, userID string, outcome domain.SubmissionOutcome) (domain.ProgressTotals, error) {
	key := p.key(userID)

	pipe := p.client.TxPipeline()
	points := pipe.HIncrBy(ctx, key, "points", int64(outcome.PointsAwarded))
	currency := pipe.HIncrBy(ctx, key, "currency", int64(outcome.CurrencyAwarded))
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.ProgressTotals{}, err
	}

	return domain.ProgressTotals{
		Points:   int(points.Val()),
		Currency: int(currency.Val()),
	}, nil
}

func (p *ProgressStore) key(userID string) string {
	return "user:" + userID + ":progress"
}
