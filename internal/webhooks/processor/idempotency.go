package processor

import (
	"context"
	"time"

	pkgerrors "github.com/kamaucodes/dukapay-backend/pkg/errors"
	"github.com/kamaucodes/dukapay-backend/pkg/redis"
)

// IdempotencyGuard short-circuits redelivered webhook events by their gateway
// event id. It is an optimization in front of the ledger's unique key, which
// remains the authority.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration) *IdempotencyGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyGuard{store: store, ttl: ttl}
}

// CheckAndMark claims the event id. The first caller gets fresh=true; later
// callers for the same id within the TTL get fresh=false.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, scope, eventID string) (bool, error) {
	if g == nil || g.store == nil {
		return true, nil
	}
	key := g.store.IdempotencyKey(scope, eventID)
	fresh, err := g.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.ttl)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency check failed")
	}
	return fresh, nil
}

// Release frees a claimed event id so a failed delivery can be retried.
func (g *IdempotencyGuard) Release(ctx context.Context, scope, eventID string) error {
	if g == nil || g.store == nil {
		return nil
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(scope, eventID))
}
