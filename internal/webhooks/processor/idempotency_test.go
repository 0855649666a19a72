package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/kamaucodes/dukapay-backend/pkg/errors"
)

type memIdempotencyStore struct {
	keys  map[string]string
	fail  bool
	delED []string
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{keys: map[string]string{}}
}

func (m *memIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	return m.keys[key], nil
}

func (m *memIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if m.fail {
		return false, errors.New("connection refused")
	}
	if _, exists := m.keys[key]; exists {
		return false, nil
	}
	m.keys[key] = "claimed"
	return true, nil
}

func (m *memIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "dp:idempotency:" + scope + ":" + id
}

func (m *memIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.keys, key)
		m.delED = append(m.delED, key)
	}
	return nil
}

func TestCheckAndMarkFirstClaimWins(t *testing.T) {
	store := newMemIdempotencyStore()
	guard := NewIdempotencyGuard(store, time.Hour)

	fresh, err := guard.CheckAndMark(context.Background(), "stripe", "evt_1")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = guard.CheckAndMark(context.Background(), "stripe", "evt_1")
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestCheckAndMarkScopesByGateway(t *testing.T) {
	store := newMemIdempotencyStore()
	guard := NewIdempotencyGuard(store, time.Hour)

	fresh, err := guard.CheckAndMark(context.Background(), "stripe", "ref_1")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = guard.CheckAndMark(context.Background(), "paystack", "ref_1")
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestReleaseAllowsRetry(t *testing.T) {
	store := newMemIdempotencyStore()
	guard := NewIdempotencyGuard(store, time.Hour)

	_, err := guard.CheckAndMark(context.Background(), "mpesa", "NLJ1")
	require.NoError(t, err)
	require.NoError(t, guard.Release(context.Background(), "mpesa", "NLJ1"))

	fresh, err := guard.CheckAndMark(context.Background(), "mpesa", "NLJ1")
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestCheckAndMarkStoreFailure(t *testing.T) {
	store := newMemIdempotencyStore()
	store.fail = true
	guard := NewIdempotencyGuard(store, time.Hour)

	_, err := guard.CheckAndMark(context.Background(), "stripe", "evt_2")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}
