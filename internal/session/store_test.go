package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/familybicons/socios-server/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleData() models.MemberData {
	return models.MemberData{
		Investments: []models.InvestmentRecord{{Owner: "ana", MonthValues: "10,20,30"}},
		Debts: []models.DebtRecord{{
			Owner: "ana", Month: "Ene", Amount: decimal.NewFromInt(120), Term: 12, Status: models.StatusPending,
		}},
	}
}

func TestSessionTransitions(t *testing.T) {
	s := New()
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, Anonymous, s.State)
	assert.False(t, s.IsAuthenticated())

	s.SignIn("ana", sampleData(), nil)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "ana", s.Username)
	require.NotNil(t, s.Data)
	assert.Len(t, s.Data.Investments, 1)

	s.Reset()
	assert.Equal(t, Anonymous, s.State)
	assert.Empty(t, s.Username)
	assert.Nil(t, s.Data)
	assert.Equal(t, "anonymous", s.State.String())
}

func TestMemoryStoreIsolatesCopies(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	s := New()
	s.SignIn("ana", sampleData(), nil)
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	got.Reset()

	again, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, again.IsAuthenticated(), "mutating a fetched copy must not change the stored session")

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRefreshDoesNotRecreate(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	s := New()
	s.SignIn("ana", sampleData(), nil)
	assert.ErrorIs(t, store.Refresh(ctx, s), ErrNotFound)

	require.NoError(t, store.Save(ctx, s))
	s.Touch()
	require.NoError(t, store.Refresh(ctx, s))

	require.NoError(t, store.Delete(ctx, s.ID))
	assert.ErrorIs(t, store.Refresh(ctx, s), ErrNotFound)

	_, err := store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()
	now := time.Now()
	store.now = func() time.Time { return now }

	fresh := New()
	fresh.LastSeen = now
	stale := New()
	stale.LastSeen = now.Add(-2 * time.Minute)
	require.NoError(t, store.Save(ctx, fresh))
	require.NoError(t, store.Save(ctx, stale))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Get(ctx, stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set; skipping Redis session store test")
	}

	ctx := context.Background()
	client, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	store := NewRedisStore(client, time.Minute)

	s := New()
	s.SignIn("ana", sampleData(), nil)
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana", got.Username)
	assert.True(t, got.IsAuthenticated())
	require.NotNil(t, got.Data)
	assert.True(t, got.Data.Debts[0].Amount.Equal(decimal.NewFromInt(120)))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)

	require.NoError(t, store.Refresh(ctx, got))

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Refresh(ctx, got), ErrNotFound)
}
