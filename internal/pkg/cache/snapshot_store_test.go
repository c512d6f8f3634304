package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/adapty"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/env"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/sandbox"
)

const isolatedSnapshotTestRedisDB = 13

// newIsolatedRedisClient connects to a flushed test database or skips the
// test when no Redis is reachable.
func newIsolatedRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := fmt.Sprintf("%s:%s", env.GetEnv("CACHE_HOST", "localhost"), env.GetEnv("CACHE_PORT", "6379"))
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       isolatedSnapshotTestRedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	err := client.Ping(ctx).Err()
	cancel()
	if err != nil {
		_ = client.Close()
		t.Skipf("Skipping Redis-dependent test: no reachable Redis endpoint at %s (%v)", addr, err)
	}

	require.NoError(t, client.FlushDB(context.Background()).Err())
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}

func testPaywall(rev int) *adapty.Paywall {
	return &adapty.Paywall{ID: "main", ABTestName: "default", VariationID: fmt.Sprintf("v%d", rev), Revision: rev, Locale: "en"}
}

func TestSnapshotStoreProfiles(t *testing.T) {
	store := NewSnapshotStore(newIsolatedRedisClient(t), time.Minute)
	ctx := context.Background()

	_, err := store.LoadProfile(ctx, "customer:x")
	assert.True(t, errors.Is(err, sandbox.ErrNotFound))

	in := &adapty.Profile{ProfileID: "p1", CustomerUserID: adapty.Ptr("x"), CustomAttributes: map[string]interface{}{"firstName": "Ada"}}
	require.NoError(t, store.SaveProfile(ctx, "customer:x", in))

	out, err := store.LoadProfile(ctx, "customer:x")
	require.NoError(t, err)
	assert.Equal(t, in, out)

	assert.True(t, errors.Is(store.SaveProfile(ctx, "customer:y", &adapty.Profile{}), adapty.ErrInvariant))
}

func TestSnapshotStorePaywallRevisionGuard(t *testing.T) {
	store := NewSnapshotStore(newIsolatedRedisClient(t), 0)
	ctx := context.Background()

	require.NoError(t, store.SavePaywall(ctx, testPaywall(2)))
	assert.True(t, errors.Is(store.SavePaywall(ctx, testPaywall(1)), sandbox.ErrStaleRevision))
	require.NoError(t, store.SavePaywall(ctx, testPaywall(5)))

	p, err := store.LoadPaywall(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Revision)
}

func TestSnapshotStoreConcurrentPublishers(t *testing.T) {
	store := NewSnapshotStore(newIsolatedRedisClient(t), 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for rev := 1; rev <= 10; rev++ {
		wg.Add(1)
		go func(rev int) {
			defer wg.Done()
			_ = store.SavePaywall(ctx, testPaywall(rev))
		}(rev)
	}
	wg.Wait()

	// Stale publishers lose; an equal revision rewrite is accepted.
	require.NoError(t, store.SavePaywall(ctx, testPaywall(10)))
	p, err := store.LoadPaywall(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, 10, p.Revision)
}

func TestSnapshotStoreBacksSandbox(t *testing.T) {
	store := NewSnapshotStore(newIsolatedRedisClient(t), 0)
	ctx := context.Background()

	sdk := sandbox.New(store, nil, adapty.PlatformAndroid)
	require.NoError(t, sdk.SeedPaywalls(ctx))

	p, err := store.LoadPaywall(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, "main-default", p.VariationID)
}
