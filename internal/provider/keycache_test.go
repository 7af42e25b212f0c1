package provider_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"go_storereview_auth/internal/metrics"
	"go_storereview_auth/internal/model"
	"go_storereview_auth/internal/provider"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeyCache(server *jwksServer) *provider.KeyCache {
	return provider.NewKeyCache(server.URL, provider.NewHTTPClient(2*time.Second), 2*time.Second)
}

func TestKeyCache_Lookup(t *testing.T) {
	key1 := newSigningKey(t, "kid-1")
	server := newJWKSServer(t, key1)
	cache := newKeyCache(server)
	ctx := context.Background()

	t.Run("初回は取得してから返す", func(t *testing.T) {
		pub, err := cache.Lookup(ctx, "kid-1")
		require.NoError(t, err)
		assert.Equal(t, key1.priv.PublicKey.N, pub.N)
		assert.Equal(t, int64(1), cache.Fetches())
	})

	t.Run("既知の kid では取得しない", func(t *testing.T) {
		_, err := cache.Lookup(ctx, "kid-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), cache.Fetches())
	})

	t.Run("未知の kid は一度だけ取り直して失敗する", func(t *testing.T) {
		_, err := cache.Lookup(ctx, "kid-unknown")
		assert.ErrorIs(t, err, model.ErrUnknownSigningKey)
		assert.ErrorIs(t, err, model.ErrInvalidToken)
		assert.Equal(t, int64(2), cache.Fetches())
	})
}

func TestKeyCache_RotationRefreshesOnce(t *testing.T) {
	key1 := newSigningKey(t, "kid-1")
	key2 := newSigningKey(t, "kid-2")
	server := newJWKSServer(t, key1)
	cache := newKeyCache(server)
	ctx := context.Background()

	require.NoError(t, cache.Refresh(ctx))
	require.Equal(t, int64(1), cache.Fetches())

	server.setKeys(key1, key2)

	pub, err := cache.Lookup(ctx, "kid-2")
	require.NoError(t, err)
	assert.Equal(t, key2.priv.PublicKey.N, pub.N)
	assert.Equal(t, int64(2), cache.Fetches())

	// 以降は再取得しない
	_, err = cache.Lookup(ctx, "kid-2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), cache.Fetches())
}

func TestKeyCache_ConcurrentRefreshCollapses(t *testing.T) {
	key1 := newSigningKey(t, "kid-1")
	server := newJWKSServer(t, key1)
	cache := newKeyCache(server)

	release := make(chan struct{})
	server.setBlock(release)

	const callers = 20
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Lookup(context.Background(), "kid-1")
			errs <- err
		}()
	}

	// 全員が取得待ちに入るのを待ってから解放する
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(1), cache.Fetches())
	assert.Equal(t, int64(1), server.hits.Load())
}

func TestKeyCache_CancelledWaiterDoesNotFailOthers(t *testing.T) {
	key1 := newSigningKey(t, "kid-1")
	server := newJWKSServer(t, key1)
	cache := newKeyCache(server)

	release := make(chan struct{})
	server.setBlock(release)

	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancelledErr := make(chan error, 1)
	go func() {
		cancelledErr <- cache.Refresh(cancelledCtx)
	}()
	time.Sleep(50 * time.Millisecond)

	otherErr := make(chan error, 1)
	go func() {
		_, err := cache.Lookup(context.Background(), "kid-1")
		otherErr <- err
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	err := <-cancelledErr
	assert.ErrorIs(t, err, model.ErrVerificationFailed)

	close(release)
	assert.NoError(t, <-otherErr)
	assert.Equal(t, int64(1), cache.Fetches())
}

func TestKeyCache_FetchFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("エラーステータス", func(t *testing.T) {
		server := newJWKSServer(t, newSigningKey(t, "kid-1"))
		server.setStatus(http.StatusServiceUnavailable)
		cache := newKeyCache(server)

		before := testutil.ToFloat64(metrics.JWKSRefreshes.WithLabelValues("error"))
		_, err := cache.Lookup(ctx, "kid-1")
		assert.ErrorIs(t, err, model.ErrVerificationFailed)
		assert.NotErrorIs(t, err, model.ErrInvalidToken)
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.JWKSRefreshes.WithLabelValues("error")))
	})

	t.Run("空の鍵セット", func(t *testing.T) {
		server := newJWKSServer(t)
		cache := newKeyCache(server)

		err := cache.Refresh(ctx)
		assert.ErrorIs(t, err, model.ErrVerificationFailed)
	})

	t.Run("接続できない", func(t *testing.T) {
		server := newJWKSServer(t, newSigningKey(t, "kid-1"))
		cache := newKeyCache(server)
		server.Close()

		err := cache.Refresh(ctx)
		assert.ErrorIs(t, err, model.ErrVerificationFailed)
	})
}
