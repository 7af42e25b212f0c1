package provider

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go_storereview_auth/internal/metrics"
	"go_storereview_auth/internal/middleware"
	"go_storereview_auth/internal/model"

	"github.com/go-jose/go-jose/v4"
	"golang.org/x/sync/singleflight"
)

// KeyCache は Apple の署名鍵 (JWKS) を kid ごとに保持します。
// 未知の kid が来たときだけ取り直すので TTL は持たない。
type KeyCache struct {
	keysURL string
	client  *http.Client
	timeout time.Duration

	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey

	group   singleflight.Group
	fetches atomic.Int64
}

func NewKeyCache(keysURL string, client *http.Client, timeout time.Duration) *KeyCache {
	return &KeyCache{
		keysURL: keysURL,
		client:  client,
		timeout: timeout,
		keys:    make(map[string]*rsa.PublicKey),
	}
}

func (c *KeyCache) Get(kid string) (*rsa.PublicKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.keys[kid]
	return key, ok
}

// Fetches はこれまでに JWKS を取得しにいった回数を返します
func (c *KeyCache) Fetches() int64 {
	return c.fetches.Load()
}

// Lookup は kid の鍵を返します。見つからなければ一度だけ取り直します。
func (c *KeyCache) Lookup(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := c.Get(kid); ok {
		return key, nil
	}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	if key, ok := c.Get(kid); ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: kid %q", model.ErrUnknownSigningKey, kid)
}

// Refresh は鍵セットを取得し直して置き換えます。
// 同時に呼ばれた場合は取得を1回にまとめ、全員がその結果を受け取る。
func (c *KeyCache) Refresh(ctx context.Context) error {
	ch := c.group.DoChan("refresh", func() (interface{}, error) {
		// 呼び出し元の一人がキャンセルしても、待っている他のリクエストを巻き込まない
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return nil, c.fetch(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: apple: waiting for signing keys: %v", model.ErrVerificationFailed, ctx.Err())
	case res := <-ch:
		return res.Err
	}
}

func (c *KeyCache) fetch(ctx context.Context) error {
	logger := middleware.GetLogger(ctx)
	c.fetches.Add(1)

	keys, err := c.download(ctx)
	if err != nil {
		metrics.JWKSRefreshes.WithLabelValues("error").Inc()
		logger.Warn("Failed to refresh apple signing keys", "error", err)
		return err
	}

	c.mu.Lock()
	c.keys = keys
	c.mu.Unlock()

	metrics.JWKSRefreshes.WithLabelValues("success").Inc()
	logger.Info("Apple signing keys refreshed", "keys", len(keys))
	return nil
}

func (c *KeyCache) download(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.keysURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: apple: %v", model.ErrVerificationFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: apple: keys request: %v", model.ErrVerificationFailed, transportError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: apple: keys status %d", model.ErrVerificationFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: apple: reading keys: %v", model.ErrVerificationFailed, err)
	}

	var set jose.JSONWebKeySet
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("%w: apple: undecodable key set: %v", model.ErrVerificationFailed, err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.KeyID == "" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, ok := k.Key.(*rsa.PublicKey)
		if !ok {
			continue
		}
		keys[k.KeyID] = pub
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: apple: key set has no RSA signing keys", model.ErrVerificationFailed)
	}
	return keys, nil
}
