package provider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"go_storereview_auth/internal/model"
	"go_storereview_auth/internal/provider"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testGoogleAudience = "1234-web.apps.googleusercontent.com"
	testGoogleToken    = "eyJhbGciOiJSUzI1NiJ9.google-test-token.sig"
)

// tokenInfoServer は tokeninfo エンドポイントを模倣します。id_token ごとに返す内容を決める。
type tokenInfoServer struct {
	*httptest.Server
	hits      atomic.Int64
	responses map[string]map[string]any
	status    int
}

func newTokenInfoServer(t *testing.T, now time.Time) *tokenInfoServer {
	t.Helper()
	s := &tokenInfoServer{
		status: http.StatusOK,
		responses: map[string]map[string]any{
			testGoogleToken: {
				"iss":            "https://accounts.google.com",
				"aud":            testGoogleAudience,
				"sub":            "110169484474386276334",
				"exp":            strconv.FormatInt(now.Add(time.Hour).Unix(), 10),
				"email":          "taro@example.com",
				"email_verified": "true",
				"name":           "Taro Yamada",
				"picture":        "https://lh3.googleusercontent.com/a/photo.jpg",
				"given_name":     "Taro",
				"family_name":    "Yamada",
				"locale":         "ja",
			},
		},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		if s.status != http.StatusOK {
			w.WriteHeader(s.status)
			w.Write([]byte(`{"error":"invalid_token"}`))
			return
		}
		body, ok := s.responses[r.URL.Query().Get("id_token")]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_token"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(s.Close)
	return s
}

func newGoogleVerifier(server *tokenInfoServer, now time.Time, cacheTTL time.Duration, opts ...provider.GoogleOption) *provider.GoogleVerifier {
	opts = append(opts, provider.WithGoogleClock(func() time.Time { return now }))
	return provider.NewGoogleVerifier(provider.GoogleConfig{
		AllowedAudiences: []string{testGoogleAudience, "1234-ios.apps.googleusercontent.com"},
		TokenInfoURL:     server.URL + "/tokeninfo",
		CacheTTL:         cacheTTL,
	}, provider.NewHTTPClient(2*time.Second), opts...)
}

func TestGoogleVerifier_Success(t *testing.T) {
	now := time.Now()
	server := newTokenInfoServer(t, now)
	verifier := newGoogleVerifier(server, now, 0)

	identity, err := verifier.Verify(context.Background(), testGoogleToken)
	require.NoError(t, err)

	assert.Equal(t, model.ProviderGoogle, identity.Provider)
	assert.Equal(t, "110169484474386276334", identity.ProviderUserID)
	require.NotNil(t, identity.Email)
	assert.Equal(t, "taro@example.com", *identity.Email)
	assert.True(t, identity.EmailVerified)
	require.NotNil(t, identity.DisplayName)
	assert.Equal(t, "Taro Yamada", *identity.DisplayName)
	require.NotNil(t, identity.AvatarURL)
	assert.Equal(t, "ja", identity.Metadata[model.MetadataLocale])
	assert.Equal(t, "Taro", identity.Metadata[model.MetadataGivenName])
	assert.NotContains(t, identity.Metadata, model.MetadataHostedDomain)
}

func TestGoogleVerifier_Rejections(t *testing.T) {
	now := time.Now()
	base := func() map[string]any {
		return map[string]any{
			"iss":            "accounts.google.com",
			"aud":            testGoogleAudience,
			"sub":            "1",
			"exp":            strconv.FormatInt(now.Add(time.Hour).Unix(), 10),
			"email_verified": "false",
		}
	}

	testCases := []struct {
		name    string
		body    func() map[string]any
		wantErr error
	}{
		{
			name:    "aud が許可リストにない",
			body:    func() map[string]any { b := base(); b["aud"] = "other.apps.googleusercontent.com"; return b },
			wantErr: model.ErrAudienceMismatch,
		},
		{
			name:    "sub がない",
			body:    func() map[string]any { b := base(); delete(b, "sub"); return b },
			wantErr: model.ErrInvalidToken,
		},
		{
			name:    "発行者が違う",
			body:    func() map[string]any { b := base(); b["iss"] = "https://evil.example.com"; return b },
			wantErr: model.ErrInvalidToken,
		},
		{
			name: "有効期限切れ",
			body: func() map[string]any {
				b := base()
				b["exp"] = strconv.FormatInt(now.Add(-time.Minute).Unix(), 10)
				return b
			},
			wantErr: model.ErrInvalidToken,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := newTokenInfoServer(t, now)
			server.responses["tok"] = tc.body()
			verifier := newGoogleVerifier(server, now, 0)

			identity, err := verifier.Verify(context.Background(), "tok")
			assert.Nil(t, identity)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.NotErrorIs(t, err, model.ErrVerificationFailed)
		})
	}
}

func TestGoogleVerifier_UndecodableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	verifier := provider.NewGoogleVerifier(provider.GoogleConfig{
		AllowedAudiences: []string{testGoogleAudience},
		TokenInfoURL:     server.URL,
	}, provider.NewHTTPClient(time.Second))

	_, err := verifier.Verify(context.Background(), testGoogleToken)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestGoogleVerifier_TransportFailures(t *testing.T) {
	now := time.Now()

	t.Run("エラーステータスは検証失敗", func(t *testing.T) {
		server := newTokenInfoServer(t, now)
		server.status = http.StatusInternalServerError
		verifier := newGoogleVerifier(server, now, 0)

		_, err := verifier.Verify(context.Background(), testGoogleToken)
		assert.ErrorIs(t, err, model.ErrVerificationFailed)
	})

	t.Run("接続できない場合もトークンをエラーに含めない", func(t *testing.T) {
		server := newTokenInfoServer(t, now)
		verifier := newGoogleVerifier(server, now, 0)
		server.Close()

		_, err := verifier.Verify(context.Background(), testGoogleToken)
		require.ErrorIs(t, err, model.ErrVerificationFailed)
		assert.NotContains(t, err.Error(), testGoogleToken)
	})

	t.Run("キャンセル済みのコンテキスト", func(t *testing.T) {
		server := newTokenInfoServer(t, now)
		verifier := newGoogleVerifier(server, now, 0)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := verifier.Verify(ctx, testGoogleToken)
		assert.ErrorIs(t, err, model.ErrVerificationFailed)
	})
}

func TestGoogleVerifier_MemoryCache(t *testing.T) {
	now := time.Now()
	server := newTokenInfoServer(t, now)
	verifier := newGoogleVerifier(server, now, 5*time.Minute, provider.WithTokenInfoCache(provider.NewMemoryTokenInfoCache()))

	for i := 0; i < 3; i++ {
		identity, err := verifier.Verify(context.Background(), testGoogleToken)
		require.NoError(t, err)
		assert.Equal(t, "110169484474386276334", identity.ProviderUserID)
	}
	assert.Equal(t, int64(1), server.hits.Load())
}

func TestGoogleVerifier_CacheDisabledByZeroTTL(t *testing.T) {
	now := time.Now()
	server := newTokenInfoServer(t, now)
	verifier := newGoogleVerifier(server, now, 0, provider.WithTokenInfoCache(provider.NewMemoryTokenInfoCache()))

	for i := 0; i < 2; i++ {
		_, err := verifier.Verify(context.Background(), testGoogleToken)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(2), server.hits.Load())
}

func TestGoogleVerifier_FailuresAreNotCached(t *testing.T) {
	now := time.Now()
	server := newTokenInfoServer(t, now)
	server.responses["tok"] = map[string]any{"aud": "other", "sub": "1"}
	verifier := newGoogleVerifier(server, now, 5*time.Minute, provider.WithTokenInfoCache(provider.NewMemoryTokenInfoCache()))

	for i := 0; i < 2; i++ {
		_, err := verifier.Verify(context.Background(), "tok")
		require.ErrorIs(t, err, model.ErrAudienceMismatch)
	}
	assert.Equal(t, int64(2), server.hits.Load())
}

func TestGoogleVerifier_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	now := time.Now()
	server := newTokenInfoServer(t, now)
	cache := provider.NewRedisTokenInfoCache(client)
	verifier := newGoogleVerifier(server, now, 5*time.Minute, provider.WithTokenInfoCache(cache))

	_, err := verifier.Verify(context.Background(), testGoogleToken)
	require.NoError(t, err)
	_, err = verifier.Verify(context.Background(), testGoogleToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), server.hits.Load())

	// 生のトークンはキーに使わない
	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.NotContains(t, keys[0], testGoogleToken)
	assert.LessOrEqual(t, mr.TTL(keys[0]), 5*time.Minute)

	// 期限が切れたら取り直す
	mr.FastForward(6 * time.Minute)
	_, err = verifier.Verify(context.Background(), testGoogleToken)
	require.NoError(t, err)
	assert.Equal(t, int64(2), server.hits.Load())
}

func TestRedisTokenInfoCache_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	cache := provider.NewRedisTokenInfoCache(client)
	mr.Close()

	_, ok := cache.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.Error(t, cache.Set(context.Background(), "k", []byte("v"), time.Minute))
}
