package provider_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testAppleIssuer   = "https://appleid.apple.com"
	testAppleAudience = "jp.example.storereview"
)

type signingKey struct {
	kid  string
	priv *rsa.PrivateKey
}

func newSigningKey(t *testing.T, kid string) signingKey {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return signingKey{kid: kid, priv: priv}
}

// jwksServer は差し替え可能な鍵セットを返すテスト用の JWKS エンドポイント
type jwksServer struct {
	*httptest.Server

	mu     sync.Mutex
	keys   []signingKey
	status int
	hits   atomic.Int64
	// block が設定されていると、閉じられるまでレスポンスを返さない
	block chan struct{}
}

func newJWKSServer(t *testing.T, keys ...signingKey) *jwksServer {
	t.Helper()
	s := &jwksServer{keys: keys, status: http.StatusOK}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		s.mu.Lock()
		block := s.block
		status := s.status
		set := jose.JSONWebKeySet{}
		for _, k := range s.keys {
			set.Keys = append(set.Keys, jose.JSONWebKey{
				Key:       &k.priv.PublicKey,
				KeyID:     k.kid,
				Algorithm: "RS256",
				Use:       "sig",
			})
		}
		s.mu.Unlock()

		if block != nil {
			<-block
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(set)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *jwksServer) setKeys(keys ...signingKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = keys
}

func (s *jwksServer) setStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *jwksServer) setBlock(ch chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.block = ch
}

// appleToken は Apple 形式のIDトークンを作成します。overrides で任意のクレームを上書きできる。
func appleToken(t *testing.T, key signingKey, now time.Time, overrides map[string]any) string {
	t.Helper()
	claims := jwt.MapClaims{
		"iss":            testAppleIssuer,
		"aud":            testAppleAudience,
		"sub":            "001234.abcdef.0123",
		"iat":            now.Unix(),
		"exp":            now.Add(10 * time.Minute).Unix(),
		"email":          "taro@privaterelay.appleid.com",
		"email_verified": "true",
	}
	for k, v := range overrides {
		if v == nil {
			delete(claims, k)
			continue
		}
		claims[k] = v
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if key.kid != "" {
		token.Header["kid"] = key.kid
	}
	signed, err := token.SignedString(key.priv)
	require.NoError(t, err)
	return signed
}
