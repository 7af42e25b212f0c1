// Package provider は外部IdPが発行したIDトークンを検証し、VerifiedIdentity に正規化します。
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go_storereview_auth/internal/model"
)

// Verifier はIdPごとのトークン検証器。実装はこのパッケージの GoogleVerifier と AppleVerifier のみ。
type Verifier interface {
	Provider() model.Provider
	Verify(ctx context.Context, idToken string) (*model.VerifiedIdentity, error)
	sealed()
}

// Registry は model.Provider から Verifier を引きます
type Registry struct {
	google *GoogleVerifier
	apple  *AppleVerifier
}

func NewRegistry(google *GoogleVerifier, apple *AppleVerifier) *Registry {
	return &Registry{google: google, apple: apple}
}

// Get はプロバイダに対応する Verifier を返します
func (r *Registry) Get(p model.Provider) (Verifier, error) {
	switch p {
	case model.ProviderGoogle:
		if r.google != nil {
			return r.google, nil
		}
	case model.ProviderApple:
		if r.apple != nil {
			return r.apple, nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedProvider, p)
	}
	return nil, fmt.Errorf("%w: %q is not configured", model.ErrUnsupportedProvider, p)
}

// Verify はプロバイダを選んでトークンを検証します
func (r *Registry) Verify(ctx context.Context, p model.Provider, idToken string) (*model.VerifiedIdentity, error) {
	v, err := r.Get(p)
	if err != nil {
		return nil, err
	}
	return v.Verify(ctx, idToken)
}

// NewHTTPClient はIdPへの通信で共有する http.Client を作成します
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// transportError は *url.Error から URL を取り除きます。
// tokeninfo のURLにはIDトークンが含まれるため、エラー文字列に残さない。
func transportError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

// containsAudience は aud のいずれかが許可リストに含まれるかを返します
func containsAudience(allowed []string, aud ...string) bool {
	for _, a := range aud {
		for _, want := range allowed {
			if a == want {
				return true
			}
		}
	}
	return false
}
