package provider

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"go_storereview_auth/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

type AppleConfig struct {
	AllowedAudiences []string
	Issuer           string
	ClockSkew        time.Duration
}

// SigningKeyLookup は kid から公開鍵を引きます。未知の kid では取り直しを試みる。
type SigningKeyLookup interface {
	Lookup(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// AppleVerifier は Sign in with Apple のIDトークン (RS256 の JWT) を検証します
type AppleVerifier struct {
	cfg  AppleConfig
	keys SigningKeyLookup
	now  func() time.Time
}

type AppleOption func(*AppleVerifier)

func WithAppleClock(now func() time.Time) AppleOption {
	return func(v *AppleVerifier) { v.now = now }
}

func NewAppleVerifier(cfg AppleConfig, keys SigningKeyLookup, opts ...AppleOption) *AppleVerifier {
	v := &AppleVerifier{cfg: cfg, keys: keys, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *AppleVerifier) Provider() model.Provider { return model.ProviderApple }

func (v *AppleVerifier) sealed() {}

type appleClaims struct {
	jwt.RegisteredClaims
	Email          string   `json:"email"`
	EmailVerified  flexBool `json:"email_verified"`
	IsPrivateEmail flexBool `json:"is_private_email"`
	RealUserStatus *int     `json:"real_user_status"`
}

func (v *AppleVerifier) Verify(ctx context.Context, idToken string) (*model.VerifiedIdentity, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, fmt.Errorf("%w: empty token", model.ErrInvalidToken)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.cfg.ClockSkew),
		jwt.WithTimeFunc(v.now),
	)

	claims := &appleClaims{}
	_, err := parser.ParseWithClaims(idToken, claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: apple: missing kid", model.ErrInvalidToken)
		}
		return v.keys.Lookup(ctx, kid)
	})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrVerificationFailed), errors.Is(err, model.ErrInvalidToken):
			return nil, fmt.Errorf("apple: %w", err)
		default:
			return nil, fmt.Errorf("%w: apple: %v", model.ErrInvalidToken, err)
		}
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: apple: missing sub", model.ErrInvalidToken)
	}
	if !containsAudience(v.cfg.AllowedAudiences, claims.Audience...) {
		return nil, fmt.Errorf("%w: apple: aud %v", model.ErrAudienceMismatch, []string(claims.Audience))
	}

	metadata := map[string]any{}
	if claims.IsPrivateEmail {
		metadata[model.MetadataPrivateEmail] = true
	}
	if claims.RealUserStatus != nil {
		metadata[model.MetadataRealUserStatus] = *claims.RealUserStatus
	}

	return &model.VerifiedIdentity{
		Provider:       model.ProviderApple,
		ProviderUserID: claims.Subject,
		Email:          model.StringPtr(claims.Email),
		EmailVerified:  claims.Email != "" && bool(claims.EmailVerified),
		Metadata:       metadata,
	}, nil
}
