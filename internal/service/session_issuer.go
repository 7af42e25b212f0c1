//go:generate mockery --name SessionIssuer --output ./mocks --outpkg mocks --case=underscore
package service

import (
	"context"
	"fmt"
	"time"

	"go_storereview_auth/internal/config"
	"go_storereview_auth/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionIssuer はサインインに成功したユーザーにAPI用のアクセストークンを発行します
type SessionIssuer interface {
	Issue(ctx context.Context, user *model.User) (*model.Session, error)
}

type jwtSessionIssuer struct {
	issuer    string
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewJWTSessionIssuer(issuer string, cfg config.JWTConfig) SessionIssuer {
	return &jwtSessionIssuer{
		issuer:    issuer,
		secretKey: []byte(cfg.SecretKey),
		ttl:       cfg.AccessTokenTTL,
		now:       time.Now,
	}
}

func (s *jwtSessionIssuer) Issue(_ context.Context, user *model.User) (*model.Session, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := model.JWTCustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return nil, fmt.Errorf("jwtSessionIssuer.Issue: %w", err)
	}

	return &model.Session{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, nil
}
