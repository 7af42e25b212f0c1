//go:generate mockery --name SignInService --output ./mocks --outpkg mocks --case=underscore
//go:generate mockery --name IdentityVerifier --output ./mocks --outpkg mocks --case=underscore
package service

import (
	"context"
	"errors"
	"fmt"

	"go_storereview_auth/internal/metrics"
	"go_storereview_auth/internal/middleware"
	"go_storereview_auth/internal/model"
	"go_storereview_auth/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdentityVerifier はプロバイダを指定してIDトークンを検証します (provider.Registry が実装)
type IdentityVerifier interface {
	Verify(ctx context.Context, p model.Provider, idToken string) (*model.VerifiedIdentity, error)
}

type SignInService interface {
	// SignIn はIdPのIDトークンを検証し、ローカルユーザーに対応付けてセッションを発行します
	SignIn(ctx context.Context, providerName, idToken string) (*model.SignInResult, error)
	GetAccount(ctx context.Context, userID uuid.UUID) (*model.User, []model.ProviderLink, error)
}

type signInService struct {
	db       *gorm.DB
	verifier IdentityVerifier
	linker   AccountLinker
	sessions SessionIssuer
	userRepo repository.UserRepository
	linkRepo repository.ProviderLinkRepository
}

func NewSignInService(
	db *gorm.DB,
	verifier IdentityVerifier,
	linker AccountLinker,
	sessions SessionIssuer,
	userRepo repository.UserRepository,
	linkRepo repository.ProviderLinkRepository,
) SignInService {
	return &signInService{
		db:       db,
		verifier: verifier,
		linker:   linker,
		sessions: sessions,
		userRepo: userRepo,
		linkRepo: linkRepo,
	}
}

func (s *signInService) SignIn(ctx context.Context, providerName, idToken string) (*model.SignInResult, error) {
	logger := middleware.GetLogger(ctx)

	p, err := model.ParseProvider(providerName)
	if err != nil {
		return nil, s.authFailure(ctx, "unsupported", err)
	}
	logger = logger.With("provider", p)

	identity, err := s.verifier.Verify(ctx, p, idToken)
	if err != nil {
		return nil, s.authFailure(ctx, p.String(), err)
	}

	user, isNew, err := s.linker.Resolve(ctx, identity)
	if err != nil {
		return nil, s.authFailure(ctx, p.String(), err)
	}

	// セッションはリンクのコミット後にだけ発行する
	session, err := s.sessions.Issue(ctx, user)
	if err != nil {
		logger.Error("Failed to issue session", "error", err, "user_id", user.ID.String())
		metrics.SignInAttempts.WithLabelValues(p.String(), metrics.OutcomeFailure).Inc()
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", fmt.Errorf("%w: %v", model.ErrInternalServer, err))
	}

	links, err := s.linkRepo.ListByUserID(ctx, s.db, user.ID)
	if err != nil {
		// レスポンスの providers が欠けるだけなのでサインインは成功させる
		logger.Warn("Failed to list provider links after sign-in", "error", err, "user_id", user.ID.String())
	}

	outcome := metrics.OutcomeSuccess
	if isNew {
		outcome = metrics.OutcomeNewUser
	}
	metrics.SignInAttempts.WithLabelValues(p.String(), outcome).Inc()
	logger.Info("Sign-in succeeded", "user_id", user.ID.String(), "is_new_user", isNew)

	return &model.SignInResult{
		Session:   session,
		User:      user,
		Links:     links,
		IsNewUser: isNew,
	}, nil
}

// authFailure はクライアントには原因を区別しないエラーを返し、内部コードはログにだけ残します
func (s *signInService) authFailure(ctx context.Context, providerLabel string, err error) error {
	logger := middleware.GetLogger(ctx)
	code := model.ErrorCode(err)

	if errors.Is(err, model.ErrStorageFailure) || errors.Is(err, model.ErrVerificationFailed) {
		logger.Error("Sign-in failed", "code", code, "provider", providerLabel, "error", err)
	} else {
		logger.Warn("Sign-in rejected", "code", code, "provider", providerLabel, "error", err)
	}
	metrics.SignInAttempts.WithLabelValues(providerLabel, metrics.OutcomeFailure).Inc()

	return model.NewAppError("AUTHENTICATION_FAILED", "認証に失敗しました。", "", err)
}

func (s *signInService) GetAccount(ctx context.Context, userID uuid.UUID) (*model.User, []model.ProviderLink, error) {
	logger := middleware.GetLogger(ctx)

	user, err := s.userRepo.FindByID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("User in session not found", "user_id", userID.String())
			return nil, nil, model.NewAppError("USER_NOT_FOUND", "ユーザーが見つかりません。", "", model.ErrNotFound)
		}
		return nil, nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
	}

	links, err := s.linkRepo.ListByUserID(ctx, s.db, userID)
	if err != nil {
		return nil, nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部でエラーが発生しました。", "", err)
	}
	return user, links, nil
}
