//go:generate mockery --name AccountLinker --output ./mocks --outpkg mocks --case=underscore
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go_storereview_auth/internal/config"
	"go_storereview_auth/internal/metrics"
	"go_storereview_auth/internal/middleware"
	"go_storereview_auth/internal/model"
	"go_storereview_auth/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AccountLinker は検証済みのIdPアイデンティティをローカルユーザーに対応付けます
type AccountLinker interface {
	// Resolve はユーザーと、今回新規作成したかどうかを返します
	Resolve(ctx context.Context, identity *model.VerifiedIdentity) (*model.User, bool, error)
}

type accountLinker struct {
	db       *gorm.DB
	userRepo repository.UserRepository
	linkRepo repository.ProviderLinkRepository
	cfg      config.LinkingConfig
	notifier LinkNotifier
	now      func() time.Time
}

type LinkerOption func(*accountLinker)

func WithClock(now func() time.Time) LinkerOption {
	return func(l *accountLinker) { l.now = now }
}

// WithLinkNotifier はメールアドレスによる連携が行われたときの通知先を設定します
func WithLinkNotifier(n LinkNotifier) LinkerOption {
	return func(l *accountLinker) { l.notifier = n }
}

func NewAccountLinker(db *gorm.DB, userRepo repository.UserRepository, linkRepo repository.ProviderLinkRepository, cfg config.LinkingConfig, opts ...LinkerOption) AccountLinker {
	l := &accountLinker{
		db:       db,
		userRepo: userRepo,
		linkRepo: linkRepo,
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// resolution は1回の試行の結果
type resolution struct {
	user      *model.User
	isNewUser bool
	// 既存アカウントにメールアドレスで連携した
	linkedByEmail bool
}

func (l *accountLinker) Resolve(ctx context.Context, identity *model.VerifiedIdentity) (*model.User, bool, error) {
	if identity == nil || !identity.Provider.IsValid() || identity.ProviderUserID == "" {
		return nil, false, fmt.Errorf("accountLinker.Resolve: %w: incomplete identity", model.ErrInvalidInput)
	}
	logger := middleware.GetLogger(ctx).With("provider", identity.Provider)

	res, err := l.attempt(ctx, identity)
	if errors.Is(err, model.ErrConflict) {
		// 同じアイデンティティの同時サインインで一意制約に当たった。最初からやり直せば既存の行が見える
		metrics.AccountLinkConflicts.Inc()
		logger.Info("Conflict while linking account, retrying once", "error", err)

		res, err = l.attempt(ctx, identity)
		if errors.Is(err, model.ErrConflict) {
			metrics.AccountLinkConflicts.Inc()
			logger.Error("Conflict persisted after retry", "error", err)
			return nil, false, fmt.Errorf("accountLinker.Resolve: %w: conflict persisted after retry: %v", model.ErrStorageFailure, err)
		}
	}
	if err != nil {
		if errors.Is(err, model.ErrStorageFailure) {
			return nil, false, fmt.Errorf("accountLinker.Resolve: %w", err)
		}
		logger.Error("Failed to resolve account", "error", err)
		return nil, false, fmt.Errorf("accountLinker.Resolve: %w: %w", model.ErrStorageFailure, err)
	}

	if res.linkedByEmail && l.notifier != nil {
		l.notifier.NotifyLinked(ctx, res.user, identity.Provider)
	}

	logger.Info("Account resolved",
		"user_id", res.user.ID.String(),
		"is_new_user", res.isNewUser,
		"linked_by_email", res.linkedByEmail,
	)
	return res.user, res.isNewUser, nil
}

// attempt は1つのトランザクションでリンク検索・メール連携・新規作成を順に試します
func (l *accountLinker) attempt(ctx context.Context, identity *model.VerifiedIdentity) (*resolution, error) {
	logger := middleware.GetLogger(ctx)
	var res *resolution

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := l.now().UTC()

		// 1. 既にリンク済みか
		link, err := l.linkRepo.FindByProviderUserID(ctx, tx, identity.Provider, identity.ProviderUserID)
		if err == nil {
			l.mergeSnapshot(link, identity, now)
			if err := l.linkRepo.UpdateSnapshot(ctx, tx, link); err != nil {
				return err
			}
			user, err := l.userRepo.FindByID(ctx, tx, link.UserID)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					return fmt.Errorf("%w: link %d points to missing user", model.ErrStorageFailure, link.ID)
				}
				return err
			}
			res = &resolution{user: user}
			return nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return err
		}

		// 2. IdPが確認済みのメールアドレスで既存アカウントに連携
		if identity.HasEmail() && identity.EmailVerified {
			user, err := l.userRepo.FindByVerifiedEmail(ctx, tx, *identity.Email)
			switch {
			case err == nil:
				_, err := l.linkRepo.FindByUserAndProvider(ctx, tx, user.ID, identity.Provider)
				switch {
				case err == nil:
					// 同じプロバイダの別アカウントが既に紐付いている。乗っ取らずに新規作成する
					logger.Warn("Verified email owner already linked to this provider with another subject",
						"user_id", user.ID.String())
				case errors.Is(err, model.ErrNotFound):
					if err := l.linkRepo.Create(ctx, tx, newProviderLink(user.ID, identity, now)); err != nil {
						return err
					}
					res = &resolution{user: user, linkedByEmail: true}
					return nil
				default:
					return err
				}
			case !errors.Is(err, model.ErrNotFound):
				return err
			}
		}

		// 3. 新規ユーザーを作成
		user, err := l.newUser(ctx, tx, identity, now)
		if err != nil {
			return err
		}
		if err := l.userRepo.Create(ctx, tx, user); err != nil {
			return err
		}
		if err := l.linkRepo.Create(ctx, tx, newProviderLink(user.ID, identity, now)); err != nil {
			return err
		}
		res = &resolution{user: user, isNewUser: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// mergeSnapshot は今回得られた項目だけでスナップショットを更新します
func (l *accountLinker) mergeSnapshot(link *model.ProviderLink, identity *model.VerifiedIdentity, now time.Time) {
	if identity.HasEmail() {
		link.Email = identity.Email
	} else if l.cfg.MissingEmailPolicy == config.MissingEmailClear {
		link.Email = nil
	}

	if link.Metadata == nil {
		link.Metadata = datatypes.JSONMap{}
	}
	for k, v := range identity.SnapshotMetadata() {
		link.Metadata[k] = v
	}
	link.LastSignInAt = now
}

// newUser は新規ユーザーを組み立てます。
// メールアドレスが他のアカウントで使われている場合は、ユーザーには持たせずリンク側にだけ記録する。
func (l *accountLinker) newUser(ctx context.Context, tx *gorm.DB, identity *model.VerifiedIdentity, now time.Time) (*model.User, error) {
	name := model.DefaultUserName
	if identity.DisplayName != nil && *identity.DisplayName != "" {
		name = *identity.DisplayName
	}

	passwordHash, err := unusablePasswordHash()
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New(),
		Name:         name,
		PasswordHash: passwordHash,
	}

	if identity.HasEmail() {
		taken, err := l.userRepo.ExistsByEmail(ctx, tx, *identity.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			middleware.GetLogger(ctx).Info("Email already held by another account, creating user without email")
		} else {
			user.Email = identity.Email
			if identity.EmailVerified {
				verifiedAt := now
				user.EmailVerifiedAt = &verifiedAt
			}
		}
	}
	return user, nil
}

func newProviderLink(userID uuid.UUID, identity *model.VerifiedIdentity, now time.Time) *model.ProviderLink {
	return &model.ProviderLink{
		UserID:         userID,
		Provider:       identity.Provider,
		ProviderUserID: identity.ProviderUserID,
		Email:          identity.Email,
		Metadata:       datatypes.JSONMap(identity.SnapshotMetadata()),
		LastSignInAt:   now,
	}
}

// unusablePasswordHash は誰も知らないパスワードのハッシュを返します。
// IdP経由で作ったユーザーはパスワードでログインできない。
func unusablePasswordHash() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(b)), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing random password: %w", err)
	}
	return string(hash), nil
}
