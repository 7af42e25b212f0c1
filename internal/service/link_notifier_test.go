package service_test

import (
	"context"
	"errors"
	"testing"

	"go_storereview_auth/internal/model"
	"go_storereview_auth/internal/service"
	servicemocks "go_storereview_auth/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func TestLinkNotifier_NotifyLinked(t *testing.T) {
	ctx := context.Background()

	t.Run("メールアドレス宛てに送信する", func(t *testing.T) {
		mailer := servicemocks.NewMailer(t)
		mailer.On("Send", ctx, "a@x.com", mock.MatchedBy(func(subject string) bool {
			return subject == "[storereview-auth] Apple でのサインインが追加されました"
		}), mock.AnythingOfType("string")).Return(nil).Once()

		notifier := service.NewLinkNotifier(mailer, "storereview-auth")
		notifier.NotifyLinked(ctx, &model.User{ID: uuid.New(), Name: "Taro", Email: strPtr("a@x.com")}, model.ProviderApple)
	})

	t.Run("送信失敗は呼び出し元に影響しない", func(t *testing.T) {
		mailer := servicemocks.NewMailer(t)
		mailer.On("Send", ctx, "a@x.com", mock.Anything, mock.Anything).Return(errors.New("ses throttled")).Once()

		notifier := service.NewLinkNotifier(mailer, "storereview-auth")
		notifier.NotifyLinked(ctx, &model.User{ID: uuid.New(), Email: strPtr("a@x.com")}, model.ProviderGoogle)
	})

	t.Run("メールアドレスがなければ送らない", func(t *testing.T) {
		mailer := servicemocks.NewMailer(t)

		notifier := service.NewLinkNotifier(mailer, "storereview-auth")
		notifier.NotifyLinked(ctx, &model.User{ID: uuid.New()}, model.ProviderGoogle)
		mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
