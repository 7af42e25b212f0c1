//go:generate mockery --name LinkNotifier --output ./mocks --outpkg mocks --case=underscore
package service

import (
	"context"
	"fmt"

	"go_storereview_auth/internal/middleware"
	"go_storereview_auth/internal/model"
)

// LinkNotifier は既存アカウントに新しいサインイン方法が追加されたことを利用者に知らせます。
// 通知の失敗でサインインを失敗させないため、エラーは返さない。
type LinkNotifier interface {
	NotifyLinked(ctx context.Context, user *model.User, provider model.Provider)
}

type mailLinkNotifier struct {
	mailer  Mailer
	appName string
}

func NewLinkNotifier(mailer Mailer, appName string) LinkNotifier {
	return &mailLinkNotifier{mailer: mailer, appName: appName}
}

var providerDisplayNames = map[model.Provider]string{
	model.ProviderGoogle: "Google",
	model.ProviderApple:  "Apple",
}

func (n *mailLinkNotifier) NotifyLinked(ctx context.Context, user *model.User, provider model.Provider) {
	logger := middleware.GetLogger(ctx)
	if user.Email == nil || *user.Email == "" {
		return
	}

	name := providerDisplayNames[provider]
	subject := fmt.Sprintf("[%s] %s でのサインインが追加されました", n.appName, name)
	body := fmt.Sprintf(
		"%s 様\n\nお使いのアカウントに %s でのサインインが追加されました。\n心当たりがない場合は、サポートまでご連絡ください。\n",
		user.Name, name,
	)

	if err := n.mailer.Send(ctx, *user.Email, subject, body); err != nil {
		logger.Warn("Failed to send link notice", "error", err, "user_id", user.ID.String(), "provider", provider)
	}
}
