package model

import (
	"fmt"
	"strings"
)

// Provider は対応している外部IdP。追加する場合は定数と provider パッケージの実装を両方追加する。
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderApple  Provider = "apple"
)

// Providers は対応IdPの一覧
var Providers = []Provider{ProviderGoogle, ProviderApple}

func (p Provider) IsValid() bool {
	switch p {
	case ProviderGoogle, ProviderApple:
		return true
	}
	return false
}

func (p Provider) String() string {
	return string(p)
}

// ParseProvider はURLパラメータなどの文字列を Provider に変換します
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
	}
	return p, nil
}

// VerifiedIdentity はIdPのトークン検証結果を正規化したもの。永続化はしない。
type VerifiedIdentity struct {
	Provider       Provider
	ProviderUserID string // sub
	Email          *string
	EmailVerified  bool // IdPがメールアドレスの所有を保証している場合のみ true
	DisplayName    *string
	AvatarURL      *string

	// locale など、プロバイダ固有の追加属性 (空の値は含めない)
	Metadata map[string]any
}

// HasEmail は空でないメールアドレスを持っているかを返します
func (i *VerifiedIdentity) HasEmail() bool {
	return i.Email != nil && *i.Email != ""
}

// SnapshotMetadata は ProviderLink に保存する属性を返します。
// 値を持つ項目だけを含めるので、既存スナップショットへのマージにそのまま使える。
func (i *VerifiedIdentity) SnapshotMetadata() map[string]any {
	out := make(map[string]any, len(i.Metadata)+2)
	for k, v := range i.Metadata {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		out[k] = v
	}
	if i.DisplayName != nil && *i.DisplayName != "" {
		out[MetadataDisplayName] = *i.DisplayName
	}
	if i.AvatarURL != nil && *i.AvatarURL != "" {
		out[MetadataAvatarURL] = *i.AvatarURL
	}
	return out
}

// ProviderLink.Metadata のキー
const (
	MetadataDisplayName    = "display_name"
	MetadataAvatarURL      = "avatar_url"
	MetadataLocale         = "locale"
	MetadataGivenName      = "given_name"
	MetadataFamilyName     = "family_name"
	MetadataHostedDomain   = "hosted_domain"
	MetadataPrivateEmail   = "is_private_email"
	MetadataRealUserStatus = "real_user_status"
)

// StringPtr は空文字列を nil として扱うポインタ変換
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
