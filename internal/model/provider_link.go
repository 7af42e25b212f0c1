package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ProviderLink は外部IdPのアカウントとローカルユーザーの対応を表します
type ProviderLink struct {
	ID uint `gorm:"primaryKey" json:"-"`
	// 1ユーザーにつき1プロバイダ1件まで
	UserID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_provider_links_user_provider,priority:1" json:"user_id"`

	// どのプロバイダで、どのIDかを示す複合キー
	Provider       Provider `gorm:"type:varchar(20);not null;uniqueIndex:uq_provider_links_identity,priority:1;uniqueIndex:uq_provider_links_user_provider,priority:2" json:"provider"`
	ProviderUserID string   `gorm:"type:varchar(255);not null;uniqueIndex:uq_provider_links_identity,priority:2" json:"provider_user_id"`

	// 最後に観測したIdP側の情報
	Email        *string           `gorm:"type:varchar(320)" json:"email,omitempty"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty"`
	LastSignInAt time.Time         `gorm:"not null" json:"last_sign_in_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProviderLink) TableName() string {
	return "provider_links"
}
