package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultUserName はIdPから名前が得られなかった場合のユーザー名
const DefaultUserName = "User"

// User はローカルアカウント
type User struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name  string    `gorm:"not null" json:"name"`
	Email *string   `gorm:"type:varchar(320);uniqueIndex:uq_users_email" json:"email,omitempty"`
	// nil のアカウントはメールアドレスによる連携の対象にならない
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	PasswordHash    string     `gorm:"not null" json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// GORM用のリレーション (JSONには含めない)
	Links []ProviderLink `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// IsEmailVerified はメールアドレスが確認済みかを返します
func (u *User) IsEmailVerified() bool {
	return u.Email != nil && u.EmailVerifiedAt != nil
}

// UserResponse はクライアントに返すユーザー情報
type UserResponse struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Email         *string    `json:"email,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	Providers     []Provider `json:"providers,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func NewUserResponse(u *User, links []ProviderLink) *UserResponse {
	resp := &UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.IsEmailVerified(),
		CreatedAt:     u.CreatedAt,
	}
	for _, l := range links {
		resp.Providers = append(resp.Providers, l.Provider)
	}
	return resp
}
