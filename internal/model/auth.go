package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ContextKey string

const (
	UserIDKey ContextKey = "userID"
)

// SignInRequest はIdPトークンによるサインインAPIのリクエストボディ
type SignInRequest struct {
	IDToken string `json:"id_token" validate:"required,max=8192"`
}

// Session は発行したAPI用の認証情報
type Session struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// SignInResult はサインイン処理の結果
type SignInResult struct {
	Session   *Session
	User      *User
	Links     []ProviderLink
	IsNewUser bool
}

// SignInResponse はサインイン成功時のレスポンス
type SignInResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int64         `json:"expires_in"`
	IsNewUser   bool          `json:"is_new_user"`
	User        *UserResponse `json:"user"`
}

// JWTCustomClaims はセッションJWTに含めるクレーム
type JWTCustomClaims struct {
	jwt.RegisteredClaims // 標準クレーム (iss, sub, exp など) を埋め込む
}
