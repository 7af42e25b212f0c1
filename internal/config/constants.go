// internal/config/constants.go
package config

import "time"

// アプリケーション情報
const (
	AppName    = "storereview-auth"
	AppVersion = "1.0.0"
)

// デフォルト設定値
const (
	DefaultServerPort          = ":8080"
	DefaultLogLevel            = "info"
	DefaultAccessTokenTTL      = 15 * time.Minute
	DefaultProviderHTTPTimeout = 5 * time.Second
	DefaultGoogleCacheTTL      = 5 * time.Minute
	DefaultAppleClockSkew      = 30 * time.Second
)

// 外部IdPのエンドポイント
const (
	DefaultGoogleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	DefaultAppleIssuer        = "https://appleid.apple.com"
	DefaultAppleKeysURL       = "https://appleid.apple.com/auth/keys"
)
