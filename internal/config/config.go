// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Google    GoogleConfig    `mapstructure:"google"`
	Apple     AppleConfig     `mapstructure:"apple"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Linking   LinkingConfig   `mapstructure:"linking"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Mailer    MailerConfig    `mapstructure:"mailer"`
	SES       SESConfig       `mapstructure:"ses"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	URL         string `mapstructure:"url"`
	Driver      string `mapstructure:"driver"` // "pgx" (デフォルト) | "pq"
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

const (
	DatabaseDriverPGX = "pgx"
	DatabaseDriverPQ  = "pq"
)

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type JWTConfig struct {
	SecretKey      string        `mapstructure:"secret_key"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// GoogleConfig は Google の tokeninfo エンドポイントによる検証設定
type GoogleConfig struct {
	AllowedAudiences []string      `mapstructure:"allowed_audiences"` // Web / iOS のクライアントID
	TokenInfoURL     string        `mapstructure:"token_info_url"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"` // 0 でキャッシュ無効
}

// AppleConfig は Sign in with Apple の ID トークン検証設定
type AppleConfig struct {
	AllowedAudiences []string      `mapstructure:"allowed_audiences"` // バンドルID / Services ID
	Issuer           string        `mapstructure:"issuer"`
	KeysURL          string        `mapstructure:"keys_url"`
	ClockSkew        time.Duration `mapstructure:"clock_skew"`
}

type ProvidersConfig struct {
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// MissingEmailPolicy は再サインイン時にIdPがメールを返さなかった場合の扱い
type MissingEmailPolicy string

const (
	MissingEmailPreserve MissingEmailPolicy = "preserve" // 直前のスナップショットを残す
	MissingEmailClear    MissingEmailPolicy = "clear"    // スナップショットのメールを消す
)

type LinkingConfig struct {
	MissingEmailPolicy MissingEmailPolicy `mapstructure:"missing_email_policy"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"` // 空の場合はプロセス内キャッシュを使う
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MailerConfig struct {
	Type string `mapstructure:"type"` // "log" | "ses"
}

type SESConfig struct {
	Region          string `mapstructure:"region"`
	From            string `mapstructure:"from"`
	AuthType        string `mapstructure:"auth_type"` // "static_credentials" | "iam_role"
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// Load は path 以下の config.yaml と環境変数 (APP_ 接頭辞) から設定を読み込みます
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AddConfigPath(".")

	// APP_GOOGLE_ALLOWED_AUDIENCES のように指定できるようにする
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvs(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config.Load: read config: %w", err)
		}
		slog.Warn("Config file not found. Using defaults and environment variables.", slog.String("path", path))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: unmarshal: %w", err)
	}

	// 環境変数ではカンマ区切りで渡される
	cfg.Google.AllowedAudiences = splitList(cfg.Google.AllowedAudiences)
	cfg.Apple.AllowedAudiences = splitList(cfg.Apple.AllowedAudiences)
	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Info("Config loaded successfully",
		slog.String("server_port", cfg.Server.Port),
		slog.Int("google_audiences", len(cfg.Google.AllowedAudiences)),
		slog.Int("apple_audiences", len(cfg.Apple.AllowedAudiences)),
		slog.String("missing_email_policy", string(cfg.Linking.MissingEmailPolicy)),
	)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", AppName)
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("database.driver", DatabaseDriverPGX)
	v.SetDefault("jwt.access_token_ttl", DefaultAccessTokenTTL)
	v.SetDefault("google.token_info_url", DefaultGoogleTokenInfoURL)
	v.SetDefault("google.cache_ttl", DefaultGoogleCacheTTL)
	v.SetDefault("apple.issuer", DefaultAppleIssuer)
	v.SetDefault("apple.keys_url", DefaultAppleKeysURL)
	v.SetDefault("apple.clock_skew", DefaultAppleClockSkew)
	v.SetDefault("providers.http_timeout", DefaultProviderHTTPTimeout)
	v.SetDefault("linking.missing_email_policy", string(MissingEmailPreserve))
	v.SetDefault("mailer.type", "log")
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Authorization", "Content-Type"})
}

// bindEnvs はデフォルト値を持たないキーも Unmarshal で環境変数から読めるようにする
func bindEnvs(v *viper.Viper) {
	for _, key := range []string{
		"database.url",
		"database.auto_migrate",
		"jwt.secret_key",
		"google.allowed_audiences",
		"apple.allowed_audiences",
		"cors.allowed_origins",
		"redis.addr",
		"redis.password",
		"redis.db",
		"ses.region",
		"ses.from",
		"ses.auth_type",
		"ses.access_key_id",
		"ses.secret_access_key",
	} {
		_ = v.BindEnv(key)
	}
}

// Validate は起動に必要な設定が揃っているかを検証します
func (c *Config) Validate() error {
	var errs []error
	if len(c.Google.AllowedAudiences) == 0 {
		errs = append(errs, errors.New("google.allowed_audiences must not be empty"))
	}
	if len(c.Apple.AllowedAudiences) == 0 {
		errs = append(errs, errors.New("apple.allowed_audiences must not be empty"))
	}
	if c.Apple.Issuer == "" {
		errs = append(errs, errors.New("apple.issuer must not be empty"))
	}
	if c.JWT.SecretKey == "" {
		errs = append(errs, errors.New("jwt.secret_key must not be empty"))
	}
	switch c.Database.Driver {
	case DatabaseDriverPGX, DatabaseDriverPQ:
	default:
		errs = append(errs, fmt.Errorf("database.driver: unknown value %q", c.Database.Driver))
	}
	if c.Providers.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("providers.http_timeout must be positive"))
	}
	switch c.Linking.MissingEmailPolicy {
	case MissingEmailPreserve, MissingEmailClear:
	default:
		errs = append(errs, fmt.Errorf("linking.missing_email_policy: unknown value %q", c.Linking.MissingEmailPolicy))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config.Validate: %w", errors.Join(errs...))
	}
	return nil
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
