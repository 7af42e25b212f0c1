package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go_storereview_auth/internal/middleware"
	"go_storereview_auth/internal/model"
)

// maxProviderResponseBytes はIdPのレスポンスとして読み込む上限
const maxProviderResponseBytes = 1 << 20

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

type GoogleConfig struct {
	AllowedAudiences []string
	TokenInfoURL     string
	// CacheTTL は検証結果をキャッシュする上限時間。0 でキャッシュしない。
	CacheTTL time.Duration
}

// GoogleVerifier は Google の tokeninfo エンドポイントでIDトークンを検証します
type GoogleVerifier struct {
	cfg    GoogleConfig
	client *http.Client
	cache  TokenInfoCache
	now    func() time.Time
}

type GoogleOption func(*GoogleVerifier)

// WithTokenInfoCache は検証結果のキャッシュを設定します
func WithTokenInfoCache(cache TokenInfoCache) GoogleOption {
	return func(v *GoogleVerifier) { v.cache = cache }
}

func WithGoogleClock(now func() time.Time) GoogleOption {
	return func(v *GoogleVerifier) { v.now = now }
}

func NewGoogleVerifier(cfg GoogleConfig, client *http.Client, opts ...GoogleOption) *GoogleVerifier {
	v := &GoogleVerifier{cfg: cfg, client: client, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *GoogleVerifier) Provider() model.Provider { return model.ProviderGoogle }

func (v *GoogleVerifier) sealed() {}

// googleTokenInfo は tokeninfo のレスポンス。数値や真偽値も文字列で返ってくる。
type googleTokenInfo struct {
	Iss           string    `json:"iss"`
	Aud           string    `json:"aud"`
	Sub           string    `json:"sub"`
	Exp           flexInt64 `json:"exp"`
	Email         string    `json:"email"`
	EmailVerified flexBool  `json:"email_verified"`
	Name          string    `json:"name"`
	Picture       string    `json:"picture"`
	GivenName     string    `json:"given_name"`
	FamilyName    string    `json:"family_name"`
	Locale        string    `json:"locale"`
	HostedDomain  string    `json:"hd"`
}

func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*model.VerifiedIdentity, error) {
	logger := middleware.GetLogger(ctx)

	if strings.TrimSpace(idToken) == "" {
		return nil, fmt.Errorf("%w: empty token", model.ErrInvalidToken)
	}

	useCache := v.cache != nil && v.cfg.CacheTTL > 0
	key := tokenCacheKey(idToken)

	var body []byte
	cached := false
	if useCache {
		body, cached = v.cache.Get(ctx, key)
	}
	if !cached {
		var err error
		body, err = v.fetchTokenInfo(ctx, idToken)
		if err != nil {
			return nil, err
		}
	}

	var info googleTokenInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: google: undecodable token info: %v", model.ErrInvalidToken, err)
	}

	// キャッシュヒット時も有効期限と aud を確認し直す
	identity, expiresAt, err := v.validate(&info)
	if err != nil {
		return nil, err
	}

	if useCache && !cached {
		ttl := v.cfg.CacheTTL
		if !expiresAt.IsZero() {
			if untilExp := expiresAt.Sub(v.now()); untilExp < ttl {
				ttl = untilExp
			}
		}
		if ttl > 0 {
			if err := v.cache.Set(ctx, key, body, ttl); err != nil {
				logger.Warn("Failed to cache google token info", "error", err)
			}
		}
	}

	return identity, nil
}

func (v *GoogleVerifier) fetchTokenInfo(ctx context.Context, idToken string) ([]byte, error) {
	endpoint, err := url.Parse(v.cfg.TokenInfoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: google: invalid token info url: %v", model.ErrVerificationFailed, err)
	}
	q := endpoint.Query()
	q.Set("id_token", idToken)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: google: %v", model.ErrVerificationFailed, transportError(err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: google: token info request: %v", model.ErrVerificationFailed, transportError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: google: reading token info: %v", model.ErrVerificationFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: google: token info status %d", model.ErrVerificationFailed, resp.StatusCode)
	}
	return body, nil
}

func (v *GoogleVerifier) validate(info *googleTokenInfo) (*model.VerifiedIdentity, time.Time, error) {
	if info.Sub == "" {
		return nil, time.Time{}, fmt.Errorf("%w: google: missing sub", model.ErrInvalidToken)
	}
	if info.Iss != "" && !containsAudience(googleIssuers, info.Iss) {
		return nil, time.Time{}, fmt.Errorf("%w: google: unexpected issuer %q", model.ErrInvalidToken, info.Iss)
	}

	var expiresAt time.Time
	if info.Exp > 0 {
		expiresAt = time.Unix(int64(info.Exp), 0)
		if !v.now().Before(expiresAt) {
			return nil, time.Time{}, fmt.Errorf("%w: google: token expired", model.ErrInvalidToken)
		}
	}

	if !containsAudience(v.cfg.AllowedAudiences, info.Aud) {
		return nil, time.Time{}, fmt.Errorf("%w: google: aud %q", model.ErrAudienceMismatch, info.Aud)
	}

	metadata := map[string]any{}
	for k, val := range map[string]string{
		model.MetadataLocale:       info.Locale,
		model.MetadataGivenName:    info.GivenName,
		model.MetadataFamilyName:   info.FamilyName,
		model.MetadataHostedDomain: info.HostedDomain,
	} {
		if val != "" {
			metadata[k] = val
		}
	}

	return &model.VerifiedIdentity{
		Provider:       model.ProviderGoogle,
		ProviderUserID: info.Sub,
		Email:          model.StringPtr(info.Email),
		EmailVerified:  info.Email != "" && bool(info.EmailVerified),
		DisplayName:    model.StringPtr(info.Name),
		AvatarURL:      model.StringPtr(info.Picture),
		Metadata:       metadata,
	}, expiresAt, nil
}

// tokenCacheKey はトークンそのものをキャッシュのキーにしないためのハッシュ
func tokenCacheKey(idToken string) string {
	sum := sha256.Sum256([]byte(idToken))
	return "google:tokeninfo:" + hex.EncodeToString(sum[:])
}
