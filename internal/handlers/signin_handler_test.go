package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go_storereview_auth/internal/config"
	"go_storereview_auth/internal/handlers"
	"go_storereview_auth/internal/model"
	"go_storereview_auth/internal/service"
	servicemocks "go_storereview_auth/internal/service/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	testJWTIssuer = "storereview-auth"
	testJWTSecret = "test-secret"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type SignInHandlerTestSuite struct {
	suite.Suite

	mockService *servicemocks.SignInService
	server      *httptest.Server
}

func (s *SignInHandlerTestSuite) SetupTest() {
	s.mockService = new(servicemocks.SignInService)
	router := handlers.NewRouter(handlers.RouterDeps{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		SignIn:    handlers.NewSignInHandler(s.mockService),
		Health:    handlers.NewHealthHandler(fakePinger{}),
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		JWTIssuer: testJWTIssuer,
		JWTSecret: testJWTSecret,
	})
	s.server = httptest.NewServer(router)
	s.T().Cleanup(s.server.Close)
}

func TestSignInHandler(t *testing.T) {
	suite.Run(t, new(SignInHandlerTestSuite))
}

func (s *SignInHandlerTestSuite) post(path, body string) (*http.Response, map[string]any) {
	resp, err := http.Post(s.server.URL+path, "application/json", strings.NewReader(body))
	s.Require().NoError(err)
	defer resp.Body.Close()

	var payload map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&payload))
	return resp, payload
}

func (s *SignInHandlerTestSuite) TestSignInSuccess() {
	userID := uuid.New()
	email := "taro@example.com"
	s.mockService.On("SignIn", mock.Anything, "apple", "id-token").Return(&model.SignInResult{
		Session:   &model.Session{AccessToken: "session-jwt", TokenType: "Bearer", ExpiresAt: time.Now().Add(15 * time.Minute)},
		User:      &model.User{ID: userID, Name: "User", Email: &email},
		Links:     []model.ProviderLink{{Provider: model.ProviderApple}},
		IsNewUser: true,
	}, nil).Once()

	resp, payload := s.post("/api/v1/auth/apple/signin", `{"id_token":"id-token"}`)

	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("session-jwt", payload["access_token"])
	s.Equal("Bearer", payload["token_type"])
	s.Equal(true, payload["is_new_user"])
	s.InDelta(900, payload["expires_in"], 2)

	user := payload["user"].(map[string]any)
	s.Equal(userID.String(), user["id"])
	s.Equal([]any{"apple"}, user["providers"])
	s.mockService.AssertExpectations(s.T())
}

func (s *SignInHandlerTestSuite) TestSignInFailures() {
	testCases := []struct {
		name       string
		path       string
		body       string
		setupMocks func()
		wantStatus int
		wantCode   string
	}{
		{
			name:       "トークンが無効",
			path:       "/api/v1/auth/google/signin",
			body:       `{"id_token":"bad"}`,
			setupMocks: func() { s.mockService.On("SignIn", mock.Anything, "google", "bad").Return(nil, authFailed(model.ErrAudienceMismatch)).Once() },
			wantStatus: http.StatusUnauthorized,
			wantCode:   "AUTHENTICATION_FAILED",
		},
		{
			name:       "未対応のプロバイダ",
			path:       "/api/v1/auth/facebook/signin",
			body:       `{"id_token":"tok"}`,
			setupMocks: func() { s.mockService.On("SignIn", mock.Anything, "facebook", "tok").Return(nil, authFailed(model.ErrUnsupportedProvider)).Once() },
			wantStatus: http.StatusBadRequest,
			wantCode:   "AUTHENTICATION_FAILED",
		},
		{
			name:       "IdPの障害",
			path:       "/api/v1/auth/google/signin",
			body:       `{"id_token":"tok"}`,
			setupMocks: func() { s.mockService.On("SignIn", mock.Anything, "google", "tok").Return(nil, authFailed(model.ErrVerificationFailed)).Once() },
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "AUTHENTICATION_FAILED",
		},
		{
			name:       "保存の失敗",
			path:       "/api/v1/auth/apple/signin",
			body:       `{"id_token":"tok"}`,
			setupMocks: func() { s.mockService.On("SignIn", mock.Anything, "apple", "tok").Return(nil, authFailed(model.ErrStorageFailure)).Once() },
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "AUTHENTICATION_FAILED",
		},
		{
			name:       "id_token がない",
			path:       "/api/v1/auth/apple/signin",
			body:       `{}`,
			setupMocks: func() {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "JSONではない",
			path:       "/api/v1/auth/apple/signin",
			body:       `id_token=tok`,
			setupMocks: func() {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST_BODY",
		},
		{
			name:       "未知のフィールド",
			path:       "/api/v1/auth/apple/signin",
			body:       `{"id_token":"tok","extra":1}`,
			setupMocks: func() {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST_BODY",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			tc.setupMocks()

			resp, payload := s.post(tc.path, tc.body)

			s.Equal(tc.wantStatus, resp.StatusCode)
			errBody := payload["error"].(map[string]any)
			s.Equal(tc.wantCode, errBody["code"])
			s.mockService.AssertExpectations(s.T())
		})
	}
}

func authFailed(err error) error {
	return model.NewAppError("AUTHENTICATION_FAILED", "認証に失敗しました。", "", err)
}

func (s *SignInHandlerTestSuite) TestGetMe() {
	userID := uuid.New()
	issuer := service.NewJWTSessionIssuer(testJWTIssuer, config.JWTConfig{SecretKey: testJWTSecret, AccessTokenTTL: time.Minute})
	session, err := issuer.Issue(context.Background(), &model.User{ID: userID})
	s.Require().NoError(err)

	s.Run("有効なセッション", func() {
		s.mockService.On("GetAccount", mock.Anything, userID).
			Return(&model.User{ID: userID, Name: "Taro"}, []model.ProviderLink{{Provider: model.ProviderGoogle}}, nil).Once()

		req, _ := http.NewRequest(http.MethodGet, s.server.URL+"/api/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+session.AccessToken)
		resp, err := http.DefaultClient.Do(req)
		s.Require().NoError(err)
		defer resp.Body.Close()

		s.Equal(http.StatusOK, resp.StatusCode)
		var body model.UserResponse
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
		s.Equal(userID, body.ID)
		s.Equal([]model.Provider{model.ProviderGoogle}, body.Providers)
	})

	s.Run("Authorization ヘッダーがない", func() {
		resp, err := http.Get(s.server.URL + "/api/v1/me")
		s.Require().NoError(err)
		resp.Body.Close()
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("別の鍵で署名されたトークン", func() {
		forged := service.NewJWTSessionIssuer(testJWTIssuer, config.JWTConfig{SecretKey: "other", AccessTokenTTL: time.Minute})
		bad, err := forged.Issue(context.Background(), &model.User{ID: userID})
		s.Require().NoError(err)

		req, _ := http.NewRequest(http.MethodGet, s.server.URL+"/api/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+bad.AccessToken)
		resp, err := http.DefaultClient.Do(req)
		s.Require().NoError(err)
		resp.Body.Close()
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestHealthHandler(t *testing.T) {
	testCases := []struct {
		name       string
		pingErr    error
		wantStatus int
	}{
		{name: "DBに接続できる", wantStatus: http.StatusOK},
		{name: "DBに接続できない", pingErr: errors.New("connection refused"), wantStatus: http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(fakePinger{err: tc.pingErr})
			rec := httptest.NewRecorder()
			h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}
