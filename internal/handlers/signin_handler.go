package handlers

import (
	"errors"
	"math"
	"net/http"
	"time"

	"go_storereview_auth/internal/middleware"
	"go_storereview_auth/internal/model"
	"go_storereview_auth/internal/service"
	"go_storereview_auth/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type SignInHandler struct {
	service service.SignInService
	now     func() time.Time
}

func NewSignInHandler(s service.SignInService) *SignInHandler {
	return &SignInHandler{service: s, now: time.Now}
}

// SignIn は IdP の ID トークンでサインインし、API用のアクセストークンを返します
func (h *SignInHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())
	providerName := chi.URLParam(r, "provider")
	logger = logger.With("provider_param", providerName)

	var req model.SignInRequest
	if err := webutil.DecodeJSONBody(w, r, &req); err != nil {
		logger.Warn("Failed to decode sign-in request body", "error", err)
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			logger.Warn("Validation failed for sign-in", "errors", validationErrors.Error())
			appErr := webutil.NewValidationErrorResponse(validationErrors)
			webutil.HandleError(w, logger, appErr)
		} else {
			logger.Error("Unexpected error during validation for sign-in", "error", err)
			webutil.HandleError(w, logger, err)
		}
		return
	}

	result, err := h.service.SignIn(r.Context(), providerName, req.IDToken)
	if err != nil {
		// サービス層でログは出力済み
		webutil.HandleError(w, logger, err)
		return
	}

	expiresIn := int64(math.Ceil(result.Session.ExpiresAt.Sub(h.now()).Seconds()))
	if expiresIn < 0 {
		expiresIn = 0
	}

	webutil.RespondWithJSON(w, http.StatusOK, model.SignInResponse{
		AccessToken: result.Session.AccessToken,
		TokenType:   result.Session.TokenType,
		ExpiresIn:   expiresIn,
		IsNewUser:   result.IsNewUser,
		User:        model.NewUserResponse(result.User, result.Links),
	}, logger)
}

// GetMe はセッションのユーザー情報と連携済みのプロバイダを返します
func (h *SignInHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Error("Failed to get user ID from context", "error", err)
		webutil.HandleError(w, logger, err)
		return
	}

	user, links, err := h.service.GetAccount(r.Context(), userID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, model.NewUserResponse(user, links), logger)
}
