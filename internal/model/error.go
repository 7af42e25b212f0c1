// internal/model/error.go
package model

import (
	"errors"
	"fmt"
)

// アプリケーション固有のエラー
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternalServer = errors.New("internal server error")
	ErrForbidden      = errors.New("forbidden")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("resource conflict") // 一意制約違反 (StorageConflict)
)

// サインイン (IdP 連携) 用のエラー分類
var (
	ErrUnsupportedProvider = errors.New("unsupported identity provider")
	ErrInvalidToken        = errors.New("invalid identity token")
	ErrVerificationFailed  = errors.New("identity verification failed")
	ErrStorageFailure      = errors.New("storage failure")

	// 以下は呼び出し側からは ErrInvalidToken として扱われる
	ErrAudienceMismatch  = fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	ErrUnknownSigningKey = fmt.Errorf("%w: unknown signing key", ErrInvalidToken)
)

// ErrorCode はログ出力用の内部エラーコードを返します。クライアントには返しません。
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedProvider):
		return "UNSUPPORTED_PROVIDER"
	case errors.Is(err, ErrUnknownSigningKey):
		return "UNKNOWN_SIGNING_KEY"
	case errors.Is(err, ErrAudienceMismatch):
		return "AUDIENCE_MISMATCH"
	case errors.Is(err, ErrInvalidToken):
		return "INVALID_TOKEN"
	case errors.Is(err, ErrVerificationFailed):
		return "VERIFICATION_FAILED"
	case errors.Is(err, ErrStorageFailure):
		return "STORAGE_FAILURE"
	case errors.Is(err, ErrConflict):
		return "STORAGE_CONFLICT"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	default:
		return "INTERNAL_ERROR"
	}
}

// ErrorDetail はクライアントに返すエラー内容
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// APIErrorResponse はAPIエラーレスポンスの構造体
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// AppError はクライアント向けの詳細と、原因となった内部エラーを併せ持つ
type AppError struct {
	Detail ErrorDetail
	Err    error
}

func NewAppError(code, message, field string, err error) *AppError {
	return &AppError{
		Detail: ErrorDetail{Code: code, Message: message, Field: field},
		Err:    err,
	}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Detail.Code + ": " + e.Detail.Message
	}
	return e.Detail.Code + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}
