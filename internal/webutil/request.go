package webutil

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go_storereview_auth/internal/model"
)

// maxRequestBodyBytes はリクエストボディの上限 (IDトークンは数KB程度)
const maxRequestBodyBytes = 64 << 10

// DecodeJSONBody はリクエストボディをデコードします
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return model.ErrInvalidInput
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	return nil
}
