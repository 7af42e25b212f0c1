package handlers

import (
	"context"
	"net/http"
	"time"

	"go_storereview_auth/internal/middleware"
	"go_storereview_auth/internal/model"
	"go_storereview_auth/internal/webutil"
)

// Pinger は *sql.DB が満たす接続確認のインターフェース
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		logger.Error("Health check failed: database unreachable", "error", err)
		webutil.HandleError(w, logger, model.NewAppError("DATABASE_UNAVAILABLE", "データベースに接続できません。", "", model.ErrStorageFailure))
		return
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
}
