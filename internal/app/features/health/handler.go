package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"github.com/dalemusser/mansiuk/internal/app/system/jsonio"
	"github.com/dalemusser/mansiuk/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	DB  docstore.DB
	Log *zap.Logger
}

// NewHandler constructs a health Handler with the document store and logger.
func NewHandler(db docstore.DB, logger *zap.Logger) *Handler {
	return &Handler{
		DB:  db,
		Log: logger,
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Message  string `json:"message,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected" }
//
// On DB failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable" }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.DB.Ping(ctx); err != nil {
		h.Log.Error("health-check: database ping failed", zap.Error(err))
		jsonio.Write(w, http.StatusServiceUnavailable, healthResponse{
			Status:   "error",
			Database: "disconnected",
			Message:  "Database unavailable",
		})
		return
	}

	jsonio.Write(w, http.StatusOK, healthResponse{Status: "ok", Database: "connected"})
}
