package health

import (
	"context"
	"net/http"

	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// PendingReporter exposes the completed-session count not yet flushed to
// the counter document.
type PendingReporter interface {
	Pending() int64
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client     *mongo.Client
	Reconciler PendingReporter // optional
	Log        *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client *mongo.Client, reconciler PendingReporter, logger *zap.Logger) *Handler {
	return &Handler{
		Client:     client,
		Reconciler: reconciler,
		Log:        logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status         string `json:"status"`
	Database       string `json:"database"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
	PendingCounter *int64 `json:"pending_counter,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "pending_counter":0 }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		jsonutil.Write(w, http.StatusServiceUnavailable, resp)
		return
	}

	if h.Reconciler != nil {
		n := h.Reconciler.Pending()
		resp.PendingCounter = &n
	}

	jsonutil.OK(w, resp)
}
