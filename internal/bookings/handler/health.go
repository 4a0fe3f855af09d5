package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo"

	httputil "resbook/pkg/http"
	"resbook/pkg/logger"
)

const storageProbeTimeout = 2 * time.Second

type probeResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}

// HealthHandler serves the liveness and readiness probes. Liveness only
// proves the process answers; readiness also pings storage. A nil Mongo
// client means the in-memory store is active and readiness has nothing
// to probe.
type HealthHandler struct {
	mongoClient *mongo.Client
	log         *logger.Logger
}

func NewHealthHandler(mongoClient *mongo.Client, log *logger.Logger) *HealthHandler {
	return &HealthHandler{mongoClient: mongoClient, log: log}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.writeProbe(w, "Health", http.StatusOK, probeResponse{Status: "ok"})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.mongoClient == nil {
		h.writeProbe(w, "Ready", http.StatusOK, probeResponse{Status: "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storageProbeTimeout)
	defer cancel()

	if err := h.mongoClient.Ping(ctx, nil); err != nil {
		h.log.Error("Storage readiness probe failed",
			"error", err,
			"path", r.URL.Path,
		)
		h.writeProbe(w, "Ready", http.StatusServiceUnavailable, probeResponse{
			Status:  "unavailable",
			Storage: "error",
		})
		return
	}

	h.writeProbe(w, "Ready", http.StatusOK, probeResponse{Status: "ready", Storage: "ok"})
}

func (h *HealthHandler) writeProbe(w http.ResponseWriter, probe string, status int, body probeResponse) {
	if err := httputil.WriteJSON(w, status, body); err != nil {
		h.log.Error("failed to write JSON response", "handler", probe, "operation", "WriteJSON", "error", err)
	}
}
