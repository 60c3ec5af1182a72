package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rzbill/lorabridge/internal/runtime"
)

// GeneralController handles health and status endpoints.
type GeneralController struct {
	rt *runtime.Runtime
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime) *GeneralController {
	return &GeneralController{rt: rt}
}

// RegisterRoutes registers general routes with the given router.
func (c *GeneralController) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/v1/healthz", c.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/status", c.handleStatus).Methods(http.MethodGet)
}

// handleHealth returns the health status of the service.
//
// Returns 200 OK with {"status": "ok"} if healthy, 503 Service Unavailable otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_serving")
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (c *GeneralController) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, c.rt.Status())
}
