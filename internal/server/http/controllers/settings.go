package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rzbill/lorabridge/internal/runtime"
	"github.com/rzbill/lorabridge/internal/settings"
)

// SettingsController reads and updates the persisted device settings.
type SettingsController struct {
	rt *runtime.Runtime
}

// NewSettingsController creates a new settings controller.
func NewSettingsController(rt *runtime.Runtime) *SettingsController {
	return &SettingsController{rt: rt}
}

// RegisterRoutes registers settings routes with the given router.
func (c *SettingsController) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/v1/settings", c.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/v1/settings", c.handleUpdate).Methods(http.MethodPost, http.MethodPut)
}

func (c *SettingsController) handleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, c.rt.Settings().Get())
}

// handleUpdate applies a partial update. Omitted fields keep their value.
func (c *SettingsController) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req settingsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	next := req.apply(c.rt.Settings().Get())
	if err := c.rt.Settings().Update(r.Context(), next); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, c.rt.Settings().Get())
}

func (req settingsReq) apply(s settings.Settings) settings.Settings {
	if req.DeviceNumber != nil {
		s.DeviceNumber = *req.DeviceNumber
	}
	if req.SiteID != nil {
		s.SiteID = *req.SiteID
	}
	if req.EnableSystemLogs != nil {
		s.System = *req.EnableSystemLogs
	}
	if req.EnableHTTPLogs != nil {
		s.HTTP = *req.EnableHTTPLogs
	}
	if req.EnableLoRaLogs != nil {
		s.LoRa = *req.EnableLoRaLogs
	}
	return s
}
