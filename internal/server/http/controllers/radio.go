package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rzbill/lorabridge/internal/runtime"
)

// RadioController transmits frames through the radio service.
type RadioController struct {
	rt *runtime.Runtime
}

// NewRadioController creates a new radio controller.
func NewRadioController(rt *runtime.Runtime) *RadioController {
	return &RadioController{rt: rt}
}

// RegisterRoutes registers radio routes with the given router.
func (c *RadioController) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/v1/radio/send", c.handleSend).Methods(http.MethodPost)
}

// handleSend sends {"message": "..."}. An empty body sends the default
// greeting. Returns 503 when the radio is not ready.
func (c *RadioController) handleSend(w http.ResponseWriter, r *http.Request) {
	var req radioSendReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	frame, err := c.rt.Radio().Send(r.Context(), req.Message)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, radioSendResp{Frame: frame})
}
