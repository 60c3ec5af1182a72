package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rzbill/lorabridge/internal/radio"
	"github.com/rzbill/lorabridge/internal/runtime"
	eventsvc "github.com/rzbill/lorabridge/internal/services/events"
	"github.com/rzbill/lorabridge/internal/settings"
	"github.com/rzbill/lorabridge/internal/ui"
	"github.com/rzbill/lorabridge/pkg/log"
)

// DefaultRebootDelay is how long /reboot waits after responding before the
// restart is requested.
const DefaultRebootDelay = time.Second

// DeviceController serves the dashboard and its form and AJAX endpoints.
// Responses are plain text or the flat JSON shapes the dashboard reads.
type DeviceController struct {
	rt          *runtime.Runtime
	events      *eventsvc.Service
	rebootDelay time.Duration
}

// NewDeviceController creates a new device controller.
func NewDeviceController(rt *runtime.Runtime, svc *eventsvc.Service) *DeviceController {
	return &DeviceController{rt: rt, events: svc, rebootDelay: DefaultRebootDelay}
}

// SetRebootDelay overrides DefaultRebootDelay.
func (c *DeviceController) SetRebootDelay(d time.Duration) { c.rebootDelay = d }

// RegisterRoutes registers dashboard routes with the given router.
func (c *DeviceController) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", c.serveAsset("index.html")).Methods(http.MethodGet)
	r.HandleFunc("/main.js", c.serveAsset("main.js")).Methods(http.MethodGet)
	r.HandleFunc("/style.css", c.serveAsset("style.css")).Methods(http.MethodGet)
	r.HandleFunc("/ajax", c.handleAjax).Methods(http.MethodGet)
	r.HandleFunc("/update_settings", c.handleUpdateSettings).Methods(http.MethodPost)
	r.HandleFunc("/sendlora", c.handleSendLoRa).Methods(http.MethodPost)
	r.HandleFunc("/reboot", c.handleReboot).Methods(http.MethodPost)
}

// NotFound answers unknown paths.
func (c *DeviceController) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusNotFound, "404 Not Found")
	})
}

// MethodNotAllowed answers known paths requested with the wrong method.
func (c *DeviceController) MethodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
}

func (c *DeviceController) serveAsset(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, ctype, err := ui.Asset(name)
		if err != nil {
			writeText(w, http.StatusNotFound, "404 Not Found")
			return
		}
		w.Header().Set("Content-Type", ctype)
		w.Header().Set("Content-Security-Policy", ui.ContentSecurityPolicy)
		_, _ = w.Write(b)
	}
}

// handleAjax dispatches on the action query parameter.
func (c *DeviceController) handleAjax(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("action") {
		writeText(w, http.StatusBadRequest, "Missing action parameter")
		return
	}
	switch q.Get("action") {
	case "get_logs":
		writeJSON(w, c.events.Document())
	case "get_status":
		writeJSON(w, c.rt.Status())
	case "get_settings":
		writeJSON(w, c.rt.Settings().Get())
	default:
		writeText(w, http.StatusBadRequest, "Bad Request")
	}
}

// handleUpdateSettings applies the settings form. Unchecked logging boxes
// are absent from the form and disable their category.
func (c *DeviceController) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "Bad Request")
		return
	}
	form := r.PostForm
	if !form.Has("deviceNumber") || !form.Has("siteID") {
		writeText(w, http.StatusBadRequest, "Missing Parameters")
		return
	}
	siteID := form.Get("siteID")
	if err := settings.ValidateSiteID(siteID); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid Site ID")
		return
	}
	n, err := settings.ParseDeviceNumber(form.Get("deviceNumber"))
	if err != nil {
		writeText(w, http.StatusBadRequest, "Invalid Device Number")
		return
	}
	next := settings.Settings{
		DeviceNumber: n,
		SiteID:       siteID,
		Logging: settings.Logging{
			System: form.Has("enableSystemLogs"),
			HTTP:   form.Has("enableHttpLogs"),
			LoRa:   form.Has("enableLoRaLogs"),
		},
	}
	// The response goes out before the new switches apply, so this request
	// is logged under the old ones and ahead of the "Settings updated" event.
	err = c.rt.Settings().UpdateWith(r.Context(), next, func() {
		writeText(w, http.StatusOK, "Settings Updated")
	})
	if err != nil {
		c.rt.Logger().Error("settings update failed", log.Err(err))
		writeText(w, statusFor(err), "Settings Update Failed")
	}
}

func (c *DeviceController) handleSendLoRa(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "Bad Request")
		return
	}
	frame, err := c.rt.Radio().Send(r.Context(), r.PostForm.Get("message"))
	switch {
	case errors.Is(err, radio.ErrNotReady):
		writeText(w, http.StatusServiceUnavailable, "LoRa module not ready")
	case err != nil:
		c.rt.Logger().Error("lora send failed", log.Err(err))
		writeText(w, http.StatusInternalServerError, "LoRa send failed")
	default:
		writeText(w, http.StatusOK, "LoRa message sent: "+frame)
	}
}

// handleReboot responds first and requests the restart after rebootDelay so
// the response reaches the browser.
func (c *DeviceController) handleReboot(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "Device is rebooting...")
	c.rt.Events().System("Reboot initiated by user.")
	time.AfterFunc(c.rebootDelay, c.rt.RequestRestart)
}
