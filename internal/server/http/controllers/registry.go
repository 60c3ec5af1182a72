package controllers

import (
	"github.com/gorilla/mux"
	"github.com/rzbill/lorabridge/internal/runtime"
	eventsvc "github.com/rzbill/lorabridge/internal/services/events"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general  *GeneralController
	events   *EventsController
	settings *SettingsController
	radio    *RadioController
	device   *DeviceController
	push     *PushController
}

// NewControllerRegistry creates a new controller registry.
func NewControllerRegistry(rt *runtime.Runtime, events *eventsvc.Service) *ControllerRegistry {
	return &ControllerRegistry{
		general:  NewGeneralController(rt),
		events:   NewEventsController(rt, events),
		settings: NewSettingsController(rt),
		radio:    NewRadioController(rt),
		device:   NewDeviceController(rt, events),
		push:     NewPushController(rt, events),
	}
}

// Device returns the dashboard controller.
func (r *ControllerRegistry) Device() *DeviceController { return r.device }

// Push returns the websocket controller.
func (r *ControllerRegistry) Push() *PushController { return r.push }

// RegisterAllRoutes registers all controller routes with the given router,
// including the dashboard's 404 and 405 handlers.
func (r *ControllerRegistry) RegisterAllRoutes(router *mux.Router) {
	r.general.RegisterRoutes(router)
	r.events.RegisterRoutes(router)
	r.settings.RegisterRoutes(router)
	r.radio.RegisterRoutes(router)
	r.device.RegisterRoutes(router)
	r.push.RegisterRoutes(router)
	router.NotFoundHandler = r.device.NotFound()
	router.MethodNotAllowedHandler = r.device.MethodNotAllowed()
}
