package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rzbill/lorabridge/internal/runtime"
	eventsvc "github.com/rzbill/lorabridge/internal/services/events"
	"github.com/rzbill/lorabridge/pkg/log"
	"github.com/tidwall/gjson"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = wsPongWait * 9 / 10
	wsReadLimit    = 4096
)

// PushController upgrades /ws connections and relays hub notifications.
//
// Clients may send JSON commands: {"action":"ping"}, {"action":"get_logs"},
// {"action":"get_settings"} and {"action":"send","message":"..."}. Replies
// and notifications share one writer per connection.
type PushController struct {
	rt       *runtime.Runtime
	events   *eventsvc.Service
	upgrader websocket.Upgrader
	logger   log.Logger

	pingInterval time.Duration
	pongWait     time.Duration
}

// NewPushController creates a new push controller.
func NewPushController(rt *runtime.Runtime, svc *eventsvc.Service) *PushController {
	return &PushController{
		rt:       rt,
		events:   svc,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		logger:   rt.Logger().WithComponent("ws"),

		pingInterval: wsPingInterval,
		pongWait:     wsPongWait,
	}
}

// SetKeepalive changes the ping period and how long a connection may stay
// silent before it is dropped. ping must be shorter than pongWait. Call it
// before serving.
func (c *PushController) SetKeepalive(ping, pongWait time.Duration) {
	c.pingInterval = ping
	c.pongWait = pongWait
}

// RegisterRoutes registers the websocket route with the given router.
func (c *PushController) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws", c.handleWS).Methods(http.MethodGet)
}

func (c *PushController) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		c.logger.Debug("websocket upgrade failed", log.Err(err))
		return
	}
	defer conn.Close()

	sub := c.rt.Hub().Subscribe()
	defer c.rt.Hub().Unsubscribe(sub)
	c.logger.Debug("websocket client connected", log.Str("subscriber", sub.ID()), log.Str("remote", r.RemoteAddr))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	replies := make(chan []byte, 8)
	go c.readLoop(ctx, cancel, conn, replies)
	c.writeLoop(ctx, conn, sub.C(), replies)
	c.logger.Debug("websocket client disconnected", log.Str("subscriber", sub.ID()))
}

// readLoop reads client commands until the connection fails or the peer
// stays silent past pongWait. Closing the connection in handleWS unblocks
// ReadMessage.
func (c *PushController) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, replies chan<- []byte) {
	defer cancel()
	conn.SetReadLimit(wsReadLimit)
	extend := func() { _ = conn.SetReadDeadline(time.Now().Add(c.pongWait)) }
	extend()
	conn.SetPongHandler(func(string) error {
		extend()
		return nil
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("websocket read ended", log.Err(err))
			}
			return
		}
		extend()
		reply := c.command(ctx, data)
		if reply == nil {
			continue
		}
		select {
		case replies <- reply:
		case <-ctx.Done():
			return
		}
	}
}

func (c *PushController) writeLoop(ctx context.Context, conn *websocket.Conn, notes <-chan []byte, replies <-chan []byte) {
	ping := time.NewTicker(c.pingInterval)
	defer ping.Stop()
	write := func(mt int, p []byte) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteMessage(mt, p) == nil
	}
	for {
		select {
		case <-ctx.Done():
			write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case p, ok := <-notes:
			if !ok || !write(websocket.TextMessage, p) {
				return
			}
		case p := <-replies:
			if !write(websocket.TextMessage, p) {
				return
			}
		case <-ping.C:
			if !write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

// command answers one client message. Unknown actions get an error reply.
func (c *PushController) command(ctx context.Context, data []byte) []byte {
	if !gjson.ValidBytes(data) {
		return wsReply("error", "message", "invalid JSON")
	}
	msg := gjson.ParseBytes(data)
	switch action := msg.Get("action").String(); action {
	case "ping":
		return wsReply("pong")
	case "get_logs":
		return wsReply("logs", "logs", c.events.Document())
	case "get_settings":
		return wsReply("settings", "settings", c.rt.Settings().Get())
	case "send":
		frame, err := c.rt.Radio().Send(ctx, msg.Get("message").String())
		if err != nil {
			return wsReply("error", "message", err.Error())
		}
		return wsReply("sent", "frame", frame)
	default:
		return wsReply("error", "message", "unknown action: "+action)
	}
}

// wsReply encodes {"type": typ, kv...}.
func wsReply(typ string, kv ...any) []byte {
	m := map[string]any{"type": typ}
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	b, _ := json.Marshal(m)
	return b
}
