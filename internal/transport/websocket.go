// Package transport terminates WebSocket connections and translates
// frames into router events.
package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/sockchat/sockchat/internal/gateway"
	"github.com/sockchat/sockchat/internal/router"
)

// In-band actions clients may send on an established socket.
const (
	actionSendMessage = "sendMessage"
	actionGetHistory  = "getRecentMessages"
	actionPing        = "ping"
)

// WebSocketHandler upgrades HTTP requests, runs the connection
// lifecycle against the router, and pumps in-band frames as events.
type WebSocketHandler struct {
	router *router.Router
	gw     *gateway.Local
}

// NewWebSocketHandler creates the WebSocket endpoint handler.
func NewWebSocketHandler(rt *router.Router, gw *gateway.Local) *WebSocketHandler {
	return &WebSocketHandler{router: rt, gw: gw}
}

// frame is the client-to-server message envelope. Only Action is
// inspected here; the raw frame is handed to the router as the event
// body.
type frame struct {
	Action string `json:"action"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err)
		return
	}

	connectionID := uuid.NewString()
	query := flattenQuery(r)
	ctx := r.Context()

	resp := h.router.Handle(ctx, router.Event{
		Type:         router.EventConnect,
		ConnectionID: connectionID,
		Query:        query,
	})
	if resp.StatusCode != http.StatusOK {
		slog.Info("Connection rejected", "connection_id", connectionID, "status", resp.StatusCode)
		_ = conn.Close(websocket.StatusPolicyViolation, resp.Body)
		return
	}

	h.gw.Bind(connectionID, conn)
	defer func() {
		h.gw.Release(connectionID)
		h.router.Handle(context.WithoutCancel(ctx), router.Event{
			Type:         router.EventDisconnect,
			ConnectionID: connectionID,
		})
		_ = conn.Close(websocket.StatusNormalClosure, "session ended")
	}()

	// The connect response body carries the recent history.
	if err := conn.Write(ctx, websocket.MessageText, []byte(resp.Body)); err != nil {
		slog.Debug("Failed to send connect history", "connection_id", connectionID, "error", err)
		return
	}

	h.readLoop(ctx, conn, connectionID)
}

func (h *WebSocketHandler) readLoop(ctx context.Context, conn *websocket.Conn, connectionID string) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			slog.Debug("WebSocket read ended", "connection_id", connectionID, "error", err)
			return
		}

		var f frame
		// A malformed frame leaves the action empty and falls
		// through to the unrecognized-action response.
		_ = json.Unmarshal(data, &f)

		var resp router.Response
		switch f.Action {
		case actionSendMessage:
			resp = h.router.Handle(ctx, router.Event{
				Type:         router.EventSendMessage,
				ConnectionID: connectionID,
				Body:         data,
			})
		case actionGetHistory:
			resp = h.router.Handle(ctx, router.Event{
				Type:         router.EventGetHistory,
				ConnectionID: connectionID,
			})
		case actionPing:
			resp = h.router.Handle(ctx, router.Event{
				Type:         router.EventPing,
				ConnectionID: connectionID,
			})
		default:
			slog.Info("Unrecognized websocket action received", "action", f.Action)
			resp = router.Response{StatusCode: http.StatusBadRequest, Body: "Unrecognized websocket action."}
		}

		// Successful sends and history requests are answered by the
		// pushed payloads themselves; only errors and the ping
		// acknowledgment go back as a direct reply.
		if resp.StatusCode != http.StatusOK || f.Action == actionPing {
			h.writeResponse(ctx, conn, connectionID, resp)
		}
	}
}

func (h *WebSocketHandler) writeResponse(ctx context.Context, conn *websocket.Conn, connectionID string, resp router.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("Failed to encode response frame", "error", err)
		return
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		slog.Debug("Failed to write response frame", "connection_id", connectionID, "error", err)
	}
}

// flattenQuery keeps the first value of each query parameter, which is
// all the connect handshake uses.
func flattenQuery(r *http.Request) map[string]string {
	query := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}
	return query
}
