// Package router maps inbound lifecycle and application events to
// component operations and produces a status/body response for each.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sockchat/sockchat/internal/broadcast"
	"github.com/sockchat/sockchat/internal/chatlog"
	"github.com/sockchat/sockchat/internal/config"
	"github.com/sockchat/sockchat/internal/domain"
	"github.com/sockchat/sockchat/internal/identity"
	"github.com/sockchat/sockchat/internal/registry"
)

// EventType tags an inbound event for dispatch.
type EventType string

// Recognized event types. Anything else is a transport-layer contract
// violation and fails the request.
const (
	EventConnect     EventType = "CONNECT"
	EventDisconnect  EventType = "DISCONNECT"
	EventSendMessage EventType = "SEND_MESSAGE"
	EventGetHistory  EventType = "GET_HISTORY"
	EventPing        EventType = "PING"
)

// Event is one inbound request from the transport layer. Query holds
// the connect-time query parameters; Body is the raw application
// payload, if any.
type Event struct {
	Type         EventType
	ConnectionID string
	Query        map[string]string
	Body         []byte
}

// Response is the structured result returned for every event. Body is
// either a plain message or a JSON-serialized structure.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Router owns the per-event dispatch. Handlers are stateless with
// respect to each other; all coordination happens through the store.
type Router struct {
	verifier     identity.Verifier
	registry     *registry.Registry
	log          *chatlog.Log
	dispatcher   *broadcast.Dispatcher
	gw           broadcast.Gateway
	authMode     string
	historyLimit int
}

// New creates a router with injected dependencies. authMode selects
// which credential the CONNECT and SEND_MESSAGE handlers expect.
func New(v identity.Verifier, reg *registry.Registry, log *chatlog.Log, gw broadcast.Gateway, authMode string, historyLimit int) *Router {
	return &Router{
		verifier:     v,
		registry:     reg,
		log:          log,
		dispatcher:   broadcast.NewDispatcher(gw),
		gw:           gw,
		authMode:     authMode,
		historyLimit: historyLimit,
	}
}

// Handle classifies the event and runs the matching handler. Every
// path returns a structured response; nothing escapes as a panic or
// unhandled error.
func (rt *Router) Handle(ctx context.Context, ev Event) Response {
	switch ev.Type {
	case EventConnect:
		return rt.handleConnect(ctx, ev)
	case EventDisconnect:
		return rt.handleDisconnect(ctx, ev)
	case EventSendMessage:
		return rt.handleSendMessage(ctx, ev)
	case EventGetHistory:
		return rt.handleGetHistory(ctx, ev)
	case EventPing:
		slog.Info("Ping requested")
		return Response{http.StatusOK, "PONG!"}
	default:
		slog.Error("Unrecognized eventType", "event_type", string(ev.Type))
		return Response{http.StatusInternalServerError, "Unrecognized eventType."}
	}
}

// credentialParam is the query parameter carrying the identity
// credential for the active auth mode.
func (rt *Router) credentialParam() string {
	if rt.authMode == config.AuthModeToken {
		return "token"
	}
	return "sessionid"
}

func (rt *Router) handleConnect(ctx context.Context, ev Event) Response {
	param := rt.credentialParam()
	credential := ev.Query[param]
	slog.Info("Connect requested", "connection_id", ev.ConnectionID)

	if credential == "" {
		slog.Debug("Connect failed: credential not provided", "param", param)
		return Response{http.StatusBadRequest, fmt.Sprintf("%s query parameter not provided.", param)}
	}
	if ev.ConnectionID == "" {
		slog.Error("Connect failed: connectionId value not set")
		return Response{http.StatusInternalServerError, "connectionId value not set."}
	}

	username, err := rt.verifier.Verify(ctx, credential)
	if err != nil {
		if errors.Is(err, identity.ErrNotRegistered) {
			slog.Debug("Connect failed: sessionid not registered")
			return Response{http.StatusBadRequest, "sessionid not registered."}
		}
		if errors.Is(err, identity.ErrInvalidToken) {
			slog.Debug("Connect failed: token not valid")
			return Response{http.StatusBadRequest, "token not valid."}
		}
		slog.Error("Connect failed: identity verification error", "error", err)
		return Response{http.StatusInternalServerError, "Unable to verify identity."}
	}

	if err := rt.registry.Register(ctx, ev.ConnectionID); err != nil {
		slog.Error("Connect failed: could not register connection", "error", err)
		return Response{http.StatusInternalServerError, "Unable to register connection."}
	}
	slog.Info("Connection established", "connection_id", ev.ConnectionID, "username", username)

	// Return the most recent chat messages, newest first.
	msgs, err := rt.log.Recent(ctx, domain.DefaultRoom, rt.historyLimit)
	if err != nil {
		slog.Error("Connect failed: could not fetch history", "error", err)
		return Response{http.StatusInternalServerError, "Unable to fetch message history."}
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return jsonResponse(http.StatusOK, domain.MessageBatch{Messages: msgs})
}

func (rt *Router) handleDisconnect(ctx context.Context, ev Event) Response {
	slog.Info("Disconnect requested", "connection_id", ev.ConnectionID)

	if ev.ConnectionID == "" {
		slog.Error("Disconnect failed: connectionId value not set")
		return Response{http.StatusInternalServerError, "connectionId value not set."}
	}

	if err := rt.registry.Unregister(ctx, ev.ConnectionID); err != nil {
		slog.Error("Disconnect failed: could not unregister connection", "error", err)
		return Response{http.StatusInternalServerError, "Unable to unregister connection."}
	}
	return Response{http.StatusOK, "Disconnect successful."}
}

func (rt *Router) handleSendMessage(ctx context.Context, ev Event) Response {
	slog.Info("Message sent on websocket", "connection_id", ev.ConnectionID)
	body := parseBody(ev.Body)

	var username string
	if rt.authMode == config.AuthModeToken {
		token, ok := body["token"].(string)
		if !ok {
			slog.Debug("Send failed: 'token' not in message dict")
			return Response{http.StatusBadRequest, "'token' not in message dict"}
		}
		verified, err := rt.verifier.Verify(ctx, token)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidToken) {
				slog.Debug("Send failed: token not valid")
				return Response{http.StatusBadRequest, "token not valid."}
			}
			slog.Error("Send failed: identity verification error", "error", err)
			return Response{http.StatusInternalServerError, "Unable to verify identity."}
		}
		username = verified
	} else {
		// Session mode trusts the already-established session and
		// takes the sender name from the message body.
		name, ok := body["username"].(string)
		if !ok {
			slog.Debug("Send failed: 'username' not in message dict")
			return Response{http.StatusBadRequest, "'username' not in message dict"}
		}
		username = name
	}

	content, ok := body["content"].(string)
	if !ok {
		slog.Debug("Send failed: 'content' not in message dict")
		return Response{http.StatusBadRequest, "'content' not in message dict"}
	}

	msg, err := rt.log.AppendNext(ctx, domain.DefaultRoom, username, content)
	if err != nil {
		slog.Error("Send failed: could not append message", "error", err)
		return Response{http.StatusInternalServerError, "Unable to store message."}
	}

	connections, err := rt.registry.ListAll(ctx)
	if err != nil {
		slog.Error("Send failed: could not list connections", "error", err)
		return Response{http.StatusInternalServerError, "Unable to list connections."}
	}

	payload, err := json.Marshal(domain.MessageBatch{Messages: []domain.Message{msg}})
	if err != nil {
		slog.Error("Send failed: could not encode payload", "error", err)
		return Response{http.StatusInternalServerError, "Unable to encode message."}
	}

	slog.Debug("Broadcasting message", "room", msg.Room, "index", msg.Index)
	n := rt.dispatcher.Broadcast(ctx, connections, payload)
	return Response{http.StatusOK, fmt.Sprintf("Message sent to %d connections.", n)}
}

func (rt *Router) handleGetHistory(ctx context.Context, ev Event) Response {
	slog.Info("History requested", "connection_id", ev.ConnectionID)

	if ev.ConnectionID == "" {
		slog.Error("History failed: connectionId value not set")
		return Response{http.StatusInternalServerError, "connectionId value not set."}
	}

	msgs, err := rt.log.Recent(ctx, domain.DefaultRoom, rt.historyLimit)
	if err != nil {
		slog.Error("History failed: could not fetch messages", "error", err)
		return Response{http.StatusInternalServerError, "Unable to fetch message history."}
	}

	// The log stores newest first; the requester gets chronological
	// order.
	reverse(msgs)
	if msgs == nil {
		msgs = []domain.Message{}
	}

	payload, err := json.Marshal(domain.MessageBatch{Messages: msgs})
	if err != nil {
		slog.Error("History failed: could not encode payload", "error", err)
		return Response{http.StatusInternalServerError, "Unable to encode message history."}
	}

	// Delivery here is as fire-and-forget as the broadcast path: a
	// requester that vanished mid-request is not an error.
	if err := rt.gw.PostToConnection(ctx, ev.ConnectionID, payload); err != nil {
		slog.Debug("History delivery failed", "connection_id", ev.ConnectionID, "error", err)
	}
	return Response{http.StatusOK, "Message history sent."}
}

// parseBody decodes a JSON object body. Malformed bodies decode to an
// empty object; the required-field checks produce the user-visible
// error instead of the parser.
func parseBody(raw []byte) map[string]any {
	body := map[string]any{}
	if len(raw) == 0 {
		return body
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		slog.Debug("Event body could not be JSON decoded")
		return map[string]any{}
	}
	return body
}

func jsonResponse(status int, v any) Response {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to encode response body", "error", err)
		return Response{http.StatusInternalServerError, "Unable to encode response."}
	}
	return Response{status, string(data)}
}

func reverse(msgs []domain.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
