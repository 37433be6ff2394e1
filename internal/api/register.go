package api

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sockchat/sockchat/internal/domain"
	"github.com/sockchat/sockchat/internal/store"
)

// RegisterHandler is the out-of-band session registration endpoint:
// the only writer of session records. Callers authenticate with a
// fixed shared secret.
type RegisterHandler struct {
	store  store.Store
	secret string
	ttl    time.Duration
}

// NewRegisterHandler creates the registration handler. ttl bounds the
// lifetime of every session it writes.
func NewRegisterHandler(s store.Store, secret string, ttl time.Duration) *RegisterHandler {
	return &RegisterHandler{store: s, secret: secret, ttl: ttl}
}

// RegisterRoutes mounts the registration endpoint on the router.
func (h *RegisterHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.RegisterSession)
}

// RegisterSession validates the shared secret and writes a session
// record with an expiry.
func (h *RegisterHandler) RegisterSession(w http.ResponseWriter, r *http.Request) {
	slog.Info("Register session endpoint requested")
	body := parseBody(r.Body)

	if len(body) == 0 {
		slog.Debug("Register failed: POST data not provided")
		Error(w, http.StatusBadRequest, "POST data not provided.")
		return
	}
	for _, attribute := range []string{"secret", "sessionid", "username"} {
		if _, ok := body[attribute]; !ok {
			slog.Debug("Register failed: parameter not provided", "parameter", attribute)
			Error(w, http.StatusBadRequest, fmt.Sprintf("'%s' parameter not provided.", attribute))
			return
		}
	}

	secret, _ := body["secret"].(string)
	if subtle.ConstantTimeCompare([]byte(secret), []byte(h.secret)) != 1 {
		slog.Debug("Register failed: shared secret was incorrect")
		Error(w, http.StatusForbidden, "Forbidden: incorrect shared secret.")
		return
	}

	sessionID, _ := body["sessionid"].(string)
	username, _ := body["username"].(string)
	if sessionID == "" || username == "" {
		slog.Debug("Register failed: empty sessionid or username")
		Error(w, http.StatusBadRequest, "sessionid and username must be non-empty strings.")
		return
	}

	now := time.Now()
	sess := &domain.Session{
		SessionID: sessionID,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(h.ttl),
	}
	if err := h.store.PutSession(r.Context(), sess); err != nil {
		slog.Error("Register failed: could not store session", "error", err)
		Error(w, http.StatusInternalServerError, "Unable to store session.")
		return
	}

	slog.Info("Session registered", "session_id", sessionID, "username", username)
	Message(w, http.StatusOK, "Register successful.")
}

// parseBody decodes a JSON object body, returning an empty map when
// the body is missing or malformed.
func parseBody(r io.Reader) map[string]any {
	body := map[string]any{}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		slog.Debug("Request body could not be JSON decoded")
		return map[string]any{}
	}
	return body
}
