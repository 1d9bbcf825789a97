// Package live streams debate turns over WebSocket. The frontend renders
// James's reply as soon as it exists instead of waiting for the full turn,
// so each persona reply is pushed as its own event, in protocol order.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/yeoul-ai/debate-server/internal/debate"
	"github.com/yeoul-ai/debate-server/internal/domain"
)

// Handler upgrades connections and drives debate turns over them.
type Handler struct {
	engine        *debate.Engine
	allowedOrigin string
	isDev         bool
}

// NewHandler creates a live debate handler.
func NewHandler(engine *debate.Engine, allowedOrigin string, isDev bool) *Handler {
	return &Handler{engine: engine, allowedOrigin: allowedOrigin, isDev: isDev}
}

// clientMessage is one user turn sent by the client.
type clientMessage struct {
	SessionID      string `json:"session_id"`
	Message        string `json:"message"`
	LectureContext string `json:"lecture_context,omitempty"`
}

// serverEvent is one event pushed to the client. Reply events carry the
// persona's text; the tokens event closes out the turn.
type serverEvent struct {
	Type         string `json:"type"` // "james", "linda", "tokens", "error"
	SessionID    string `json:"session_id,omitempty"`
	Reply        string `json:"reply,omitempty"`
	TokensEarned int    `json:"tokens_earned,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if h.isDev {
		opts.InsecureSkipVerify = true
	} else if h.allowedOrigin != "" {
		opts.OriginPatterns = []string{h.allowedOrigin}
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err, "ip", r.RemoteAddr)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "connection closed")

	ctx := r.Context()
	slog.Info("live debate connection opened", "ip", r.RemoteAddr)

	// One turn at a time per connection: the read loop itself serializes
	// Process calls for the connection's session.
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			slog.Debug("live debate read failed", "error", err)
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			writeJSON(ctx, conn, serverEvent{Type: "error", Error: "invalid JSON message"})
			continue
		}

		if msg.SessionID == "" || msg.Message == "" {
			writeJSON(ctx, conn, serverEvent{Type: "error", Error: "session_id and message are required"})
			continue
		}

		_, _, tokens := h.engine.ProcessLive(ctx, msg.SessionID, msg.Message, msg.LectureContext,
			func(persona domain.Role, reply string) {
				writeJSON(ctx, conn, serverEvent{
					Type:      string(persona),
					SessionID: msg.SessionID,
					Reply:     reply,
				})
			})

		writeJSON(ctx, conn, serverEvent{
			Type:         "tokens",
			SessionID:    msg.SessionID,
			TokensEarned: tokens,
		})
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Debug("live debate marshal failed", "error", err)
		return
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		slog.Debug("live debate write failed", "error", err)
	}
}
