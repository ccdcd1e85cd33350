package chat

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Aden1ke/Thera/internal/server"
)

// SocketPath serves journal-entry chat over a WebSocket.
const SocketPath = "/ws/chat"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// socketMessage is the outgoing frame. Type is "reply" or "error".
type socketMessage struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
	*Reply
}

// RegisterSocket adds the chat socket. Browsers cannot set headers on a
// WebSocket handshake, so the user id may also come from the user_id
// query parameter. Each text frame is one journal entry, sent either as
// raw text or as {"entry": "..."}.
func RegisterSocket(r chi.Router, o *Orchestrator, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	r.Get(SocketPath, handleSocket(o, logger))
}

func handleSocket(o *Orchestrator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(server.UserHeader))
		if userID == "" {
			userID = strings.TrimSpace(r.URL.Query().Get("user_id"))
		}
		if userID == "" {
			server.WriteError(w, http.StatusUnauthorized, "missing user id")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade", "error", err)
			return
		}
		defer conn.Close()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Warn("websocket read", "user_id", userID, "error", err)
				}
				return
			}

			text := entryText(msg)
			if text == "" {
				send(conn, logger, socketMessage{Type: "error", Error: "entry is required"})
				continue
			}

			reply, err := o.HandleUserEntry(r.Context(), userID, text)
			if err != nil {
				_, public := errorResponse(err)
				logger.Error("handling socket entry", "user_id", userID, "error", err)
				send(conn, logger, socketMessage{Type: "error", Error: public})
				continue
			}
			send(conn, logger, socketMessage{Type: "reply", Reply: &reply})
		}
	}
}

func entryText(msg []byte) string {
	var req entryRequest
	if err := json.Unmarshal(msg, &req); err == nil {
		return strings.TrimSpace(req.Entry)
	}
	var text string
	if err := json.Unmarshal(msg, &text); err == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(string(msg))
}

func send(conn *websocket.Conn, logger *slog.Logger, m socketMessage) {
	if err := conn.WriteJSON(m); err != nil {
		logger.Warn("websocket write", "error", err)
	}
}
