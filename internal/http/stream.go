package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"convi-text-pipeline/internal/models"
	"convi-text-pipeline/internal/service/session"
)

const (
	streamWriteWait = 10 * time.Second
	streamReadWait  = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamMessage is one frame sent to a stream client.
type StreamMessage struct {
	Type   string                     `json:"type"` // turn, output, error
	Turn   *models.ProcessedTurn      `json:"turn,omitempty"`
	Output *models.TextPipelineOutput `json:"output,omitempty"`
	Error  string                     `json:"error,omitempty"`
	Status int                        `json:"status,omitempty"`
}

// streamTranscript reads one transcript from the client, then streams every
// processed turn followed by the final output. The first message may be the
// raw transcript or a JSON session request.
func streamTranscript(h *session.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("WebSocket upgrade error")
			return
		}
		defer conn.Close()

		if limit := bodyLimit(h); limit > 0 {
			conn.SetReadLimit(limit)
		}
		conn.SetReadDeadline(time.Now().Add(streamReadWait))
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Msg("Stream client went away before sending a transcript")
			return
		}

		req := session.Request{Transcript: string(data)}
		if trimmed := strings.TrimSpace(req.Transcript); strings.HasPrefix(trimmed, "{") {
			var decoded session.Request
			if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
				req = decoded
			}
		}

		send := func(msg StreamMessage) bool {
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn().Err(err).Str("type", msg.Type).Msg("Stream write error")
				return false
			}
			return true
		}

		connected := true
		out, err := h.ProcessStream(r.Context(), req, func(pt models.ProcessedTurn) {
			if connected {
				connected = send(StreamMessage{Type: "turn", Turn: &pt})
			}
		})
		if !connected {
			return
		}
		if err != nil {
			send(StreamMessage{Type: "error", Error: err.Error(), Status: statusFor(err)})
		} else {
			send(StreamMessage{Type: "output", Output: out})
		}

		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(streamWriteWait))
	}
}
