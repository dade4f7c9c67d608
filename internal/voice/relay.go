// Package voice relays browser WebSocket connections to the upstream
// conversational voice API, passing audio and control frames in both
// directions so the API key never reaches the client.
package voice

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/dkotov/pitchlab/internal/identity"
	"github.com/google/uuid"
)

// dialTimeout bounds the upstream WebSocket handshake.
const dialTimeout = 15 * time.Second

// RelayHandler bridges a client WebSocket to the upstream voice agent.
type RelayHandler struct {
	apiKey        string
	agentID       string
	upstreamURL   string
	allowedOrigin string
	isDev         bool
}

// NewRelayHandler creates a new voice relay handler.
func NewRelayHandler(apiKey, agentID, upstreamURL, allowedOrigin string, isDev bool) *RelayHandler {
	return &RelayHandler{
		apiKey:        apiKey,
		agentID:       agentID,
		upstreamURL:   upstreamURL,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *RelayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	connID := uuid.NewString()
	slog.Info("Voice connection request", "user_id", userID, "conn_id", connID, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	client, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept voice WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := client.Close(websocket.StatusNormalClosure, "conversation ended"); closeErr != nil {
			slog.Debug("Failed to close client websocket", "error", closeErr, "conn_id", connID)
		}
	}()

	// Audio frames from the upstream can be large base64 payloads.
	client.SetReadLimit(1 << 20)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	upstream, err := h.dialUpstream(ctx)
	if err != nil {
		slog.Error("Failed to connect upstream voice agent", "error", err, "conn_id", connID)
		if writeErr := writeJSON(ctx, client, map[string]string{"type": "error", "error": "voice_agent_unavailable"}); writeErr != nil {
			slog.Debug("Failed to send voice_agent_unavailable", "error", writeErr)
		}
		return
	}
	defer func() {
		if closeErr := upstream.Close(websocket.StatusNormalClosure, "conversation ended"); closeErr != nil {
			slog.Debug("Failed to close upstream websocket", "error", closeErr, "conn_id", connID)
		}
	}()
	upstream.SetReadLimit(1 << 20)

	slog.Info("Voice relay established", "user_id", userID, "conn_id", connID)

	var wg sync.WaitGroup
	wg.Add(2)

	// Client -> upstream.
	go func() {
		defer wg.Done()
		defer cancel()
		pump(ctx, client, upstream, "client", connID)
	}()

	// Upstream -> client, answering upstream pings on the way through.
	go func() {
		defer wg.Done()
		defer cancel()
		h.upstreamLoop(ctx, upstream, client, connID)
	}()

	wg.Wait()
	slog.Info("Voice conversation ended", "user_id", userID, "conn_id", connID)
}

func (h *RelayHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("Voice origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

// dialUpstream connects to the conversational voice API with the agent id in
// the query string and the API key as a header.
func (h *RelayHandler) dialUpstream(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	url := h.upstreamURL + "?agent_id=" + h.agentID
	conn, _, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"xi-api-key": []string{h.apiKey}},
	})
	return conn, err
}

// pump copies frames from src to dst until either side closes.
func pump(ctx context.Context, src, dst *websocket.Conn, direction, connID string) {
	for {
		typ, data, err := src.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("Voice relay closed", "direction", direction, "conn_id", connID)
			} else if ctx.Err() == nil {
				slog.Warn("Voice relay read error", "direction", direction, "conn_id", connID, "error", err)
			}
			return
		}
		if err := dst.Write(ctx, typ, data); err != nil {
			if ctx.Err() == nil {
				slog.Warn("Voice relay write error", "direction", direction, "conn_id", connID, "error", err)
			}
			return
		}
	}
}

// controlFrame is the subset of upstream control messages the relay inspects.
type controlFrame struct {
	Type      string `json:"type"`
	PingEvent struct {
		EventID int `json:"event_id"`
	} `json:"ping_event"`
}

// upstreamLoop forwards upstream frames to the client. Upstream ping frames
// are answered with a pong directly so the conversation stays alive even when
// the client does not implement the keepalive protocol.
func (h *RelayHandler) upstreamLoop(ctx context.Context, upstream, client *websocket.Conn, connID string) {
	for {
		typ, data, err := upstream.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("Upstream voice connection closed", "conn_id", connID)
			} else if ctx.Err() == nil {
				slog.Warn("Upstream voice read error", "conn_id", connID, "error", err)
			}
			return
		}

		if typ == websocket.MessageText {
			var frame controlFrame
			if json.Unmarshal(data, &frame) == nil && frame.Type == "ping" {
				pong := map[string]interface{}{"type": "pong", "event_id": frame.PingEvent.EventID}
				if err := writeJSON(ctx, upstream, pong); err != nil {
					slog.Warn("Failed to answer upstream ping", "conn_id", connID, "error", err)
					return
				}
				continue
			}
		}

		if err := client.Write(ctx, typ, data); err != nil {
			if ctx.Err() == nil {
				slog.Warn("Voice relay write error", "direction", "upstream", "conn_id", connID, "error", err)
			}
			return
		}
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
