// Package ws is the connection gateway: it owns the lifecycle of one
// live WebSocket connection, drives presence registry updates, and
// relays typing signals into the typing state machine.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-playground/validator/v10"

	"chat-relay/contract"
	"chat-relay/domain/event"
	"chat-relay/observability"
	"chat-relay/runtime"
)

// Gateway upgrades inbound connections and binds them to the relay
// runtime. The user identity travels as the "userId" query parameter
// of the handshake; a connection without one is accepted but stays
// unregistered (it can neither be a presence nor a fan-out target).
type Gateway struct {
	log            *slog.Logger
	presence       contract.IPresence
	publisher      contract.IPublisher
	typing         *runtime.TypingTracker
	stats          *observability.DeliveryStats
	bufferSize     int
	originPatterns []string
	validate       *validator.Validate
}

func NewGateway(log *slog.Logger, presence contract.IPresence,
	publisher contract.IPublisher, typing *runtime.TypingTracker,
	stats *observability.DeliveryStats, bufferSize int, originPatterns []string) *Gateway {
	return &Gateway{
		log:            log,
		presence:       presence,
		publisher:      publisher,
		typing:         typing,
		stats:          stats,
		bufferSize:     bufferSize,
		originPatterns: originPatterns,
		validate:       validator.New(),
	}
}

// envelope is the wire frame in both directions:
// {"event": <name>, "data": <payload>}.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// typingSignal is the only inbound payload. The "from" side is always
// the registered identity of the connection, never the payload.
type typingSignal struct {
	To string `json:"to" validate:"required"`
}

// ServeHTTP blocks until the client disconnects or a network error
// occurs. Registration cleanup is deferred so a replaced connection
// can never remove its successor's registry entry.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: g.originPatterns,
	})
	if err != nil {
		g.log.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	userID := r.URL.Query().Get("userId")
	sink := NewSink(g.bufferSize)

	if userID == "" {
		// Degraded but not fatal: the socket stays open, it is just
		// invisible to presence and fan-out.
		g.log.Warn("handshake without user identity, connection unregistered",
			"remote", r.RemoteAddr)
	} else {
		if prev := g.presence.Register(userID, sink); prev != nil {
			// Last-registration-wins for routing; the old connection
			// is left alone and will clean itself up on disconnect.
			g.log.Info("connection replaced", "user_id", userID)
		}
		g.stats.Connected()
		g.publisher.BroadcastOnlineUsers(ctx)

		defer func() {
			if g.presence.Unregister(userID, sink) {
				g.stats.Disconnected()
				g.publisher.BroadcastOnlineUsers(context.Background())
			}
		}()
	}

	writeCtx, cancelWrites := context.WithCancel(ctx)
	defer cancelWrites()
	go g.writeLoop(writeCtx, conn, sink)

	g.readLoop(ctx, conn, userID)
	conn.Close(websocket.StatusNormalClosure, "")
}

// writeLoop drains the sink into the socket. A write failure ends the
// loop; the read side notices the dead connection on its own.
func (g *Gateway) writeLoop(ctx context.Context, conn *websocket.Conn, sink *Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-sink.Events():
			frame, err := encodeFrame(evt)
			if err != nil {
				g.log.Error("encoding outbound event failed", "event", evt.Name(), "error", err)
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
				g.log.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

// readLoop parses inbound frames against the closed signal set and
// dispatches them. Unknown events and malformed payloads are dropped,
// never fatal to the connection.
func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, userID string) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			g.log.Debug("connection closed", "user_id", userID, "error", err)
			return
		}
		g.handleFrame(ctx, userID, data)
	}
}

func (g *Gateway) handleFrame(ctx context.Context, userID string, data []byte) {
	var frame envelope
	if err := json.Unmarshal(data, &frame); err != nil {
		g.log.Debug("dropping malformed frame", "error", err)
		return
	}

	switch frame.Event {
	case "typing", "stopTyping":
		if userID == "" {
			// No registered identity to derive "from" - ignore.
			return
		}
		var signal typingSignal
		if err := json.Unmarshal(frame.Data, &signal); err != nil {
			g.log.Debug("dropping malformed typing signal", "error", err)
			return
		}
		if err := g.validate.Struct(signal); err != nil {
			g.log.Debug("dropping invalid typing signal", "error", err)
			return
		}
		if frame.Event == "typing" {
			g.typing.Typing(ctx, userID, signal.To)
		} else {
			g.typing.StopTyping(ctx, userID, signal.To)
		}
	default:
		g.log.Debug("dropping unknown event", "event", frame.Event)
	}
}

// encodeFrame maps an outbound event variant to its wire envelope.
// getOnlineUsers keeps the bare array payload clients expect.
func encodeFrame(e event.Event) ([]byte, error) {
	var payload any
	switch evt := e.(type) {
	case event.OnlineUsers:
		payload = evt.UserIDs
	case event.NewMessage:
		payload = evt.Message
	default:
		payload = evt
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: e.Name(), Data: data})
}
