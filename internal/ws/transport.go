// Package ws owns the persistent realtime connection: one socket per
// authenticated session, a read pump that dispatches typed server events into
// the store, outbound send operations, and reconnection with exponential
// backoff and room re-join.
package ws

import (
	"context"
	"log"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"chatsync/internal/models"
	"chatsync/internal/observability"
	"chatsync/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
)

// RoomDirectoryRefresher re-fetches the room directory. Triggered on
// room-created and room-joined events, which carry no payload sufficient to
// update the directory directly.
type RoomDirectoryRefresher interface {
	Refresh(ctx context.Context) error
}

// Config parameterizes the transport.
type Config struct {
	// URL is the websocket endpoint; the session token is appended as a
	// query parameter during the handshake.
	URL   string
	Token string
	// UserID identifies the session owner in bridge events.
	UserID int64

	// ReconnectMin/ReconnectMax bound the exponential backoff between
	// connection attempts. Zero values take the defaults (1s / 30s).
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

// Transport maintains the realtime connection for one session.
type Transport struct {
	cfg       Config
	store     *store.Store
	refresher RoomDirectoryRefresher
	dialer    *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	joined  map[int64]struct{}

	done      chan struct{}
	closeOnce sync.Once
}

// NewTransport builds a Transport. Run must be called to connect.
func NewTransport(cfg Config, st *store.Store, refresher RoomDirectoryRefresher) *Transport {
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = time.Second
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = 30 * time.Second
	}
	return &Transport{
		cfg:       cfg,
		store:     st,
		refresher: refresher,
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		joined:    make(map[int64]struct{}),
		done:      make(chan struct{}),
	}
}

// Run drives the connection lifecycle until ctx is cancelled or Close is
// called: dial, pump frames, and on socket loss retry with exponential
// backoff plus jitter, re-joining previously joined rooms on each new
// connection.
func (t *Transport) Run(ctx context.Context) {
	backoff := t.cfg.ReconnectMin
	for {
		if t.stopped(ctx) {
			return
		}

		t.store.SetConnectionState(store.StateConnecting)
		conn, err := t.dial(ctx)
		if err != nil {
			log.Printf("websocket dial failed: %v", err)
			if !t.sleep(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, t.cfg.ReconnectMax)
			observability.IncWSReconnect()
			continue
		}

		connID := newConnID()
		connectedAt := time.Now()
		t.setConn(conn)
		t.store.SetConnectionState(store.StateOpen)
		observability.SetWSConnected(true)
		log.Printf("websocket connected conn_id=%s", connID)
		t.publishLifecycle(ctx, "ws_connect", connID, 0, "")
		backoff = t.cfg.ReconnectMin

		t.rejoinRooms()

		stop := make(chan struct{})
		go t.pingLoop(conn, stop)
		reason := t.readLoop(conn)
		close(stop)

		t.clearConn(conn)
		t.store.SetConnectionState(store.StateClosed)
		observability.SetWSConnected(false)
		t.publishLifecycle(ctx, "ws_disconnect", connID, time.Since(connectedAt), reason)

		if t.stopped(ctx) {
			return
		}
		log.Printf("websocket disconnected, retrying in %s: %s", backoff, reason)
		if !t.sleep(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff, t.cfg.ReconnectMax)
		observability.IncWSReconnect()
	}
}

// Close tears the transport down. The socket is closed only when one is
// currently open; Run stops retrying.
func (t *Transport) Close() {
	t.closeOnce.Do(func() {
		close(t.done)
	})

	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		return
	}

	t.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	t.writeMu.Unlock()
	_ = conn.Close()
}

func (t *Transport) dial(ctx context.Context) (*websocket.Conn, error) {
	ctx, span := otel.Tracer("chatsync/ws").Start(ctx, "ws.handshake")
	defer span.End()

	endpoint := t.cfg.URL
	if t.cfg.Token != "" {
		endpoint += "?token=" + url.QueryEscape(t.cfg.Token)
	}
	conn, resp, err := t.dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

func (t *Transport) readLoop(conn *websocket.Conn) string {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("websocket read error: %v", err)
			}
			return err.Error()
		}
		t.handleFrame(frame)
	}
}

func (t *Transport) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			t.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-stop:
			return
		case <-t.done:
			return
		}
	}
}

// send writes one outbound event. Sends while the connection is not open are
// dropped with a warning; callers treat that as a timing error, not a
// user-facing failure.
func (t *Transport) send(eventType string, data any) {
	if t.store.ConnectionState() != store.StateOpen {
		log.Printf("websocket send dropped, connection not open: type=%s", eventType)
		return
	}

	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		log.Printf("websocket send dropped, no connection: type=%s", eventType)
		return
	}

	t.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := conn.WriteJSON(models.OutboundEvent{Type: eventType, Data: data})
	t.writeMu.Unlock()
	if err != nil {
		log.Printf("websocket write error: %v", err)
		return
	}
	observability.IncWSEvent("outbound", eventType)
}

// SendMessage asks the server to persist a message. Local state is not
// touched; the message enters the store when the server echoes it back as a
// new-message event, so the server-assigned id and timestamp stay
// authoritative.
func (t *Transport) SendMessage(roomID int64, content string, msgType models.MessageType, replyToID, forwardFromID *int64) {
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	t.send(models.OutboundMessage, map[string]any{
		"chat_room_id":    roomID,
		"content":         content,
		"message_type":    msgType,
		"reply_to_id":     replyToID,
		"forward_from_id": forwardFromID,
	})
}

// SendReaction reacts to a message. A zero message id is a caller bug and is
// dropped without a socket write.
func (t *Transport) SendReaction(roomID, messageID int64, emoji string) {
	if messageID == 0 {
		log.Printf("reaction dropped: missing message id room=%d", roomID)
		return
	}
	t.send(models.OutboundReaction, map[string]any{
		"chat_room_id": roomID,
		"message_id":   messageID,
		"emoji":        emoji,
	})
}

// JoinRoom announces interest in a room's events. Idempotent; joined rooms
// are re-announced automatically after a reconnect.
func (t *Transport) JoinRoom(roomID int64) {
	t.mu.Lock()
	t.joined[roomID] = struct{}{}
	t.mu.Unlock()
	t.send(models.OutboundJoinRoom, map[string]any{"chat_room_id": roomID})
}

// SetTyping reports the local user's typing state in a room.
func (t *Transport) SetTyping(roomID int64, isTyping bool) {
	t.send(models.OutboundTyping, map[string]any{
		"chat_room_id": roomID,
		"is_typing":    isTyping,
	})
}

func (t *Transport) rejoinRooms() {
	t.mu.Lock()
	rooms := make([]int64, 0, len(t.joined))
	for roomID := range t.joined {
		rooms = append(rooms, roomID)
	}
	t.mu.Unlock()
	for _, roomID := range rooms {
		t.send(models.OutboundJoinRoom, map[string]any{"chat_room_id": roomID})
	}
}

func (t *Transport) setConn(conn *websocket.Conn) {
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
}

func (t *Transport) clearConn(conn *websocket.Conn) {
	t.mu.Lock()
	if t.conn == conn {
		t.conn = nil
	}
	t.mu.Unlock()
	_ = conn.Close()
}

func (t *Transport) stopped(ctx context.Context) bool {
	select {
	case <-t.done:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (t *Transport) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-t.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (t *Transport) publishLifecycle(ctx context.Context, event, connID string, duration time.Duration, reason string) {
	_ = observability.PublishEvent(ctx, "chatsync.ws", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload: map[string]any{
			"ws": map[string]any{
				"event":       event,
				"conn_id":     connID,
				"duration_ms": duration.Milliseconds(),
				"reason":      reason,
			},
			"identity": map[string]any{
				"user_id": t.cfg.UserID,
			},
		},
	})
}

// nextBackoff doubles the delay up to max, with up to 25% jitter to avoid
// thundering-herd reconnects.
func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		next = max
	}
	jitter := time.Duration(rand.Int63n(int64(next/4) + 1))
	return next - jitter
}
