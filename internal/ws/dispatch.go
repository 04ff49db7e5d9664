package ws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"chatsync/internal/models"
	"chatsync/internal/normalize"
	"chatsync/internal/observability"
	"chatsync/internal/store"
)

// handleFrame parses one inbound frame and dispatches it. A frame that is
// not valid JSON is dropped; the connection stays up.
func (t *Transport) handleFrame(frame []byte) {
	var event models.InboundEvent
	if err := json.Unmarshal(frame, &event); err != nil {
		log.Printf("websocket frame dropped, malformed json: %v", err)
		observability.IncWSDroppedFrame("malformed_json")
		return
	}
	t.dispatch(event)
}

func (t *Transport) dispatch(event models.InboundEvent) {
	observability.IncWSEvent("inbound", event.Type)

	switch event.Type {
	case models.EventConnectionEstablished:
		log.Printf("websocket connection acknowledged by server")

	case models.EventNewMessage, models.EventMessage, models.EventForwardedMessage:
		msg := normalize.Raw(event.Data)
		if msg.ID == 0 {
			log.Printf("message event dropped: payload carries neither id nor message_id")
			observability.IncWSDroppedFrame("missing_id")
			return
		}
		t.store.MergeMessages(msg.ChatRoomID, []models.Message{msg}, store.MergeAppend)
		observability.AddMessagesMerged(1)

	case models.EventTyping:
		var typing models.TypingEvent
		if err := json.Unmarshal(event.Data, &typing); err != nil {
			log.Printf("typing event dropped: %v", err)
			observability.IncWSDroppedFrame("bad_payload")
			return
		}
		t.store.SetTyping(typing.ChatRoomID, typing.UserID, typing.IsTyping)

	case models.EventUserOnline:
		t.applyPresence(event.Data, true, true)

	case models.EventUserOffline:
		t.applyPresence(event.Data, true, false)

	case models.EventUserStatus:
		t.applyPresence(event.Data, false, false)

	case models.EventRoomCreated, models.EventRoomJoined:
		// The event payload is not enough to update the directory, so the
		// room list is re-fetched wholesale.
		if t.refresher == nil {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := t.refresher.Refresh(ctx); err != nil {
				log.Printf("room directory refresh failed: %v", err)
			}
		}()

	case models.EventReactionAdded, models.EventReaction:
		t.applyReaction(event.Data)

	case models.EventError:
		log.Printf("server error event: %s", string(event.Data))

	case models.EventPong:
		// Heartbeat acknowledgement; nothing to update.

	default:
		// Unknown kinds are ignored so new server event types do not break
		// older clients.
		log.Printf("unhandled websocket event type=%q", event.Type)
	}
}

// applyPresence updates the online set. The explicit online/offline kinds
// force their direction; the generic status kind carries the boolean itself.
func (t *Transport) applyPresence(data json.RawMessage, forced, online bool) {
	var presence models.PresenceEvent
	if err := json.Unmarshal(data, &presence); err != nil || presence.UserID == 0 {
		log.Printf("presence event dropped: missing user")
		observability.IncWSDroppedFrame("bad_payload")
		return
	}
	if forced {
		t.store.SetOnline(presence.UserID, online)
		return
	}
	t.store.SetOnline(presence.UserID, presence.IsOnline)
}

func (t *Transport) applyReaction(data json.RawMessage) {
	var event models.ReactionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		log.Printf("reaction event dropped: %v", err)
		observability.IncWSDroppedFrame("bad_payload")
		return
	}
	messageID := event.TargetMessageID()
	if messageID == 0 {
		log.Printf("reaction event dropped: payload carries neither id nor message_id")
		observability.IncWSDroppedFrame("missing_id")
		return
	}

	user := event.User
	if user == nil {
		// Some backends omit the user object on reaction broadcasts.
		user = &models.User{ID: event.UserID, FullName: "Unknown", Email: ""}
	}
	reaction := models.Reaction{
		UserID:    user.ID,
		User:      user,
		Emoji:     event.Emoji,
		CreatedAt: time.Now().UTC(),
	}
	if !t.store.UpsertReaction(event.ChatRoomID, messageID, reaction) {
		log.Printf("reaction for unknown message room=%d message=%d", event.ChatRoomID, messageID)
	}
}
