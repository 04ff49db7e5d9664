package models

import "encoding/json"

// Inbound event kinds pushed by the server. The server vocabulary carries
// synonyms for some kinds; both spellings are accepted and handled the same.
const (
	EventConnectionEstablished = "connection_established"
	EventNewMessage            = "new_message"
	EventMessage               = "message"
	EventForwardedMessage      = "forwarded_message"
	EventTyping                = "typing"
	EventUserOnline            = "user_online"
	EventUserOffline           = "user_offline"
	EventUserStatus            = "user_status"
	EventRoomCreated           = "chat_room_created"
	EventRoomJoined            = "chat_room_joined"
	EventReactionAdded         = "reaction_added"
	EventReaction              = "reaction"
	EventError                 = "error"
	EventPong                  = "pong"
)

// Outbound event kinds sent by this client.
const (
	OutboundMessage  = "message"
	OutboundReaction = "reaction"
	OutboundJoinRoom = "join_room"
	OutboundTyping   = "typing"
)

// InboundEvent is the wire envelope for server pushes. Data stays raw until
// the dispatcher knows the kind; unknown kinds are logged and dropped.
type InboundEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// OutboundEvent is the wire envelope for client sends.
type OutboundEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// TypingEvent is the payload for inbound typing indicator events.
type TypingEvent struct {
	ChatRoomID int64 `json:"chat_room_id"`
	UserID     int64 `json:"user_id"`
	IsTyping   bool  `json:"is_typing"`
}

// PresenceEvent is the payload for inbound presence events. user_online and
// user_offline carry only the user; the generic user_status kind carries the
// boolean as well.
type PresenceEvent struct {
	UserID   int64 `json:"user_id"`
	IsOnline bool  `json:"is_online"`
}

// ReactionEvent is the payload for inbound reaction events. The message
// identifier may arrive as either "id" or "message_id".
type ReactionEvent struct {
	ID         int64  `json:"id"`
	MessageID  int64  `json:"message_id"`
	ChatRoomID int64  `json:"chat_room_id"`
	User       *User  `json:"user,omitempty"`
	UserID     int64  `json:"user_id"`
	Emoji      string `json:"emoji"`
}

// TargetMessageID resolves the reacted-to message identifier, preferring the
// "id" spelling.
func (e ReactionEvent) TargetMessageID() int64 {
	if e.ID != 0 {
		return e.ID
	}
	return e.MessageID
}
