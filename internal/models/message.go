package models

import "time"

// MessageType enumerates the supported message payload kinds.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeVideo    MessageType = "video"
	MessageTypeFile     MessageType = "file"
	MessageTypeLocation MessageType = "location"
	MessageTypeContact  MessageType = "contact"
	MessageTypeSticker  MessageType = "sticker"
	MessageTypeGif      MessageType = "gif"
)

// MessageStatus enumerates server-side delivery states.
type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusFailed    MessageStatus = "failed"
)

// Message represents one chat message inside a room.
//
// The identifier is assigned by the backend and is stable across both the
// history fetch and the live event stream; some event kinds carry it as
// "message_id" instead of "id", which normalization resolves.
type Message struct {
	ID         int64       `db:"id" json:"id"`
	ChatRoomID int64       `db:"chat_room_id" json:"chat_room_id"`
	SenderID   int64       `db:"sender_id" json:"sender_id"`
	Sender     *User       `db:"-" json:"sender,omitempty"`
	Content    string      `db:"content" json:"content"`
	Type       MessageType `db:"message_type" json:"message_type"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	IsEdited    bool `db:"is_edited" json:"is_edited"`
	IsDeleted   bool `db:"is_deleted" json:"is_deleted"`
	IsPinned    bool `db:"is_pinned" json:"is_pinned"`
	IsScheduled bool `db:"is_scheduled" json:"is_scheduled"`

	ReplyToID *int64   `db:"reply_to_id" json:"reply_to_id,omitempty"`
	ReplyTo   *Message `db:"-" json:"reply_to,omitempty"`

	Status       MessageStatus `db:"status" json:"status"`
	DeliveredAt  *time.Time    `db:"delivered_at" json:"delivered_at,omitempty"`
	ReadAt       *time.Time    `db:"read_at" json:"read_at,omitempty"`
	ScheduledAt  *time.Time    `db:"scheduled_at" json:"scheduled_at,omitempty"`
	AutoDeleteAt *time.Time    `db:"auto_delete_at" json:"auto_delete_at,omitempty"`
	ForwardCount int           `db:"forward_count" json:"forward_count"`

	// File attachments.
	FileName *string `db:"file_name" json:"file_name,omitempty"`
	FileSize *int64  `db:"file_size" json:"file_size,omitempty"`
	FileType *string `db:"file_type" json:"file_type,omitempty"`

	// Voice messages.
	AudioDuration *float64  `db:"audio_duration" json:"audio_duration,omitempty"`
	Waveform      []float64 `db:"-" json:"waveform,omitempty"`
	Transcription *string   `db:"transcription" json:"transcription,omitempty"`

	// Location shares.
	Latitude     *float64 `db:"latitude" json:"latitude,omitempty"`
	Longitude    *float64 `db:"longitude" json:"longitude,omitempty"`
	LocationName *string  `db:"location_name" json:"location_name,omitempty"`

	// Contact cards.
	ContactName  *string `db:"contact_name" json:"contact_name,omitempty"`
	ContactPhone *string `db:"contact_phone" json:"contact_phone,omitempty"`

	Reactions    []Reaction    `db:"-" json:"reactions"`
	EditHistory  []EditRecord  `db:"-" json:"edit_history"`
	ReadReceipts []ReadReceipt `db:"-" json:"read_receipts"`
}

// Reaction is one user's emoji reaction to a message. A room member keeps at
// most one reaction per message; a newer reaction replaces the previous one.
type Reaction struct {
	UserID    int64     `json:"user_id"`
	User      *User     `json:"user,omitempty"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// EditRecord is one entry of a message's edit history.
type EditRecord struct {
	Content  string    `json:"content"`
	EditedAt time.Time `json:"edited_at"`
	EditedBy int64     `json:"edited_by"`
}

// ReadReceipt records when a member read a message.
type ReadReceipt struct {
	UserID int64     `json:"user_id"`
	ReadAt time.Time `json:"read_at"`
}
