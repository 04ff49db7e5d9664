package models

import "time"

// RoomType enumerates chat room kinds.
type RoomType string

const (
	RoomTypeDirect  RoomType = "direct"
	RoomTypeGroup   RoomType = "group"
	RoomTypeChannel RoomType = "channel"
)

// MemberRole enumerates per-room membership roles.
type MemberRole string

const (
	RoleMember    MemberRole = "member"
	RoleAdmin     MemberRole = "admin"
	RoleOwner     MemberRole = "owner"
	RoleModerator MemberRole = "moderator"
)

// User is the embedded sender/member summary the backend attaches to
// messages and memberships.
type User struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
	Role     string `json:"role,omitempty"`
}

// ChatRoom is a conversation container. The derived fields (UnreadCount,
// LastMessage) are supplied by the backend and never computed locally.
type ChatRoom struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Avatar      string   `json:"avatar,omitempty"`
	RoomType    RoomType `json:"room_type"`

	IsActive           bool `json:"is_active"`
	AllowMediaSharing  bool `json:"allow_media_sharing"`
	AllowVoiceMessages bool `json:"allow_voice_messages"`
	AllowFileSharing   bool `json:"allow_file_sharing"`
	IsEncrypted        bool `json:"is_encrypted"`

	MessageRetentionDays int `json:"message_retention_days"`

	Members        []ChatRoomMember `json:"members,omitempty"`
	PinnedMessages []Message        `json:"pinned_messages,omitempty"`

	UnreadCount int       `json:"unread_count"`
	LastMessage *Message  `json:"last_message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChatRoomMember is the (room, user) pairing with role and capabilities.
// Unread accounting relies on LastReadMessageID and is computed server-side.
type ChatRoomMember struct {
	RoomID int64      `json:"chat_room_id"`
	UserID int64      `json:"user_id"`
	User   *User      `json:"user,omitempty"`
	Role   MemberRole `json:"role"`

	CanSendMessages  bool `json:"can_send_messages"`
	CanSendMedia     bool `json:"can_send_media"`
	CanAddMembers    bool `json:"can_add_members"`
	CanRemoveMembers bool `json:"can_remove_members"`
	CanEditRoom      bool `json:"can_edit_room"`
	CanPinMessages   bool `json:"can_pin_messages"`

	IsMuted   bool `json:"is_muted"`
	IsBlocked bool `json:"is_blocked"`

	JoinedAt          time.Time  `json:"joined_at"`
	LastSeenAt        *time.Time `json:"last_seen_at,omitempty"`
	LastReadMessageID *int64     `json:"last_read_message_id,omitempty"`
}
