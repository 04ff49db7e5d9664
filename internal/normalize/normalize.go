// Package normalize coerces loosely-shaped inbound message payloads into the
// canonical Message record. The history endpoint and the live event stream
// disagree on field naming for some event kinds (notably "id" vs
// "message_id"), and either source may omit optional fields entirely, so
// everything here is tolerant: any superset or subset of fields is accepted
// and absent values take documented defaults.
package normalize

import (
	"encoding/json"
	"time"

	"chatsync/internal/models"
)

// Raw normalizes a raw JSON payload. A payload that is not a JSON object
// yields the zero-defaulted Message (ID 0, which callers treat as missing).
func Raw(data []byte) models.Message {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return Message(nil)
	}
	return Message(fields)
}

// Message normalizes a decoded payload into a canonical Message.
//
// Defaults for absent fields: content -> ""; boolean flags -> false;
// forward_count -> 0; message_type -> "text"; status -> "sent"; reactions,
// edit_history and read_receipts -> empty slices. An embedded reply_to
// message is normalized recursively.
func Message(fields map[string]any) models.Message {
	msg := models.Message{
		ID:         asInt64(firstOf(fields, "id", "message_id")),
		ChatRoomID: asInt64(fields["chat_room_id"]),
		SenderID:   asInt64(fields["sender_id"]),
		Content:    asString(fields["content"]),
		Type:       models.MessageTypeText,
		Status:     models.MessageStatusSent,

		CreatedAt: asTime(fields["created_at"]),
		UpdatedAt: asTime(fields["updated_at"]),

		IsEdited:    asBool(fields["is_edited"]),
		IsDeleted:   asBool(fields["is_deleted"]),
		IsPinned:    asBool(fields["is_pinned"]),
		IsScheduled: asBool(fields["is_scheduled"]),

		ForwardCount: int(asInt64(fields["forward_count"])),

		Reactions:    []models.Reaction{},
		EditHistory:  []models.EditRecord{},
		ReadReceipts: []models.ReadReceipt{},
	}

	if t := asString(fields["message_type"]); t != "" {
		msg.Type = models.MessageType(t)
	}
	if s := asString(fields["status"]); s != "" {
		msg.Status = models.MessageStatus(s)
	}

	if sender := asObject(fields["sender"]); sender != nil {
		msg.Sender = normalizeUser(sender)
		if msg.SenderID == 0 {
			msg.SenderID = msg.Sender.ID
		}
	}

	if id, ok := optionalInt64(fields["reply_to_id"]); ok {
		msg.ReplyToID = &id
	}
	if parent := asObject(fields["reply_to"]); parent != nil {
		normalized := Message(parent)
		msg.ReplyTo = &normalized
		if msg.ReplyToID == nil && normalized.ID != 0 {
			msg.ReplyToID = &normalized.ID
		}
	}

	msg.DeliveredAt = optionalTime(fields["delivered_at"])
	msg.ReadAt = optionalTime(fields["read_at"])
	msg.ScheduledAt = optionalTime(fields["scheduled_at"])
	msg.AutoDeleteAt = optionalTime(fields["auto_delete_at"])

	msg.FileName = optionalString(fields["file_name"])
	msg.FileType = optionalString(fields["file_type"])
	if n, ok := optionalInt64(fields["file_size"]); ok {
		msg.FileSize = &n
	}

	msg.AudioDuration = optionalFloat(fields["audio_duration"])
	msg.Transcription = optionalString(fields["transcription"])
	if wave, ok := fields["waveform"].([]any); ok {
		msg.Waveform = make([]float64, 0, len(wave))
		for _, v := range wave {
			msg.Waveform = append(msg.Waveform, asFloat(v))
		}
	}

	msg.Latitude = optionalFloat(fields["latitude"])
	msg.Longitude = optionalFloat(fields["longitude"])
	msg.LocationName = optionalString(fields["location_name"])
	msg.ContactName = optionalString(fields["contact_name"])
	msg.ContactPhone = optionalString(fields["contact_phone"])

	if items, ok := fields["reactions"].([]any); ok {
		for _, item := range items {
			if obj := asObject(item); obj != nil {
				msg.Reactions = append(msg.Reactions, normalizeReaction(obj))
			}
		}
	}
	if items, ok := fields["edit_history"].([]any); ok {
		for _, item := range items {
			if obj := asObject(item); obj != nil {
				msg.EditHistory = append(msg.EditHistory, models.EditRecord{
					Content:  asString(obj["content"]),
					EditedAt: asTime(obj["edited_at"]),
					EditedBy: asInt64(obj["edited_by"]),
				})
			}
		}
	}
	if items, ok := fields["read_receipts"].([]any); ok {
		for _, item := range items {
			if obj := asObject(item); obj != nil {
				msg.ReadReceipts = append(msg.ReadReceipts, models.ReadReceipt{
					UserID: asInt64(obj["user_id"]),
					ReadAt: asTime(obj["read_at"]),
				})
			}
		}
	}

	return msg
}

func normalizeReaction(fields map[string]any) models.Reaction {
	r := models.Reaction{
		UserID:    asInt64(fields["user_id"]),
		Emoji:     asString(fields["emoji"]),
		CreatedAt: asTime(fields["created_at"]),
	}
	if user := asObject(fields["user"]); user != nil {
		r.User = normalizeUser(user)
		if r.UserID == 0 {
			r.UserID = r.User.ID
		}
	}
	return r
}

func normalizeUser(fields map[string]any) *models.User {
	return &models.User{
		ID:       asInt64(fields["id"]),
		FullName: asString(fields["full_name"]),
		Email:    asString(fields["email"]),
		Avatar:   asString(fields["avatar"]),
		Role:     asString(fields["role"]),
	}
}

func firstOf(fields map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := fields[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asObject(v any) map[string]any {
	obj, _ := v.(map[string]any)
	return obj
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// asInt64 accepts the numeric shapes encoding/json produces plus numeric
// strings, since some backends serialize identifiers as strings.
func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		parsed, _ := n.Int64()
		return parsed
	case string:
		var parsed int64
		for _, c := range n {
			if c < '0' || c > '9' {
				return 0
			}
			parsed = parsed*10 + int64(c-'0')
		}
		return parsed
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case json.Number:
		parsed, _ := n.Float64()
		return parsed
	default:
		return 0
	}
}

// asTime parses the timestamp layouts observed on the wire; anything else
// yields the zero time, which sorts first.
func asTime(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func optionalInt64(v any) (int64, bool) {
	if v == nil {
		return 0, false
	}
	n := asInt64(v)
	if n == 0 {
		return 0, false
	}
	return n, true
}

func optionalFloat(v any) *float64 {
	if v == nil {
		return nil
	}
	switch v.(type) {
	case float64, int64, int, json.Number:
		f := asFloat(v)
		return &f
	default:
		return nil
	}
}

func optionalString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func optionalTime(v any) *time.Time {
	t := asTime(v)
	if t.IsZero() {
		return nil
	}
	return &t
}
