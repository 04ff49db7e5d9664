// Package api is the thin request wrapper around the chat REST endpoints.
// It is stateless, carries the session bearer token on every call and adds
// no retry policy; failures propagate to the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"chatsync/internal/models"
	"chatsync/internal/observability"
)

// RoomAPI defines the room and message endpoints the sync engine consumes.
type RoomAPI interface {
	ListRooms(ctx context.Context) ([]models.ChatRoom, error)
	ListMessages(ctx context.Context, roomID int64, page int) ([]json.RawMessage, error)
	SendMessage(ctx context.Context, roomID int64, req SendMessageRequest) (models.Message, error)
	CreateRoom(ctx context.Context, req CreateRoomRequest) (models.ChatRoom, error)
	AddReaction(ctx context.Context, messageID int64, emoji string) error
	ListUsers(ctx context.Context) ([]models.User, error)
}

// SendMessageRequest is the POST body for sending a message.
type SendMessageRequest struct {
	Content     string             `json:"content"`
	MessageType models.MessageType `json:"message_type"`
	ReplyToID   *int64             `json:"reply_to_id,omitempty"`
}

// CreateRoomRequest is the POST body for creating a room.
type CreateRoomRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	RoomType    models.RoomType `json:"room_type"`
	MemberIDs   []int64         `json:"member_ids,omitempty"`
}

// Client is the HTTP implementation of RoomAPI.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a Client for the given API base URL and bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// ListRooms fetches the room directory.
func (c *Client) ListRooms(ctx context.Context) ([]models.ChatRoom, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/chat/rooms/", nil, "list_rooms")
	if err != nil {
		return nil, err
	}
	var rooms []models.ChatRoom
	if err := decodeList(body, &rooms); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return rooms, nil
}

// ListMessages fetches one page of a room's message backlog. Items are kept
// raw so the caller can run them through normalization.
func (c *Client) ListMessages(ctx context.Context, roomID int64, page int) ([]json.RawMessage, error) {
	path := fmt.Sprintf("/api/chat/rooms/%d/messages/?page=%s", roomID, strconv.Itoa(page))
	body, err := c.do(ctx, http.MethodGet, path, nil, "list_messages")
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := decodeList(body, &items); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return items, nil
}

// SendMessage posts a message to a room.
func (c *Client) SendMessage(ctx context.Context, roomID int64, req SendMessageRequest) (models.Message, error) {
	path := fmt.Sprintf("/api/chat/rooms/%d/messages/", roomID)
	body, err := c.do(ctx, http.MethodPost, path, req, "send_message")
	if err != nil {
		return models.Message{}, err
	}
	var msg models.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return models.Message{}, fmt.Errorf("decode message: %w", err)
	}
	return msg, nil
}

// CreateRoom creates a new room.
func (c *Client) CreateRoom(ctx context.Context, req CreateRoomRequest) (models.ChatRoom, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/chat/rooms/", req, "create_room")
	if err != nil {
		return models.ChatRoom{}, err
	}
	var room models.ChatRoom
	if err := json.Unmarshal(body, &room); err != nil {
		return models.ChatRoom{}, fmt.Errorf("decode room: %w", err)
	}
	return room, nil
}

// AddReaction posts a reaction to a message.
func (c *Client) AddReaction(ctx context.Context, messageID int64, emoji string) error {
	path := fmt.Sprintf("/api/chat/messages/%d/react/", messageID)
	_, err := c.do(ctx, http.MethodPost, path, map[string]string{"emoji": emoji}, "add_reaction")
	return err
}

// ListUsers fetches the full user directory.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/users/", nil, "list_users")
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := decodeList(body, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, op string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		observability.IncAPIRequest(op, "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	observability.IncAPIRequest(op, strconv.Itoa(resp.StatusCode))
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}
	return body, nil
}

// decodeList accepts both a bare JSON array and the paginated wrapper
// {"count": n, "results": [...]} the backend uses on some list endpoints.
func decodeList(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err == nil {
		return nil
	}
	var wrapper struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return err
	}
	if wrapper.Results == nil {
		return fmt.Errorf("response is neither a list nor a paginated wrapper")
	}
	return json.Unmarshal(wrapper.Results, out)
}
