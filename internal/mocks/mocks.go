package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"chatsync/internal/api"
	"chatsync/internal/models"
)

type RoomAPIMock struct {
	mock.Mock
}

func (m *RoomAPIMock) ListRooms(ctx context.Context) ([]models.ChatRoom, error) {
	args := m.Called(ctx)
	var rooms []models.ChatRoom
	if val := args.Get(0); val != nil {
		rooms = val.([]models.ChatRoom)
	}
	return rooms, args.Error(1)
}

func (m *RoomAPIMock) ListMessages(ctx context.Context, roomID int64, page int) ([]json.RawMessage, error) {
	args := m.Called(ctx, roomID, page)
	var items []json.RawMessage
	if val := args.Get(0); val != nil {
		items = val.([]json.RawMessage)
	}
	return items, args.Error(1)
}

func (m *RoomAPIMock) SendMessage(ctx context.Context, roomID int64, req api.SendMessageRequest) (models.Message, error) {
	args := m.Called(ctx, roomID, req)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *RoomAPIMock) CreateRoom(ctx context.Context, req api.CreateRoomRequest) (models.ChatRoom, error) {
	args := m.Called(ctx, req)
	var room models.ChatRoom
	if val := args.Get(0); val != nil {
		room = val.(models.ChatRoom)
	}
	return room, args.Error(1)
}

func (m *RoomAPIMock) AddReaction(ctx context.Context, messageID int64, emoji string) error {
	args := m.Called(ctx, messageID, emoji)
	return args.Error(0)
}

func (m *RoomAPIMock) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}
