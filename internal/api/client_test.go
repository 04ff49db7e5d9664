package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatsync/internal/models"
)

func TestListRoomsPaginatedWrapper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/rooms/", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		w.Write([]byte(`{"count": 2, "results": [{"id": 1, "name": "general"}, {"id": 2}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	rooms, err := client.ListRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "general", rooms[0].Name)
}

func TestListRoomsBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": 7}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	rooms, err := client.ListRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.EqualValues(t, 7, rooms[0].ID)
}

func TestListMessagesKeepsItemsRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/rooms/10/messages/", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		w.Write([]byte(`{"results": [{"message_id": 42, "unknown_field": true}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	items, err := client.ListMessages(context.Background(), 10, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.JSONEq(t, `{"message_id": 42, "unknown_field": true}`, string(items[0]))
}

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat/rooms/10/messages/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"id": 99, "chat_room_id": 10, "content": "hello"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	msg, err := client.SendMessage(context.Background(), 10, SendMessageRequest{
		Content:     "hello",
		MessageType: models.MessageTypeText,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 99, msg.ID)
}

func TestAddReaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/messages/42/react/", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	require.NoError(t, client.AddReaction(context.Background(), 42, "👍"))
}

func TestErrorStatusPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	_, err := client.ListRooms(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestListUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/", r.URL.Path)
		w.Write([]byte(`{"results": [{"id": 1, "full_name": "Ana"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok")
	users, err := client.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Ana", users[0].FullName)
}
