package history

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatsync/internal/mocks"
	"chatsync/internal/models"
	"chatsync/internal/store"
)

func rawMessages(items ...string) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		out = append(out, json.RawMessage(item))
	}
	return out
}

func timelineIDs(st *store.Store, roomID int64) []int64 {
	msgs := st.RoomMessages(roomID)
	ids := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestLoadRoomMessages(t *testing.T) {
	apiMock := new(mocks.RoomAPIMock)
	st := store.New()
	loader := NewLoader(apiMock, st)

	apiMock.On("ListMessages", mock.Anything, int64(10), 1).Return(rawMessages(
		`{"id": 1, "chat_room_id": 10, "created_at": "2024-03-01T10:00:00Z"}`,
		`{"id": 2, "chat_room_id": 10, "created_at": "2024-03-01T10:01:00Z"}`,
	), nil).Once()

	require.NoError(t, loader.LoadRoomMessages(context.Background(), 10))
	require.Equal(t, []int64{1, 2}, timelineIDs(st, 10))
	require.NoError(t, loader.Err(10))
	require.False(t, loader.Loading(10))
	apiMock.AssertExpectations(t)
}

func TestLoadMergesWithLiveMessages(t *testing.T) {
	apiMock := new(mocks.RoomAPIMock)
	st := store.New()
	loader := NewLoader(apiMock, st)

	// A live event for message 5 won the race against the backlog fetch.
	live := models.Message{ID: 5, ChatRoomID: 10, Content: "from socket",
		CreatedAt: time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)}
	st.MergeMessages(10, []models.Message{live}, store.MergeAppend)

	apiMock.On("ListMessages", mock.Anything, int64(10), 1).Return(rawMessages(
		`{"id": 3, "chat_room_id": 10, "created_at": "2024-03-01T10:03:00Z"}`,
		`{"id": 5, "chat_room_id": 10, "content": "from backlog", "created_at": "2024-03-01T10:05:00Z"}`,
	), nil).Once()

	require.NoError(t, loader.LoadRoomMessages(context.Background(), 10))

	require.Equal(t, []int64{3, 5}, timelineIDs(st, 10))
	// The backlog copy is authoritative on a duplicate identifier.
	assert.Equal(t, "from backlog", st.RoomMessages(10)[1].Content)
}

func TestLoadTwiceIsIdempotent(t *testing.T) {
	apiMock := new(mocks.RoomAPIMock)
	st := store.New()
	loader := NewLoader(apiMock, st)

	backlog := rawMessages(`{"id": 1, "chat_room_id": 10, "created_at": "2024-03-01T10:00:00Z"}`)
	apiMock.On("ListMessages", mock.Anything, int64(10), 1).Return(backlog, nil).Twice()

	require.NoError(t, loader.LoadRoomMessages(context.Background(), 10))
	require.NoError(t, loader.LoadRoomMessages(context.Background(), 10))

	require.Equal(t, []int64{1}, timelineIDs(st, 10))
	apiMock.AssertExpectations(t)
}

func TestLoadFailureLeavesTimelineUntouched(t *testing.T) {
	apiMock := new(mocks.RoomAPIMock)
	st := store.New()
	loader := NewLoader(apiMock, st)

	live := models.Message{ID: 5, ChatRoomID: 10, CreatedAt: time.Now()}
	st.MergeMessages(10, []models.Message{live}, store.MergeAppend)

	apiMock.On("ListMessages", mock.Anything, int64(10), 1).Return(([]json.RawMessage)(nil), assert.AnError).Once()

	require.Error(t, loader.LoadRoomMessages(context.Background(), 10))
	require.Equal(t, []int64{5}, timelineIDs(st, 10))
	require.Error(t, loader.Err(10))
}

func TestLoadClearsErrorAfterSuccess(t *testing.T) {
	apiMock := new(mocks.RoomAPIMock)
	st := store.New()
	loader := NewLoader(apiMock, st)

	apiMock.On("ListMessages", mock.Anything, int64(10), 1).Return(([]json.RawMessage)(nil), assert.AnError).Once()
	apiMock.On("ListMessages", mock.Anything, int64(10), 1).Return(rawMessages(`{"id": 1}`), nil).Once()

	require.Error(t, loader.LoadRoomMessages(context.Background(), 10))
	require.Error(t, loader.Err(10))

	require.NoError(t, loader.LoadRoomMessages(context.Background(), 10))
	require.NoError(t, loader.Err(10))
}

func TestLoadDropsItemsWithoutIdentifier(t *testing.T) {
	apiMock := new(mocks.RoomAPIMock)
	st := store.New()
	loader := NewLoader(apiMock, st)

	apiMock.On("ListMessages", mock.Anything, int64(10), 1).Return(rawMessages(
		`{"content": "no id at all"}`,
		`{"message_id": 2, "chat_room_id": 10}`,
	), nil).Once()

	require.NoError(t, loader.LoadRoomMessages(context.Background(), 10))
	require.Equal(t, []int64{2}, timelineIDs(st, 10))
}
