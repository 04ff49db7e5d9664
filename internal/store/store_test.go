package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatsync/internal/models"
)

func msg(id int64, at time.Time) models.Message {
	return models.Message{ID: id, ChatRoomID: 10, CreatedAt: at}
}

var (
	t1 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 = t1.Add(time.Minute)
	t3 = t1.Add(2 * time.Minute)
)

func ids(msgs []models.Message) []int64 {
	out := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func TestMergeIdempotent(t *testing.T) {
	s := New()
	batch := []models.Message{msg(1, t1)}

	s.MergeMessages(10, batch, MergeAppend)
	s.MergeMessages(10, batch, MergeAppend)

	require.Equal(t, []int64{1}, ids(s.RoomMessages(10)))
}

func TestMergeOrderInvariance(t *testing.T) {
	batchA := []models.Message{msg(5, t3)}
	batchB := []models.Message{msg(3, t1), msg(5, t3)}

	forward := New()
	forward.MergeMessages(10, batchA, MergeAppend)
	forward.MergeMessages(10, batchB, MergeAuthoritative)

	reverse := New()
	reverse.MergeMessages(10, batchB, MergeAuthoritative)
	reverse.MergeMessages(10, batchA, MergeAppend)

	require.Equal(t, []int64{3, 5}, ids(forward.RoomMessages(10)))
	require.Equal(t, ids(forward.RoomMessages(10)), ids(reverse.RoomMessages(10)))
}

func TestMergeSortsByCreatedAt(t *testing.T) {
	s := New()
	s.MergeMessages(10, []models.Message{msg(3, t3), msg(1, t1), msg(2, t2)}, MergeAppend)
	require.Equal(t, []int64{1, 2, 3}, ids(s.RoomMessages(10)))
}

func TestMergeAppendKeepsStoredCopyOnDuplicate(t *testing.T) {
	s := New()
	original := msg(1, t1)
	original.Content = "original"
	s.MergeMessages(10, []models.Message{original}, MergeAppend)

	duplicate := msg(1, t1)
	duplicate.Content = "redundant delivery"
	s.MergeMessages(10, []models.Message{duplicate}, MergeAppend)

	msgs := s.RoomMessages(10)
	require.Len(t, msgs, 1)
	assert.Equal(t, "original", msgs[0].Content)
}

func TestMergeAuthoritativeReplacesStoredCopy(t *testing.T) {
	s := New()
	live := msg(1, t1)
	live.Content = "from socket"
	s.MergeMessages(10, []models.Message{live}, MergeAppend)

	historical := msg(1, t1)
	historical.Content = "from backlog"
	s.MergeMessages(10, []models.Message{historical}, MergeAuthoritative)

	msgs := s.RoomMessages(10)
	require.Len(t, msgs, 1)
	assert.Equal(t, "from backlog", msgs[0].Content)
}

func TestMergeSkipsZeroIdentifier(t *testing.T) {
	s := New()
	s.MergeMessages(10, []models.Message{{ChatRoomID: 10, CreatedAt: t1}}, MergeAppend)
	require.Empty(t, s.RoomMessages(10))
}

func TestMergeStableOnEqualTimestamps(t *testing.T) {
	s := New()
	s.MergeMessages(10, []models.Message{msg(1, t1), msg(2, t1)}, MergeAppend)
	require.Equal(t, []int64{1, 2}, ids(s.RoomMessages(10)))
}

func TestMergeRoomsAreIndependent(t *testing.T) {
	s := New()
	s.MergeMessages(10, []models.Message{msg(1, t1)}, MergeAppend)
	s.MergeMessages(20, []models.Message{msg(2, t1)}, MergeAppend)

	require.Equal(t, []int64{1}, ids(s.RoomMessages(10)))
	require.Equal(t, []int64{2}, ids(s.RoomMessages(20)))
	require.Equal(t, []int64{10, 20}, s.RoomIDs())
}

func TestMergeNotifiesSubscribersOncePerMessage(t *testing.T) {
	s := New()
	var seen []int64
	s.Subscribe(func(roomID int64, m models.Message) {
		seen = append(seen, m.ID)
	})

	s.MergeMessages(10, []models.Message{msg(1, t1)}, MergeAppend)
	s.MergeMessages(10, []models.Message{msg(1, t1), msg(2, t2)}, MergeAppend)

	require.Equal(t, []int64{1, 2}, seen)
}

func TestUpsertReactionReplacesPriorReactionFromSameUser(t *testing.T) {
	s := New()
	s.MergeMessages(10, []models.Message{msg(1, t1)}, MergeAppend)

	require.True(t, s.UpsertReaction(10, 1, models.Reaction{UserID: 7, Emoji: "👍"}))
	require.True(t, s.UpsertReaction(10, 1, models.Reaction{UserID: 7, Emoji: "❤️"}))
	require.True(t, s.UpsertReaction(10, 1, models.Reaction{UserID: 8, Emoji: "👍"}))

	msgs := s.RoomMessages(10)
	require.Len(t, msgs[0].Reactions, 2)

	var fromUser7 []models.Reaction
	for _, r := range msgs[0].Reactions {
		if r.UserID == 7 {
			fromUser7 = append(fromUser7, r)
		}
	}
	require.Len(t, fromUser7, 1)
	assert.Equal(t, "❤️", fromUser7[0].Emoji)
}

func TestUpsertReactionUnknownMessage(t *testing.T) {
	s := New()
	require.False(t, s.UpsertReaction(10, 99, models.Reaction{UserID: 7, Emoji: "👍"}))
}

func TestPresenceToggling(t *testing.T) {
	s := New()

	s.SetOnline(7, true)
	require.True(t, s.IsOnline(7))
	require.Equal(t, []int64{7}, s.OnlineUsers())

	s.SetOnline(7, false)
	require.False(t, s.IsOnline(7))
	require.Empty(t, s.OnlineUsers())

	// Removing an absent user is harmless.
	s.SetOnline(9, false)
	require.Empty(t, s.OnlineUsers())
}

func TestTypingUpsert(t *testing.T) {
	s := New()

	s.SetTyping(10, 7, true)
	s.SetTyping(10, 8, true)
	s.SetTyping(10, 7, false)

	require.Equal(t, []int64{8}, s.TypingUsers(10))
	require.Empty(t, s.TypingUsers(20))
}

func TestConnectionStateTransitions(t *testing.T) {
	s := New()
	require.Equal(t, StateConnecting, s.ConnectionState())

	s.SetConnectionState(StateOpen)
	require.Equal(t, StateOpen, s.ConnectionState())

	s.SetConnectionState(StateClosed)
	require.Equal(t, StateClosed, s.ConnectionState())
}

func TestSetRoomsReplacesWholesale(t *testing.T) {
	s := New()
	s.SetRooms([]models.ChatRoom{{ID: 1}, {ID: 2}})
	s.SetRooms([]models.ChatRoom{{ID: 3}})

	rooms := s.Rooms()
	require.Len(t, rooms, 1)
	assert.EqualValues(t, 3, rooms[0].ID)
}

func TestLastMessageAt(t *testing.T) {
	s := New()
	require.True(t, s.LastMessageAt(10).IsZero())

	s.MergeMessages(10, []models.Message{msg(1, t1), msg(2, t2)}, MergeAppend)
	require.Equal(t, t2, s.LastMessageAt(10))
}
