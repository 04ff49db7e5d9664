// Package store owns all client-side chat state: the per-room message
// timelines, the typing-indicator map, the online-presence set and the
// connection state. MergeMessages is the only path that mutates a room's
// timeline, which is what keeps the ordering and dedup invariants intact no
// matter whether a batch came from a history fetch, a live socket event or a
// forwarded message.
package store

import (
	"sort"
	"sync"
	"time"

	"chatsync/internal/models"
)

// ConnectionState tracks the realtime transport lifecycle.
type ConnectionState string

const (
	StateConnecting ConnectionState = "connecting"
	StateOpen       ConnectionState = "open"
	StateClosed     ConnectionState = "closed"
)

// MergeMode selects the conflict rule when an incoming message shares an
// identifier with one already stored.
type MergeMode int

const (
	// MergeAppend keeps the stored copy and discards the incoming duplicate.
	// Used for live new-message delivery, where redundant delivery of the
	// same event must not duplicate or clobber an entry.
	MergeAppend MergeMode = iota
	// MergeAuthoritative lets the incoming copy replace the stored one.
	// Used for history fetches (the REST backlog is authoritative) and for
	// edit/update events.
	MergeAuthoritative
)

// Subscriber observes messages newly appended to a room timeline.
type Subscriber func(roomID int64, msg models.Message)

// Store is the single owner of derived chat state. All methods are safe for
// concurrent use; the transport read pump, the history loader and the local
// HTTP surface all touch it.
type Store struct {
	mu             sync.RWMutex
	messagesByRoom map[int64][]models.Message
	typingByRoom   map[int64]map[int64]bool
	onlineUsers    map[int64]struct{}
	rooms          []models.ChatRoom
	connState      ConnectionState

	subs []Subscriber
}

// New creates an empty store in the connecting state.
func New() *Store {
	return &Store{
		messagesByRoom: make(map[int64][]models.Message),
		typingByRoom:   make(map[int64]map[int64]bool),
		onlineUsers:    make(map[int64]struct{}),
		connState:      StateConnecting,
	}
}

// Subscribe registers an observer for newly appended messages. Subscribers
// run outside the store lock and must not call back into the store's
// mutators for the same room.
func (s *Store) Subscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, sub)
}

// MergeMessages folds a batch of messages into a room's timeline: union with
// the current list, dedup by identifier per the merge mode, then a stable
// sort ascending by creation time. Messages with identifier 0 are skipped;
// the dispatcher rejects those before calling here, this is the backstop.
// Merging the same batch twice is a no-op, and merging two batches in either
// order produces the same timeline.
func (s *Store) MergeMessages(roomID int64, incoming []models.Message, mode MergeMode) {
	var appended []models.Message

	s.mu.Lock()
	current := s.messagesByRoom[roomID]
	index := make(map[int64]int, len(current))
	merged := make([]models.Message, len(current))
	copy(merged, current)
	for i, msg := range merged {
		index[msg.ID] = i
	}

	for _, msg := range incoming {
		if msg.ID == 0 {
			continue
		}
		if i, exists := index[msg.ID]; exists {
			if mode == MergeAuthoritative {
				merged[i] = msg
			}
			continue
		}
		index[msg.ID] = len(merged)
		merged = append(merged, msg)
		appended = append(appended, msg)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})
	s.messagesByRoom[roomID] = merged
	subs := s.subs
	s.mu.Unlock()

	for _, sub := range subs {
		for _, msg := range appended {
			sub(roomID, msg)
		}
	}
}

// UpsertReaction replaces any prior reaction from the same user on the given
// message with the new one. Returns false when the message is not present in
// the room's timeline.
func (s *Store) UpsertReaction(roomID, messageID int64, reaction models.Reaction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messagesByRoom[roomID]
	for i := range msgs {
		if msgs[i].ID != messageID {
			continue
		}
		kept := make([]models.Reaction, 0, len(msgs[i].Reactions)+1)
		for _, r := range msgs[i].Reactions {
			if r.UserID != reaction.UserID {
				kept = append(kept, r)
			}
		}
		msgs[i].Reactions = append(kept, reaction)
		return true
	}
	return false
}

// RoomMessages returns a copy of a room's timeline.
func (s *Store) RoomMessages(roomID int64) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messagesByRoom[roomID]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out
}

// RoomIDs returns the identifiers of rooms with at least one stored message.
func (s *Store) RoomIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.messagesByRoom))
	for id := range s.messagesByRoom {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SetTyping upserts the typing flag for a (room, user) pair.
func (s *Store) SetTyping(roomID, userID int64, isTyping bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.typingByRoom[roomID]; !ok {
		s.typingByRoom[roomID] = make(map[int64]bool)
	}
	s.typingByRoom[roomID][userID] = isTyping
}

// TypingUsers returns the users currently marked typing in a room.
func (s *Store) TypingUsers(roomID int64) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var users []int64
	for userID, typing := range s.typingByRoom[roomID] {
		if typing {
			users = append(users, userID)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

// SetOnline marks a user online or offline.
func (s *Store) SetOnline(userID int64, online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if online {
		s.onlineUsers[userID] = struct{}{}
	} else {
		delete(s.onlineUsers, userID)
	}
}

// IsOnline reports whether a user is in the presence set.
func (s *Store) IsOnline(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.onlineUsers[userID]
	return ok
}

// OnlineUsers returns the presence set sorted by user id.
func (s *Store) OnlineUsers() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]int64, 0, len(s.onlineUsers))
	for id := range s.onlineUsers {
		users = append(users, id)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

// SetConnectionState records the transport lifecycle state.
func (s *Store) SetConnectionState(state ConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connState = state
}

// ConnectionState returns the current transport lifecycle state.
func (s *Store) ConnectionState() ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connState
}

// SetRooms replaces the room directory wholesale. Room metadata changes
// rarely and the list is small, so last-writer-wins is sufficient.
func (s *Store) SetRooms(rooms []models.ChatRoom) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = rooms
}

// Rooms returns a copy of the room directory.
func (s *Store) Rooms() []models.ChatRoom {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]models.ChatRoom, len(s.rooms))
	copy(rooms, s.rooms)
	return rooms
}

// LastMessageAt returns the creation time of the newest stored message in a
// room, or the zero time when the timeline is empty.
func (s *Store) LastMessageAt(roomID int64) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messagesByRoom[roomID]
	if len(msgs) == 0 {
		return time.Time{}
	}
	return msgs[len(msgs)-1].CreatedAt
}
