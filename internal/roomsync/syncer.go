// Package roomsync keeps the room directory current. Room lifecycle events
// carry no payload sufficient to update the directory incrementally, so a
// refresh replaces the whole list; last writer wins.
package roomsync

import (
	"context"
	"fmt"
	"log"

	"chatsync/internal/api"
	"chatsync/internal/store"
)

// Syncer re-fetches the room directory into the store.
type Syncer struct {
	api   api.RoomAPI
	store *store.Store

	// OnRooms, when set, observes each refreshed directory. The sync engine
	// uses it to join new rooms and backfill their timelines.
	OnRooms func(ctx context.Context)
}

// New builds a Syncer.
func New(client api.RoomAPI, st *store.Store) *Syncer {
	return &Syncer{api: client, store: st}
}

// Refresh replaces the store's room directory with the backend's current
// list. On failure the previous directory is kept.
func (s *Syncer) Refresh(ctx context.Context) error {
	rooms, err := s.api.ListRooms(ctx)
	if err != nil {
		return fmt.Errorf("refresh room directory: %w", err)
	}
	s.store.SetRooms(rooms)
	log.Printf("room directory refreshed rooms=%d", len(rooms))
	if s.OnRooms != nil {
		s.OnRooms(ctx)
	}
	return nil
}
