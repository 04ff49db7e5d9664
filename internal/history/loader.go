// Package history backfills room timelines from the REST message endpoint
// and merges them with whatever already arrived live over the socket.
package history

import (
	"context"
	"fmt"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"chatsync/internal/api"
	"chatsync/internal/models"
	"chatsync/internal/normalize"
	"chatsync/internal/observability"
	"chatsync/internal/store"
)

// Loader fetches room backlogs and tracks per-room loading/error markers for
// the local surface.
type Loader struct {
	api   api.RoomAPI
	store *store.Store

	mu      sync.Mutex
	loading map[int64]bool
	errs    map[int64]error
}

// NewLoader builds a Loader.
func NewLoader(client api.RoomAPI, st *store.Store) *Loader {
	return &Loader{
		api:     client,
		store:   st,
		loading: make(map[int64]bool),
		errs:    make(map[int64]error),
	}
}

// LoadRoomMessages fetches the first backlog page for a room, normalizes it
// and merges it into the store. Messages that arrived live before the fetch
// completed are preserved; on duplicate identifiers the historical copy wins
// since the backlog is authoritative. On failure the room's timeline is left
// untouched and an error marker is recorded. Safe to invoke repeatedly for
// the same room; re-merging is idempotent.
func (l *Loader) LoadRoomMessages(ctx context.Context, roomID int64) error {
	ctx, span := otel.Tracer("chatsync/history").Start(ctx, "history.load")
	span.SetAttributes(attribute.Int64("chat.room_id", roomID))
	defer span.End()

	l.setLoading(roomID, true)
	defer l.setLoading(roomID, false)

	items, err := l.api.ListMessages(ctx, roomID, 1)
	if err != nil {
		err = fmt.Errorf("load room %d backlog: %w", roomID, err)
		l.setError(roomID, err)
		log.Printf("history load failed room=%d: %v", roomID, err)
		return err
	}
	l.setError(roomID, nil)

	batch := make([]models.Message, 0, len(items))
	for _, item := range items {
		msg := normalize.Raw(item)
		if msg.ID == 0 {
			log.Printf("history item dropped room=%d: missing identifier", roomID)
			continue
		}
		batch = append(batch, msg)
	}

	l.store.MergeMessages(roomID, batch, store.MergeAuthoritative)
	observability.AddMessagesMerged(len(batch))
	log.Printf("history loaded room=%d messages=%d", roomID, len(batch))
	return nil
}

// Loading reports whether a backlog fetch for the room is in flight.
func (l *Loader) Loading(roomID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading[roomID]
}

// Err returns the last fetch error recorded for the room, nil after a
// successful fetch.
func (l *Loader) Err(roomID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errs[roomID]
}

func (l *Loader) setLoading(roomID int64, loading bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading[roomID] = loading
}

func (l *Loader) setError(roomID int64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		delete(l.errs, roomID)
		return
	}
	l.errs[roomID] = err
}
