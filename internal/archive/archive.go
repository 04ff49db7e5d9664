// Package archive mirrors merged messages into Postgres as an append-only
// log for offline inspection. The in-memory store remains the source of
// truth for the live session; the archive is a sink and is never read back
// into sync state.
package archive

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"chatsync/internal/models"
)

// Archive writes merged messages to a Postgres table.
type Archive struct {
	db *sqlx.DB
}

// Open connects to Postgres and ensures the archive table exists.
func Open(dsn string) (*Archive, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect archive db: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive db: %w", err)
	}
	return &Archive{db: db}, nil
}

func migrate(db *sqlx.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS archived_messages (
        id BIGINT PRIMARY KEY,
        chat_room_id BIGINT NOT NULL,
        sender_id BIGINT NOT NULL,
        content TEXT NOT NULL,
        message_type TEXT NOT NULL,
        status TEXT NOT NULL,
        is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
        created_at TIMESTAMPTZ NOT NULL,
        archived_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_archived_messages_room
        ON archived_messages (chat_room_id, created_at);`)
	return err
}

// Append stores one message. Duplicate identifiers are ignored, so replayed
// deliveries after a reconnect stay idempotent. Shaped as a store.Subscriber.
func (a *Archive) Append(roomID int64, msg models.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := a.db.ExecContext(ctx, `INSERT INTO archived_messages
        (id, chat_room_id, sender_id, content, message_type, status, is_deleted, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (id) DO NOTHING`,
		msg.ID, roomID, msg.SenderID, msg.Content, string(msg.Type), string(msg.Status), msg.IsDeleted, msg.CreatedAt)
	if err != nil {
		log.Printf("archive append failed message=%d: %v", msg.ID, err)
	}
}

// Close releases the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}
