// Package handlers exposes the read-only local surface of the sync engine:
// health, the synced room directory, room timelines and presence. It only
// reads store state; nothing here mutates sync state.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chatsync/internal/history"
	"chatsync/internal/store"
)

// StateHandler serves snapshots of the synced chat state.
type StateHandler struct {
	store  *store.Store
	loader *history.Loader
}

// NewStateHandler builds a StateHandler.
func NewStateHandler(st *store.Store, loader *history.Loader) *StateHandler {
	return &StateHandler{store: st, loader: loader}
}

// ListRooms returns the synced room directory.
func (h *StateHandler) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.store.Rooms()})
}

// RoomMessages returns one room's merged timeline plus its backlog markers.
func (h *StateHandler) RoomMessages(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	resp := gin.H{
		"messages": h.store.RoomMessages(roomID),
		"typing":   h.store.TypingUsers(roomID),
		"loading":  h.loader.Loading(roomID),
	}
	if loadErr := h.loader.Err(roomID); loadErr != nil {
		resp["error"] = loadErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// Presence returns the online user set.
func (h *StateHandler) Presence(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"online_users": h.store.OnlineUsers()})
}

// Connection returns the realtime connection state.
func (h *StateHandler) Connection(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.store.ConnectionState()})
}

// Healthz reports liveness. The engine is healthy even while reconnecting;
// the connection state is reported alongside for operators.
func (h *StateHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"connection": h.store.ConnectionState(),
	})
}
