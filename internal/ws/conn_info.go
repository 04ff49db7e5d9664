package ws

import "github.com/google/uuid"

// newConnID labels one physical connection for log correlation and bridge
// events across its connect/disconnect pair.
func newConnID() string {
	return uuid.NewString()
}
