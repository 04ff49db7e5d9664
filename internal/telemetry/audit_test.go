package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatsync/internal/mocks"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	pub := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(pub, "chatsync.audit", "chatsync", "test")

	userID := int64(42)
	pub.On("Publish", mock.Anything, "chatsync.audit", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(AuditEnvelope)
		return ok &&
			envelope.EventType == "audit_log" &&
			envelope.Service == "chatsync" &&
			envelope.Environment == "test" &&
			envelope.UserID != nil && *envelope.UserID == 42 &&
			envelope.Payload.Level == "INFO"
	})).Return(nil).Once()

	emitter.Emit(context.Background(), "INFO", "engine starting", &userID)
	pub.AssertExpectations(t)
}

func TestEmitNilEmitterIsSafe(t *testing.T) {
	var emitter *AuditEmitter
	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "ignored", nil)
	})
}
