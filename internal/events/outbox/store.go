package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one event awaiting (or done with) publication.
type Entry struct {
	ID        uuid.UUID
	Topic     string
	Key       string
	Payload   []byte
	CreatedAt time.Time
	SentAt    *time.Time
}

// Store persists outbox entries. Pending returns unsent entries oldest first
// so the relay preserves per-key ordering as long as it publishes in order.
type Store interface {
	Enqueue(ctx context.Context, entry Entry) error
	Pending(ctx context.Context, limit int) ([]Entry, error)
	MarkSent(ctx context.Context, ids []uuid.UUID) error
}
