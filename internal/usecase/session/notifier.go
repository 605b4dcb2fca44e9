package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

// CartEvent is published on domain.SubjectCart for every cart notification
type CartEvent struct {
	EventType    string              `json:"event_type"`
	Timestamp    time.Time           `json:"timestamp"`
	SessionID    string              `json:"session_id"`
	Notification domain.Notification `json:"notification"`
}

// EventType maps a notification kind to its event type, e.g. "cart.added"
func EventType(kind domain.NotificationKind) string {
	return "cart." + string(kind)
}

// fanout delivers a notification to the session inbox and the event stream
type fanout struct {
	sessionID string
	inbox     *Inbox
	publisher domain.EventPublisher
	logger    *logger.Logger
}

func (f *fanout) Notify(ctx context.Context, n domain.Notification) {
	f.inbox.Notify(ctx, n)

	if f.publisher == nil {
		return
	}

	data, err := json.Marshal(CartEvent{
		EventType:    EventType(n.Kind),
		Timestamp:    n.CreatedAt,
		SessionID:    f.sessionID,
		Notification: n,
	})
	if err != nil {
		f.logger.Errorf(err, "Failed to marshal cart event for session %s", f.sessionID)
		return
	}

	// Publish in background to avoid blocking the cart mutation
	go func() {
		if err := f.publisher.Publish(context.Background(), domain.SubjectCart, data); err != nil {
			f.logger.Errorf(err, "Failed to publish cart event for session %s", f.sessionID)
		}
	}()
}
