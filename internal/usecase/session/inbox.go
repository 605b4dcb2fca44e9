package session

import (
	"context"
	"sync"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
)

// inboxCapacity bounds undelivered notifications per session; the oldest are dropped first
const inboxCapacity = 32

// Inbox buffers notifications until the next response drains them
type Inbox struct {
	mu    sync.Mutex
	items []domain.Notification
}

// NewInbox creates an empty inbox
func NewInbox() *Inbox {
	return &Inbox{}
}

// Notify implements domain.Notifier
func (i *Inbox) Notify(ctx context.Context, n domain.Notification) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.items = append(i.items, n)
	if over := len(i.items) - inboxCapacity; over > 0 {
		i.items = append([]domain.Notification(nil), i.items[over:]...)
	}
}

// Drain returns the buffered notifications in arrival order and empties the inbox
func (i *Inbox) Drain() []domain.Notification {
	i.mu.Lock()
	defer i.mu.Unlock()

	out := i.items
	i.items = nil
	if out == nil {
		out = []domain.Notification{}
	}
	return out
}
