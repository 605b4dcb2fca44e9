package domain

import (
	"context"
	"time"
)

// Event subjects
const (
	SubjectCart    = "storefront.cart"
	SubjectReviews = "storefront.reviews"
)

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// NotificationKind distinguishes cart notifications
type NotificationKind string

const (
	NotificationAdded   NotificationKind = "added"
	NotificationUpdated NotificationKind = "updated"
	NotificationRemoved NotificationKind = "removed"
	NotificationCleared NotificationKind = "cleared"
)

// Notification is a user-visible message produced by a cart mutation
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	ProductID   string           `json:"product_id,omitempty"`
	Size        string           `json:"size,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Notifier receives cart notifications
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}
