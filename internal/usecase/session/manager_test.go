package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
	"github.com/Pesokrava/perfume_storefront/internal/repository/memory"
)

type capturePublisher struct {
	mu       sync.Mutex
	subjects []string
	events   []CartEvent
}

func (p *capturePublisher) Publish(ctx context.Context, subject string, data []byte) error {
	var event CartEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func sampleProduct() *domain.Product {
	return &domain.Product{
		ID:    "P1",
		Name:  "Oud Noir",
		Price: decimal.NewFromInt(40),
		Sizes: []domain.ProductSize{{Size: "50ml", Price: decimal.NewFromInt(50)}},
	}
}

func newTestManager(publisher domain.EventPublisher) (*Manager, *memory.StateStore) {
	storage := memory.NewStateStore()
	return NewManager(storage, nil, publisher, logger.New("test")), storage
}

func TestManager_OpenAndGet(t *testing.T) {
	manager, _ := newTestManager(nil)
	ctx := context.Background()

	sess, err := manager.Open(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, 0, sess.Cart.TotalItems())

	got, err := manager.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
	assert.Equal(t, 1, manager.Len())
}

func TestManager_GetUnknown(t *testing.T) {
	manager, _ := newTestManager(nil)
	ctx := context.Background()

	_, err := manager.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = manager.Get(ctx, "0b7f7a3e-5d43-4c1a-9d6e-1f2a3b4c5d6e")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManager_CloseKeepsPersistedCart(t *testing.T) {
	manager, storage := newTestManager(nil)
	ctx := context.Background()

	sess, err := manager.Open(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.Cart.AddItem(ctx, sampleProduct(), "50ml", 3))

	_, err = storage.Get(ctx, "session:"+sess.ID+":cart")
	require.NoError(t, err)

	require.NoError(t, manager.Close(ctx, sess.ID))
	assert.Equal(t, 0, manager.Len())
	assert.ErrorIs(t, manager.Close(ctx, sess.ID), domain.ErrNotFound)

	restored, err := manager.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.NotSame(t, sess, restored)
	assert.Equal(t, 3, restored.Cart.TotalItems())
	assert.True(t, decimal.NewFromInt(150).Equal(restored.Cart.TotalPrice()))
}

func TestManager_SweepEvictsIdleSessions(t *testing.T) {
	storage := memory.NewStateStore()
	manager := NewManager(storage, nil, nil, logger.New("test"), WithIdleTTL(time.Minute))
	ctx := context.Background()

	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return clock }

	shopper, err := manager.Open(ctx)
	require.NoError(t, err)
	require.NoError(t, shopper.Cart.AddItem(ctx, sampleProduct(), "50ml", 2))

	for i := 0; i < 100; i++ {
		_, err := manager.Open(ctx)
		require.NoError(t, err)
	}
	require.Equal(t, 101, manager.Len())

	clock = clock.Add(45 * time.Second)
	_, err = manager.Get(ctx, shopper.ID)
	require.NoError(t, err)

	clock = clock.Add(30 * time.Second)
	assert.Equal(t, 100, manager.Sweep())
	assert.Equal(t, 1, manager.Len())

	clock = clock.Add(2 * time.Minute)
	assert.Equal(t, 1, manager.Sweep())
	assert.Equal(t, 0, manager.Len())

	restored, err := manager.Get(ctx, shopper.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Cart.TotalItems())
}

func TestManager_RunJanitorStopsWithContext(t *testing.T) {
	manager := NewManager(memory.NewStateStore(), nil, nil, logger.New("test"), WithIdleTTL(time.Nanosecond))
	ctx, cancel := context.WithCancel(context.Background())

	_, err := manager.Open(ctx)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		manager.RunJanitor(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return manager.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	manager, _ := newTestManager(nil)
	ctx := context.Background()

	a, err := manager.Open(ctx)
	require.NoError(t, err)
	b, err := manager.Open(ctx)
	require.NoError(t, err)

	require.NoError(t, a.Cart.AddItem(ctx, sampleProduct(), "", 1))

	assert.Equal(t, 1, a.Cart.TotalItems())
	assert.Equal(t, 0, b.Cart.TotalItems())
}

func TestSession_NotificationsAreDrained(t *testing.T) {
	publisher := &capturePublisher{}
	manager, _ := newTestManager(publisher)
	ctx := context.Background()

	sess, err := manager.Open(ctx)
	require.NoError(t, err)

	require.NoError(t, sess.Cart.AddItem(ctx, sampleProduct(), "50ml", 1))
	require.NoError(t, sess.Cart.AddItem(ctx, sampleProduct(), "50ml", 1))

	notes := sess.Notifications()
	require.Len(t, notes, 2)
	assert.Equal(t, domain.NotificationAdded, notes[0].Kind)
	assert.Equal(t, domain.NotificationUpdated, notes[1].Kind)
	assert.Empty(t, sess.Notifications())

	assert.Eventually(t, func() bool { return publisher.count() == 2 }, time.Second, 10*time.Millisecond)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	for i, event := range publisher.events {
		assert.Equal(t, domain.SubjectCart, publisher.subjects[i])
		assert.Equal(t, sess.ID, event.SessionID)
	}
}

func TestInbox_DropsOldest(t *testing.T) {
	inbox := NewInbox()
	ctx := context.Background()

	for i := 0; i < inboxCapacity+5; i++ {
		inbox.Notify(ctx, domain.Notification{Kind: domain.NotificationAdded, Description: string(rune('a' + i%26))})
	}

	notes := inbox.Drain()
	require.Len(t, notes, inboxCapacity)
	assert.Equal(t, string(rune('a'+5)), notes[0].Description)
}

func TestEventType(t *testing.T) {
	assert.Equal(t, "cart.removed", EventType(domain.NotificationRemoved))
}
