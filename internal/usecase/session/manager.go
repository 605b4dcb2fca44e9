package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
	"github.com/Pesokrava/perfume_storefront/internal/usecase/cart"
)

// Session is one shopper's server-side state
type Session struct {
	ID       string
	Cart     *cart.Store
	OpenedAt time.Time

	inbox    *Inbox
	lastSeen atomic.Int64
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// idleSince reports how long the session has gone unused
func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// Notifications drains the notifications produced since the last call
func (s *Session) Notifications() []domain.Notification {
	return s.inbox.Drain()
}

// Manager owns the live sessions and rehydrates persisted ones on demand
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	storage   domain.StateStore
	resolver  cart.ProductResolver
	publisher domain.EventPublisher
	logger    *logger.Logger

	idleTTL time.Duration
	now     func() time.Time
}

// DefaultIdleTTL is how long an unused session stays live
const DefaultIdleTTL = 30 * time.Minute

// Option configures a Manager
type Option func(*Manager)

// WithIdleTTL sets how long an unused session stays live; non-positive keeps the default
func WithIdleTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.idleTTL = ttl
		}
	}
}

// NewManager creates a session manager. resolver and publisher may be nil.
func NewManager(
	storage domain.StateStore,
	resolver cart.ProductResolver,
	publisher domain.EventPublisher,
	log *logger.Logger,
	opts ...Option,
) *Manager {
	m := &Manager{
		sessions:  make(map[string]*Session),
		storage:   storage,
		resolver:  resolver,
		publisher: publisher,
		logger:    log,
		idleTTL:   DefaultIdleTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts a new session with an empty cart
func (m *Manager) Open(ctx context.Context) (*Session, error) {
	id := uuid.New().String()
	sess := m.build(id)

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	m.logger.Debugf("Opened session %s", id)
	return sess, nil
}

// Get returns the live session, or restores it from the state store when
// a cart was persisted under id. Unknown ids return domain.ErrNotFound.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}

	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		sess.touch(m.now())
		return sess, nil
	}

	if _, err := newScopedStore(m.storage, id).Get(ctx, cart.StorageKey); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		m.logger.Errorf(err, "Failed to look up session %s", id)
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another request may have restored it while we were reading
	if sess, ok := m.sessions[id]; ok {
		sess.touch(m.now())
		return sess, nil
	}

	sess = m.build(id)
	result := sess.Cart.Load(ctx)
	m.sessions[id] = sess

	m.logger.WithFields(map[string]interface{}{
		"session_id": id,
		"restored":   result.Restored,
		"dropped":    result.Dropped,
	}).Info("Session restored")

	return sess, nil
}

// Close forgets the live session. The persisted cart is kept.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.sessions, id)

	m.logger.Debugf("Closed session %s", id)
	return nil
}

// Sweep forgets sessions idle longer than the TTL and returns how many went.
// Their carts stay persisted, so a later Get restores them.
func (m *Manager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, sess := range m.sessions {
		if sess.idleSince(now) > m.idleTTL {
			delete(m.sessions, id)
			evicted++
		}
	}

	if evicted > 0 {
		m.logger.Debugf("Evicted %d idle sessions, %d live", evicted, len(m.sessions))
	}
	return evicted
}

// RunJanitor sweeps idle sessions every interval until ctx is done
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) build(id string) *Session {
	inbox := NewInbox()
	notifier := &fanout{
		sessionID: id,
		inbox:     inbox,
		publisher: m.publisher,
		logger:    m.logger,
	}

	opts := []cart.Option{cart.WithNotifier(notifier)}
	if m.resolver != nil {
		opts = append(opts, cart.WithResolver(m.resolver))
	}

	now := m.now()
	sess := &Session{
		ID:       id,
		Cart:     cart.NewStore(newScopedStore(m.storage, id), m.logger.With("session_id", id), opts...),
		OpenedAt: now,
		inbox:    inbox,
	}
	sess.touch(now)
	return sess
}
