package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/pitchtag/internal/domain/session"
	"github.com/okian/pitchtag/pkg/logger"
	"github.com/okian/pitchtag/pkg/metrics"
)

// MemoryStore is an in-memory Store. A single mutex serializes every update.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]session.Session

	maxSessions   int
	idleTTL       time.Duration
	sweepInterval time.Duration
	newID         func() string
	now           func() time.Time

	stopChan  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewMemoryStore constructs a store. When an idle TTL is configured a sweeper
// goroutine runs until ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]session.Session),
		newID:    uuid.NewString,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.idleTTL > 0 {
		s.startSweeper(ctx)
	}
	metrics.UpdateSessionsActive(0)
	return s
}

func (s *MemoryStore) startSweeper(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				if n := s.Sweep(ctx, s.now().Add(-s.idleTTL)); n > 0 {
					logger.Get().Info(ctx, "expired idle sessions", logger.Int("expired", n))
				}
			}
		}
	}()
}

// Close stops the sweeper.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Create implements Store.Create.
func (s *MemoryStore) Create(_ context.Context, counter session.Counter, now time.Time) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		metrics.RecordSessionRejected()
		return session.Session{}, ErrCapacity
	}
	id := s.newID()
	for _, taken := s.sessions[id]; taken; _, taken = s.sessions[id] {
		id = s.newID()
	}
	sess := session.New(id, counter, now)
	s.sessions[id] = sess

	metrics.RecordSessionCreated()
	metrics.UpdateSessionsActive(len(s.sessions))
	return sess.Clone(), nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return session.Session{}, ErrNotFound
	}
	return sess.Clone(), nil
}

// Update implements Store.Update.
func (s *MemoryStore) Update(_ context.Context, id string, fn UpdateFunc) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.sessions[id]
	if !ok {
		return session.Session{}, ErrNotFound
	}
	next, err := fn(cur)
	if err != nil {
		return cur.Clone(), err
	}
	next.ID = id
	s.sessions[id] = next
	return next.Clone(), nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	metrics.UpdateSessionsActive(len(s.sessions))
	return nil
}

// Sweep implements Store.Sweep.
func (s *MemoryStore) Sweep(_ context.Context, cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	if n > 0 {
		metrics.RecordSessionsExpired(n)
		metrics.UpdateSessionsActive(len(s.sessions))
	}
	return n
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
