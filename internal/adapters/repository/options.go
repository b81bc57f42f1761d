// Package repository defines the session store interface and errors.
package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMaxSessions caps the number of sessions held; n <= 0 means no cap.
func WithMaxSessions(n int) Option {
	return func(s *MemoryStore) {
		s.maxSessions = n
	}
}

// WithIdleTTL enables the background sweeper: sessions idle for longer than
// ttl are removed every interval.
func WithIdleTTL(ttl, interval time.Duration) Option {
	return func(s *MemoryStore) {
		if ttl > 0 && interval > 0 {
			s.idleTTL = ttl
			s.sweepInterval = interval
		}
	}
}

// WithIDGenerator replaces the session id source.
func WithIDGenerator(gen func() string) Option {
	return func(s *MemoryStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithClock replaces the time source used by the sweeper.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}
