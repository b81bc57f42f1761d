package service

import (
	"time"

	"github.com/okian/pitchtag/internal/domain/session"
	"github.com/okian/pitchtag/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCounter sets the possession counter's start and restart values.
func WithCounter(c session.Counter) Option {
	return func(s *Service) {
		if c.Start >= 0 && c.Reset >= 0 {
			s.counter = c
		}
	}
}

// WithMaxSessions caps concurrent sessions; 0 means no cap.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxSessions = n
		}
	}
}

// WithSessionTTL sets how long an untouched session is kept and how often the
// sweeper checks. A zero ttl disables expiry.
func WithSessionTTL(ttl, sweepInterval time.Duration) Option {
	return func(s *Service) {
		s.sessionTTL = ttl
		if sweepInterval > 0 {
			s.sweepInterval = sweepInterval
		}
	}
}

// WithCommitKeyCacheSize sets how many commit idempotency keys are remembered.
func WithCommitKeyCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithPitchSize sets the default canvas size of the pitch diagram.
func WithPitchSize(width, height int) Option {
	return func(s *Service) {
		if width > 0 && height > 0 {
			s.pitchWidth = width
			s.pitchHeight = height
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
