// Package service provides the tagging service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/pitchtag/internal/adapters/export"
	repository "github.com/okian/pitchtag/internal/adapters/repository"
	"github.com/okian/pitchtag/internal/domain/dedupe"
	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/normalize"
	"github.com/okian/pitchtag/internal/domain/pitch"
	"github.com/okian/pitchtag/internal/domain/session"
	"github.com/okian/pitchtag/pkg/logger"
	"github.com/okian/pitchtag/pkg/metrics"
)

// Service implements the API dependencies for the tagger.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   *repository.MemoryStore
	deduper dedupe.Deduper

	// Configuration
	counter       session.Counter
	maxSessions   int
	sessionTTL    time.Duration
	sweepInterval time.Duration
	dedupeSize    int
	pitchWidth    int
	pitchHeight   int
	now           func() time.Time

	// State
	started bool

	logger logger.Logger
}

// CommitResult reports the outcome of a commit.
type CommitResult struct {
	Session   session.Session
	Batch     normalize.Batch
	Duplicate bool // the idempotency key was already used; nothing was applied
}

// Export is a rendered CSV download.
type Export struct {
	FileName string
	Data     []byte
	Rows     int
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		counter:       session.DefaultCounter(),
		sessionTTL:    2 * time.Hour,
		sweepInterval: time.Minute,
		dedupeSize:    10_000,
		pitchWidth:    pitch.DefaultWidth,
		pitchHeight:   pitch.DefaultHeight,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start creates the session store and its idle sweeper.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting tagger service...")

	s.store = repository.NewMemoryStore(ctx,
		repository.WithMaxSessions(s.maxSessions),
		repository.WithIdleTTL(s.sessionTTL, s.sweepInterval),
		repository.WithClock(s.now),
	)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)

	s.started = true
	s.logger.Info(ctx, "tagger service started",
		logger.Int("maxSessions", s.maxSessions),
		logger.String("sessionTTL", s.sessionTTL.String()),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("possessionStart", s.counter.Start),
		logger.Int("possessionReset", s.counter.Reset),
	)
	return nil
}

// Stop shuts down the sweeper. Sessions held in memory are discarded.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping tagger service...")
	_ = s.store.Close()
	s.started = false
	s.logger.Info(context.Background(), "tagger service stopped")
}

func (s *Service) components() (*repository.MemoryStore, dedupe.Deduper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.store, s.deduper, nil
}

// update applies fn to a session and stamps it as touched.
func (s *Service) update(ctx context.Context, id string, fn repository.UpdateFunc) (session.Session, error) {
	store, _, err := s.components()
	if err != nil {
		return session.Session{}, err
	}
	return store.Update(ctx, id, func(cur session.Session) (session.Session, error) {
		next, err := fn(cur)
		if err != nil {
			return cur, err
		}
		return next.Touch(s.now()), nil
	})
}

// CreateSession opens a new session with the configured possession counter.
func (s *Service) CreateSession(ctx context.Context) (session.Session, error) {
	store, _, err := s.components()
	if err != nil {
		return session.Session{}, err
	}
	sess, err := store.Create(ctx, s.counter, s.now())
	if err != nil {
		s.logger.Warn(ctx, "session create rejected", logger.Error(err))
		return session.Session{}, err
	}
	s.logger.Debug(ctx, "session created", logger.Session(sess.ID))
	return sess, nil
}

// Session returns the current state of a session.
func (s *Service) Session(ctx context.Context, id string) (session.Session, error) {
	store, _, err := s.components()
	if err != nil {
		return session.Session{}, err
	}
	return store.Get(ctx, id)
}

// DeleteSession discards a session.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	store, _, err := s.components()
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Debug(ctx, "session deleted", logger.Session(id))
	return nil
}

// AddPoint places a dot action on the session's pitch.
func (s *Service) AddPoint(ctx context.Context, id string, p model.DrawnPoint) (session.Session, error) {
	sess, err := s.update(ctx, id, func(cur session.Session) (session.Session, error) {
		return cur.AddPoint(p), nil
	})
	if err != nil {
		return sess, err
	}
	metrics.RecordDrawing("point", sess.Points[len(sess.Points)-1].Action)
	return sess, nil
}

// AddLine draws a line action on the session's pitch.
func (s *Service) AddLine(ctx context.Context, id string, l model.DrawnLine) (session.Session, error) {
	sess, err := s.update(ctx, id, func(cur session.Session) (session.Session, error) {
		return cur.AddLine(l), nil
	})
	if err != nil {
		return sess, err
	}
	metrics.RecordDrawing("line", sess.Lines[len(sess.Lines)-1].Action)
	if !l.Valid() {
		s.logger.Debug(ctx, "malformed line drawn; it will be dropped at commit",
			logger.Session(id),
			logger.Int("xs", len(l.Xs)),
			logger.Int("ys", len(l.Ys)),
		)
	}
	return sess, nil
}

// ClearDrawings empties both drawing surfaces.
func (s *Service) ClearDrawings(ctx context.Context, id string) (session.Session, error) {
	return s.update(ctx, id, func(cur session.Session) (session.Session, error) {
		return cur.ClearDrawings(), nil
	})
}

// UpdateForm merges a form patch into the session.
func (s *Service) UpdateForm(ctx context.Context, id string, p model.FormPatch) (session.Session, error) {
	return s.update(ctx, id, func(cur session.Session) (session.Session, error) {
		return cur.UpdateForm(p)
	})
}

// IncrementPossession advances the possession counter by one.
func (s *Service) IncrementPossession(ctx context.Context, id string) (session.Session, error) {
	return s.update(ctx, id, func(cur session.Session) (session.Session, error) {
		return cur.IncrementPossession(), nil
	})
}

// ResetPossession returns the possession counter to its restart value.
func (s *Service) ResetPossession(ctx context.Context, id string) (session.Session, error) {
	sess, err := s.update(ctx, id, func(cur session.Session) (session.Session, error) {
		return cur.ResetPossession(), nil
	})
	if err == nil {
		metrics.RecordPossessionReset()
	}
	return sess, err
}

// SetPossession sets the possession counter to n.
func (s *Service) SetPossession(ctx context.Context, id string, n int) (session.Session, error) {
	return s.update(ctx, id, func(cur session.Session) (session.Session, error) {
		return cur.SetPossession(n)
	})
}

// Commit turns the drawn shapes into rows for the current possession. A
// non-empty idempotencyKey makes retries of the same commit no-ops.
func (s *Service) Commit(ctx context.Context, id, idempotencyKey string) (CommitResult, error) {
	_, deduper, err := s.components()
	if err != nil {
		return CommitResult{}, err
	}

	var dedupeKey string
	if idempotencyKey != "" {
		dedupeKey = id + "/" + idempotencyKey
		if deduper.SeenAndRecord(ctx, dedupeKey) {
			metrics.RecordCommitDuplicate()
			s.logger.Debug(ctx, "duplicate commit skipped",
				logger.Session(id),
				logger.String("idempotencyKey", idempotencyKey),
			)
			sess, err := s.Session(ctx, id)
			if err != nil {
				return CommitResult{}, err
			}
			return CommitResult{Session: sess, Duplicate: true}, nil
		}
	}

	start := time.Now()
	var batch normalize.Batch
	sess, err := s.update(ctx, id, func(cur session.Session) (session.Session, error) {
		next, b := cur.Commit()
		batch = b
		return next, nil
	})
	if err != nil {
		if dedupeKey != "" {
			deduper.Unrecord(ctx, dedupeKey)
		}
		return CommitResult{}, err
	}

	metrics.RecordCommit(len(batch.Rows), batch.Dropped, batch.Mirrored)
	s.logger.Info(ctx, "possession committed",
		logger.Session(id),
		logger.Int("possession", sess.Possession-1),
		logger.Int("rows", len(batch.Rows)),
		logger.Int("dropped", batch.Dropped),
		logger.Bool("mirrored", batch.Mirrored),
		logger.Float64("durationMs", float64(time.Since(start).Microseconds())/1000),
	)
	return CommitResult{Session: sess, Batch: batch}, nil
}

// Clear empties the output table and restarts the possession counter.
func (s *Service) Clear(ctx context.Context, id string) (session.Session, error) {
	sess, err := s.update(ctx, id, func(cur session.Session) (session.Session, error) {
		return cur.Clear(), nil
	})
	if err != nil {
		return sess, err
	}
	metrics.RecordClear()
	s.logger.Info(ctx, "output table cleared", logger.Session(id))
	return sess, nil
}

// Rows returns the session's accumulated output table.
func (s *Service) Rows(ctx context.Context, id string) ([]model.OutputRow, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.Rows, nil
}

// Export renders the session's output table as CSV. An empty table yields an
// Export with no data.
func (s *Service) Export(ctx context.Context, id string) (Export, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return Export{}, err
	}
	data, err := export.CSV(sess.Rows)
	if err != nil {
		s.logger.Error(ctx, "csv export failed", logger.Session(id), logger.Error(err))
		return Export{}, fmt.Errorf("export session %s: %w", id, err)
	}
	out := Export{
		FileName: export.FileName(sess.Form.HomeTeam, sess.Form.AwayTeam),
		Data:     data,
		Rows:     len(sess.Rows),
	}
	if out.Rows > 0 {
		metrics.RecordExport(out.Rows)
	}
	return out, nil
}

// Pitch returns the pitch diagram. Non-positive sizes use the configured
// canvas size.
func (s *Service) Pitch(width, height int, arcs bool) pitch.Diagram {
	if width <= 0 {
		width = s.pitchWidth
	}
	if height <= 0 {
		height = s.pitchHeight
	}
	return pitch.Build(pitch.WithSize(width, height), pitch.WithArcs(arcs))
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":         s.started,
		"maxSessions":     s.maxSessions,
		"sessionTTL":      s.sessionTTL.String(),
		"dedupeSize":      s.dedupeSize,
		"possessionStart": s.counter.Start,
		"possessionReset": s.counter.Reset,
	}

	if s.started {
		active := s.store.Count(context.Background())
		stats["activeSessions"] = active
		stats["commitKeys"] = s.deduper.Size()
		metrics.UpdateSessionsActive(active)
	}

	return stats
}
