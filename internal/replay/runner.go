package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pitchtag/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// ErrSessionsFailed is returned when at least one replayed session failed.
var ErrSessionsFailed = errors.New("replay sessions failed")

// Run executes the complete replay.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting pitchtag replay",
		logger.String("baseURL", config.BaseURL),
		logger.String("script", config.Script),
		logger.Int("sessions", config.Sessions),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Bool("verbose", config.Verbose))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := client.checkHealth(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Load or generate the script
	script, err := loadOrGenerate(ctx, config)
	if err != nil {
		return stats, err
	}
	for _, p := range script.Possessions {
		for _, l := range p.Lines {
			if !l.Valid() {
				stats.MalformedExpected++
			}
		}
	}

	// Step 3: Replay the script on every session concurrently
	replaySessions(ctx, config, client, script, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if stats.SessionsFailed > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrSessionsFailed, stats.SessionsFailed, stats.SessionsStarted)
	}
	log.Info(ctx, "replay completed successfully")
	return stats, nil
}

func loadOrGenerate(ctx context.Context, config *Config) (Script, error) {
	if config.Script == "" {
		return GenerateScript(ctx, config.Generate), nil
	}
	s, err := LoadScript(config.Script)
	if err != nil {
		return Script{}, fmt.Errorf("load script: %w", err)
	}
	return s, nil
}

// LoadScript reads a JSON script file.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Script{}, err
	}
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return s, nil
}

// replaySessions fans the sessions out over a worker pool.
func replaySessions(ctx context.Context, config *Config, client *HTTPClient, script Script, stats *Stats) {
	var (
		verified, failed, commits, duplicates, rows int64
		wg                                          sync.WaitGroup
	)

	jobs := make(chan int, config.Workers*2)
	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs {
				res, err := replayOne(ctx, config, client, script, n)
				atomic.AddInt64(&commits, int64(res.commits))
				atomic.AddInt64(&duplicates, int64(res.duplicates))
				atomic.AddInt64(&rows, int64(res.rows))
				if err != nil {
					atomic.AddInt64(&failed, 1)
					logger.Get().Error(ctx, "session replay failed", logger.Int("n", n), logger.Error(err))
					continue
				}
				atomic.AddInt64(&verified, 1)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for n := 0; n < config.Sessions; n++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- n:
			}
		}
	}()
	wg.Wait()

	stats.SessionsVerified = int(verified)
	stats.SessionsFailed = int(failed)
	stats.SessionsStarted = int(verified + failed)
	stats.CommitsSent = int(commits)
	stats.DuplicateCommits = int(duplicates)
	stats.RowsExported = int(rows)
}

type sessionResult struct {
	commits, duplicates, rows int
}

// replayOne tags the whole script on a fresh session, downloads the export
// and verifies it. The first commit is retried with its key to check that the
// server treats it as a duplicate.
func replayOne(ctx context.Context, config *Config, client *HTTPClient, script Script, n int) (sessionResult, error) {
	var res sessionResult
	log := logger.Get()

	sess, err := client.createSession(ctx)
	if err != nil {
		return res, fmt.Errorf("create session: %w", err)
	}
	log = log.With(logger.Session(sess.ID))
	if !config.Keep {
		defer func() {
			if err := client.deleteSession(context.Background(), sess.ID); err != nil {
				log.Warn(ctx, "failed to delete session", logger.Error(err))
			}
		}()
	}

	if err := client.patchForm(ctx, sess.ID, script.Form); err != nil {
		return res, fmt.Errorf("set match form: %w", err)
	}

	for i, p := range script.Possessions {
		if p.Form != nil {
			if err := client.patchForm(ctx, sess.ID, *p.Form); err != nil {
				return res, fmt.Errorf("possession %d form: %w", i, err)
			}
		}
		for _, pt := range p.Points {
			if err := client.addPoint(ctx, sess.ID, pt); err != nil {
				return res, fmt.Errorf("possession %d point: %w", i, err)
			}
		}
		for _, l := range p.Lines {
			if err := client.addLine(ctx, sess.ID, l); err != nil {
				return res, fmt.Errorf("possession %d line: %w", i, err)
			}
		}

		first, second, err := client.commit(ctx, sess.ID, i == 0)
		if err != nil {
			return res, fmt.Errorf("possession %d commit: %w", i, err)
		}
		res.commits++
		if i == 0 {
			if !second.Duplicate {
				return res, fmt.Errorf("%w: retried commit was applied twice", ErrMismatch)
			}
			res.duplicates++
		}
		if config.Verbose {
			log.Debug(ctx, "possession committed",
				logger.Int("possession", first.Session.Possession-1),
				logger.Int("dropped", first.Dropped))
		}
	}

	data, name, err := client.export(ctx, sess.ID)
	if err != nil {
		return res, fmt.Errorf("export: %w", err)
	}
	if err := VerifyExport(data, script, sess.Possession); err != nil {
		return res, err
	}
	res.rows = script.ExpectedRows()

	if config.OutputDir != "" && len(data) > 0 {
		path, err := saveExport(config.OutputDir, n, name, data)
		if err != nil {
			log.Warn(ctx, "failed to save export", logger.Error(err))
		} else {
			log.Info(ctx, "export saved", logger.String("path", path))
		}
	}
	return res, nil
}

// saveExport writes one session's CSV as <dir>/<n>_<name>.
func saveExport(dir string, n int, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, directoryPermission); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	if name == "" {
		name = "export.csv"
	}
	path := filepath.Join(dir, fmt.Sprintf("%d_%s", n, filepath.Base(name)))
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var commitsPerSecond float64
	if stats.Duration > 0 {
		commitsPerSecond = float64(stats.CommitsSent) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("sessionsStarted", stats.SessionsStarted),
		logger.Int("sessionsVerified", stats.SessionsVerified),
		logger.Int("sessionsFailed", stats.SessionsFailed),
		logger.Int("commitsSent", stats.CommitsSent),
		logger.Int("duplicateCommits", stats.DuplicateCommits),
		logger.Int("rowsExported", stats.RowsExported),
		logger.Int("malformedLinesPerSession", stats.MalformedExpected),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("commitsPerSecond", commitsPerSecond))
}
