package replay

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/pitchtag/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log records to stdout and to logFile. If logFile is
// empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		logFile = "replay_log_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.InitWithFormat(io.MultiWriter(os.Stdout, file), "text"); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the replay tool.
func ShowHelp() {
	os.Stdout.WriteString(`pitchtag replay
===============

Replays a script of tagged possessions against a running pitchtag server,
downloads each session's CSV export and verifies it.

Usage:
  go run ./cmd/replay [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -script string
        JSON script of possessions (default: generate one)
  -generate int
        Possessions to generate when no script is given (default 20)
  -sessions int
        Parallel sessions replaying the script (default 1)
  -workers int
        Number of concurrent workers (default CPU cores)
  -timeout duration
        HTTP request timeout (default 10s)
  -out string
        Directory for exported CSV files (default: do not save)
  -keep
        Leave sessions on the server after the run
  -log string
        Log file (default: replay_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Script format:
  {
    "form": {"homeTeam": "Ajax", "awayTeam": "PSV"},
    "possessions": [
      {
        "form": {"team": "Away", "attackingDirection": "Right to Left"},
        "points": [{"x": 80.1, "y": 50.4, "action": "shot"}],
        "lines": [{"xs": [40, 60], "ys": [50, 55], "action": "pass"}]
      }
    ]
  }

Examples:
  # Replay a recorded match and keep the CSV
  go run ./cmd/replay -script match.json -out exports

  # Load test with 50 generated sessions
  go run ./cmd/replay -generate 40 -sessions 50 -workers 16
`)
}
