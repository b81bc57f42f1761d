package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/pitchtag/internal/replay"
)

// Default configuration constants.
const (
	defaultGenerate  = 20
	defaultTimeout   = 10 * time.Second
	defaultRunBudget = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		script   = flag.String("script", "", "JSON script of possessions (default: generate one)")
		generate = flag.Int("generate", defaultGenerate, "Possessions to generate when no script is given")
		sessions = flag.Int("sessions", 1, "Parallel sessions replaying the script")
		workers  = flag.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outDir   = flag.String("out", "", "Directory for exported CSV files")
		keep     = flag.Bool("keep", false, "Leave sessions on the server after the run")
		logFile  = flag.String("log", "", "Log file (default: replay_log_TIMESTAMP.log)")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		replay.ShowHelp()
		return
	}

	if err := replay.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunBudget)
	defer cancel()

	config := &replay.Config{
		BaseURL:   *baseURL,
		Script:    *script,
		Generate:  max(*generate, 0),
		Sessions:  max(*sessions, 1),
		Workers:   max(*workers, 1),
		Timeout:   *timeout,
		OutputDir: *outDir,
		Keep:      *keep,
		Verbose:   *verbose,
	}

	if _, err := replay.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Replay failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
