// Package replay drives a running pitchtag server from a script of
// possessions and checks the CSV it exports.
package replay

import (
	"time"

	"github.com/okian/pitchtag/internal/domain/model"
)

// Config holds configuration for a replay run.
type Config struct {
	BaseURL   string        // Base URL of the service
	Script    string        // Script file; empty means generate one
	Generate  int           // Possessions to generate when Script is empty
	Sessions  int           // Parallel sessions replaying the same script
	Workers   int           // Concurrent workers
	Timeout   time.Duration // HTTP request timeout
	OutputDir string        // Directory for exported CSV files
	Keep      bool          // Leave sessions on the server after the run
	Verbose   bool          // Enable verbose logging
}

// Script is a match worth of possessions to tag.
type Script struct {
	Form        model.FormPatch `json:"form"`
	Possessions []Possession    `json:"possessions"`
}

// Possession is one commit: optional form changes plus the shapes drawn.
type Possession struct {
	Form   *model.FormPatch   `json:"form,omitempty"`
	Points []model.DrawnPoint `json:"points"`
	Lines  []model.DrawnLine  `json:"lines"`
}

// ExpectedRows is the number of rows the script should produce.
func (s Script) ExpectedRows() int {
	n := 0
	for _, p := range s.Possessions {
		n += p.rows()
	}
	return n
}

func (p Possession) rows() int {
	n := len(p.Points)
	for _, l := range p.Lines {
		if l.Valid() {
			n++
		}
	}
	return n
}

// Stats holds run statistics.
type Stats struct {
	SessionsStarted   int
	SessionsVerified  int
	SessionsFailed    int
	CommitsSent       int
	DuplicateCommits  int
	RowsExported      int
	MalformedExpected int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}

// sessionView is the subset of the session JSON the runner reads.
type sessionView struct {
	ID         string `json:"id"`
	Possession int    `json:"possession"`
	RowCount   int    `json:"rowCount"`
}

// commitView is the subset of the commit JSON the runner reads.
type commitView struct {
	Duplicate bool        `json:"duplicate"`
	Dropped   int         `json:"dropped"`
	Session   sessionView `json:"session"`
}
