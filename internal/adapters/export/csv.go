// Package export serializes the output table.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/pitchtag/internal/domain/model"
)

// ContentType is the media type of the CSV export.
const ContentType = "text/csv; charset=utf-8"

// WriteCSV writes rows as CSV: a header whose first cell is empty, then one
// record per row led by its zero-based index. Nothing is written for an empty
// table.
func WriteCSV(w io.Writer, rows []model.OutputRow) error {
	if len(rows) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	header := append([]string{""}, model.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("%w: header: %w", ErrWrite, err)
	}
	for i, r := range rows {
		if err := cw.Write(record(i, r)); err != nil {
			return fmt.Errorf("%w: row %d: %w", ErrWrite, i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: flush: %w", ErrWrite, err)
	}
	return nil
}

// CSV returns the export as bytes; nil for an empty table.
func CSV(rows []model.OutputRow) ([]byte, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func record(i int, r model.OutputRow) []string {
	return []string{
		strconv.Itoa(i),
		r.Action,
		formatCoord(r.XStart),
		formatCoord(r.XEnd),
		formatCoord(r.YStart),
		formatCoord(r.YEnd),
		r.Team,
		strconv.Itoa(r.PossessionNo),
		strconv.Itoa(r.IndexInPossession),
		r.HighlightStart,
		r.ShotOutcome,
		r.ShotBodyPart,
		r.ShotPlacement,
		r.HomeTeam,
		r.AwayTeam,
		r.GameSituation,
		r.URL,
	}
}

// formatCoord prints the shortest representation, keeping one decimal on whole
// numbers so the column always reads as floating point.
func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// FileName is the download name for a match export.
func FileName(homeTeam, awayTeam string) string {
	return fmt.Sprintf("tagger_data_%s_%s.csv", sanitize(homeTeam), sanitize(awayTeam))
}

// sanitize keeps team names safe inside a Content-Disposition filename.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '"' || r == '\\' || r == '/' || r < 0x20:
			return '_'
		default:
			return r
		}
	}, strings.TrimSpace(s))
}
