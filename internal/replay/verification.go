package replay

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/okian/pitchtag/internal/domain/model"
)

// ErrMismatch reports an export that does not match the script.
var ErrMismatch = errors.New("export mismatch")

// VerifyExport checks a CSV export against the script it was produced from:
// header, row count, running index, and per-possession numbering starting at
// firstPossession.
func VerifyExport(data []byte, s Script, firstPossession int) error {
	want := s.ExpectedRows()
	if want == 0 {
		if len(data) != 0 {
			return fmt.Errorf("%w: expected an empty export, got %d bytes", ErrMismatch, len(data))
		}
		return nil
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return fmt.Errorf("%w: parse csv: %w", ErrMismatch, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: missing header", ErrMismatch)
	}

	header := append([]string{""}, model.Columns...)
	if !slices.Equal(records[0], header) {
		return fmt.Errorf("%w: header %v", ErrMismatch, records[0])
	}
	rows := records[1:]
	if len(rows) != want {
		return fmt.Errorf("%w: %d rows, want %d", ErrMismatch, len(rows), want)
	}

	const (
		colIndex      = 0
		colPossession = 7
		colInPoss     = 8
	)
	i := 0
	for n, p := range s.Possessions {
		for k := 0; k < p.rows(); k++ {
			r := rows[i]
			if err := expectInt(r[colIndex], i, "index", i); err != nil {
				return err
			}
			if err := expectInt(r[colPossession], firstPossession+n, "possessionNo", i); err != nil {
				return err
			}
			if err := expectInt(r[colInPoss], k, "indexInPossession", i); err != nil {
				return err
			}
			i++
		}
	}
	return nil
}

func expectInt(cell string, want int, column string, row int) error {
	got, err := strconv.Atoi(cell)
	if err != nil || got != want {
		return fmt.Errorf("%w: row %d %s = %q, want %d", ErrMismatch, row, column, cell, want)
	}
	return nil
}
