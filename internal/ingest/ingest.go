// Package ingest loads cleaned hall-call CSV files. The expected layout is
// the cleaning pipeline's output: a header row with Time and Floor columns,
// plus an optional Direction column.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/series"
)

// MissingColumnError reports the first required column absent from the
// header row.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("ingest: required column %q missing from header", e.Column)
}

// timeLayouts are tried in order when parsing the Time column.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// LoadFile reads hall calls from a CSV file on disk.
func LoadFile(path string) ([]series.HallCall, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	defer f.Close()
	calls, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("ingest: %s: %w", path, err)
	}
	return calls, nil
}

// Load parses hall calls from CSV data. Time and Floor are required;
// Direction is optional and defaults to Unknown. Rows are returned in file
// order, not sorted.
func Load(r io.Reader) ([]series.HallCall, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &MissingColumnError{Column: "Time"}
	}
	if err != nil {
		return nil, err
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Time", "Floor"} {
		if _, ok := cols[required]; !ok {
			return nil, &MissingColumnError{Column: required}
		}
	}
	timeIdx, floorIdx := cols["Time"], cols["Floor"]
	dirIdx, hasDir := cols["Direction"]

	var calls []series.HallCall
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		ts, err := parseTime(rec[timeIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		floor, err := strconv.Atoi(strings.TrimSpace(rec[floorIdx]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad floor %q", line, rec[floorIdx])
		}

		call := series.HallCall{Time: ts, Floor: floor, Direction: series.DirUnknown}
		if hasDir && dirIdx < len(rec) {
			call.Direction = parseDirection(rec[dirIdx])
		}
		calls = append(calls, call)
	}
	return calls, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad timestamp %q", s)
}

func parseDirection(s string) series.Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return series.DirUp
	case "down":
		return series.DirDown
	default:
		return series.DirUnknown
	}
}
