package pipeline

import (
	"sort"
	"sync"
)

// CellWrite is one pending cell update for the row store writer, addressed
// by sheet column.
type CellWrite struct {
	RowIndex int
	Column   string
	Value    string
	Provider string
}

// Stats accumulates outcomes from concurrently finishing items. Counter
// updates are mutex-guarded; read the totals only after the run completes.
type Stats struct {
	mu sync.Mutex

	processed int
	matched   int
	noMatch   int
	failed    int
	skipped   int

	errorKinds map[string]int
	writes     []CellWrite
	columnFor  map[string]string
}

// NewStats creates an empty accumulator. columnFor maps internal field names
// to sheet columns, reversing the operator's field mapping.
func NewStats(columnFor map[string]string) *Stats {
	return &Stats{
		errorKinds: make(map[string]int),
		columnFor:  columnFor,
	}
}

// Record consumes one outcome: it bumps the counters and, for matched
// outcomes, appends the merged fields to the pending write list. Safe for
// concurrent delivery.
func (s *Stats) Record(outcome Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.processed++
	switch outcome.Status {
	case StatusMatched:
		s.matched++
		s.appendWritesLocked(outcome)
	case StatusNoMatch:
		s.noMatch++
	case StatusFailed:
		s.failed++
		kind := outcome.ErrKind
		if kind == "" {
			kind = ErrKindProvider
		}
		s.errorKinds[kind]++
	}
}

// RecordSkipped counts a row that never entered the pipeline (empty title,
// or nothing left to fill).
func (s *Stats) RecordSkipped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped++
}

func (s *Stats) appendWritesLocked(outcome Outcome) {
	fields := make([]string, 0, len(outcome.Record.Values))
	for field := range outcome.Record.Values {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		column, ok := s.columnFor[field]
		if !ok {
			continue
		}
		s.writes = append(s.writes, CellWrite{
			RowIndex: outcome.Item.RowIndex,
			Column:   column,
			Value:    outcome.Record.Values[field],
			Provider: outcome.Record.Provenance[field],
		})
	}
}

// Writes returns the accumulated pending writes in the order they were
// recorded.
func (s *Stats) Writes() []CellWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CellWrite, len(s.writes))
	copy(out, s.writes)
	return out
}

// Summary is a read-only snapshot of the run counters.
type Summary struct {
	Processed  int
	Matched    int
	NoMatch    int
	Failed     int
	Skipped    int
	ErrorKinds map[string]int
}

// Summary returns the current counters.
func (s *Stats) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	kinds := make(map[string]int, len(s.errorKinds))
	for k, v := range s.errorKinds {
		kinds[k] = v
	}
	return Summary{
		Processed:  s.processed,
		Matched:    s.matched,
		NoMatch:    s.noMatch,
		Failed:     s.failed,
		Skipped:    s.skipped,
		ErrorKinds: kinds,
	}
}
