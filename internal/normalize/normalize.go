// Package normalize turns adapter records into a canonical usage table.
package normalize

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Zuo-Peng/miscreaders/pkg/usage"
)

// GapPolicy decides what happens to dates inside a series' range that have no record.
type GapPolicy int

const (
	// GapZeroFill emits a zero row for every missing date.
	GapZeroFill GapPolicy = iota
	// GapOmit treats every missing date as not tracked.
	GapOmit
)

type Options struct {
	Measure      usage.Measure
	EntityColumn string
	Gaps         GapPolicy
}

// cell is the state of one (series, date) slot.
type cell int

const (
	cellMissing cell = iota
	cellValue
	cellZero
	cellNotTracked
)

type series struct {
	entity, device string
	first, last    usage.Date
	observed       bool
	cells          map[usage.Date]cell
	rows           map[usage.Date]usage.Record
}

// Normalize validates records, fills date gaps per (entity, device) series and
// returns the rows sorted by date, entity and device.
func Normalize(records []usage.RawRecord, opts Options) (*usage.Table, error) {
	seen := make(map[usage.Key]struct{}, len(records))
	index := make(map[[2]string]*series)

	for _, raw := range records {
		rec, err := canonical(raw, opts.Measure)
		if err != nil {
			return nil, err
		}

		key := raw.Key()
		if _, dup := seen[key]; dup {
			return nil, &usage.DuplicateRecordError{Key: key}
		}
		seen[key] = struct{}{}

		id := [2]string{raw.Entity, raw.Device}
		s, ok := index[id]
		if !ok {
			s = &series{
				entity: raw.Entity,
				device: raw.Device,
				cells:  make(map[usage.Date]cell),
				rows:   make(map[usage.Date]usage.Record),
			}
			index[id] = s
		}

		switch {
		case raw.State == usage.NotTracked:
			s.cells[raw.Date] = cellNotTracked
			continue
		case rec.Duration == 0 && rec.Value == 0:
			s.cells[raw.Date] = cellZero
		default:
			s.cells[raw.Date] = cellValue
		}
		s.rows[raw.Date] = rec
		s.extend(raw.Date)
	}

	var rows []usage.Record
	for _, s := range index {
		rows = append(rows, s.emit(opts.Gaps)...)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if c := a.Date.Compare(b.Date); c != 0 {
			return c < 0
		}
		if a.Entity != b.Entity {
			return a.Entity < b.Entity
		}
		return a.Device < b.Device
	})
	return usage.NewTable(opts.Measure, opts.EntityColumn, rows), nil
}

func canonical(raw usage.RawRecord, measure usage.Measure) (usage.Record, error) {
	rec := usage.Record{Date: raw.Date, Entity: raw.Entity, Device: raw.Device}
	if strings.TrimSpace(raw.Entity) == "" {
		return rec, &usage.ParseError{Column: "entity", Err: fmt.Errorf("empty entity on %s", raw.Date)}
	}
	if raw.Date.IsZero() {
		return rec, &usage.ParseError{Column: "date", Value: raw.Entity, Err: fmt.Errorf("missing date")}
	}
	if !measure.Accepts(raw.Unit) {
		return rec, &usage.FormatError{
			Reason: fmt.Sprintf("%s record for %q cannot feed a %s table", raw.Unit, raw.Entity, measure.Column()),
		}
	}
	if raw.State == usage.NotTracked {
		return rec, nil
	}

	if measure == usage.MeasureDuration {
		d, err := usage.ToMicros(raw.Amount, raw.Unit)
		if err != nil {
			return rec, fmt.Errorf("%s %s: %w", raw.Key(), raw.Unit, err)
		}
		rec.Duration = d
		return rec, nil
	}
	if math.IsNaN(raw.Amount) || math.IsInf(raw.Amount, 0) {
		return rec, &usage.ParseError{Column: measure.Column(), Value: raw.Entity, Err: fmt.Errorf("invalid amount %v", raw.Amount)}
	}
	if raw.Amount < 0 {
		return rec, &usage.NegativeDurationError{Amount: raw.Amount, Unit: raw.Unit}
	}
	rec.Value = raw.Amount
	return rec, nil
}

func (s *series) extend(d usage.Date) {
	if !s.observed {
		s.first, s.last, s.observed = d, d, true
		return
	}
	if d.Before(s.first) {
		s.first = d
	}
	if d.After(s.last) {
		s.last = d
	}
}

func (s *series) emit(gaps GapPolicy) []usage.Record {
	if !s.observed {
		return nil
	}
	var out []usage.Record
	for d := s.first; !d.After(s.last); d = d.AddDays(1) {
		switch s.cells[d] {
		case cellValue, cellZero:
			out = append(out, s.rows[d])
		case cellMissing:
			if gaps == GapZeroFill {
				out = append(out, usage.Record{Date: d, Entity: s.entity, Device: s.device})
			}
		}
	}
	return out
}
