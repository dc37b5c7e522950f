package usage

import (
	"sort"
	"strings"
)

// Table is a normalized usage table: rows ordered by (date, entity, device)
// with that triple unique. A Table is never modified after construction.
type Table struct {
	measure      Measure
	entityColumn string
	rows         []Record
}

// NewTable builds a table from rows already sorted and deduplicated by the
// normalizer. The slice is copied.
func NewTable(measure Measure, entityColumn string, rows []Record) *Table {
	if entityColumn == "" {
		entityColumn = "entity"
	}
	return &Table{
		measure:      measure,
		entityColumn: entityColumn,
		rows:         append([]Record(nil), rows...),
	}
}

func (t *Table) Measure() Measure     { return t.measure }
func (t *Table) EntityColumn() string { return t.entityColumn }
func (t *Table) Len() int             { return len(t.rows) }
func (t *Table) Row(i int) Record     { return t.rows[i] }

// Rows returns a copy of all rows.
func (t *Table) Rows() []Record {
	return append([]Record(nil), t.rows...)
}

// Columns returns the output column names, e.g. [date app duration device].
func (t *Table) Columns() []string {
	return []string{"date", t.entityColumn, t.measure.Column(), "device"}
}

// Entities returns the distinct entity names in ascending order.
func (t *Table) Entities() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.rows {
		if _, ok := seen[r.Entity]; ok {
			continue
		}
		seen[r.Entity] = struct{}{}
		out = append(out, r.Entity)
	}
	sort.Strings(out)
	return out
}

// DateRange returns the first and last date in the table.
// ok is false for an empty table.
func (t *Table) DateRange() (first, last Date, ok bool) {
	if len(t.rows) == 0 {
		return Date{}, Date{}, false
	}
	return t.rows[0].Date, t.rows[len(t.rows)-1].Date, true
}

// EntityTotal is one row of the per-entity totals view.
type EntityTotal struct {
	Entity   string
	Days     int
	Duration Duration
	Value    float64
}

// TotalByEntity sums the measure per entity across all dates and devices.
func (t *Table) TotalByEntity() []EntityTotal {
	idx := make(map[string]int)
	var out []EntityTotal
	for _, r := range t.rows {
		i, ok := idx[r.Entity]
		if !ok {
			i = len(out)
			idx[r.Entity] = i
			out = append(out, EntityTotal{Entity: r.Entity})
		}
		out[i].Days++
		out[i].Duration += r.Duration
		out[i].Value += r.Value
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entity < out[j].Entity })
	return out
}

// Total sums the measure over the whole table.
func (t *Table) Total() (Duration, float64) {
	var d Duration
	var v float64
	for _, r := range t.rows {
		d += r.Duration
		v += r.Value
	}
	return d, v
}

// EntityRows returns the rows of one entity in table order.
func (t *Table) EntityRows(entity string) []Record {
	var out []Record
	for _, r := range t.rows {
		if r.Entity == entity {
			out = append(out, r)
		}
	}
	return out
}

// Search returns the entities containing substr, case-insensitively.
func (t *Table) Search(substr string) []string {
	substr = strings.ToLower(substr)
	var out []string
	for _, e := range t.Entities() {
		if strings.Contains(strings.ToLower(e), substr) {
			out = append(out, e)
		}
	}
	return out
}

// RawRecords converts the rows back into raw records, so that normalizing
// them again reproduces the table. Dates missing inside a series' range come
// back as NotTracked records after the rows.
func (t *Table) RawRecords() []RawRecord {
	unit := Count
	if t.measure == MeasureDuration {
		unit = Microseconds
	}

	type span struct {
		first, last Date
		dates       map[Date]struct{}
	}
	spans := make(map[[2]string]*span)
	var order [][2]string

	out := make([]RawRecord, 0, len(t.rows))
	for _, r := range t.rows {
		raw := RawRecord{Date: r.Date, Entity: r.Entity, Device: r.Device, Unit: unit}
		if t.measure == MeasureDuration {
			raw.Amount = float64(r.Duration)
		} else {
			raw.Amount = r.Value
		}
		out = append(out, raw)

		id := [2]string{r.Entity, r.Device}
		s, ok := spans[id]
		if !ok {
			s = &span{first: r.Date, last: r.Date, dates: make(map[Date]struct{})}
			spans[id] = s
			order = append(order, id)
		}
		if r.Date.Before(s.first) {
			s.first = r.Date
		}
		if r.Date.After(s.last) {
			s.last = r.Date
		}
		s.dates[r.Date] = struct{}{}
	}

	for _, id := range order {
		s := spans[id]
		for d := s.first; d.Before(s.last); d = d.AddDays(1) {
			if _, ok := s.dates[d]; ok {
				continue
			}
			out = append(out, RawRecord{Date: d, Entity: id[0], Device: id[1], Unit: unit, State: NotTracked})
		}
	}
	return out
}
