package usage

// State distinguishes a reported amount from a date the source says it did not track.
type State int

const (
	Observed State = iota
	NotTracked
)

func (s State) String() string {
	if s == NotTracked {
		return "not-tracked"
	}
	return "observed"
}

// RawRecord is one adapter-level observation before normalization.
type RawRecord struct {
	Date   Date
	Entity string
	Device string
	Amount float64
	Unit   Unit
	State  State
}

func (r RawRecord) Key() Key {
	return Key{Date: r.Date, Entity: r.Entity, Device: r.Device}
}

// Measure is what the value column of a table holds.
type Measure int

const (
	MeasureDuration Measure = iota
	MeasureCount
	MeasureValue
)

// Column returns the output column name for m.
func (m Measure) Column() string {
	switch m {
	case MeasureCount:
		return "count"
	case MeasureValue:
		return "value"
	default:
		return "duration"
	}
}

// Accepts reports whether records in unit u can feed a table of measure m.
func (m Measure) Accepts(u Unit) bool {
	if m == MeasureDuration {
		return u.IsDuration()
	}
	return u == Count
}

// Record is one canonical row. Duration is set for duration tables,
// Value for count and value tables.
type Record struct {
	Date     Date
	Entity   string
	Device   string
	Duration Duration
	Value    float64
}

func (r Record) Key() Key {
	return Key{Date: r.Date, Entity: r.Entity, Device: r.Device}
}
