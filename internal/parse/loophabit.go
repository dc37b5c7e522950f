package parse

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Zuo-Peng/miscreaders/internal/store"
	"github.com/Zuo-Peng/miscreaders/pkg/usage"
)

// HabitType is the Habits.type column.
type HabitType int

const (
	HabitYesNo     HabitType = 0
	HabitNumerical HabitType = 1
)

func (t HabitType) String() string {
	switch t {
	case HabitYesNo:
		return "yes/no"
	case HabitNumerical:
		return "numerical"
	}
	return fmt.Sprintf("HabitType(%d)", int(t))
}

// Entry values of yes/no habits, as stored in Repetitions.value.
const (
	EntrySkip      = 3  // not applicable on this day
	EntryYesManual = 2  // done
	EntryYesAuto   = 1  // not done and not expected, given the habit frequency
	EntryNo        = 0  // not done although expected
	EntryUnknown   = -1 // no data
)

// numerical habits store value*1000
const numericalScale = 1000

// Habit is one row of the Habits table.
type Habit struct {
	ID          int64
	Name        string
	Type        HabitType
	Archived    bool
	Unit        string
	Question    string
	Description string
	TargetValue float64
}

// Loophabit parses the SQLite database exported by Loop Habit Tracker.
type Loophabit struct {
	Options Options
}

func openLoophabit(path string) (*store.DB, error) {
	db, err := store.OpenReadOnly(path)
	if err != nil {
		return nil, &usage.FormatError{Reason: err.Error()}
	}
	for _, table := range []string{"Habits", "Repetitions"} {
		ok, err := db.HasTable(table)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("inspect %s: %w", path, err)
		}
		if !ok {
			db.Close()
			return nil, &usage.FormatError{Sheet: table, Reason: "missing table"}
		}
	}
	return db, nil
}

// Parse returns one record per repetition. Dates are taken in UTC, where the
// app stores the start of each day, regardless of Options.Location.
func (p Loophabit) Parse(path string) ([]usage.RawRecord, error) {
	opts := p.Options.withDefaults()

	db, err := openLoophabit(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Raw().Query(`
		SELECT H.name, H.type, R.timestamp, R.value
		FROM Repetitions R
		JOIN Habits H ON R.habit = H.id
		ORDER BY R.timestamp, H.name`)
	if err != nil {
		return nil, fmt.Errorf("query repetitions: %w", err)
	}
	defer rows.Close()

	var (
		out     []usage.RawRecord
		skipped int
	)
	for rows.Next() {
		var (
			name  string
			typ   sql.NullInt64
			ts    int64
			value int64
		)
		if err := rows.Scan(&name, &typ, &ts, &value); err != nil {
			return nil, &usage.ParseError{Sheet: "Repetitions", Row: len(out) + 1, Err: err}
		}
		rec := usage.RawRecord{
			Date:   dateFromEpochMillis(ts, time.UTC),
			Entity: name,
			Unit:   usage.Count,
		}
		rec.Amount, rec.State = repetitionValue(HabitType(typ.Int64), value)
		if rec.State == usage.NotTracked {
			skipped++
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	opts.Logger.Debug("parsed habits", "path", path, "repetitions", len(out), "not_tracked", skipped)
	return out, nil
}

func repetitionValue(t HabitType, v int64) (float64, usage.State) {
	if t == HabitNumerical {
		if v == EntryUnknown {
			return 0, usage.NotTracked
		}
		return float64(v) / numericalScale, usage.Observed
	}
	switch v {
	case EntryYesManual:
		return 1, usage.Observed
	case EntryNo:
		return 0, usage.Observed
	}
	return 0, usage.NotTracked
}

// Habits returns the habit definitions ordered by id.
func (p Loophabit) Habits(path string) ([]Habit, error) {
	db, err := openLoophabit(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Raw().Query(`
		SELECT id, name, COALESCE(type, 0), COALESCE(archived, 0),
		       COALESCE(unit, ''), COALESCE(question, ''), COALESCE(description, ''),
		       COALESCE(target_value, 0)
		FROM Habits
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query habits: %w", err)
	}
	defer rows.Close()

	var habits []Habit
	for rows.Next() {
		var (
			h        Habit
			typ      int64
			archived int64
		)
		if err := rows.Scan(&h.ID, &h.Name, &typ, &archived,
			&h.Unit, &h.Question, &h.Description, &h.TargetValue); err != nil {
			return nil, &usage.ParseError{Sheet: "Habits", Row: len(habits) + 1, Err: err}
		}
		h.Type = HabitType(typ)
		h.Archived = archived != 0
		habits = append(habits, h)
	}
	return habits, rows.Err()
}
