package readers

import (
	"errors"
	"fmt"

	"github.com/Zuo-Peng/miscreaders/internal/normalize"
	"github.com/Zuo-Peng/miscreaders/internal/parse"
	"github.com/Zuo-Peng/miscreaders/internal/scan"
	"github.com/Zuo-Peng/miscreaders/pkg/usage"
)

// View names one of the tables a reader exposes.
type View string

const (
	ViewUsage       View = "usage"
	ViewCount       View = "count"
	ViewUnlocks     View = "unlocks"
	ViewRepetitions View = "repetitions"
)

// ErrNoView is returned when a reader does not carry the requested view.
var ErrNoView = errors.New("view not available")

// Reader is the part every reader shares.
type Reader interface {
	Path() string
	// Views lists the available views, the default one first.
	Views() []View
	View(v View) (*usage.Table, error)
}

// Open reads path with the reader of its format, detected from the path when
// format is empty or "auto".
func Open(path, format string, opts ...Option) (Reader, error) {
	f, err := scan.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if f == scan.FormatUnknown {
		if f, err = scan.Detect(path); err != nil {
			return nil, &usage.SourceError{Path: path, Err: err}
		}
	}

	switch f {
	case scan.FormatStayfreeXLS:
		return asReader(NewStayfreeXLSReader(path, opts...))
	case scan.FormatStayfreeBackup:
		return asReader(NewStayfreeBackupReader(path, opts...))
	case scan.FormatLoophabit:
		return asReader(NewLoophabitReader(path, opts...))
	case scan.FormatMoonwatch:
		return asReader(NewMoonwatchReader(path, opts...))
	case scan.FormatMoonwatchDir:
		return asReader(NewMoonwatchDirReader(path, opts...))
	}
	return nil, &usage.SourceError{
		Path: path,
		Err:  &usage.FormatError{Reason: "cannot tell the format from the file name; pass a format"},
	}
}

// asReader keeps a nil *T from becoming a non-nil Reader.
func asReader[T Reader](r T, err error) (Reader, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}

func durationTable(records []usage.RawRecord) (*usage.Table, error) {
	return normalize.Normalize(records, normalize.Options{
		Measure:      usage.MeasureDuration,
		EntityColumn: "app",
	})
}

func countTable(records []usage.RawRecord, entityColumn string) (*usage.Table, error) {
	return normalize.Normalize(records, normalize.Options{
		Measure:      usage.MeasureCount,
		EntityColumn: entityColumn,
	})
}

func fail(path string, err error) error {
	return &usage.SourceError{Path: path, Err: err}
}

func noView(v View) error {
	return fmt.Errorf("%w: %q", ErrNoView, v)
}

// StayfreeXLSReader reads the StayFree spreadsheet export
// (Settings > Export data).
type StayfreeXLSReader struct {
	path       string
	usageTime  *usage.Table
	usageCount *usage.Table
	unlocks    *usage.Table
}

func NewStayfreeXLSReader(path string, opts ...Option) (*StayfreeXLSReader, error) {
	po, err := resolve(opts)
	if err != nil {
		return nil, fail(path, err)
	}
	exp, err := parse.StayfreeXLS{Options: po}.Parse(path)
	if err != nil {
		return nil, fail(path, err)
	}

	r := &StayfreeXLSReader{path: path}
	if r.usageTime, err = durationTable(exp.UsageTime); err != nil {
		return nil, fail(path, err)
	}
	if r.usageCount, err = countTable(exp.UsageCount, "app"); err != nil {
		return nil, fail(path, err)
	}
	if r.unlocks, err = countTable(exp.Unlocks, "metric"); err != nil {
		return nil, fail(path, err)
	}
	return r, nil
}

func (r *StayfreeXLSReader) Path() string { return r.path }

// UsageTime returns the per-app usage time, columns date, app, duration, device.
func (r *StayfreeXLSReader) UsageTime() *usage.Table { return r.usageTime }

// UsageCount returns how many times each app was opened per day.
func (r *StayfreeXLSReader) UsageCount() *usage.Table { return r.usageCount }

// DeviceUnlocks returns the daily unlock count per device.
func (r *StayfreeXLSReader) DeviceUnlocks() *usage.Table { return r.unlocks }

func (r *StayfreeXLSReader) Views() []View {
	return []View{ViewUsage, ViewCount, ViewUnlocks}
}

func (r *StayfreeXLSReader) View(v View) (*usage.Table, error) {
	switch v {
	case ViewUsage:
		return r.usageTime, nil
	case ViewCount:
		return r.usageCount, nil
	case ViewUnlocks:
		return r.unlocks, nil
	}
	return nil, noView(v)
}

// StayfreeBackupReader reads the StayFree app-data backup archive. Apps are
// named by Android package, e.g. com.google.android.youtube.
type StayfreeBackupReader struct {
	path      string
	usageTime *usage.Table
}

func NewStayfreeBackupReader(path string, opts ...Option) (*StayfreeBackupReader, error) {
	po, err := resolve(opts)
	if err != nil {
		return nil, fail(path, err)
	}
	recs, err := parse.StayfreeBackup{Options: po}.Parse(path)
	if err != nil {
		return nil, fail(path, err)
	}
	tbl, err := durationTable(recs)
	if err != nil {
		return nil, fail(path, err)
	}
	return &StayfreeBackupReader{path: path, usageTime: tbl}, nil
}

func (r *StayfreeBackupReader) Path() string            { return r.path }
func (r *StayfreeBackupReader) UsageTime() *usage.Table { return r.usageTime }
func (r *StayfreeBackupReader) Views() []View           { return []View{ViewUsage} }

func (r *StayfreeBackupReader) View(v View) (*usage.Table, error) {
	if v == ViewUsage {
		return r.usageTime, nil
	}
	return nil, noView(v)
}

type (
	Habit     = parse.Habit
	HabitType = parse.HabitType
)

const (
	HabitYesNo     = parse.HabitYesNo
	HabitNumerical = parse.HabitNumerical
)

// LoophabitReader reads the SQLite database exported by Loop Habit Tracker.
type LoophabitReader struct {
	path        string
	repetitions *usage.Table
	habits      []Habit
}

func NewLoophabitReader(path string, opts ...Option) (*LoophabitReader, error) {
	po, err := resolve(opts)
	if err != nil {
		return nil, fail(path, err)
	}
	p := parse.Loophabit{Options: po}
	recs, err := p.Parse(path)
	if err != nil {
		return nil, fail(path, err)
	}
	habits, err := p.Habits(path)
	if err != nil {
		return nil, fail(path, err)
	}

	// a day without an entry was not tracked, not a zero
	tbl, err := normalize.Normalize(recs, normalize.Options{
		Measure:      usage.MeasureValue,
		EntityColumn: "habit",
		Gaps:         normalize.GapOmit,
	})
	if err != nil {
		return nil, fail(path, err)
	}
	return &LoophabitReader{path: path, repetitions: tbl, habits: habits}, nil
}

func (r *LoophabitReader) Path() string { return r.path }

// Repetitions returns one row per tracked day and habit, columns date, habit,
// value, device. Yes/no habits have value 1 (done) or 0 (not done).
func (r *LoophabitReader) Repetitions() *usage.Table { return r.repetitions }

// Habits returns the habit definitions ordered by id.
func (r *LoophabitReader) Habits() []Habit {
	out := make([]Habit, len(r.habits))
	copy(out, r.habits)
	return out
}

func (r *LoophabitReader) Views() []View { return []View{ViewRepetitions} }

func (r *LoophabitReader) View(v View) (*usage.Table, error) {
	if v == ViewRepetitions {
		return r.repetitions, nil
	}
	return nil, noView(v)
}

// MoonwatchReader reads Moonwatch.rs active window logs.
type MoonwatchReader struct {
	path      string
	files     []string
	usageTime *usage.Table
}

// NewMoonwatchReader reads one .jsonl or .jsonl.gz log.
func NewMoonwatchReader(path string, opts ...Option) (*MoonwatchReader, error) {
	return newMoonwatchReader(path, []string{path}, opts)
}

// NewMoonwatchDirReader reads every log of a directory such as
// ~/.moonwatch-rs/log into one table.
func NewMoonwatchDirReader(dir string, opts ...Option) (*MoonwatchReader, error) {
	files, err := scan.ScanLogDir(dir)
	if err != nil {
		return nil, fail(dir, err)
	}
	if len(files) == 0 {
		return nil, fail(dir, &usage.FormatError{Reason: "no *.jsonl or *.jsonl.gz logs in directory"})
	}
	return newMoonwatchReader(dir, scan.Paths(files), opts)
}

func newMoonwatchReader(path string, files []string, opts []Option) (*MoonwatchReader, error) {
	po, err := resolve(opts)
	if err != nil {
		return nil, fail(path, err)
	}
	recs, err := parse.Moonwatch{Options: po}.Parse(files...)
	if err != nil {
		return nil, fail(path, err)
	}
	tbl, err := durationTable(recs)
	if err != nil {
		return nil, fail(path, err)
	}
	return &MoonwatchReader{path: path, files: files, usageTime: tbl}, nil
}

func (r *MoonwatchReader) Path() string { return r.path }

// Files lists the log files that were read.
func (r *MoonwatchReader) Files() []string {
	return append([]string(nil), r.files...)
}

// UsageTime returns the per-app foreground time, one series per host.
func (r *MoonwatchReader) UsageTime() *usage.Table { return r.usageTime }

func (r *MoonwatchReader) Views() []View { return []View{ViewUsage} }

func (r *MoonwatchReader) View(v View) (*usage.Table, error) {
	if v == ViewUsage {
		return r.usageTime, nil
	}
	return nil, noView(v)
}
