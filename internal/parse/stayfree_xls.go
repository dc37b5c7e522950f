package parse

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/miscreaders/pkg/usage"
)

// headerSearchRows bounds how far down a sheet the header row may appear.
const headerSearchRows = 10

// UnlocksEntity is the entity name of device unlock records.
const UnlocksEntity = "device_unlocks"

// StayfreeExport holds the raw records of one StayFree workbook by measure.
type StayfreeExport struct {
	UsageTime  []usage.RawRecord
	UsageCount []usage.RawRecord
	Unlocks    []usage.RawRecord
}

// StayfreeXLS parses the StayFree spreadsheet export.
type StayfreeXLS struct {
	Options Options
}

func (p StayfreeXLS) Parse(path string) (*StayfreeExport, error) {
	wb, err := LoadWorkbook(path)
	if err != nil {
		return nil, err
	}
	return p.ParseWorkbook(wb)
}

// ParseWorkbook parses every sheet; the first bad sheet aborts the whole read.
func (p StayfreeXLS) ParseWorkbook(wb *Workbook) (*StayfreeExport, error) {
	opts := p.Options.withDefaults()
	if len(wb.Sheets) == 0 {
		return nil, &usage.FormatError{Reason: "workbook has no sheets"}
	}

	out := &StayfreeExport{}
	for _, sh := range wb.Sheets {
		sp := sheetParser{opts: opts, sheet: sh, out: out}
		if err := sp.parse(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type sheetParser struct {
	opts  Options
	sheet Sheet
	out   *StayfreeExport
}

func (sp *sheetParser) parse() error {
	for i, row := range sp.sheet.Rows {
		if i >= headerSearchRows {
			break
		}
		if cols, ok := entityHeader(row); ok {
			return sp.parseEntitySheet(i, cols)
		}
		if cols, ok := sp.pivotHeader(row); ok {
			return sp.parsePivotSheet(i, cols)
		}
	}
	return &usage.FormatError{Sheet: sp.sheet.Name, Reason: "no recognizable header row"}
}

// entityColumns locates the columns of a one-sheet-per-app layout.
type entityColumns struct {
	date, duration, count, device int
}

var (
	dateHeaders     = []string{"date", "day"}
	durationHeaders = []string{"duration", "usage time", "screen time", "usage", "time"}
	countHeaders    = []string{"count", "usage count", "launches", "opens", "sessions"}
	deviceHeaders   = []string{"device", "platform"}
	appHeaders      = []string{"app", "apps", "app name", "application", "website", "websites"}
)

func matchHeader(c string, names []string) bool {
	c = strings.ToLower(strings.TrimSpace(c))
	for _, n := range names {
		if c == n {
			return true
		}
	}
	return false
}

func entityHeader(row []string) (entityColumns, bool) {
	cols := entityColumns{date: -1, duration: -1, count: -1, device: -1}
	for i, c := range row {
		switch {
		case cols.date < 0 && matchHeader(c, dateHeaders):
			cols.date = i
		case cols.duration < 0 && matchHeader(c, durationHeaders):
			cols.duration = i
		case cols.count < 0 && matchHeader(c, countHeaders):
			cols.count = i
		case cols.device < 0 && matchHeader(c, deviceHeaders):
			cols.device = i
		}
	}
	return cols, cols.date >= 0 && (cols.duration >= 0 || cols.count >= 0)
}

// deviceSuffixRe splits "YouTube (Pixel 7)" into entity and device.
var deviceSuffixRe = regexp.MustCompile(`^(.*\S)\s*\(([^()]+)\)$`)

func splitSheetTitle(title string) (entity, device string) {
	title = strings.TrimSpace(title)
	if m := deviceSuffixRe.FindStringSubmatch(title); m != nil {
		return m[1], strings.TrimSpace(m[2])
	}
	return title, ""
}

func isTotalLabel(s string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), "total")
}

func (sp *sheetParser) parseEntitySheet(header int, cols entityColumns) error {
	entity, titleDevice := splitSheetTitle(sp.sheet.Name)
	if entity == "" {
		return &usage.FormatError{Sheet: sp.sheet.Name, Reason: "sheet title names no app"}
	}

	var nTime, nCount int
	for i := header + 1; i < len(sp.sheet.Rows); i++ {
		row := sp.sheet.Rows[i]
		if blankRow(row) || isTotalLabel(cell(row, cols.date)) {
			continue
		}

		raw := cell(row, cols.date)
		date, err := parseDateCell(raw, sp.opts.DateLayouts, sp.opts.Location)
		if err != nil {
			return sp.cellError(i, "date", raw, err)
		}

		device := titleDevice
		if d := cell(row, cols.device); d != "" {
			device = d
		}

		if cols.duration >= 0 {
			raw := cell(row, cols.duration)
			d, err := ParseDurationText(raw, sp.opts.PlainNumberUnit)
			if err != nil {
				return sp.cellError(i, "duration", raw, err)
			}
			sp.out.UsageTime = append(sp.out.UsageTime, usage.RawRecord{
				Date: date, Entity: entity, Device: device,
				Amount: float64(d), Unit: usage.Microseconds,
			})
			nTime++
		}
		if cols.count >= 0 {
			raw := cell(row, cols.count)
			n, err := parseCount(raw)
			if err != nil {
				return sp.cellError(i, "count", raw, err)
			}
			sp.out.UsageCount = append(sp.out.UsageCount, usage.RawRecord{
				Date: date, Entity: entity, Device: device,
				Amount: n, Unit: usage.Count,
			})
			nCount++
		}
	}

	sp.opts.Logger.Debug("parsed sheet", "sheet", sp.sheet.Name, "layout", "entity",
		"entity", entity, "device", titleDevice, "usage_time", nTime, "usage_count", nCount)
	return nil
}

// pivotColumns locates the columns of StayFree's own export: one row per app,
// one column per date.
type pivotColumns struct {
	label  int // app, or device for the unlock sheet
	device int
	dates  []dateColumn
}

type dateColumn struct {
	index int
	date  usage.Date
}

func (sp *sheetParser) pivotHeader(row []string) (pivotColumns, bool) {
	cols := pivotColumns{label: -1, device: -1}
	unlocks := sp.sheetMeasure() == measureUnlocks

	for i, c := range row {
		c = strings.TrimSpace(c)
		switch {
		case c == "":
			continue
		case cols.label < 0 && len(cols.dates) == 0 && matchHeader(c, appHeaders):
			cols.label = i
		case cols.device < 0 && len(cols.dates) == 0 && matchHeader(c, deviceHeaders):
			cols.device = i
		case isTotalLabel(c):
			continue
		default:
			d, err := parseDateCell(c, sp.opts.DateLayouts, sp.opts.Location)
			if err != nil {
				return cols, false
			}
			cols.dates = append(cols.dates, dateColumn{index: i, date: d})
		}
	}
	if unlocks && cols.label < 0 {
		cols.label, cols.device = cols.device, -1
	}
	return cols, cols.label >= 0 && len(cols.dates) > 0
}

type sheetMeasure int

const (
	measureTime sheetMeasure = iota
	measureCount
	measureUnlocks
)

func (sp *sheetParser) sheetMeasure() sheetMeasure {
	name := strings.ToLower(sp.sheet.Name)
	switch {
	case strings.Contains(name, "unlock"):
		return measureUnlocks
	case strings.Contains(name, "count"):
		return measureCount
	}
	return measureTime
}

func (sp *sheetParser) parsePivotSheet(header int, cols pivotColumns) error {
	measure := sp.sheetMeasure()
	headerRow := sp.sheet.Rows[header]

	n := 0
	for i := header + 1; i < len(sp.sheet.Rows); i++ {
		row := sp.sheet.Rows[i]
		label := cell(row, cols.label)
		if blankRow(row) || isTotalLabel(label) {
			continue
		}
		if label == "" {
			return sp.cellError(i, cell(headerRow, cols.label), "", fmt.Errorf("empty label"))
		}

		entity, device := label, cell(row, cols.device)
		if measure == measureUnlocks {
			entity, device = UnlocksEntity, label
		}

		for _, dc := range cols.dates {
			c, raw := dc.index, cell(row, dc.index)
			rec := usage.RawRecord{Date: dc.date, Entity: entity, Device: device}
			switch measure {
			case measureTime:
				d, err := parseDurationOrBlank(raw, sp.opts.PlainNumberUnit)
				if err != nil {
					return sp.cellError(i, cell(headerRow, c), raw, err)
				}
				rec.Amount, rec.Unit = float64(d), usage.Microseconds
				sp.out.UsageTime = append(sp.out.UsageTime, rec)
			default:
				v, err := parseCountOrBlank(raw)
				if err != nil {
					return sp.cellError(i, cell(headerRow, c), raw, err)
				}
				rec.Amount, rec.Unit = v, usage.Count
				if measure == measureUnlocks {
					sp.out.Unlocks = append(sp.out.Unlocks, rec)
				} else {
					sp.out.UsageCount = append(sp.out.UsageCount, rec)
				}
			}
			n++
		}
	}

	sp.opts.Logger.Debug("parsed sheet", "sheet", sp.sheet.Name, "layout", "pivot",
		"dates", len(cols.dates), "records", n)
	return nil
}

// an empty pivot cell is a day without usage
func parseDurationOrBlank(s string, plainUnit usage.Unit) (usage.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return ParseDurationText(s, plainUnit)
}

func parseCountOrBlank(s string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return parseCount(s)
}

func parseCount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty count")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a number")
	}
	if v < 0 {
		return 0, &usage.NegativeDurationError{Amount: v, Unit: usage.Count}
	}
	return v, nil
}

func (sp *sheetParser) cellError(row int, column, value string, err error) error {
	return &usage.ParseError{
		Sheet:  sp.sheet.Name,
		Row:    row + 1,
		Column: column,
		Value:  value,
		Err:    err,
	}
}
