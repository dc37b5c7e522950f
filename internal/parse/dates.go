package parse

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Zuo-Peng/miscreaders/pkg/usage"
)

// excelEpoch is day zero of Excel's 1900 date system (serial 60 is the fictional 1900-02-29).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const maxExcelSerial = 2958465 // 9999-12-31

// parseDateCell reads a spreadsheet date cell using layouts, falling back to
// an Excel serial day number.
func parseDateCell(s string, layouts []string, loc *time.Location) (usage.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return usage.Date{}, fmt.Errorf("empty date")
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return usage.DateOf(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial < 1 || serial > maxExcelSerial {
			return usage.Date{}, fmt.Errorf("serial date %v out of range", serial)
		}
		days := int(math.Floor(serial))
		return usage.DateOf(excelEpoch.AddDate(0, 0, days)), nil
	}
	return usage.Date{}, fmt.Errorf("no layout matches %q", s)
}

// dateFromEpochMillis converts a Unix epoch in milliseconds to a date in loc.
func dateFromEpochMillis(ms int64, loc *time.Location) usage.Date {
	return usage.DateOf(time.UnixMilli(ms).In(loc))
}
