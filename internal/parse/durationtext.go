package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Zuo-Peng/miscreaders/pkg/usage"
)

var (
	// one "<number> <unit>" component, e.g. "1h", "2 min", "3.5s"
	durationPartRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([a-zµ]+)`)
	clockRe        = regexp.MustCompile(`^(\d+):([0-5]\d):([0-5]\d)$`)
)

// ParseDurationText parses StayFree style durations: "1h 2m 3s", "45m", "6s",
// "1 hr 5 min", "1:02:03", or a bare number in plainUnit.
func ParseDurationText(s string, plainUnit usage.Unit) (usage.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if v, err := decimal.NewFromString(s); err == nil {
		per, ok := plainUnit.Factor()
		if !ok {
			return 0, fmt.Errorf("%s is not a duration unit", plainUnit)
		}
		return usage.DecimalMicros(v, per)
	}
	if strings.HasPrefix(s, "-") {
		d, err := ParseDurationText(s[1:], plainUnit)
		if err != nil {
			return 0, err
		}
		return 0, &usage.NegativeDurationError{Amount: -float64(d), Unit: usage.Microseconds}
	}

	if m := clockRe.FindStringSubmatch(s); m != nil {
		h, _ := strconv.ParseInt(m[1], 10, 64)
		min, _ := strconv.ParseInt(m[2], 10, 64)
		sec, _ := strconv.ParseInt(m[3], 10, 64)
		return usage.DecimalMicros(decimal.NewFromInt(h*3600+min*60+sec), usage.Second)
	}

	var total usage.Duration
	rest := s
	for _, loc := range durationPartRe.FindAllStringSubmatchIndex(s, -1) {
		// everything between components must be separators
		if gap := strings.Trim(s[len(s)-len(rest):loc[0]], " ,"); gap != "" {
			return 0, fmt.Errorf("unexpected %q in duration", gap)
		}
		rest = s[loc[1]:]

		amount, err := decimal.NewFromString(s[loc[2]:loc[3]])
		if err != nil {
			return 0, err
		}
		d, err := componentMicros(amount, s[loc[4]:loc[5]])
		if err != nil {
			return 0, err
		}
		total += d
	}
	if rest == s {
		return 0, fmt.Errorf("no duration components")
	}
	if tail := strings.Trim(rest, " ,"); tail != "" {
		return 0, fmt.Errorf("unexpected %q in duration", tail)
	}
	return total, nil
}

// componentMicros scales the exact decimal amount, so "1.1h" is 66 minutes
// and not 1.1*60 in binary floating point.
func componentMicros(amount decimal.Decimal, unit string) (usage.Duration, error) {
	var per usage.Duration
	switch unit {
	case "d", "day", "days":
		per = usage.Day
	case "h", "hr", "hrs", "hour", "hours":
		per = usage.Hour
	case "m", "min", "mins", "minute", "minutes":
		per = usage.Minute
	case "s", "sec", "secs", "second", "seconds":
		per = usage.Second
	case "ms", "msec", "millisecond", "milliseconds":
		per = usage.Millisecond
	case "µs", "us":
		per = usage.Microsecond
	default:
		return 0, fmt.Errorf("unknown duration unit %q", unit)
	}
	return usage.DecimalMicros(amount, per)
}
