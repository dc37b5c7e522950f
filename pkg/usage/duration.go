package usage

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Unit is the unit a source reports an amount in.
type Unit int

const (
	Microseconds Unit = iota
	Milliseconds
	Seconds
	Minutes
	Count
)

func (u Unit) String() string {
	switch u {
	case Microseconds:
		return "microseconds"
	case Milliseconds:
		return "milliseconds"
	case Seconds:
		return "seconds"
	case Minutes:
		return "minutes"
	case Count:
		return "count"
	default:
		return fmt.Sprintf("unit(%d)", int(u))
	}
}

// IsDuration reports whether amounts in u are elapsed time.
func (u Unit) IsDuration() bool {
	return u >= Microseconds && u <= Minutes
}

// ParseUnit accepts the unit names used in config files.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "us", "µs", "micro", "microseconds":
		return Microseconds, nil
	case "ms", "milli", "milliseconds":
		return Milliseconds, nil
	case "s", "sec", "seconds":
		return Seconds, nil
	case "m", "min", "minutes":
		return Minutes, nil
	case "count":
		return Count, nil
	}
	return 0, fmt.Errorf("unknown unit %q", s)
}

// Duration is elapsed time in whole microseconds.
type Duration int64

const (
	Microsecond Duration = 1
	Millisecond          = 1000 * Microsecond
	Second               = 1000 * Millisecond
	Minute               = 60 * Second
	Hour                 = 60 * Minute
	Day                  = 24 * Hour
)

var unitFactor = map[Unit]Duration{
	Microseconds: Microsecond,
	Milliseconds: Millisecond,
	Seconds:      Second,
	Minutes:      Minute,
}

// Factor returns the length of one u in microseconds; ok is false for Count.
func (u Unit) Factor() (d Duration, ok bool) {
	d, ok = unitFactor[u]
	return d, ok
}

var (
	maxMicros = decimal.NewFromInt(math.MaxInt64)
	// float64 carries about 16 significant digits; a product closer than
	// this to a whole microsecond is rounding noise from the source.
	floatNoise = decimal.New(1, -12)
)

// ToMicros converts amount in unit into microseconds. The conversion is exact:
// an amount that would need sub-microsecond precision is rejected, not rounded.
// Binary rounding noise, as in 1.1*60 minutes, is not such a fraction.
func ToMicros(amount float64, unit Unit) (Duration, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("%w: invalid amount %v", ErrParse, amount)
	}
	factor, ok := unit.Factor()
	if !ok {
		return 0, fmt.Errorf("%w: %s is not a duration unit", ErrParse, unit)
	}
	if amount < 0 {
		return 0, &NegativeDurationError{Amount: amount, Unit: unit}
	}

	us := decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(int64(factor)))
	if !us.IsInteger() {
		whole := us.Round(0)
		if us.Sub(whole).Abs().GreaterThan(whole.Abs().Mul(floatNoise)) {
			return 0, fmt.Errorf("%w: %v %s is not a whole number of microseconds", ErrParse, amount, unit)
		}
		us = whole
	}
	return fromMicros(us)
}

// DecimalMicros converts an exact decimal amount of per-sized units, e.g. 1.1
// hours, into microseconds without any rounding.
func DecimalMicros(amount decimal.Decimal, per Duration) (Duration, error) {
	us := amount.Mul(decimal.NewFromInt(int64(per)))
	if us.IsNegative() {
		return 0, &NegativeDurationError{Amount: us.InexactFloat64(), Unit: Microseconds}
	}
	if !us.IsInteger() {
		return 0, fmt.Errorf("%w: %s is not a whole number of microseconds", ErrParse, us)
	}
	return fromMicros(us)
}

func fromMicros(us decimal.Decimal) (Duration, error) {
	if us.GreaterThan(maxMicros) {
		return 0, fmt.Errorf("%w: %sµs overflows", ErrParse, us)
	}
	return Duration(us.IntPart()), nil
}

// Std converts d to a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d) * time.Microsecond
}

// FromStd converts a time.Duration, dropping sub-microsecond precision.
func FromStd(d time.Duration) Duration {
	return Duration(d / time.Microsecond)
}

// String renders d as "1d 2h 3m 4s", "250ms" or "0µs".
func (d Duration) String() string {
	if d == 0 {
		return "0µs"
	}
	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}
	parts := []struct {
		size   Duration
		suffix string
	}{
		{Day, "d"}, {Hour, "h"}, {Minute, "m"}, {Second, "s"}, {Millisecond, "ms"}, {Microsecond, "µs"},
	}
	first := true
	for _, p := range parts {
		n := d / p.size
		if n == 0 {
			continue
		}
		d -= n * p.size
		if !first {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d%s", n, p.suffix)
		first = false
	}
	return b.String()
}
