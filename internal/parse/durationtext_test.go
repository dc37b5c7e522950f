package parse

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/miscreaders/pkg/usage"
)

func TestParseDurationText(t *testing.T) {
	t.Run("Should parse hours minutes and seconds into microseconds", func(t *testing.T) {
		d, err := ParseDurationText("1h 2m 3s", usage.Seconds)
		require.NoError(t, err)
		assert.Equal(t, usage.Duration(3_723_000_000), d)
	})

	t.Run("Should accept the usual spellings", func(t *testing.T) {
		cases := map[string]usage.Duration{
			"6s":          6 * usage.Second,
			"45m":         45 * usage.Minute,
			"0":           0,
			"0h":          0,
			"1 hr 5 min":  65 * usage.Minute,
			"2 hours":     2 * usage.Hour,
			"1h, 30m":     90 * usage.Minute,
			"1:02:03":     usage.Hour + 2*usage.Minute + 3*usage.Second,
			"0:00:06":     6 * usage.Second,
			"250ms":       250 * usage.Millisecond,
			"1.5h":        90 * usage.Minute,
			"1d 2h":       26 * usage.Hour,
			" 3 Seconds ": 3 * usage.Second,
		}
		for in, want := range cases {
			got, err := ParseDurationText(in, usage.Seconds)
			require.NoError(t, err, in)
			assert.Equal(t, want, got, in)
		}
	})

	t.Run("Should convert decimal hours and days exactly", func(t *testing.T) {
		cases := map[string]usage.Duration{
			"1.1h":     66 * usage.Minute,
			"0.03h":    108 * usage.Second,
			"0.5d":     12 * usage.Hour,
			"2.35 hrs": 141 * usage.Minute,
			"0.1s":     100 * usage.Millisecond,
		}
		for in, want := range cases {
			got, err := ParseDurationText(in, usage.Seconds)
			require.NoError(t, err, in)
			assert.Equal(t, want, got, in)
		}

		d, err := ParseDurationText("0.1", usage.Seconds)
		require.NoError(t, err)
		assert.Equal(t, 100*usage.Millisecond, d)
	})

	t.Run("Should read plain numbers in the given unit", func(t *testing.T) {
		d, err := ParseDurationText("90", usage.Seconds)
		require.NoError(t, err)
		assert.Equal(t, 90*usage.Second, d)

		d, err = ParseDurationText("1500", usage.Milliseconds)
		require.NoError(t, err)
		assert.Equal(t, 1500*usage.Millisecond, d)

		d, err = ParseDurationText("2", usage.Minutes)
		require.NoError(t, err)
		assert.Equal(t, 2*usage.Minute, d)
	})

	t.Run("Should reject negative durations", func(t *testing.T) {
		_, err := ParseDurationText("-5m", usage.Seconds)
		require.Error(t, err)
		assert.True(t, errors.Is(err, usage.ErrNegativeDuration))

		var neg *usage.NegativeDurationError
		require.ErrorAs(t, err, &neg)
		assert.Equal(t, -float64(5*usage.Minute), neg.Amount)

		_, err = ParseDurationText("-3", usage.Seconds)
		assert.ErrorIs(t, err, usage.ErrNegativeDuration)
	})

	t.Run("Should reject garbage", func(t *testing.T) {
		for _, in := range []string{"", "soon", "1h soon", "1x", "abc 2m", "12:99:00", "1:2"} {
			_, err := ParseDurationText(in, usage.Seconds)
			assert.Error(t, err, in)
		}
	})
}

func TestParseDateCell(t *testing.T) {
	layouts := []string{"Jan 2, 2006", "2006-01-02", "02.01.2006"}

	t.Run("Should try each layout in order", func(t *testing.T) {
		for _, in := range []string{"Nov 10, 2023", "2023-11-10", "10.11.2023"} {
			d, err := parseDateCell(in, layouts, time.UTC)
			require.NoError(t, err, in)
			assert.Equal(t, usage.NewDate(2023, time.November, 10), d, in)
		}
	})

	t.Run("Should accept Excel serial day numbers", func(t *testing.T) {
		d, err := parseDateCell("45240", layouts, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, "2023-11-10", d.String())

		_, err = parseDateCell("0", layouts, time.UTC)
		assert.Error(t, err)
	})

	t.Run("Should reject text that is no date", func(t *testing.T) {
		_, err := parseDateCell("yesterday", layouts, time.UTC)
		assert.Error(t, err)
		_, err = parseDateCell("", layouts, time.UTC)
		assert.Error(t, err)
	})

	t.Run("Should take epoch milliseconds in the given location", func(t *testing.T) {
		ms := time.Date(2024, time.March, 9, 23, 30, 0, 0, time.UTC).UnixMilli()
		assert.Equal(t, "2024-03-09", dateFromEpochMillis(ms, time.UTC).String())

		prague, err := time.LoadLocation("Europe/Prague")
		require.NoError(t, err)
		assert.Equal(t, "2024-03-10", dateFromEpochMillis(ms, prague).String())
	})
}
