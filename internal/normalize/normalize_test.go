package normalize

import (
	"math"
	"testing"
	"time"

	"github.com/Zuo-Peng/miscreaders/pkg/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nov10 = usage.NewDate(2023, time.November, 10)

func durations() Options {
	return Options{Measure: usage.MeasureDuration, EntityColumn: "app"}
}

func TestNormalize_GapFill(t *testing.T) {
	t.Run("Should fill zero rows between observed dates", func(t *testing.T) {
		tbl, err := Normalize([]usage.RawRecord{
			{Date: nov10, Entity: "addititious", Amount: 0, Unit: usage.Seconds},
			{Date: nov10.AddDays(4), Entity: "addititious", Amount: 6, Unit: usage.Seconds},
		}, durations())
		require.NoError(t, err)
		require.Equal(t, 5, tbl.Len())

		for i := 0; i < 4; i++ {
			row := tbl.Row(i)
			assert.Equal(t, nov10.AddDays(i), row.Date)
			assert.Equal(t, usage.Duration(0), row.Duration)
		}
		last := tbl.Row(4)
		assert.Equal(t, "2023-11-14", last.Date.String())
		assert.Equal(t, usage.Duration(6_000_000), last.Duration)
		assert.Equal(t, "", last.Device)
	})

	t.Run("Should omit explicitly untracked dates instead of zero filling them", func(t *testing.T) {
		tbl, err := Normalize([]usage.RawRecord{
			{Date: nov10, Entity: "a", Amount: 60, Unit: usage.Seconds},
			{Date: nov10.AddDays(1), Entity: "a", Unit: usage.Seconds, State: usage.NotTracked},
			{Date: nov10.AddDays(3), Entity: "a", Amount: 60, Unit: usage.Seconds},
		}, durations())
		require.NoError(t, err)
		require.Equal(t, 3, tbl.Len())
		assert.Equal(t, nov10, tbl.Row(0).Date)
		assert.Equal(t, nov10.AddDays(2), tbl.Row(1).Date)
		assert.Equal(t, usage.Duration(0), tbl.Row(1).Duration)
		assert.Equal(t, nov10.AddDays(3), tbl.Row(2).Date)
	})

	t.Run("Should not synthesize rows under the omit policy", func(t *testing.T) {
		tbl, err := Normalize([]usage.RawRecord{
			{Date: nov10, Entity: "run", Amount: 1, Unit: usage.Count},
			{Date: nov10.AddDays(5), Entity: "run", Amount: 0, Unit: usage.Count},
		}, Options{Measure: usage.MeasureValue, EntityColumn: "habit", Gaps: GapOmit})
		require.NoError(t, err)
		require.Equal(t, 2, tbl.Len())
		assert.Equal(t, 1.0, tbl.Row(0).Value)
		assert.Equal(t, 0.0, tbl.Row(1).Value)
		assert.Equal(t, []string{"date", "habit", "value", "device"}, tbl.Columns())
	})

	t.Run("Should gap fill each device separately", func(t *testing.T) {
		tbl, err := Normalize([]usage.RawRecord{
			{Date: nov10, Entity: "YouTube", Device: "phone", Amount: 1, Unit: usage.Minutes},
			{Date: nov10.AddDays(2), Entity: "YouTube", Device: "phone", Amount: 2, Unit: usage.Minutes},
			{Date: nov10.AddDays(1), Entity: "YouTube", Device: "tablet", Amount: 3, Unit: usage.Minutes},
		}, durations())
		require.NoError(t, err)
		require.Equal(t, 4, tbl.Len())
		assert.Equal(t, "phone", tbl.Row(1).Device)
		assert.Equal(t, usage.Duration(0), tbl.Row(1).Duration)
		assert.Equal(t, "tablet", tbl.Row(2).Device)
	})
}

func TestNormalize_Ordering(t *testing.T) {
	tbl, err := Normalize([]usage.RawRecord{
		{Date: nov10.AddDays(1), Entity: "b", Amount: 1, Unit: usage.Seconds},
		{Date: nov10, Entity: "b", Device: "z", Amount: 1, Unit: usage.Seconds},
		{Date: nov10, Entity: "a", Amount: 1, Unit: usage.Seconds},
		{Date: nov10, Entity: "b", Device: "", Amount: 1, Unit: usage.Seconds},
	}, durations())
	require.NoError(t, err)

	var got []string
	for _, r := range tbl.Rows() {
		got = append(got, r.Date.String()+"/"+r.Entity+"/"+r.Device)
	}
	assert.Equal(t, []string{
		"2023-11-10/a/",
		"2023-11-10/b/",
		"2023-11-10/b/z",
		"2023-11-11/b/",
	}, got)
}

func TestNormalize_Errors(t *testing.T) {
	t.Run("Should reject colliding keys", func(t *testing.T) {
		_, err := Normalize([]usage.RawRecord{
			{Date: nov10, Entity: "a", Amount: 1, Unit: usage.Seconds},
			{Date: nov10, Entity: "a", Amount: 2, Unit: usage.Seconds},
		}, durations())
		require.Error(t, err)
		assert.ErrorIs(t, err, usage.ErrDuplicateRecord)
	})

	t.Run("Should treat a not-tracked record on an observed date as a collision", func(t *testing.T) {
		_, err := Normalize([]usage.RawRecord{
			{Date: nov10, Entity: "a", Amount: 1, Unit: usage.Seconds},
			{Date: nov10, Entity: "a", Unit: usage.Seconds, State: usage.NotTracked},
		}, durations())
		assert.ErrorIs(t, err, usage.ErrDuplicateRecord)
	})

	t.Run("Should reject negative amounts", func(t *testing.T) {
		_, err := Normalize([]usage.RawRecord{
			{Date: nov10, Entity: "a", Amount: -5, Unit: usage.Seconds},
		}, durations())
		assert.ErrorIs(t, err, usage.ErrNegativeDuration)

		_, err = Normalize([]usage.RawRecord{
			{Date: nov10, Entity: "a", Amount: -5, Unit: usage.Count},
		}, Options{Measure: usage.MeasureCount})
		assert.ErrorIs(t, err, usage.ErrNegativeDuration)
	})

	t.Run("Should reject non-finite counts", func(t *testing.T) {
		for _, amount := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			_, err := Normalize([]usage.RawRecord{
				{Date: nov10, Entity: "a", Amount: amount, Unit: usage.Count},
			}, Options{Measure: usage.MeasureCount})
			require.Error(t, err, "%v", amount)
			assert.ErrorIs(t, err, usage.ErrParse, "%v", amount)
		}

		_, err := Normalize([]usage.RawRecord{
			{Date: nov10, Entity: "a", Amount: math.NaN(), Unit: usage.Seconds},
		}, durations())
		assert.ErrorIs(t, err, usage.ErrParse)
	})

	t.Run("Should reject an empty entity", func(t *testing.T) {
		_, err := Normalize([]usage.RawRecord{
			{Date: nov10, Entity: "  ", Amount: 1, Unit: usage.Seconds},
		}, durations())
		assert.ErrorIs(t, err, usage.ErrParse)
	})

	t.Run("Should reject units that do not match the measure", func(t *testing.T) {
		_, err := Normalize([]usage.RawRecord{
			{Date: nov10, Entity: "a", Amount: 1, Unit: usage.Count},
		}, durations())
		assert.ErrorIs(t, err, usage.ErrFormat)
	})
}

func TestNormalize_Properties(t *testing.T) {
	records := []usage.RawRecord{
		{Date: nov10, Entity: "a", Amount: 90, Unit: usage.Seconds},
		{Date: nov10.AddDays(6), Entity: "a", Amount: 1500, Unit: usage.Milliseconds},
		{Date: nov10.AddDays(2), Entity: "b", Device: "pc", Amount: 2, Unit: usage.Minutes},
		{Date: nov10.AddDays(9), Entity: "b", Device: "pc", Amount: 0, Unit: usage.Minutes},
		{Date: nov10.AddDays(4), Entity: "b", Device: "pc", Unit: usage.Minutes, State: usage.NotTracked},
	}
	tbl, err := Normalize(records, durations())
	require.NoError(t, err)

	t.Run("Should keep the primary key unique", func(t *testing.T) {
		keys := make(map[usage.Key]struct{})
		for _, r := range tbl.Rows() {
			keys[r.Key()] = struct{}{}
		}
		assert.Len(t, keys, tbl.Len())
	})

	t.Run("Should only emit non-negative rows with an entity", func(t *testing.T) {
		for _, r := range tbl.Rows() {
			assert.NotEmpty(t, r.Entity)
			assert.GreaterOrEqual(t, int64(r.Duration), int64(0))
		}
	})

	t.Run("Should cover every date of each series except untracked ones", func(t *testing.T) {
		assert.Len(t, tbl.EntityRows("a"), 7)
		assert.Len(t, tbl.EntityRows("b"), 7) // 8 days in range, one untracked
	})

	t.Run("Should be idempotent", func(t *testing.T) {
		again, err := Normalize(tbl.RawRecords(), durations())
		require.NoError(t, err)
		assert.Equal(t, tbl.Rows(), again.Rows())
		assert.Equal(t, tbl.Columns(), again.Columns())
	})
}
