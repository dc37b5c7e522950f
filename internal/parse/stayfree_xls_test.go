package parse

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/extrame/xls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Zuo-Peng/miscreaders/internal/logging"
	"github.com/Zuo-Peng/miscreaders/pkg/usage"
)

var quiet = Options{Logger: logging.Discard()}

func parseSheets(t *testing.T, sheets ...Sheet) (*StayfreeExport, error) {
	t.Helper()
	return StayfreeXLS{Options: quiet}.ParseWorkbook(&Workbook{Sheets: sheets})
}

func TestStayfreeXLS_EntitySheets(t *testing.T) {
	t.Run("Should read one app per sheet", func(t *testing.T) {
		exp, err := parseSheets(t, Sheet{
			Name: "addititious",
			Rows: [][]string{
				{"Date", "Duration"},
				{"Nov 10, 2023", "0h"},
				{"Nov 14, 2023", "6s"},
			},
		})
		require.NoError(t, err)
		require.Len(t, exp.UsageTime, 2)
		assert.Empty(t, exp.UsageCount)

		first, last := exp.UsageTime[0], exp.UsageTime[1]
		assert.Equal(t, "addititious", first.Entity)
		assert.Equal(t, usage.NewDate(2023, time.November, 10), first.Date)
		assert.Equal(t, 0.0, first.Amount)
		assert.Equal(t, usage.Microseconds, first.Unit)
		assert.Equal(t, usage.NewDate(2023, time.November, 14), last.Date)
		assert.Equal(t, 6_000_000.0, last.Amount)
		assert.Equal(t, "", last.Device)
	})

	t.Run("Should take the device from the sheet title suffix", func(t *testing.T) {
		exp, err := parseSheets(t, Sheet{
			Name: "YouTube (Pixel 7)",
			Rows: [][]string{
				{"Date", "Usage Time", "Launches"},
				{"2024-03-01", "1h 5m", "4"},
			},
		})
		require.NoError(t, err)
		require.Len(t, exp.UsageTime, 1)
		require.Len(t, exp.UsageCount, 1)
		assert.Equal(t, "YouTube", exp.UsageTime[0].Entity)
		assert.Equal(t, "Pixel 7", exp.UsageTime[0].Device)
		assert.Equal(t, float64(65*usage.Minute), exp.UsageTime[0].Amount)
		assert.Equal(t, 4.0, exp.UsageCount[0].Amount)
		assert.Equal(t, usage.Count, exp.UsageCount[0].Unit)
	})

	t.Run("Should prefer a device column over the title", func(t *testing.T) {
		exp, err := parseSheets(t, Sheet{
			Name: "Maps (Phone)",
			Rows: [][]string{
				{"Date", "Duration", "Device"},
				{"2024-03-01", "60", "Tablet"},
				{"2024-03-02", "120", ""},
			},
		})
		require.NoError(t, err)
		require.Len(t, exp.UsageTime, 2)
		assert.Equal(t, "Tablet", exp.UsageTime[0].Device)
		assert.Equal(t, "Phone", exp.UsageTime[1].Device)
		assert.Equal(t, float64(2*usage.Minute), exp.UsageTime[1].Amount)
	})

	t.Run("Should find a header below title rows and skip blank and total rows", func(t *testing.T) {
		exp, err := parseSheets(t, Sheet{
			Name: "Chrome",
			Rows: [][]string{
				{"StayFree export"},
				{},
				{"Date", "Duration"},
				{"2024-03-01", "5m"},
				{"", ""},
				{"Total", "5m"},
			},
		})
		require.NoError(t, err)
		assert.Len(t, exp.UsageTime, 1)
	})
}

func TestStayfreeXLS_PivotSheets(t *testing.T) {
	t.Run("Should read one app per row and one date per column", func(t *testing.T) {
		exp, err := parseSheets(t,
			Sheet{
				Name: "Usage Time",
				Rows: [][]string{
					{"App", "Device", "Nov 10, 2023", "Nov 11, 2023", "Total Usage"},
					{"YouTube", "Pixel", "1h 2m", "", "1h 2m"},
					{"Chrome", "Pixel", "5s", "10s", "15s"},
					{"Total Usage", "", "1h 2m 5s", "10s", "1h 2m 15s"},
				},
			},
			Sheet{
				Name: "Usage Count",
				Rows: [][]string{
					{"App", "Nov 10, 2023", "Nov 11, 2023"},
					{"YouTube", "3", "0"},
				},
			},
			Sheet{
				Name: "Device Unlocks",
				Rows: [][]string{
					{"Device", "Nov 10, 2023", "Nov 11, 2023", "Total"},
					{"Pixel", "12", "3", "15"},
				},
			},
		)
		require.NoError(t, err)

		require.Len(t, exp.UsageTime, 4)
		yt := exp.UsageTime[0]
		assert.Equal(t, "YouTube", yt.Entity)
		assert.Equal(t, "Pixel", yt.Device)
		assert.Equal(t, float64(62*usage.Minute), yt.Amount)
		assert.Equal(t, 0.0, exp.UsageTime[1].Amount, "empty cell is no usage")
		assert.Equal(t, usage.NewDate(2023, time.November, 11), exp.UsageTime[1].Date)

		require.Len(t, exp.UsageCount, 2)
		assert.Equal(t, 3.0, exp.UsageCount[0].Amount)
		assert.Equal(t, "", exp.UsageCount[0].Device)

		require.Len(t, exp.Unlocks, 2)
		assert.Equal(t, UnlocksEntity, exp.Unlocks[0].Entity)
		assert.Equal(t, "Pixel", exp.Unlocks[0].Device)
		assert.Equal(t, 12.0, exp.Unlocks[0].Amount)
	})
}

func TestStayfreeXLS_Errors(t *testing.T) {
	t.Run("Should report the sheet and row of a malformed date", func(t *testing.T) {
		exp, err := parseSheets(t, Sheet{
			Name: "addititious",
			Rows: [][]string{
				{"Date", "Duration"},
				{"Nov 10, 2023", "0h"},
				{"Novembre 11th", "6s"},
			},
		})
		require.Error(t, err)
		assert.Nil(t, exp)
		assert.True(t, errors.Is(err, usage.ErrParse))

		var pe *usage.ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "addititious", pe.Sheet)
		assert.Equal(t, 3, pe.Row)
		assert.Equal(t, "date", pe.Column)
		assert.Equal(t, "Novembre 11th", pe.Value)
		assert.Contains(t, err.Error(), `sheet "addititious"`)
	})

	t.Run("Should report a malformed duration", func(t *testing.T) {
		_, err := parseSheets(t, Sheet{
			Name: "a",
			Rows: [][]string{{"Date", "Duration"}, {"2024-01-01", "a while"}},
		})
		var pe *usage.ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "duration", pe.Column)
		assert.Equal(t, 2, pe.Row)
	})

	t.Run("Should report a malformed pivot cell with its date column", func(t *testing.T) {
		_, err := parseSheets(t, Sheet{
			Name: "Usage Time",
			Rows: [][]string{{"App", "2024-01-01"}, {"YouTube", "lots"}},
		})
		var pe *usage.ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "2024-01-01", pe.Column)
		assert.Equal(t, "lots", pe.Value)
	})

	t.Run("Should fail on a sheet without a header", func(t *testing.T) {
		_, err := parseSheets(t, Sheet{
			Name: "notes",
			Rows: [][]string{{"hello", "world"}, {"1", "2"}},
		})
		assert.ErrorIs(t, err, usage.ErrFormat)

		var fe *usage.FormatError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "notes", fe.Sheet)
	})

	t.Run("Should fail on an empty sheet or workbook", func(t *testing.T) {
		_, err := parseSheets(t, Sheet{Name: "empty"})
		assert.ErrorIs(t, err, usage.ErrFormat)

		_, err = parseSheets(t)
		assert.ErrorIs(t, err, usage.ErrFormat)
	})

	t.Run("Should reject counts that are not finite numbers", func(t *testing.T) {
		for _, v := range []string{"NaN", "Inf", "-Infinity"} {
			_, err := parseSheets(t, Sheet{
				Name: "Usage Count",
				Rows: [][]string{{"App", "2024-01-01"}, {"YouTube", v}},
			})
			var pe *usage.ParseError
			require.ErrorAs(t, err, &pe, v)
			assert.Equal(t, v, pe.Value)
		}
	})

	t.Run("Should reject negative counts", func(t *testing.T) {
		_, err := parseSheets(t, Sheet{
			Name: "a",
			Rows: [][]string{{"Date", "Count"}, {"2024-01-01", "-1"}},
		})
		assert.ErrorIs(t, err, usage.ErrParse)
		assert.ErrorIs(t, err, usage.ErrNegativeDuration)
	})
}

func writeXLSX(t *testing.T, sheet string, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		for j, v := range row {
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellStr(sheet, ref, v))
		}
	}
	path := filepath.Join(t.TempDir(), "StayFree Export.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestStayfreeXLS_Files(t *testing.T) {
	t.Run("Should parse an xlsx workbook", func(t *testing.T) {
		path := writeXLSX(t, "addititious", [][]string{
			{"Date", "Duration"},
			{"Nov 10, 2023", "0h"},
			{"Nov 14, 2023", "6s"},
		})
		exp, err := StayfreeXLS{Options: quiet}.Parse(path)
		require.NoError(t, err)
		require.Len(t, exp.UsageTime, 2)
		assert.Equal(t, "addititious", exp.UsageTime[1].Entity)
		assert.Equal(t, 6_000_000.0, exp.UsageTime[1].Amount)
	})

	t.Run("Should read a StayFree xls export", func(t *testing.T) {
		exp, err := StayfreeXLS{Options: quiet}.Parse(filepath.Join("testdata", "stayfree.xls"))
		require.NoError(t, err)

		mar1, mar2 := usage.NewDate(2024, time.March, 1), usage.NewDate(2024, time.March, 2)
		want := []usage.RawRecord{
			{Date: mar1, Entity: "YouTube", Device: "Pixel 7", Amount: float64(usage.Hour + 2*usage.Minute + 3*usage.Second), Unit: usage.Microseconds},
			{Date: mar2, Entity: "YouTube", Device: "Pixel 7", Amount: 0, Unit: usage.Microseconds},
			{Date: mar1, Entity: "Chrome", Device: "Pixel 7", Amount: float64(45 * usage.Minute), Unit: usage.Microseconds},
			{Date: mar2, Entity: "Chrome", Device: "Pixel 7", Amount: float64(6 * usage.Second), Unit: usage.Microseconds},
			{Date: mar1, Entity: "Spotify", Device: "Pixel 7", Amount: float64(30 * usage.Minute), Unit: usage.Microseconds},
			{Date: mar2, Entity: "Spotify", Device: "Pixel 7", Amount: float64(90 * usage.Second), Unit: usage.Microseconds},
		}
		require.Len(t, exp.UsageTime, len(want))
		for i, w := range want {
			got := exp.UsageTime[i]
			assert.Equal(t, w.Date, got.Date, "row %d", i)
			assert.Equal(t, w.Entity, got.Entity, "row %d", i)
			assert.Equal(t, w.Device, got.Device, "row %d", i)
			assert.Equal(t, w.Amount, got.Amount, "row %d", i)
			assert.Equal(t, w.Unit, got.Unit, "row %d", i)
		}

		require.Len(t, exp.UsageCount, 2)
		assert.Equal(t, "Spotify", exp.UsageCount[0].Entity)
		assert.Equal(t, "Pixel 7", exp.UsageCount[0].Device)
		assert.Equal(t, mar1, exp.UsageCount[0].Date)
		assert.Equal(t, 3.0, exp.UsageCount[0].Amount)
		assert.Equal(t, 2.0, exp.UsageCount[1].Amount)

		require.Len(t, exp.Unlocks, 2)
		assert.Equal(t, UnlocksEntity, exp.Unlocks[0].Entity)
		assert.Equal(t, "Pixel 7", exp.Unlocks[0].Device)
		assert.Equal(t, 42.0, exp.Unlocks[0].Amount)
		assert.Equal(t, mar2, exp.Unlocks[1].Date)
		assert.Equal(t, 37.0, exp.Unlocks[1].Amount)
	})

	t.Run("Should turn a decoder panic into a format error", func(t *testing.T) {
		orig := openXLS
		t.Cleanup(func() { openXLS = orig })
		openXLS = func(io.ReadSeeker, string) (*xls.WorkBook, error) {
			panic("index out of range")
		}

		_, err := StayfreeXLS{Options: quiet}.Parse(filepath.Join("testdata", "stayfree.xls"))
		assert.ErrorIs(t, err, usage.ErrFormat)
		assert.Contains(t, err.Error(), "corrupt xls workbook")
	})

	t.Run("Should reject a file that is no workbook", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "export.xls")
		require.NoError(t, os.WriteFile(path, []byte("date,duration\n"), 0o644))
		_, err := StayfreeXLS{Options: quiet}.Parse(path)
		assert.ErrorIs(t, err, usage.ErrFormat)
	})
}
