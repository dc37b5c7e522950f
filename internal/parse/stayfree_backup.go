package parse

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"

	"github.com/klauspost/compress/zip"

	"github.com/Zuo-Peng/miscreaders/internal/store"
	"github.com/Zuo-Peng/miscreaders/pkg/usage"
)

const (
	backupUsageMember = "usage_stats_event"
	backupUsageTable  = "DailyUsageStatsEntity"
)

// e.g. stayfree-dailybackup_Pixel7.backup-2024-03-10
var backupNameRe = regexp.MustCompile(`^stayfree-dailybackup_(.+?)\.backup`)

// StayfreeBackup parses the app-data backup archive StayFree stores on Google
// Drive. App names are Android package names.
type StayfreeBackup struct {
	Options Options
}

func (p StayfreeBackup) Parse(archive string) ([]usage.RawRecord, error) {
	opts := p.Options.withDefaults()

	tmp, err := os.MkdirTemp("", "miscr-backup-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)

	dbPath, err := extractMember(archive, backupUsageMember, tmp)
	if err != nil {
		return nil, err
	}

	db, err := store.OpenReadOnly(dbPath)
	if err != nil {
		return nil, &usage.FormatError{Sheet: backupUsageMember, Reason: err.Error()}
	}
	defer db.Close()

	ok, err := db.HasTable(backupUsageTable)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", backupUsageMember, err)
	}
	if !ok {
		return nil, &usage.FormatError{Sheet: backupUsageMember, Reason: "missing table " + backupUsageTable}
	}

	rows, err := db.Raw().Query(
		"SELECT TIMESTAMP, PACKAGE_NAME, TOTAL_USAGE_TIME FROM " + backupUsageTable,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", backupUsageTable, err)
	}
	defer rows.Close()

	device := backupDevice(archive)
	var out []usage.RawRecord
	for rows.Next() {
		var (
			ts     int64
			pkg    string
			millis int64
		)
		if err := rows.Scan(&ts, &pkg, &millis); err != nil {
			return nil, &usage.ParseError{Sheet: backupUsageTable, Row: len(out) + 1, Err: err}
		}
		out = append(out, usage.RawRecord{
			Date:   dateFromEpochMillis(ts, opts.Location),
			Entity: pkg,
			Device: device,
			Amount: float64(millis),
			Unit:   usage.Milliseconds,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	opts.Logger.Debug("parsed backup", "path", archive, "device", device, "records", len(out))
	return out, nil
}

// backupDevice returns the device name encoded in a backup file name, if any.
func backupDevice(archive string) string {
	if m := backupNameRe.FindStringSubmatch(filepath.Base(archive)); m != nil {
		return m[1]
	}
	return ""
}

// extractMember copies one archive member into dir and returns its path.
func extractMember(archive, name, dir string) (string, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return "", &usage.FormatError{Reason: fmt.Sprintf("not a zip archive: %v", err)}
	}
	defer zr.Close()

	for _, f := range zr.File {
		if path.Base(f.Name) != name || f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", f.Name, err)
		}
		defer rc.Close()

		dst := filepath.Join(dir, name)
		out, err := os.Create(dst)
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(out, rc); err != nil {
			out.Close()
			return "", fmt.Errorf("extract %s: %w", f.Name, err)
		}
		if err := out.Close(); err != nil {
			return "", err
		}
		return dst, nil
	}
	return "", &usage.FormatError{Sheet: name, Reason: "member not found in archive"}
}
