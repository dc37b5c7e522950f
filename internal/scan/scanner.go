package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Format names a supported export format.
type Format string

const (
	FormatUnknown        Format = ""
	FormatStayfreeXLS    Format = "stayfree-xls"
	FormatStayfreeBackup Format = "stayfree-backup"
	FormatLoophabit      Format = "loophabit"
	FormatMoonwatch      Format = "moonwatch"
	FormatMoonwatchDir   Format = "moonwatch-dir"
)

var Formats = []Format{
	FormatStayfreeXLS,
	FormatStayfreeBackup,
	FormatLoophabit,
	FormatMoonwatch,
	FormatMoonwatchDir,
}

func ParseFormat(s string) (Format, error) {
	if s == "" || s == "auto" {
		return FormatUnknown, nil
	}
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unknown format %q", s)
}

type FileInfo struct {
	Path   string
	Format Format
	Mtime  int64
	Size   int64
}

// Detect guesses the export format from the path alone.
func Detect(path string) (Format, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FormatUnknown, err
	}
	if info.IsDir() {
		return FormatMoonwatchDir, nil
	}
	return detectName(filepath.Base(path)), nil
}

func detectName(base string) Format {
	lower := strings.ToLower(base)
	switch {
	case strings.HasSuffix(lower, ".xls"), strings.HasSuffix(lower, ".xlsx"):
		return FormatStayfreeXLS
	case strings.HasPrefix(lower, "stayfree-dailybackup"), strings.Contains(lower, ".backup"):
		return FormatStayfreeBackup
	case isMoonwatchLog(lower):
		return FormatMoonwatch
	case strings.HasSuffix(lower, ".db"):
		return FormatLoophabit
	}
	return FormatUnknown
}

func isMoonwatchLog(name string) bool {
	return strings.HasSuffix(name, ".jsonl") || strings.HasSuffix(name, ".jsonl.gz")
}

// ScanLogDir lists the Moonwatch logs (*.jsonl, *.jsonl.gz) directly inside dir,
// sorted by name. Subdirectories are not descended into.
func ScanLogDir(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !isMoonwatchLog(strings.ToLower(e.Name())) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		files = append(files, FileInfo{
			Path:   filepath.Join(dir, e.Name()),
			Format: FormatMoonwatch,
			Mtime:  info.ModTime().Unix(),
			Size:   info.Size(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Paths returns the paths of files in order.
func Paths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}
