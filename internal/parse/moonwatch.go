package parse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/Zuo-Peng/miscreaders/pkg/usage"
)

const maxEventLineSize = 1024 * 1024 // 1MB

const activeWindowEvent = "ActiveWindowEvent"

// moonwatchEvent is one line of a Moonwatch.rs log. Durations are seconds.
type moonwatchEvent struct {
	Type        string   `json:"type"`
	Time        string   `json:"time"`
	Duration    float64  `json:"duration"`
	Hostname    string   `json:"hostname"`
	Username    string   `json:"username"`
	IdleFor     float64  `json:"idle_for"`
	ProcessPath string   `json:"process_path"`
	Tags        []string `json:"tags"`
}

// Naive timestamps are read in Options.Location.
var eventTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Moonwatch parses Moonwatch.rs active window logs (.jsonl, .jsonl.gz).
type Moonwatch struct {
	Options Options
}

// Parse aggregates the events of all files into per-day totals, merging
// overlapping intervals of the same app and host.
func (p Moonwatch) Parse(paths ...string) ([]usage.RawRecord, error) {
	opts := p.Options.withDefaults()

	buckets := make(dayBuckets)
	for _, path := range paths {
		if err := p.parseFile(path, opts, buckets); err != nil {
			return nil, err
		}
	}
	return buckets.records(), nil
}

func (p Moonwatch) parseFile(path string, opts Options, buckets dayBuckets) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return &usage.FormatError{Reason: fmt.Sprintf("%s: %v", path, err)}
		}
		defer zr.Close()
		r = zr
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLineSize)

	lineNum, events, skipped, idle := 0, 0, 0, 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var ev moonwatchEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return &usage.ParseError{File: path, Line: lineNum, Err: err}
		}
		if ev.Type != activeWindowEvent {
			skipped++
			continue
		}
		if opts.IdleCutoff > 0 && secondsToStd(ev.IdleFor) >= opts.IdleCutoff {
			idle++
			continue
		}

		iv, entity, err := eventInterval(ev, opts.Location)
		if err != nil {
			return &usage.ParseError{File: path, Line: lineNum, Err: err}
		}
		buckets.add(entity, ev.Hostname, iv, opts.Location)
		events++
	}
	if err := scanner.Err(); err != nil {
		return &usage.ParseError{File: path, Line: lineNum + 1, Err: err}
	}

	opts.Logger.Debug("parsed log", "path", path, "events", events,
		"skipped_types", skipped, "idle", idle)
	return nil
}

func eventInterval(ev moonwatchEvent, loc *time.Location) (interval, string, error) {
	start, err := parseEventTime(ev.Time, loc)
	if err != nil {
		return interval{}, "", err
	}
	if math.IsNaN(ev.Duration) || math.IsInf(ev.Duration, 0) {
		return interval{}, "", fmt.Errorf("bad duration %v", ev.Duration)
	}
	if ev.Duration < 0 {
		return interval{}, "", &usage.NegativeDurationError{Amount: ev.Duration, Unit: usage.Seconds}
	}
	entity := executableName(ev.ProcessPath)
	if entity == "" {
		return interval{}, "", fmt.Errorf("empty process_path")
	}
	return interval{start: start, end: start.Add(secondsToStd(ev.Duration))}, entity, nil
}

func parseEventTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range eventTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad timestamp %q", s)
}

// executableName is the last element of a Windows or Unix process path.
func executableName(p string) string {
	p = strings.TrimSpace(p)
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		p = p[i+1:]
	}
	return p
}

func secondsToStd(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
