package parse

import (
	"sort"
	"time"

	"github.com/Zuo-Peng/miscreaders/pkg/usage"
)

type interval struct {
	start, end time.Time
}

// splitAtMidnight cuts iv into pieces that each fall within one calendar day
// of loc. An empty interval stays one empty piece, so its day still counts as
// observed.
func splitAtMidnight(iv interval, loc *time.Location) []interval {
	start := iv.start.In(loc)
	end := iv.end.In(loc)
	if !start.Before(end) {
		return []interval{{start, start}}
	}
	var out []interval
	for start.Before(end) {
		y, m, d := start.Date()
		next := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
		if !next.Before(end) {
			out = append(out, interval{start, end})
			break
		}
		out = append(out, interval{start, next})
		start = next
	}
	return out
}

// unionLength is the total length covered by ivs; overlapping spans count once.
func unionLength(ivs []interval) time.Duration {
	if len(ivs) == 0 {
		return 0
	}
	sorted := make([]interval, len(ivs))
	copy(sorted, ivs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start.Before(sorted[j].start) })

	var total time.Duration
	cur := sorted[0]
	for _, iv := range sorted[1:] {
		if iv.start.After(cur.end) {
			total += cur.end.Sub(cur.start)
			cur = iv
			continue
		}
		if iv.end.After(cur.end) {
			cur.end = iv.end
		}
	}
	return total + cur.end.Sub(cur.start)
}

// dayBuckets collects intervals per (date, entity, device).
type dayBuckets map[usage.Key][]interval

func (b dayBuckets) add(entity, device string, iv interval, loc *time.Location) {
	for _, piece := range splitAtMidnight(iv, loc) {
		k := usage.Key{Date: usage.DateOf(piece.start), Entity: entity, Device: device}
		b[k] = append(b[k], piece)
	}
}

// records emits one microsecond record per bucket in key order.
func (b dayBuckets) records() []usage.RawRecord {
	keys := make([]usage.Key, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, c := keys[i], keys[j]
		if n := a.Date.Compare(c.Date); n != 0 {
			return n < 0
		}
		if a.Entity != c.Entity {
			return a.Entity < c.Entity
		}
		return a.Device < c.Device
	})

	out := make([]usage.RawRecord, 0, len(keys))
	for _, k := range keys {
		total := usage.FromStd(unionLength(b[k]))
		out = append(out, usage.RawRecord{
			Date:   k.Date,
			Entity: k.Entity,
			Device: k.Device,
			Amount: float64(total),
			Unit:   usage.Microseconds,
		})
	}
	return out
}
