package schema

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultSchedulePrefix names yearly partitions "schedule-2024".
const DefaultSchedulePrefix = "schedule-"

// ScheduleNames derives partition names from broadcast times. Partitions
// are calendar-year buckets in UTC.
type ScheduleNames struct {
	Prefix string
}

// NewScheduleNames falls back to DefaultSchedulePrefix for an empty prefix.
func NewScheduleNames(prefix string) ScheduleNames {
	if prefix == "" {
		prefix = DefaultSchedulePrefix
	}
	return ScheduleNames{Prefix: prefix}
}

// For returns the partition holding t.
func (n ScheduleNames) For(t time.Time) string {
	return n.Prefix + strconv.Itoa(t.UTC().Year())
}

// PartitionsFor returns every partition the interval [start, end] touches,
// both ends inclusive, in ascending order. A zero or inverted end yields the
// partition of start alone.
func (n ScheduleNames) PartitionsFor(start, end time.Time) []string {
	if start.IsZero() {
		return nil
	}
	first := start.UTC().Year()
	last := first
	if !end.IsZero() && end.After(start) {
		last = end.UTC().Year()
	}
	out := make([]string, 0, last-first+1)
	for y := first; y <= last; y++ {
		out = append(out, n.Prefix+strconv.Itoa(y))
	}
	return out
}

// Year parses the year of a partition name.
func (n ScheduleNames) Year(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, n.Prefix)
	if !ok || len(rest) != 4 {
		return 0, false
	}
	y, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return y, true
}

// Filter keeps the partition names among names, sorted.
func (n ScheduleNames) Filter(names []string) []string {
	var out []string
	for _, name := range names {
		if _, ok := n.Year(name); ok {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
