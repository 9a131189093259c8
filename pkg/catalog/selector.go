package catalog

import (
	"fmt"
	"time"
)

// Month is a calendar month selection window.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// Previous returns the calendar month before m.
func (m Month) Previous() Month {
	if m.Month == time.January {
		return Month{Year: m.Year - 1, Month: time.December}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// Contains reports whether t falls inside m.
func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// ParseMonth parses a "YYYY-MM" month string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q (want YYYY-MM): %w", s, err)
	}
	return MonthOf(t), nil
}

// Policy controls which records the selector treats as currently required.
type Policy struct {
	// TargetMonth, when set, pins selection to that month and disables the
	// freshness fallbacks.
	TargetMonth *Month
	// FreshnessThresholdDays is how old the newest catalog record may be
	// before the whole catalog counts as stale. Zero means always stale.
	FreshnessThresholdDays int
}

// SelectedPatch is a catalog record chosen as currently required, extended
// with the full version string devices report when they carry it.
type SelectedPatch struct {
	PatchRecord
	OSVersionFull string
}

// LatestPatchSet maps a major build line to its selected patch, if any.
type LatestPatchSet map[int]SelectedPatch

// Select picks at most one currently-required record per major build line.
//
// With an explicit target month, only records released in that month are
// eligible. Otherwise, a catalog whose newest record is older than the
// freshness threshold takes each line's most recent record outright; a fresh
// catalog is filtered to the previous calendar month, and lines that skipped
// that month are backfilled with their most recent record outside the
// current month (or their most recent record at all when the line only has
// current-month releases).
func Select(c Catalog, p Policy, now time.Time) LatestPatchSet {
	out := make(LatestPatchSet, len(c.MajorBuilds))

	if p.TargetMonth != nil {
		selectMonth(c, *p.TargetMonth, out)
		return out
	}

	newest, ok := newestRecord(c)
	if !ok {
		return out
	}
	if daysSince(newest.ReleaseDate, now) > p.FreshnessThresholdDays {
		for _, major := range c.MajorBuilds {
			if r, ok := mostRecent(c.line(major), nil); ok {
				out[major] = selected(r)
			}
		}
		return out
	}

	selectMonth(c, MonthOf(now).Previous(), out)

	current := MonthOf(now)
	for _, major := range c.MajorBuilds {
		if _, done := out[major]; done {
			continue
		}
		line := c.line(major)
		if r, ok := mostRecent(line, &current); ok {
			out[major] = selected(r)
		} else if r, ok := mostRecent(line, nil); ok {
			out[major] = selected(r)
		}
	}
	return out
}

// selectMonth fills out with each line's record from the given month,
// breaking ties towards the greatest patch key (newest cumulative). Lines
// with no record in the month stay unselected.
func selectMonth(c Catalog, m Month, out LatestPatchSet) {
	for _, major := range c.MajorBuilds {
		var best PatchRecord
		found := false
		for _, r := range c.line(major) {
			if !m.Contains(r.ReleaseDate) {
				continue
			}
			if !found || r.PatchKey() > best.PatchKey() {
				best = r
				found = true
			}
		}
		if found {
			out[major] = selected(best)
		}
	}
}

// mostRecent returns the record with the latest release date, skipping
// records inside the excluded month when one is given. Date ties go to the
// greatest patch key.
func mostRecent(line []PatchRecord, exclude *Month) (PatchRecord, bool) {
	var best PatchRecord
	found := false
	for _, r := range line {
		if exclude != nil && exclude.Contains(r.ReleaseDate) {
			continue
		}
		if !found || r.ReleaseDate.After(best.ReleaseDate) ||
			(r.ReleaseDate.Equal(best.ReleaseDate) && r.PatchKey() > best.PatchKey()) {
			best = r
			found = true
		}
	}
	return best, found
}

func newestRecord(c Catalog) (PatchRecord, bool) {
	return mostRecent(c.Records, nil)
}

func selected(r PatchRecord) SelectedPatch {
	return SelectedPatch{PatchRecord: r, OSVersionFull: r.OSVersionFull()}
}

func daysSince(d, now time.Time) int {
	return int(now.Sub(d).Hours() / 24)
}
