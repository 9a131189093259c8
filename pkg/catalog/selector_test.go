package catalog

import (
	"reflect"
	"testing"
	"time"
)

func TestSelectDeterminism(t *testing.T) {
	cat := Build([]PatchRecord{
		rec("19045.5371", 19045, 5371, "KB100", date(2024, time.November, 12)),
		rec("19045.5440", 19045, 5440, "KB150", date(2024, time.December, 10)),
		rec("22631.4460", 22631, 4460, "KB200", date(2024, time.November, 12)),
	})
	policy := Policy{FreshnessThresholdDays: 20}
	now := date(2024, time.December, 15)

	first := Select(cat, policy, now)
	second := Select(cat, policy, now)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("selection not reproducible:\n%v\n%v", first, second)
	}
}

func TestSelectExplicitTargetMonthWins(t *testing.T) {
	// The catalog is stale relative to now, so the freshness fallback would
	// pick the December record. The explicit month must win anyway.
	cat := Build([]PatchRecord{
		rec("19045.5371", 19045, 5371, "KB100", date(2024, time.October, 8)),
		rec("19045.5440", 19045, 5440, "KB150", date(2024, time.December, 10)),
	})
	m := Month{Year: 2024, Month: time.October}
	latest := Select(cat, Policy{TargetMonth: &m, FreshnessThresholdDays: 0}, date(2025, time.June, 1))

	sel, ok := latest[19045]
	if !ok {
		t.Fatal("expected a selection for 19045")
	}
	if sel.PatchKey() != "KB100" {
		t.Fatalf("expected the October record, got %q", sel.PatchKey())
	}
}

func TestSelectExplicitMonthTieBreak(t *testing.T) {
	cat := Build([]PatchRecord{
		rec("19045.5371", 19045, 5371, "KB100", date(2024, time.November, 12)),
		rec("19045.5372", 19045, 5372, "KB105", date(2024, time.November, 12)),
	})
	m := Month{Year: 2024, Month: time.November}
	latest := Select(cat, Policy{TargetMonth: &m}, date(2024, time.December, 1))

	if latest[19045].PatchKey() != "KB105" {
		t.Fatalf("expected greatest patch key to win, got %q", latest[19045].PatchKey())
	}
}

func TestSelectExplicitMonthLeavesLinesUnselected(t *testing.T) {
	cat := Build([]PatchRecord{
		rec("19045.5371", 19045, 5371, "KB100", date(2024, time.November, 12)),
		rec("22631.4460", 22631, 4460, "KB200", date(2024, time.October, 8)),
	})
	m := Month{Year: 2024, Month: time.November}
	latest := Select(cat, Policy{TargetMonth: &m}, date(2024, time.December, 1))

	if _, ok := latest[22631]; ok {
		t.Fatal("22631 has no November record and must stay unselected")
	}
	if _, ok := latest[19045]; !ok {
		t.Fatal("expected 19045 to be selected")
	}
}

func TestSelectStaleCatalogTakesMostRecent(t *testing.T) {
	// Threshold zero means always stale: every line takes its newest record,
	// month filtering never runs.
	cat := Build([]PatchRecord{
		rec("19045.5371", 19045, 5371, "KB100", date(2024, time.August, 13)),
		rec("19045.5440", 19045, 5440, "KB150", date(2024, time.September, 10)),
		rec("22631.4460", 22631, 4460, "KB200", date(2024, time.July, 9)),
	})
	latest := Select(cat, Policy{FreshnessThresholdDays: 0}, date(2024, time.December, 15))

	if latest[19045].PatchKey() != "KB150" {
		t.Fatalf("expected KB150 for 19045, got %q", latest[19045].PatchKey())
	}
	if latest[22631].PatchKey() != "KB200" {
		t.Fatalf("expected KB200 for 22631, got %q", latest[22631].PatchKey())
	}
}

func TestSelectRollingMonthWithBackfill(t *testing.T) {
	// Fresh catalog, no explicit month. Build 100 only released in the
	// current month, build 200 only in the previous month.
	now := date(2024, time.December, 10)
	cat := Build([]PatchRecord{
		rec("100.10", 100, 10, "KB900", date(2024, time.December, 9)),
		rec("200.20", 200, 20, "KB800", date(2024, time.November, 12)),
	})
	latest := Select(cat, Policy{FreshnessThresholdDays: 30}, now)

	// 200 comes out of the previous-month pass.
	if latest[200].PatchKey() != "KB800" {
		t.Fatalf("expected KB800 for 200, got %q", latest[200].PatchKey())
	}
	// 100 has no November or pre-December record, so backfill falls through
	// to its current-month record.
	if latest[100].PatchKey() != "KB900" {
		t.Fatalf("expected KB900 for 100, got %q", latest[100].PatchKey())
	}
}

func TestSelectBackfillPrefersSettledRecord(t *testing.T) {
	// A line that skipped the previous month takes its most recent record
	// outside the current month, not the same-month one.
	now := date(2024, time.December, 10)
	cat := Build([]PatchRecord{
		rec("100.10", 100, 10, "KB900", date(2024, time.December, 9)),
		rec("100.9", 100, 9, "KB850", date(2024, time.October, 8)),
		rec("200.20", 200, 20, "KB800", date(2024, time.November, 12)),
	})
	latest := Select(cat, Policy{FreshnessThresholdDays: 30}, now)

	if latest[100].PatchKey() != "KB850" {
		t.Fatalf("expected the October record for 100, got %q", latest[100].PatchKey())
	}
}

func TestSelectUnknownLineStillEligible(t *testing.T) {
	r := rec("12345.10", 12345, 10, "KB700", date(2024, time.November, 12))
	r.OperatingSystem = "Unknown"
	latest := Select(Build([]PatchRecord{r}), Policy{FreshnessThresholdDays: 0}, date(2024, time.December, 15))

	sel, ok := latest[12345]
	if !ok {
		t.Fatal("unknown-name build lines must still be selectable")
	}
	if sel.OSVersionFull != "10.0.12345.10" {
		t.Fatalf("unexpected full version: %q", sel.OSVersionFull)
	}
}

func TestSelectEmptyCatalog(t *testing.T) {
	latest := Select(Build(nil), Policy{FreshnessThresholdDays: 10}, date(2024, time.December, 1))
	if len(latest) != 0 {
		t.Fatalf("expected empty set, got %v", latest)
	}
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-11")
	if err != nil {
		t.Fatal(err)
	}
	if m.Year != 2024 || m.Month != time.November {
		t.Fatalf("unexpected month: %+v", m)
	}
	if m.Previous() != (Month{Year: 2024, Month: time.October}) {
		t.Fatalf("unexpected previous month: %+v", m.Previous())
	}
	if (Month{Year: 2025, Month: time.January}).Previous() != (Month{Year: 2024, Month: time.December}) {
		t.Fatal("year rollover broken")
	}
	if _, err := ParseMonth("late 2024"); err == nil {
		t.Fatal("expected parse error")
	}
}
