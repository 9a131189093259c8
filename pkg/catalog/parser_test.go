package catalog

import (
	"testing"
	"time"
)

func link(title string) RawLink {
	return RawLink{Title: title, Href: "https://support.microsoft.com/x", OuterHTML: `<a href="/x">` + title + `</a>`}
}

func TestParseFragmentMultipleBuilds(t *testing.T) {
	records := ParseFragment("January 14, 2025—KB5049981 (OS Builds 19044.5371 and 19045.5371)")
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %v", len(records), records)
	}

	want := time.Date(2025, time.January, 14, 0, 0, 0, 0, time.UTC)
	for _, r := range records {
		if !r.ReleaseDate.Equal(want) {
			t.Fatalf("expected release date %v, got %v", want, r.ReleaseDate)
		}
		if r.PatchKey() != "KB5049981" {
			t.Fatalf("expected KB5049981, got %q", r.PatchKey())
		}
	}
	if records[0].Build != "19044.5371" || records[1].Build != "19045.5371" {
		t.Fatalf("unexpected builds: %q %q", records[0].Build, records[1].Build)
	}
	if records[1].MajorBuild != 19045 || records[1].MinorBuild != 5371 {
		t.Fatalf("unexpected major/minor: %d.%d", records[1].MajorBuild, records[1].MinorBuild)
	}
	if records[1].OperatingSystem != "Windows 10 22H2" {
		t.Fatalf("unexpected OS name: %q", records[1].OperatingSystem)
	}
}

func TestParseFragmentMultipleKBs(t *testing.T) {
	records := ParseFragment("November 12, 2024—KB5046613 and KB5046617 (OS Build 22631.4460)")
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].PatchKey() != "KB5046613, KB5046617" {
		t.Fatalf("expected both KBs retained, got %q", records[0].PatchKey())
	}
}

func TestParseFragmentNoBuildTokens(t *testing.T) {
	records := ParseFragment("December 10, 2024—KB5048652")
	if len(records) != 0 {
		t.Fatalf("expected no records without build tokens, got %v", records)
	}
}

func TestParseFragmentUnknownBuildLine(t *testing.T) {
	records := ParseFragment("March 11, 2025—KB5000001 (OS Build 12345.100)")
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].OperatingSystem != "Unknown" {
		t.Fatalf("expected Unknown OS, got %q", records[0].OperatingSystem)
	}
}

func TestParseSkipsPreviewAndOutOfBand(t *testing.T) {
	links := []RawLink{
		link("January 14, 2025—KB5049981 (OS Build 19045.5371)"),
		link("January 28, 2025—KB5050081 (OS Build 19045.5440) Preview"),
		link("January 31, 2025—KB5053598 (OS Build 19045.5555) out-of-band"),
	}
	records := Parse(links)
	if len(records) != 1 {
		t.Fatalf("expected only the regular release, got %d records", len(records))
	}
	if records[0].PatchKey() != "KB5049981" {
		t.Fatalf("unexpected record: %+v", records[0])
	}
}

func TestDiagnosticBuilds(t *testing.T) {
	links := []RawLink{
		link("January 14, 2025—KB5049981 (OS Build 19045.5371)"),
		link("January 28, 2025—KB5050081 (OS Build 19045.5440) Preview"),
		link("January 28, 2025—KB5050999 (OS Build 15254.5440) Preview for Windows 10 Mobile"),
		link("January 31, 2025—KB5053598 (OS Build 19045.5555) out-of-band"),
	}

	previews := PreviewBuilds(links)
	if len(previews) != 1 || previews[0] != "19045.5440" {
		t.Fatalf("unexpected preview builds: %v", previews)
	}

	oob := OutOfBandBuilds(links)
	if len(oob) != 1 || oob[0] != "19045.5555" {
		t.Fatalf("unexpected out-of-band builds: %v", oob)
	}
}

func TestParseFragmentSelfReferentialDate(t *testing.T) {
	// Titles without a proper date segment must not poison the record set.
	records := ParseFragment("Servicing stack update build - KB4601390 (OS Build 19042.844)")
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if !records[0].ReleaseDate.IsZero() {
		t.Fatalf("expected zero release date, got %v", records[0].ReleaseDate)
	}
}
