package catalog

import (
	"strings"
	"time"
)

// RawLink is one scraped announcement anchor from an update-history page.
type RawLink struct {
	Title     string
	Href      string
	OuterHTML string
}

// PatchRecord is one release of one build line.
type PatchRecord struct {
	OperatingSystem string
	Build           string // "major.minor"
	MajorBuild      int
	MinorBuild      int
	PatchIDs        []string
	ReleaseDate     time.Time
}

// PatchKey joins the KB ids into the record's comparable patch identity.
func (r PatchRecord) PatchKey() string {
	return strings.Join(r.PatchIDs, ", ")
}

// OSVersionFull is the version string devices report for this record.
func (r PatchRecord) OSVersionFull() string {
	return "10.0." + r.Build
}

func (r PatchRecord) identity() string {
	return r.OperatingSystem + "|" + r.Build + "|" + r.PatchKey() + "|" + r.ReleaseDate.Format("2006-01-02")
}
