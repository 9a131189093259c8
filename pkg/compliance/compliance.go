// Package compliance joins managed devices against the patch catalog and the
// selected latest patches to produce per-device verdicts.
package compliance

import (
	"math"
	"strconv"
	"time"

	"github.com/mfatouaki/patchscope/pkg/catalog"
	"github.com/mfatouaki/patchscope/pkg/winver"
)

// Status is the per-device classification.
type Status string

const (
	StatusCompliant    Status = "Compliant"
	StatusNonCompliant Status = "NonCompliant"
	StatusManualCheck  Status = "ManualCheck"
)

// Sentinel field values. Missing or malformed per-device data degrades to
// these; it never aborts the batch.
const (
	SentinelCompliant   = "Compliant"
	SentinelManualCheck = "ManuallyCheck"
	SentinelBNE         = "BNE" // build not enumerated in the catalog
	SentinelUnknown     = "Unknown"
)

// Device is one managed device as returned by the device-management API.
type Device struct {
	ID                string
	DeviceName        string
	UserPrincipalName string
	OperatingSystem   string
	Model             string
	JoinType          string
	OSVersion         string // "major.minor.build.revision", may be empty
	TotalStorageBytes int64
	FreeStorageBytes  int64
	LastSync          time.Time
}

// Verdict is the compliance outcome for one device.
type Verdict struct {
	Device               Device
	OSVersionLabel       string
	InstalledPatchIDs    string
	InstalledReleaseDate string
	Status               Status
	DaysUnpatched        string
	RequiredPatchIDs     string
}

// Summary holds the run-level counters.
type Summary struct {
	Total        int
	Compliant    int
	NonCompliant int
	ManualCheck  int
}

// CompliantPercent is the compliant share of the fleet, rounded to two
// decimals. Zero devices means zero percent.
func (s Summary) CompliantPercent() float64 {
	if s.Total == 0 {
		return 0
	}
	return math.Round(float64(s.Compliant)/float64(s.Total)*100*100) / 100
}

// Evaluate produces one verdict per device, in input order, plus the
// aggregate counters. Empty inputs yield an empty report with zero counts.
func Evaluate(devices []Device, cat catalog.Catalog, latest catalog.LatestPatchSet, now time.Time) ([]Verdict, Summary) {
	verdicts := make([]Verdict, 0, len(devices))
	var sum Summary
	for _, d := range devices {
		v := evaluateDevice(d, cat, latest, now)
		verdicts = append(verdicts, v)
		sum.Total++
		switch {
		case v.Status == StatusCompliant:
			sum.Compliant++
		case v.RequiredPatchIDs == SentinelManualCheck:
			sum.ManualCheck++
		default:
			sum.NonCompliant++
		}
	}
	return verdicts, sum
}

func evaluateDevice(d Device, cat catalog.Catalog, latest catalog.LatestPatchSet, now time.Time) Verdict {
	ver, parsed := winver.Parse(d.OSVersion)

	v := Verdict{
		Device:               d,
		InstalledPatchIDs:    SentinelUnknown,
		InstalledReleaseDate: SentinelUnknown,
	}
	if parsed {
		v.OSVersionLabel = winver.Label(ver, d.OSVersion)
	} else {
		v.OSVersionLabel = labelForUnparsed(d.OSVersion)
	}

	installed, haveInstalled := cat.FindByVersion(d.OSVersion)
	if haveInstalled {
		v.InstalledPatchIDs = installed.PatchKey()
		v.InstalledReleaseDate = installed.ReleaseDate.Format("2006-01-02")
	}

	// No build segment to reason about: needs eyes on it.
	if !parsed || ver.Build == 0 {
		v.Status = StatusManualCheck
		v.DaysUnpatched = SentinelManualCheck
		v.RequiredPatchIDs = SentinelManualCheck
		return v
	}

	sel, haveLatest := latest[ver.Build]
	switch {
	case haveLatest:
		// Raw string compare on the full version strings.
		// TODO: switch to a numeric revision compare; a 3-digit revision
		// sorts above a numerically larger 4-digit one here.
		if d.OSVersion >= sel.OSVersionFull {
			v.Status = StatusCompliant
			v.DaysUnpatched = SentinelCompliant
			v.RequiredPatchIDs = SentinelCompliant
			return v
		}
		v.Status = StatusNonCompliant
		v.RequiredPatchIDs = sel.PatchKey()
		if haveInstalled {
			v.DaysUnpatched = strconv.Itoa(wholeDays(installed.ReleaseDate, now))
		} else {
			v.DaysUnpatched = SentinelUnknown
		}
	case cat.TracksBuild(ver.Build):
		// Tracked line with nothing selected (possible under an explicit
		// target month): no basis for a verdict.
		v.Status = StatusManualCheck
		v.DaysUnpatched = SentinelManualCheck
		v.RequiredPatchIDs = SentinelManualCheck
	default:
		v.Status = StatusNonCompliant
		v.DaysUnpatched = SentinelUnknown
		v.RequiredPatchIDs = SentinelBNE
	}
	return v
}

func labelForUnparsed(raw string) string {
	if raw == "" {
		return "No OS version"
	}
	return SentinelUnknown
}

func wholeDays(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
