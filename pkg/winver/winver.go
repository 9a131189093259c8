// Package winver maps Windows build numbers to release names and parses
// the four-part OS version strings reported by managed devices.
package winver

import (
	"strconv"
	"strings"
)

// BuildInfo ties a major build number to the marketing name of its release line.
type BuildInfo struct {
	MajorBuild int
	Name       string
}

// Registry lists every tracked client release line, newest first.
var Registry = []BuildInfo{
	{26100, "Windows 11 24H2"},
	{22631, "Windows 11 23H2"},
	{22621, "Windows 11 22H2"},
	{22000, "Windows 11 21H2"},
	{19045, "Windows 10 22H2"},
	{19044, "Windows 10 21H2"},
	{19043, "Windows 10 21H1"},
	{19042, "Windows 10 20H2"},
	{19041, "Windows 10 2004"},
	{18363, "Windows 10 1909"},
	{18362, "Windows 10 1903"},
	{17763, "Windows 10 1809"},
	{17134, "Windows 10 1803"},
	{16299, "Windows 10 1709"},
	{15063, "Windows 10 1703"},
	{14393, "Windows 10 1607"},
	{10586, "Windows 10 1511"},
	{10240, "Windows 10 1507"},
}

// labels is the short-form table used on report rows.
var labels = map[int]string{
	26100: "Win11-24H2",
	22631: "Win11-23H2",
	22621: "Win11-22H2",
	22000: "Win11-21H2",
	19045: "Win10-22H2",
	19044: "Win10-21H2",
	19043: "Win10-21H1",
	19042: "Win10-20H2",
	19041: "Win10-2004",
	18363: "Win10-1909",
	18362: "Win10-1903",
	17763: "Win10-1809",
	17134: "Win10-1803",
	16299: "Win10-1709",
	15063: "Win10-1703",
	14393: "Win10-1607",
	10586: "Win10-1511",
	10240: "Win10-1507",
}

// OSName resolves a major build to its release-line name, scanning newest to
// oldest and stopping at the first exact match. Unknown builds stay "Unknown".
func OSName(majorBuild int) string {
	for _, b := range Registry {
		if b.MajorBuild == majorBuild {
			return b.Name
		}
	}
	return "Unknown"
}

// Label returns the short report label for a device version. An empty or
// zero-build version means the device never reported one.
func Label(v Version, raw string) string {
	if raw == "" || v.Build == 0 {
		return "No OS version"
	}
	if l, ok := labels[v.Build]; ok {
		return l
	}
	return raw
}

// Version is a parsed "major.minor.build.revision" OS version.
type Version struct {
	Major    int
	Minor    int
	Build    int
	Revision int
}

// Parse splits a four-part version string. It reports ok=false when the
// string does not carry a numeric build segment in third position.
func Parse(raw string) (Version, bool) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) < 3 {
		return Version{}, false
	}
	var v Version
	var err error
	if v.Major, err = strconv.Atoi(parts[0]); err != nil {
		return Version{}, false
	}
	if v.Minor, err = strconv.Atoi(parts[1]); err != nil {
		return Version{}, false
	}
	if v.Build, err = strconv.Atoi(parts[2]); err != nil {
		return Version{}, false
	}
	if len(parts) > 3 {
		if v.Revision, err = strconv.Atoi(parts[3]); err != nil {
			return Version{}, false
		}
	}
	return v, true
}
