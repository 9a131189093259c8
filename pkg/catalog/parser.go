// Package catalog turns scraped Windows update-history announcements into a
// deduplicated patch catalog and picks the currently required patch per
// build line.
package catalog

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/mfatouaki/patchscope/internal/utils"
	"github.com/mfatouaki/patchscope/pkg/winver"
)

var (
	kbRe    = regexp.MustCompile(`KB\d+`)
	buildRe = regexp.MustCompile(`(\d+)\.(\d+)`)
)

const releaseDateLayout = "January 2, 2006"

// Parse normalizes announcement anchors into patch records, one per build
// token found in each fragment. Preview and out-of-band announcements are
// excluded; they never count towards compliance.
func Parse(links []RawLink) []PatchRecord {
	var records []PatchRecord
	for _, l := range links {
		if isPreview(l) || isOutOfBand(l) {
			continue
		}
		records = append(records, ParseFragment(anchorText(l.OuterHTML))...)
	}
	return records
}

// ParseFragment extracts zero or more patch records from one announcement
// fragment. A fragment with no build tokens yields no records.
func ParseFragment(text string) []PatchRecord {
	date, dateOK := parseReleaseDate(text)
	if !dateOK {
		utils.Log.Debugf("no release date in fragment: %q", text)
	}

	kbs := utils.DedupStrings(kbRe.FindAllString(text, -1))

	var records []PatchRecord
	for _, m := range buildRe.FindAllStringSubmatch(text, -1) {
		major, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		minor, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		records = append(records, PatchRecord{
			OperatingSystem: winver.OSName(major),
			Build:           m[1] + "." + m[2],
			MajorBuild:      major,
			MinorBuild:      minor,
			PatchIDs:        kbs,
			ReleaseDate:     date,
		})
	}
	return records
}

// PreviewBuilds lists the build tokens announced only as preview releases.
// Diagnostic output; these builds never enter the catalog.
func PreviewBuilds(links []RawLink) []string {
	return diagnosticBuilds(links, isPreview)
}

// OutOfBandBuilds lists the build tokens from out-of-band announcements.
func OutOfBandBuilds(links []RawLink) []string {
	return diagnosticBuilds(links, isOutOfBand)
}

func diagnosticBuilds(links []RawLink, match func(RawLink) bool) []string {
	var builds []string
	for _, l := range links {
		if !match(l) || isMobileOnly(l) {
			continue
		}
		for _, m := range buildRe.FindAllString(anchorText(l.OuterHTML), -1) {
			builds = append(builds, m)
		}
	}
	return utils.DedupStrings(builds)
}

func isPreview(l RawLink) bool {
	return strings.Contains(l.Title, "Preview")
}

func isOutOfBand(l RawLink) bool {
	return strings.Contains(strings.ToLower(l.Title), "out-of-band")
}

func isMobileOnly(l RawLink) bool {
	return strings.Contains(l.Title, "Mobile")
}

// parseReleaseDate pulls the date segment off the front of a fragment: the
// text before the first delimiter, minus any "(OS Build ...)" qualifier.
func parseReleaseDate(text string) (time.Time, bool) {
	s := text
	for _, delim := range []string{"—", "–", "-KB"} {
		if i := strings.Index(s, delim); i >= 0 {
			s = s[:i]
		}
	}
	if i := strings.Index(s, "(OS Build"); i >= 0 {
		s = s[:i]
	}
	// Self-referential dates like "...build" keep a dash; cut there.
	if strings.Contains(strings.ToLower(s), "build") {
		if i := strings.Index(s, "-"); i >= 0 {
			s = s[:i]
		}
	}
	d, err := time.Parse(releaseDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// anchorText flattens an HTML fragment to its visible text.
func anchorText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(b.String())
}
