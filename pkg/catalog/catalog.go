package catalog

import "sort"

// Catalog is the deduplicated, sorted set of all known patch records plus
// the distinct major build lines they cover. Built once per run, read-only
// afterwards.
type Catalog struct {
	Records     []PatchRecord
	MajorBuilds []int // descending, newest line first
}

// Build deduplicates records on their full identity and sorts them newest
// line first. An empty input yields an empty catalog.
func Build(records []PatchRecord) Catalog {
	seen := make(map[string]bool, len(records))
	var deduped []PatchRecord
	for _, r := range records {
		id := r.identity()
		if seen[id] {
			continue
		}
		seen[id] = true
		deduped = append(deduped, r)
	}

	sort.Slice(deduped, func(i, j int) bool {
		a, b := deduped[i], deduped[j]
		if a.MajorBuild != b.MajorBuild {
			return a.MajorBuild > b.MajorBuild
		}
		if a.PatchKey() != b.PatchKey() {
			return a.PatchKey() > b.PatchKey()
		}
		return a.Build > b.Build
	})

	majorSet := make(map[int]bool)
	var majors []int
	for _, r := range deduped {
		if !majorSet[r.MajorBuild] {
			majorSet[r.MajorBuild] = true
			majors = append(majors, r.MajorBuild)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(majors)))

	return Catalog{Records: deduped, MajorBuilds: majors}
}

// FindByVersion looks up the record whose full OS version string matches
// exactly.
func (c Catalog) FindByVersion(osVersionFull string) (PatchRecord, bool) {
	for _, r := range c.Records {
		if r.OSVersionFull() == osVersionFull {
			return r, true
		}
	}
	return PatchRecord{}, false
}

// TracksBuild reports whether the catalog has any record for a major build.
func (c Catalog) TracksBuild(majorBuild int) bool {
	for _, m := range c.MajorBuilds {
		if m == majorBuild {
			return true
		}
	}
	return false
}

func (c Catalog) line(majorBuild int) []PatchRecord {
	var out []PatchRecord
	for _, r := range c.Records {
		if r.MajorBuild == majorBuild {
			out = append(out, r)
		}
	}
	return out
}
