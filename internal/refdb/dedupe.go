package refdb

import (
	"fmt"
	"slices"
	"strings"
)

// DedupeVersion is the document version written by Dedupe.
const DedupeVersion = "6.0"

// DuplicateGroup names a merged group and how many entries it held.
type DuplicateGroup struct {
	Name  string
	Count int
}

// DedupeReport summarizes a Dedupe run.
type DedupeReport struct {
	Input      int
	Output     int
	Unnamed    int
	Duplicates []DuplicateGroup
}

// DuplicateEntries is the number of input entries that belonged to a
// duplicate group.
func (r DedupeReport) DuplicateEntries() int {
	n := 0
	for _, g := range r.Duplicates {
		n += g.Count
	}
	return n
}

// Dedupe merges entries sharing a normalized nameField, adds the imageUrl and
// localIconName fields when absent, and sorts the result by normalized name.
// Entries without a name are dropped and counted in the report. doc is not
// modified.
func Dedupe(doc *Document, nameField string) (*Document, DedupeReport) {
	report := DedupeReport{Input: len(doc.Minerals)}

	groups := make(map[string][]Entry)
	var keys []string
	for _, e := range doc.Minerals {
		name := e.Name(nameField)
		if name == "" {
			report.Unnamed++
			continue
		}
		key := NormalizeName(name)
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], e)
	}

	out := make([]Entry, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		if len(g) > 1 {
			report.Duplicates = append(report.Duplicates, DuplicateGroup{Name: g[0].Name(nameField), Count: len(g)})
		}
		merged := Merge(g)
		for _, f := range []string{"imageUrl", "localIconName"} {
			if _, ok := merged[f]; !ok {
				merged[f] = nil
			}
		}
		out = append(out, merged)
	}

	sortByName(out, nameField)
	slices.SortFunc(report.Duplicates, func(a, b DuplicateGroup) int {
		return strings.Compare(NormalizeName(a.Name), NormalizeName(b.Name))
	})
	report.Output = len(out)

	return &Document{
		Version:       DedupeVersion,
		Source:        "MineraLog - Deduplicated reference library with image support",
		TotalMinerals: len(out),
		CreatedDate:   doc.CreatedDate,
		Changelog: []string{
			fmt.Sprintf("Removed duplicates (%d duplicate groups merged)", len(report.Duplicates)),
			"Added imageUrl field for cloud/web-hosted images",
			"Added localIconName field for bundled drawable icons",
			fmt.Sprintf("Sorted alphabetically by %s", nameField),
			"Merged entries with conflict resolution (most complete data kept)",
		},
		Minerals: out,
		Fields:   appendFields(doc.Fields, "imageUrl", "localIconName"),
	}, report
}

func sortByName(entries []Entry, nameField string) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return strings.Compare(NormalizeName(a.Name(nameField)), NormalizeName(b.Name(nameField)))
	})
}
