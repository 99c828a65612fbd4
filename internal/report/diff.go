package report

import (
	"fmt"
	"sort"
	"strings"
)

// Diff is the outcome of comparing two export surfaces by fingerprint.
type Diff struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Changed []string `json:"changed,omitempty"`
}

// DiffFingerprints compares two name-to-fingerprint maps. All three result
// lists are sorted.
func DiffFingerprints(prev, cur map[string]string) Diff {
	var d Diff
	for name, fp := range cur {
		old, ok := prev[name]
		switch {
		case !ok:
			d.Added = append(d.Added, name)
		case old != fp:
			d.Changed = append(d.Changed, name)
		}
	}
	for name := range prev {
		if _, ok := cur[name]; !ok {
			d.Removed = append(d.Removed, name)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Changed)
	return d
}

// Breaking reports whether the diff removes or changes anything. Additions
// alone are compatible.
func (d Diff) Breaking() bool {
	return len(d.Removed) > 0 || len(d.Changed) > 0
}

// Empty reports whether the two surfaces were identical.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Text renders the diff one marker-prefixed name per line: + added,
// - removed, ~ changed.
func (d Diff) Text() string {
	if d.Empty() {
		return "no changes\n"
	}
	var sb strings.Builder
	for _, name := range d.Added {
		fmt.Fprintf(&sb, "+ %s\n", name)
	}
	for _, name := range d.Removed {
		fmt.Fprintf(&sb, "- %s\n", name)
	}
	for _, name := range d.Changed {
		fmt.Fprintf(&sb, "~ %s\n", name)
	}
	return sb.String()
}
