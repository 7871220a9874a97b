// Package dedupe finds repeated citation keys and entries that describe the
// same work under different keys.
package dedupe

import (
	"fmt"
	"sort"
	"strings"
)

// Surnamer extracts the surnames from an author field.
type Surnamer interface {
	LastNames(field string) ([]string, error)
}

// Report lists what Find detected. Groups hold entry indices in input order.
type Report struct {
	DuplicateKeys []string
	Groups        [][]int
}

// Empty reports whether nothing was found.
func (r Report) Empty() bool {
	return len(r.DuplicateKeys) == 0 && len(r.Groups) == 0
}

// Describe renders the groups with their keys, e.g. "[Smit20 Smith2020]".
func (r Report) Describe(ids []string) []string {
	out := make([]string, 0, len(r.Groups))
	for _, g := range r.Groups {
		keys := make([]string, len(g))
		for i, idx := range g {
			keys[i] = ids[idx]
		}
		out = append(out, fmt.Sprintf("%v", keys))
	}
	return out
}

// Find reports keys used by more than one entry, and groups of entries that
// share both an identical title and the same set of author surnames. The
// three slices are parallel. Titles are compared byte for byte, so two
// untitled entries by the same authors form a group.
//
// Surname order does not matter. When an author field cannot be parsed its
// trimmed text stands in for the surname set.
func Find(ids, authors, titles []string, names Surnamer) Report {
	var r Report

	counts := make(map[string]int, len(ids))
	for _, id := range ids {
		counts[id]++
	}
	for id, n := range counts {
		if n > 1 {
			r.DuplicateKeys = append(r.DuplicateKeys, id)
		}
	}
	sort.Strings(r.DuplicateKeys)

	for _, titleGroup := range indexGroups(titles, func(i int) (string, bool) {
		return titles[i], true
	}) {
		sub := indexGroups(titleGroup, func(i int) (string, bool) {
			return surnameKey(authors[titleGroup[i]], names), true
		})
		for _, g := range sub {
			mapped := make([]int, len(g))
			for i, j := range g {
				mapped[i] = titleGroup[j]
			}
			r.Groups = append(r.Groups, mapped)
		}
	}
	return r
}

// indexGroups returns, for each key shared by two or more of the n items,
// the positions of those items. Groups are ordered by first appearance.
func indexGroups[T any](items []T, key func(i int) (string, bool)) [][]int {
	var order []string
	positions := make(map[string][]int)
	for i := range items {
		k, ok := key(i)
		if !ok {
			continue
		}
		if _, seen := positions[k]; !seen {
			order = append(order, k)
		}
		positions[k] = append(positions[k], i)
	}

	var groups [][]int
	for _, k := range order {
		if len(positions[k]) > 1 {
			groups = append(groups, positions[k])
		}
	}
	return groups
}

func surnameKey(field string, names Surnamer) string {
	last, err := names.LastNames(field)
	if err != nil {
		return strings.TrimSpace(field)
	}
	sorted := append([]string(nil), last...)
	sort.Strings(sorted)
	return strings.Join(sorted, " and ")
}
