package clanrating

import (
	"slices"
	"strings"

	"clantracker-backend/services/clanrating/store"
)

type Delta struct {
	Name   string
	Before int
	After  int
	Change int
}

// RosterDiff is the derived comparison of two snapshots. it is recomputed
// on demand and never persisted.
type RosterDiff struct {
	// members present in both snapshots whose rating changed, ordered by
	// absolute change descending, then name ascending, truncated to the
	// report limit
	Changed []Delta
	// members only present in the current snapshot, reported in full
	Joined []store.Member
	// members only present in the reference snapshot, reported in full
	Left []store.Member
}

func byRatingThenName(a, b store.Member) int {
	if a.Rating != b.Rating {
		return b.Rating - a.Rating
	}
	return strings.Compare(a.Name, b.Name)
}

// Diff computes per-member rating changes between a reference snapshot and
// the current one. roster changes (joined/left) are always reported in full,
// only the ranked change list is subject to the limit. members whose rating
// did not move are omitted.
func Diff(reference, current store.Snapshot, limit int) RosterDiff {
	before := make(map[string]int, len(reference.Members))
	for _, m := range reference.Members {
		before[m.Name] = m.Rating
	}
	after := make(map[string]int, len(current.Members))
	for _, m := range current.Members {
		after[m.Name] = m.Rating
	}

	var diff RosterDiff
	for _, m := range current.Members {
		old, ok := before[m.Name]
		if !ok {
			diff.Joined = append(diff.Joined, m)
			continue
		}
		if m.Rating == old {
			continue
		}
		diff.Changed = append(diff.Changed, Delta{
			Name:   m.Name,
			Before: old,
			After:  m.Rating,
			Change: m.Rating - old,
		})
	}
	for _, m := range reference.Members {
		if _, ok := after[m.Name]; !ok {
			diff.Left = append(diff.Left, m)
		}
	}

	slices.SortFunc(diff.Changed, func(a, b Delta) int {
		am, bm := abs(a.Change), abs(b.Change)
		if am != bm {
			return bm - am
		}
		return strings.Compare(a.Name, b.Name)
	})
	if limit >= 0 && len(diff.Changed) > limit {
		diff.Changed = diff.Changed[:limit]
	}

	slices.SortFunc(diff.Joined, byRatingThenName)
	slices.SortFunc(diff.Left, byRatingThenName)

	return diff
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
