package clanrating

import (
	"testing"
	"time"

	"clantracker-backend/services/clanrating/store"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func snapshot(at time.Time, members map[string]int) store.Snapshot {
	s := store.Snapshot{Time: at}
	for name, rating := range members {
		s.Members = append(s.Members, store.Member{Name: name, Rating: rating})
		s.TotalRating += rating
	}
	return s
}

func TestDiffScenario(t *testing.T) {
	at := time.Date(2024, 6, 1, 17, 0, 0, 0, time.UTC)
	reference := snapshot(at, map[string]int{"A": 100, "B": 200})
	current := snapshot(at.Add(time.Hour), map[string]int{"A": 120, "B": 190, "C": 50})

	diff := Diff(reference, current, 10)

	expected := []Delta{
		{Name: "A", Before: 100, After: 120, Change: 20},
		{Name: "B", Before: 200, After: 190, Change: -10},
	}
	if got := cmp.Diff(expected, diff.Changed); got != "" {
		t.Fatalf("ranked deltas mismatch (-want +got):\n%s", got)
	}
	require.Equal(t, []store.Member{{Name: "C", Rating: 50}}, diff.Joined)
	require.Empty(t, diff.Left)
}

func TestDiffSelf(t *testing.T) {
	at := time.Date(2024, 6, 1, 17, 0, 0, 0, time.UTC)
	s := snapshot(at, map[string]int{"A": 100, "B": 200, "C": 300})

	diff := Diff(s, s, 10)
	require.Empty(t, diff.Changed)
	require.Empty(t, diff.Joined)
	require.Empty(t, diff.Left)
}

func TestDiffLimit(t *testing.T) {
	at := time.Date(2024, 6, 1, 17, 0, 0, 0, time.UTC)
	reference := snapshot(at, map[string]int{"A": 0, "B": 0, "C": 0, "D": 0, "gone": 10})
	current := snapshot(at.Add(time.Hour), map[string]int{"A": 5, "B": 50, "C": 500, "D": 1, "new": 7})

	diff := Diff(reference, current, 2)

	// ranked by |change| descending, truncated to the limit
	require.Equal(t, []Delta{
		{Name: "C", Before: 0, After: 500, Change: 500},
		{Name: "B", Before: 0, After: 50, Change: 50},
	}, diff.Changed)

	// roster changes are never truncated
	require.Equal(t, []store.Member{{Name: "new", Rating: 7}}, diff.Joined)
	require.Equal(t, []store.Member{{Name: "gone", Rating: 10}}, diff.Left)
}

func TestDiffTieBreak(t *testing.T) {
	at := time.Date(2024, 6, 1, 17, 0, 0, 0, time.UTC)
	reference := snapshot(at, map[string]int{"zeta": 100, "alpha": 100, "mid": 100})
	current := snapshot(at.Add(time.Hour), map[string]int{"zeta": 110, "alpha": 90, "mid": 100})

	diff := Diff(reference, current, 10)

	// equal magnitude resolves by name ascending, deterministically
	require.Equal(t, []Delta{
		{Name: "alpha", Before: 100, After: 90, Change: -10},
		{Name: "zeta", Before: 100, After: 110, Change: 10},
	}, diff.Changed)
}
