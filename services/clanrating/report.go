package clanrating

import (
	"fmt"
	"strings"
	"time"

	"clantracker-backend/services/clanrating/store"

	"github.com/jedib0t/go-pretty/v6/table"
)

const reportTimeLayout = "15:04 02.01.2006"

// the rating of the 20th member is the cutoff for the clan's top-20,
// worth surfacing on every report
const topCutoffRank = 20

// FormatReport renders a diff between two snapshots as the text report
// handed to notification sinks. the header summarizes the clan-wide total,
// the table lists per-member changes, roster changes follow in full.
func FormatReport(reference, current store.Snapshot, diff RosterDiff, loc *time.Location) string {
	var b strings.Builder

	fmt.Fprintf(
		&b, "Since %s the clan gained %+d points.\n",
		reference.Time.In(loc).Format(reportTimeLayout),
		current.TotalRating-reference.TotalRating,
	)
	fmt.Fprintf(&b, "Clan total is now %d points.\n", current.TotalRating)
	if len(current.Members) >= topCutoffRank {
		fmt.Fprintf(&b, "Top-%d cutoff is %d.\n", topCutoffRank, current.Members[topCutoffRank-1].Rating)
	}

	if len(diff.Changed) == 0 && len(diff.Joined) == 0 && len(diff.Left) == 0 {
		b.WriteString("No changes in member ratings.\n")
		return b.String()
	}

	if len(diff.Changed) > 0 {
		t := table.NewWriter()
		t.AppendHeader(table.Row{"Player", "Rating", "Change"})
		for _, d := range diff.Changed {
			t.AppendRow(table.Row{d.Name, d.After, fmt.Sprintf("%+d", d.Change)})
		}
		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	for _, m := range diff.Joined {
		fmt.Fprintf(&b, "Joined: %s (%d)\n", m.Name, m.Rating)
	}
	for _, m := range diff.Left {
		fmt.Fprintf(&b, "Left: %s (%d)\n", m.Name, m.Rating)
	}

	return b.String()
}

// FormatNoReference is the informational message for the expected
// first-run condition where nothing exists to compare against.
func FormatNoReference(current store.Snapshot) string {
	return fmt.Sprintf(
		"No earlier snapshot to compare against. Saved %d members with a clan total of %d points.",
		len(current.Members), current.TotalRating,
	)
}
