package cmd

import (
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rosterCmd)
}

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Print the most recently stored roster snapshot.",
	Run: func(cmd *cobra.Command, args []string) {
		_, snapshots, config, err := loadService()
		if err != nil {
			log.Fatal(err)
		}

		latest, err := snapshots.Latest(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetTitle(
			"%s at %s",
			config.Tracker.ClanName,
			latest.Time.In(config.Tracker.Location()).Format("15:04 02.01.2006"),
		)
		t.AppendHeader(table.Row{"#", "Player", "Rating"})
		for _, m := range latest.Members {
			t.AppendRow(table.Row{m.Rank, m.Name, m.Rating})
		}
		t.AppendFooter(table.Row{"", "Total", latest.TotalRating})
		t.Render()
	},
}
