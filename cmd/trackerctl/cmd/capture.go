package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(captureCmd)
}

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Fetch the clan page once and append a snapshot to history.",
	Run: func(cmd *cobra.Command, args []string) {
		service, _, _, err := loadService()
		if err != nil {
			log.Fatal(err)
		}

		snapshot, err := service.Capture(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf(
			"captured %d members, clan total %d, at %s\n",
			len(snapshot.Members),
			snapshot.TotalRating,
			snapshot.Time.Format("15:04:05 02.01.2006"),
		)
	},
}
