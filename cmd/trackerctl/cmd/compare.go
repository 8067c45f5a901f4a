package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
)

var compareDate string
var compareTime string

func init() {
	compareCmd.Flags().StringVar(&compareDate, "date", "", "date to compare against, DD.MM.YYYY")
	compareCmd.Flags().StringVar(&compareTime, "time", "02:00", "time to compare against, HH:MM")
	compareCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(compareCmd)
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the current live roster with the snapshot at a given date and time.",
	Run: func(cmd *cobra.Command, args []string) {
		service, _, config, err := loadService()
		if err != nil {
			log.Fatal(err)
		}

		at, err := time.ParseInLocation(
			"02.01.2006 15:04",
			fmt.Sprintf("%s %s", compareDate, compareTime),
			config.Tracker.Location(),
		)
		if err != nil {
			log.Fatalf("invalid date or time, expected DD.MM.YYYY and HH:MM: %s", err)
		}

		text, err := service.CompareReport(cmd.Context(), at)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(text)
	},
}
