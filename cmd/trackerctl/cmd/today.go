package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(todayCmd)
}

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show rating changes from the start of the day to the current moment.",
	Run: func(cmd *cobra.Command, args []string) {
		service, _, _, err := loadService()
		if err != nil {
			log.Fatal(err)
		}

		text, err := service.TodayReport(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(text)
	},
}
