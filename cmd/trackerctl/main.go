package main

import "clantracker-backend/cmd/trackerctl/cmd"

func main() {
	cmd.Execute()
}
