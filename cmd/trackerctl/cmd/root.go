package cmd

import (
	"fmt"
	"os"
	"time"

	"clantracker-backend/lib/configutil"
	configsqlite "clantracker-backend/lib/configutil/sqlite"
	"clantracker-backend/lib/notify"
	"clantracker-backend/lib/scrapers/claninfo"
	"clantracker-backend/lib/telemetry"
	"clantracker-backend/services/clanrating"
	"clantracker-backend/services/clanrating/store"
	storedb "clantracker-backend/services/clanrating/store/db"

	"github.com/spf13/cobra"
)

var configPath string

// Config mirrors the daemon's config file, trackerctl only needs the
// tracker and database blocks.
type Config struct {
	Tracker  clanrating.Config   `json:"tracker"`
	Database configsqlite.Struct `json:"database"`
}

var rootCmd = &cobra.Command{
	Use:   "trackerctl",
	Short: "trackerctl is a CLI interface for the clan rating tracker.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configPath, "config", "config.json5",
		"path to the tracker config file",
	)
}

func Execute() {
	telemetry.InitSlog(false)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadService() (*clanrating.Service, store.Store, Config, error) {
	config, err := configutil.ReadConfig[Config](configPath)
	if err != nil {
		return nil, store.Store{}, Config{}, fmt.Errorf("read config: %w", err)
	}

	db, err := config.Database.OpenDB(storedb.Schema)
	if err != nil {
		return nil, store.Store{}, Config{}, fmt.Errorf("open database: %w", err)
	}

	scraper := claninfo.NewClient(claninfo.ClientOptions{
		MaxRetries: config.Tracker.Scraper.MaxRetries,
		RetryDelay: time.Duration(config.Tracker.Scraper.RetryDelay) * time.Second,
	})

	service := clanrating.NewService(db, scraper, notify.LogSink{}, config.Tracker)
	return service, store.NewStore(db), config, nil
}
