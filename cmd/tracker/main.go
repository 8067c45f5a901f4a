package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	"clantracker-backend/lib/configutil"
	configsqlite "clantracker-backend/lib/configutil/sqlite"
	"clantracker-backend/lib/notify"
	"clantracker-backend/lib/scrapers/claninfo"
	"clantracker-backend/lib/telemetry"
	"clantracker-backend/lib/util/serviceutil"
	"clantracker-backend/services/clanrating"
	storedb "clantracker-backend/services/clanrating/store/db"
)

type HttpConfig struct {
	Port int `json:"port"`
}

type NotifyConfig struct {
	DiscordWebhook string            `json:"discord_webhook"`
	Smtp           notify.SmtpConfig `json:"smtp"`
}

type Config struct {
	Tracker  clanrating.Config   `json:"tracker"`
	Database configsqlite.Struct `json:"database"`
	Http     HttpConfig          `json:"http"`
	Notify   NotifyConfig        `json:"notify"`
}

func buildSink(config NotifyConfig) notify.Sink {
	var sinks []notify.Sink
	if config.DiscordWebhook != "" {
		sinks = append(sinks, notify.NewDiscordWebhook(config.DiscordWebhook))
	}
	if config.Smtp.Server != "" {
		sinks = append(sinks, notify.NewEmailSink(config.Smtp))
	}
	if len(sinks) == 0 {
		return notify.LogSink{}
	}
	return notify.Multi(sinks...)
}

func main() {
	verbose := flag.Bool("verbose", false, "enable debug logging")
	configPath := flag.String("config", "config.json5", "path to the config file")
	flag.Parse()

	ctx := serviceutil.SignalContext()
	telemetry.InitSlog(*verbose)

	config, err := configutil.ReadConfig[Config](*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	db, err := config.Database.OpenDB(storedb.Schema)
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}

	t, err := telemetry.SetupFromEnv(ctx, "tracker")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	scraper := claninfo.NewClient(claninfo.ClientOptions{
		MaxRetries: config.Tracker.Scraper.MaxRetries,
		RetryDelay: time.Duration(config.Tracker.Scraper.RetryDelay) * time.Second,
	})

	service := clanrating.NewService(db, scraper, buildSink(config.Notify), config.Tracker)

	stop, err := service.StartDaemons(ctx)
	if err != nil {
		serviceutil.Fatal("failed to start daemons", err)
	}
	defer stop()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/report/today", func(w http.ResponseWriter, r *http.Request) {
		text, err := service.TodayReport(r.Context())
		if err != nil {
			http.Error(w, "failed to build report", http.StatusInternalServerError)
			return
		}
		w.Header().Set("content-type", "text/plain; charset=utf-8")
		w.Write([]byte(text))
	})
	mux.HandleFunc("GET /v1/report/compare", func(w http.ResponseWriter, r *http.Request) {
		at, err := time.Parse(time.RFC3339, r.URL.Query().Get("at"))
		if err != nil {
			http.Error(w, "invalid 'at' parameter, expected RFC3339", http.StatusBadRequest)
			return
		}
		text, err := service.CompareReport(r.Context(), at)
		if err != nil {
			http.Error(w, "failed to build report", http.StatusInternalServerError)
			return
		}
		w.Header().Set("content-type", "text/plain; charset=utf-8")
		w.Write([]byte(text))
	})
	go serviceutil.StartHttpServer(config.Http.Port, mux)

	<-ctx.Done()
}
