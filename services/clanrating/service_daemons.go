package clanrating

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// StartDaemons schedules the two background triggers: the interval report
// every report_interval minutes and the end-of-day report at the configured
// local time. both run in the configured fixed-offset zone and each firing
// is independent of how long the previous cycle took, overlapping cycles
// queue behind the append lock.
func (s *Service) StartDaemons(ctx context.Context) (stop func(), err error) {
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(cronLogger{}),
	)

	_, err = c.AddFunc(
		fmt.Sprintf("@every %dm", s.config.Schedule.ReportInterval),
		func() {
			ctx, cancel := context.WithTimeout(ctx, time.Minute*10)
			defer cancel()
			err := s.IntervalReport(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "interval report", "err", err)
			}
		},
	)
	if err != nil {
		return nil, err
	}

	_, err = c.AddFunc(
		fmt.Sprintf("%d %d * * *", s.config.Schedule.EndOfDay.Minute, s.config.Schedule.EndOfDay.Hour),
		func() {
			ctx, cancel := context.WithTimeout(ctx, time.Minute*10)
			defer cancel()
			err := s.DailyReport(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "daily report", "err", err)
			}
		},
	)
	if err != nil {
		return nil, err
	}

	c.Start()
	go func() {
		<-ctx.Done()
		c.Stop()
	}()

	return func() { c.Stop() }, nil
}

type cronLogger struct{}

func (l cronLogger) formatParams(keysAndValues []any) []any {
	params := []any{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		params = append(params, fmt.Sprintf("%v: %v", keysAndValues[i], keysAndValues[i+1]))
	}
	return params
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(fmt.Sprintf("cron: %s", msg), "params", l.formatParams(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(fmt.Sprintf("cron: %s", msg), "err", err, "params", l.formatParams(keysAndValues))
}
