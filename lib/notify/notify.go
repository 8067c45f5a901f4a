package notify

import (
	"context"
	"errors"
	"log/slog"
)

// Sink delivers a pre-formatted report to some notification channel.
// delivery retries are the sink's own concern, callers only produce text.
type Sink interface {
	Send(ctx context.Context, text string) error
}

// LogSink writes reports to the log. used as the fallback when no real
// sink is configured, and in dry runs.
type LogSink struct{}

func (LogSink) Send(ctx context.Context, text string) error {
	slog.InfoContext(ctx, "report", "text", text)
	return nil
}

type multi []Sink

// Multi fans a report out to every given sink, delivery errors are joined.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

func (m multi) Send(ctx context.Context, text string) error {
	var errlist []error
	for _, sink := range m {
		err := sink.Send(ctx, text)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}
