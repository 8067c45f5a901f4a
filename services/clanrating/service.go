package clanrating

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"clantracker-backend/lib/notify"
	"clantracker-backend/lib/scrapers/claninfo"
	"clantracker-backend/services/clanrating/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/clanrating")

// Scraper is the fetch+parse step of the pipeline.
type Scraper interface {
	Fetch(ctx context.Context, clanName string) (claninfo.Roster, error)
}

type Service struct {
	store   store.Store
	scraper Scraper
	sink    notify.Sink
	config  Config
	loc     *time.Location
	now     func() time.Time

	// serializes every cycle that appends a snapshot. fetch and parse
	// run outside the lock, reference resolution and the append run
	// inside so no two cycles can interleave their writes.
	appendMu sync.Mutex
}

func NewService(database *sql.DB, scraper Scraper, sink notify.Sink, config Config) *Service {
	return &Service{
		store:   store.NewStore(database),
		scraper: scraper,
		sink:    sink,
		config:  config,
		loc:     config.Location(),
		now:     time.Now,
	}
}

func rosterToSnapshot(roster claninfo.Roster) store.Snapshot {
	members := make([]store.Member, len(roster.Members))
	for i, m := range roster.Members {
		members[i] = store.Member{Name: m.Name, Rating: m.Rating, Rank: m.Rank}
	}
	return store.Snapshot{
		Time:        roster.CapturedAt,
		TotalRating: roster.TotalRating,
		Members:     members,
	}
}

// userMessage converts an internal error into the text shown to users.
// raw error kinds never cross the notification boundary.
func userMessage(err error) string {
	switch {
	case errors.Is(err, claninfo.ErrUnreachable):
		return "The clan page could not be reached, skipping this report."
	case errors.Is(err, claninfo.ErrEmptyResult), errors.Is(err, claninfo.ErrMalformedRow):
		return "The clan page could not be read, its layout may have changed."
	case errors.Is(err, store.ErrDuplicateTime):
		return "A snapshot for this instant already exists, skipping this report."
	default:
		return "Failed to record the clan rating snapshot."
	}
}

// Capture runs one fetch→parse→append cycle and returns the stored
// snapshot. the append step is serialized against all other appending
// cycles.
func (s *Service) Capture(ctx context.Context) (store.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Capture")
	defer span.End()

	roster, err := s.scraper.Fetch(ctx, s.config.ClanName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return store.Snapshot{}, err
	}
	current := rosterToSnapshot(roster)

	s.appendMu.Lock()
	defer s.appendMu.Unlock()
	err = s.store.Append(ctx, current)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return store.Snapshot{}, err
	}
	return current, nil
}

// runCycle is the shared body of both scheduled triggers: scrape, resolve
// the reference snapshot, append, then notify. resolveRef runs under the
// append lock so the reference can never observe the cycle's own snapshot.
func (s *Service) runCycle(ctx context.Context, resolveRef func(ctx context.Context) (store.Snapshot, error)) error {
	roster, err := s.scraper.Fetch(ctx, s.config.ClanName)
	if err != nil {
		s.notify(ctx, userMessage(err))
		return err
	}
	current := rosterToSnapshot(roster)

	s.appendMu.Lock()
	reference, refErr := resolveRef(ctx)
	err = s.store.Append(ctx, current)
	s.appendMu.Unlock()
	if err != nil {
		s.notify(ctx, userMessage(err))
		return err
	}

	if errors.Is(refErr, store.ErrNotFound) {
		// expected on the very first run and right after the day boundary
		s.notify(ctx, FormatNoReference(current))
		return nil
	}
	if refErr != nil {
		s.notify(ctx, userMessage(refErr))
		return refErr
	}

	diff := Diff(reference, current, s.config.Report.MaxEntries)
	s.notify(ctx, FormatReport(reference, current, diff, s.loc))
	return nil
}

func (s *Service) notify(ctx context.Context, text string) {
	err := s.sink.Send(ctx, text)
	if err != nil {
		slog.ErrorContext(ctx, "send report", "err", err)
	}
}

// IntervalReport compares a fresh capture against the most recent stored
// snapshot and notifies the sink.
func (s *Service) IntervalReport(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "IntervalReport")
	defer span.End()

	return s.runCycle(ctx, func(ctx context.Context) (store.Snapshot, error) {
		return s.store.Latest(ctx)
	})
}

// DailyReport compares a fresh capture against the snapshot nearest the
// configured day-start boundary, producing the full-day report.
func (s *Service) DailyReport(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "DailyReport")
	defer span.End()

	return s.runCycle(ctx, func(ctx context.Context) (store.Snapshot, error) {
		boundary := DayStart(s.now(), s.config.Schedule.DayStart, s.loc)
		return s.store.AtOrBefore(ctx, boundary)
	})
}

// TodayReport renders the day-start→now report without appending to
// history or touching any schedule state. safe to call concurrently with
// the background triggers.
func (s *Service) TodayReport(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "TodayReport")
	defer span.End()

	boundary := DayStart(s.now(), s.config.Schedule.DayStart, s.loc)
	return s.reportAgainst(ctx, boundary)
}

// CompareReport renders the report of the current live roster against the
// snapshot at or before an arbitrary past instant. read-only, like
// TodayReport.
func (s *Service) CompareReport(ctx context.Context, at time.Time) (string, error) {
	ctx, span := tracer.Start(ctx, "CompareReport")
	defer span.End()

	if at.After(s.now()) {
		return "", fmt.Errorf("cannot compare against a future instant")
	}
	return s.reportAgainst(ctx, at)
}

func (s *Service) reportAgainst(ctx context.Context, at time.Time) (string, error) {
	reference, err := s.store.AtOrBefore(ctx, at)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf(
			"No snapshot recorded at or before %s.",
			at.In(s.loc).Format(reportTimeLayout),
		), nil
	}
	if err != nil {
		return "", err
	}

	roster, err := s.scraper.Fetch(ctx, s.config.ClanName)
	if err != nil {
		return "", err
	}
	current := rosterToSnapshot(roster)

	diff := Diff(reference, current, s.config.Report.MaxEntries)
	return FormatReport(reference, current, diff, s.loc), nil
}
