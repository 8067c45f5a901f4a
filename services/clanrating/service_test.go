package clanrating

import (
	"context"
	"sync"
	"testing"
	"time"

	"clantracker-backend/lib/scrapers/claninfo"
	"clantracker-backend/lib/testutil"
	"clantracker-backend/services/clanrating/store"
	storedb "clantracker-backend/services/clanrating/store/db"

	"github.com/stretchr/testify/require"
)

type fakeScraper struct {
	mu      sync.Mutex
	rosters []claninfo.Roster
	err     error
}

func (f *fakeScraper) Fetch(ctx context.Context, clanName string) (claninfo.Roster, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return claninfo.Roster{}, f.err
	}
	roster := f.rosters[0]
	if len(f.rosters) > 1 {
		f.rosters = f.rosters[1:]
	}
	return roster, nil
}

type memorySink struct {
	mu       sync.Mutex
	messages []string
}

func (m *memorySink) Send(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, text)
	return nil
}

func (m *memorySink) last(t *testing.T) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.messages)
	return m.messages[len(m.messages)-1]
}

func testConfig() Config {
	return Config{
		ClanName: "Some Clan",
		Schedule: ScheduleConfig{
			TimezoneOffset: 3,
			ReportInterval: 30,
			DayStart:       HourMinute{Hour: 17, Minute: 0},
			EndOfDay:       HourMinute{Hour: 1, Minute: 5},
		},
		Report: ReportConfig{MaxEntries: 50},
	}
}

func roster(at time.Time, total int, ratings map[string]int) claninfo.Roster {
	r := claninfo.Roster{CapturedAt: at, TotalRating: total}
	for name, rating := range ratings {
		r.Members = append(r.Members, claninfo.Member{Name: name, Rating: rating})
	}
	return r
}

func setup(t *testing.T) (*Service, *fakeScraper, *memorySink, func()) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/clanrating",
		DbSchema: storedb.Schema,
	})

	scraper := &fakeScraper{}
	sink := &memorySink{}
	service := NewService(res.DB, scraper, sink, testConfig())
	return service, scraper, sink, cleanup
}

func TestIntervalReportFirstRun(t *testing.T) {
	service, scraper, sink, cleanup := setup(t)
	defer cleanup()

	at := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	scraper.rosters = []claninfo.Roster{
		roster(at, 40000, map[string]int{"alice": 1200, "bob": 900}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	require.NoError(t, service.IntervalReport(ctx))
	require.Contains(t, sink.last(t), "No earlier snapshot to compare against")

	// the first run still persisted its snapshot
	latest, err := service.store.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, at.Unix(), latest.Time.Unix())
	require.Len(t, latest.Members, 2)
}

func TestIntervalReportAgainstPrevious(t *testing.T) {
	service, scraper, sink, cleanup := setup(t)
	defer cleanup()

	at := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	scraper.rosters = []claninfo.Roster{
		roster(at, 40000, map[string]int{"alice": 1200, "bob": 900}),
		roster(at.Add(30*time.Minute), 40150, map[string]int{"alice": 1300, "bob": 900, "carol": 50}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	require.NoError(t, service.IntervalReport(ctx))
	require.NoError(t, service.IntervalReport(ctx))

	text := sink.last(t)
	require.Contains(t, text, "the clan gained +150 points")
	require.Contains(t, text, "alice")
	require.Contains(t, text, "+100")
	require.Contains(t, text, "Joined: carol (50)")
}

func TestDailyReportUsesDayStart(t *testing.T) {
	service, scraper, sink, cleanup := setup(t)
	defer cleanup()

	loc := service.loc
	dayStart := time.Date(2024, 6, 1, 17, 0, 0, 0, loc)

	// snapshot sitting exactly at the day boundary plus a later one, the
	// daily report must compare against the boundary snapshot
	scraper.rosters = []claninfo.Roster{
		roster(dayStart, 40000, map[string]int{"alice": 1000}),
		roster(dayStart.Add(2*time.Hour), 40100, map[string]int{"alice": 1100}),
		roster(dayStart.Add(8*time.Hour), 40500, map[string]int{"alice": 1500}),
	}
	service.now = func() time.Time { return dayStart.Add(8 * time.Hour) }

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	require.NoError(t, service.IntervalReport(ctx))
	require.NoError(t, service.IntervalReport(ctx))
	require.NoError(t, service.DailyReport(ctx))

	text := sink.last(t)
	require.Contains(t, text, "Since 17:00 01.06.2024")
	require.Contains(t, text, "the clan gained +500 points")
	require.Contains(t, text, "+500")
}

func TestDailyReportNoDayStartSnapshot(t *testing.T) {
	service, scraper, sink, cleanup := setup(t)
	defer cleanup()

	loc := service.loc
	now := time.Date(2024, 6, 1, 18, 0, 0, 0, loc)
	scraper.rosters = []claninfo.Roster{
		roster(now, 40000, map[string]int{"alice": 1000}),
	}
	service.now = func() time.Time { return now }

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	// no snapshot exists at or before today's 17:00 boundary: the run is
	// informational, not an error
	require.NoError(t, service.DailyReport(ctx))
	require.Contains(t, sink.last(t), "No earlier snapshot to compare against")
}

func TestTodayReportIsReadOnly(t *testing.T) {
	service, scraper, sink, cleanup := setup(t)
	defer cleanup()

	loc := service.loc
	dayStart := time.Date(2024, 6, 1, 17, 0, 0, 0, loc)
	scraper.rosters = []claninfo.Roster{
		roster(dayStart, 40000, map[string]int{"alice": 1000}),
		roster(dayStart.Add(time.Hour), 40100, map[string]int{"alice": 1100}),
	}
	service.now = func() time.Time { return dayStart.Add(time.Hour) }

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	require.NoError(t, service.IntervalReport(ctx))

	text, err := service.TodayReport(ctx)
	require.NoError(t, err)
	require.Contains(t, text, "the clan gained +100 points")

	// the on-demand path must not have appended anything
	latest, err := service.store.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, dayStart.Unix(), latest.Time.Unix())
	_ = sink
}

func TestCompareReportRejectsFuture(t *testing.T) {
	service, _, _, cleanup := setup(t)
	defer cleanup()

	now := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	_, err := service.CompareReport(ctx, now.Add(time.Hour))
	require.Error(t, err)
}

func TestCycleFailuresAreNonFatal(t *testing.T) {
	service, scraper, sink, cleanup := setup(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	scraper.err = claninfo.ErrUnreachable
	err := service.IntervalReport(ctx)
	require.ErrorIs(t, err, claninfo.ErrUnreachable)
	require.Contains(t, sink.last(t), "could not be reached")

	// the next cycle proceeds normally once the page recovers
	scraper.err = nil
	at := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	scraper.rosters = []claninfo.Roster{
		roster(at, 40000, map[string]int{"alice": 1200}),
	}
	require.NoError(t, service.IntervalReport(ctx))
}

func TestDuplicateCaptureRejected(t *testing.T) {
	service, scraper, sink, cleanup := setup(t)
	defer cleanup()

	at := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	scraper.rosters = []claninfo.Roster{
		roster(at, 40000, map[string]int{"alice": 1200}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	require.NoError(t, service.IntervalReport(ctx))

	// the scraper keeps returning the same capture instant, the second
	// append is rejected instead of silently coalescing
	err := service.IntervalReport(ctx)
	require.ErrorIs(t, err, store.ErrDuplicateTime)
	require.Contains(t, sink.last(t), "already exists")
}
