package claninfo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clantracker-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func gridItem(content string) string {
	return fmt.Sprintf(`<div class="squadrons-members__grid-item">%s</div>`, content)
}

func rosterPage(total string, rows [][2]string) string {
	page := fmt.Sprintf(`<html><body><div class="squadrons-counter__value"> %s </div><div class="squadrons-members__grid">`, total)
	for _, header := range []string{"num.", "Player", "Personal clan rating", "Activity", "Role", "Date of entry"} {
		page += gridItem(header)
	}
	for i, row := range rows {
		page += gridItem(fmt.Sprint(i + 1))
		page += gridItem(fmt.Sprintf("<a href=\"#\">\n  %s\t</a>", row[0]))
		page += gridItem(row[1])
		page += gridItem("30")
		page += gridItem("Private")
		page += gridItem("01.01.2024")
	}
	return page + `</div></body></html>`
}

func TestParseRoster(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/claninfo")
	defer cleanup()

	capturedAt := time.Date(2024, 6, 1, 17, 30, 0, 0, time.UTC)
	page := []byte(rosterPage("45123", [][2]string{
		{"WolfPack", "1205"},
		{"ace_of_spades", "1788"},
		{"Bravo", "1205"},
	}))

	roster, err := ParseRoster(page, capturedAt)
	require.NoError(t, err)
	require.Equal(t, capturedAt, roster.CapturedAt)
	require.Equal(t, 45123, roster.TotalRating)

	// ordered by rating descending, name ascending on ties
	require.Equal(t, []Member{
		{Name: "ace_of_spades", Rating: 1788, Rank: 1},
		{Name: "Bravo", Rating: 1205, Rank: 2},
		{Name: "WolfPack", Rating: 1205, Rank: 3},
	}, roster.Members)

	// same input, same output
	again, err := ParseRoster(page, capturedAt)
	require.NoError(t, err)
	require.Equal(t, roster, again)
}

func TestParseRosterMalformedRow(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/claninfo")
	defer cleanup()

	page := []byte(rosterPage("45123", [][2]string{
		{"WolfPack", "1205"},
		{"Bravo", "N/A"},
	}))

	_, err := ParseRoster(page, time.Now())
	require.ErrorIs(t, err, ErrMalformedRow)
}

func TestParseRosterEmptyResult(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/claninfo")
	defer cleanup()

	_, err := ParseRoster([]byte("<html><body><p>maintenance</p></body></html>"), time.Now())
	require.ErrorIs(t, err, ErrEmptyResult)

	// a page with the counter but a missing grid is also structural drift
	page := `<html><body><div class="squadrons-counter__value">45123</div></body></html>`
	_, err = ParseRoster([]byte(page), time.Now())
	require.ErrorIs(t, err, ErrEmptyResult)
}

func TestFetchPageRetryExhaustion(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/claninfo")
	defer cleanup()

	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{
		BaseUrl:    server.URL,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})

	_, err := client.FetchPage(context.Background(), "Some Clan")
	require.ErrorIs(t, err, ErrUnreachable)
	// 1 initial attempt + MaxRetries retries
	require.Equal(t, 3, attempts)
}

func TestFetchSuccessAfterRetry(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/claninfo")
	defer cleanup()

	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, rosterPage("100", [][2]string{{"Solo", "42"}}))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{
		BaseUrl:    server.URL,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})

	roster, err := client.Fetch(context.Background(), "Some Clan")
	require.NoError(t, err)
	require.Equal(t, 2, attempts)
	require.Equal(t, 100, roster.TotalRating)
	require.Len(t, roster.Members, 1)
	require.Equal(t, Member{Name: "Solo", Rating: 42, Rank: 1}, roster.Members[0])
	require.False(t, roster.CapturedAt.IsZero())
}
