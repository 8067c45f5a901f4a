package claninfo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"clantracker-backend/lib/htmlutil"
	"clantracker-backend/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/claninfo")

var (
	// ErrUnreachable is returned once the retry budget for a fetch is exhausted.
	ErrUnreachable = errors.New("clan page unreachable")
	// ErrEmptyResult marks a page with no extractable member rows, which
	// usually means the page structure changed upstream.
	ErrEmptyResult = errors.New("no member rows found")
	// ErrMalformedRow marks a row whose rating could not be read as an integer.
	ErrMalformedRow = errors.New("malformed member row")
)

type Member struct {
	Name   string
	Rating int
	// 1-based position after ordering by rating
	Rank int
}

// Roster is one full capture of the clan member table.
type Roster struct {
	CapturedAt  time.Time
	TotalRating int
	Members     []Member
}

type ClientOptions struct {
	// defaults to the warthunder.com community site
	BaseUrl    string
	MaxRetries int
	RetryDelay time.Duration
}

type Client struct {
	http       *resty.Client
	maxRetries int
	retryDelay time.Duration
}

func NewClient(opts ClientOptions) *Client {
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = "https://warthunder.com"
	}

	client := resty.New()
	client.SetBaseURL(baseUrl)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)

	restyutil.InstrumentClient(client, "scrapers/claninfo/http")

	return &Client{
		http:       client,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
	}
}

// FetchPage retrieves the raw claninfo page. a failed attempt (transport
// error or non-2xx status) is retried up to MaxRetries times with a fixed
// RetryDelay pause, so MaxRetries = N performs at most N+1 attempts.
func (c *Client) FetchPage(ctx context.Context, clanName string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "FetchPage")
	defer span.End()
	span.SetAttributes(attribute.String("clan", clanName))

	path := fmt.Sprintf("/en/community/claninfo/%s", url.PathEscape(clanName))

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		res, err := c.http.R().
			SetContext(ctx).
			Get(path)
		if err != nil {
			lastErr = err
			continue
		}
		if !res.IsSuccess() {
			lastErr = fmt.Errorf("unexpected status %d", res.StatusCode())
			continue
		}
		return res.Body(), nil
	}

	err := fmt.Errorf("%w after %d attempts: %w", ErrUnreachable, c.maxRetries+1, lastErr)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

// Fetch runs the full retrieve-and-parse step. CapturedAt is stamped with
// the time the fetch was issued, not the time parsing finished.
func (c *Client) Fetch(ctx context.Context, clanName string) (Roster, error) {
	capturedAt := time.Now()
	page, err := c.FetchPage(ctx, clanName)
	if err != nil {
		return Roster{}, err
	}
	return ParseRoster(page, capturedAt)
}

// the member table is a flat grid of cells, 6 per row:
// position | name | rating | activity | role | join date.
// the first 6 cells are the column headers.
const gridColumns = 6

// ParseRoster extracts the clan total and the full member table from the
// page. the parse is atomic: one bad row fails the whole roster, a partial
// roster would poison every diff computed from it.
func ParseRoster(page []byte, capturedAt time.Time) (Roster, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return Roster{}, fmt.Errorf("%w: %w", ErrEmptyResult, err)
	}

	counter := doc.Find("div.squadrons-counter__value").First()
	if counter.Length() == 0 {
		return Roster{}, fmt.Errorf("%w: total rating counter missing", ErrEmptyResult)
	}
	total, err := strconv.Atoi(strings.TrimSpace(counter.Text()))
	if err != nil {
		return Roster{}, fmt.Errorf("%w: total rating %q", ErrMalformedRow, strings.TrimSpace(counter.Text()))
	}

	cells := doc.Find("div.squadrons-members__grid-item")
	var members []Member
	for i := gridColumns; i+2 < cells.Length(); i += gridColumns {
		name := htmlutil.CleanText(htmlutil.GetText(cells.Eq(i + 1).Nodes[0]))
		ratingText := htmlutil.CleanText(htmlutil.GetText(cells.Eq(i + 2).Nodes[0]))

		rating, err := strconv.Atoi(ratingText)
		if err != nil {
			return Roster{}, fmt.Errorf("%w: member %q rating %q", ErrMalformedRow, name, ratingText)
		}
		members = append(members, Member{Name: name, Rating: rating})
	}
	if len(members) == 0 {
		return Roster{}, fmt.Errorf("%w: member grid missing or empty", ErrEmptyResult)
	}

	slices.SortFunc(members, func(a, b Member) int {
		if a.Rating != b.Rating {
			return b.Rating - a.Rating
		}
		return strings.Compare(a.Name, b.Name)
	})
	for i := range members {
		members[i].Rank = i + 1
	}

	return Roster{
		CapturedAt:  capturedAt,
		TotalRating: total,
		Members:     members,
	}, nil
}
