package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"clantracker-backend/services/clanrating/store/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("services/clanrating/store")

var (
	// ErrNotFound means no snapshot satisfied the query.
	ErrNotFound = errors.New("no snapshot found")
	// ErrDuplicateTime means a snapshot already exists at that capture instant.
	ErrDuplicateTime = errors.New("snapshot already exists at this time")
)

type Member struct {
	Name   string
	Rating int
	Rank   int
}

// Snapshot is a full roster capture at one instant. snapshots are immutable,
// the store only ever appends whole snapshots and reads committed ones.
type Snapshot struct {
	Time        time.Time
	TotalRating int
	Members     []Member
}

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

// Append persists the snapshot atomically. capture times are stored at
// second precision and must be unique, a second capture at an already-used
// instant fails with ErrDuplicateTime.
func (s Store) Append(ctx context.Context, snapshot Snapshot) error {
	ctx, span := tracer.Start(ctx, "Append")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("time", snapshot.Time.Unix()),
		attribute.Int("members", len(snapshot.Members)),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	captureId, err := txqry.CreateCapture(ctx, db.CreateCaptureParams{
		Time:        snapshot.Time.Unix(),
		TotalRating: int64(snapshot.TotalRating),
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateTime
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	for _, member := range snapshot.Members {
		err := txqry.CreateMemberRating(ctx, db.CreateMemberRatingParams{
			CaptureID:  captureId,
			MemberName: member.Name,
			Rating:     int64(member.Rating),
			Rank:       int64(member.Rank),
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	return tx.Commit()
}

// Latest returns the most recently appended snapshot.
func (s Store) Latest(ctx context.Context) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Latest")
	defer span.End()

	capture, err := s.qry.GetLatestCapture(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Snapshot{}, err
	}
	return s.loadSnapshot(ctx, capture)
}

// AtOrBefore returns the snapshot with the greatest capture time that is
// not after the given instant.
func (s Store) AtOrBefore(ctx context.Context, t time.Time) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "AtOrBefore")
	defer span.End()
	span.SetAttributes(attribute.Int64("time", t.Unix()))

	capture, err := s.qry.GetCaptureAtOrBefore(ctx, t.Unix())
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Snapshot{}, err
	}
	return s.loadSnapshot(ctx, capture)
}

func (s Store) loadSnapshot(ctx context.Context, capture db.Capture) (Snapshot, error) {
	rows, err := s.qry.GetMemberRatings(ctx, capture.ID)
	if err != nil {
		return Snapshot{}, err
	}

	members := make([]Member, len(rows))
	for i, r := range rows {
		members[i] = Member{
			Name:   r.MemberName,
			Rating: int(r.Rating),
			Rank:   int(r.Rank),
		}
	}
	return Snapshot{
		Time:        time.Unix(capture.Time, 0),
		TotalRating: int(capture.TotalRating),
		Members:     members,
	}, nil
}
