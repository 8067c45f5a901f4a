package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Capture struct {
	ID          int64
	Time        int64
	TotalRating int64
}

type MemberRating struct {
	CaptureID  int64
	MemberName string
	Rating     int64
	Rank       int64
}

type CreateCaptureParams struct {
	Time        int64
	TotalRating int64
}

const createCapture = `
INSERT INTO captures (time, total_rating)
VALUES (?, ?)
RETURNING id
`

func (q *Queries) CreateCapture(ctx context.Context, arg CreateCaptureParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createCapture, arg.Time, arg.TotalRating)
	var id int64
	err := row.Scan(&id)
	return id, err
}

type CreateMemberRatingParams struct {
	CaptureID  int64
	MemberName string
	Rating     int64
	Rank       int64
}

const createMemberRating = `
INSERT INTO member_ratings (capture_id, member_name, rating, rank)
VALUES (?, ?, ?, ?)
`

func (q *Queries) CreateMemberRating(ctx context.Context, arg CreateMemberRatingParams) error {
	_, err := q.db.ExecContext(
		ctx, createMemberRating,
		arg.CaptureID, arg.MemberName, arg.Rating, arg.Rank,
	)
	return err
}

const getLatestCapture = `
SELECT id, time, total_rating FROM captures
ORDER BY time DESC
LIMIT 1
`

func (q *Queries) GetLatestCapture(ctx context.Context) (Capture, error) {
	row := q.db.QueryRowContext(ctx, getLatestCapture)
	var c Capture
	err := row.Scan(&c.ID, &c.Time, &c.TotalRating)
	return c, err
}

const getCaptureAtOrBefore = `
SELECT id, time, total_rating FROM captures
WHERE time <= ?
ORDER BY time DESC
LIMIT 1
`

func (q *Queries) GetCaptureAtOrBefore(ctx context.Context, time int64) (Capture, error) {
	row := q.db.QueryRowContext(ctx, getCaptureAtOrBefore, time)
	var c Capture
	err := row.Scan(&c.ID, &c.Time, &c.TotalRating)
	return c, err
}

const getMemberRatings = `
SELECT capture_id, member_name, rating, rank FROM member_ratings
WHERE capture_id = ?
ORDER BY rank ASC
`

func (q *Queries) GetMemberRatings(ctx context.Context, captureID int64) ([]MemberRating, error) {
	rows, err := q.db.QueryContext(ctx, getMemberRatings, captureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MemberRating
	for rows.Next() {
		var m MemberRating
		err := rows.Scan(&m.CaptureID, &m.MemberName, &m.Rating, &m.Rank)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
