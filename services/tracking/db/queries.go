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

const createSessionEvent = `
INSERT INTO session_events (
    user_id, email, reviewer_version, action, timestamp,
    session_duration, summary_view_duration, current_url, page_title,
    total_clicks, unique_pages, payload
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateSessionEventParams struct {
	UserID              string
	Email               string
	ReviewerVersion     int64
	Action              string
	Timestamp           string
	SessionDuration     float64
	SummaryViewDuration float64
	CurrentUrl          string
	PageTitle           string
	TotalClicks         int64
	UniquePages         int64
	Payload             string
}

func (q *Queries) CreateSessionEvent(ctx context.Context, arg CreateSessionEventParams) error {
	_, err := q.db.ExecContext(ctx, createSessionEvent,
		arg.UserID,
		arg.Email,
		arg.ReviewerVersion,
		arg.Action,
		arg.Timestamp,
		arg.SessionDuration,
		arg.SummaryViewDuration,
		arg.CurrentUrl,
		arg.PageTitle,
		arg.TotalClicks,
		arg.UniquePages,
		arg.Payload,
	)
	return err
}

const listSessionEventsByUser = `
SELECT user_id, action, timestamp, payload FROM session_events
WHERE user_id = ? ORDER BY id
`

type ListSessionEventsByUserRow struct {
	UserID    string
	Action    string
	Timestamp string
	Payload   string
}

func (q *Queries) ListSessionEventsByUser(ctx context.Context, userId string) ([]ListSessionEventsByUserRow, error) {
	rows, err := q.db.QueryContext(ctx, listSessionEventsByUser, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListSessionEventsByUserRow
	for rows.Next() {
		var i ListSessionEventsByUserRow
		err := rows.Scan(&i.UserID, &i.Action, &i.Timestamp, &i.Payload)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countSessionEvents = `
SELECT COUNT(*) FROM session_events
`

func (q *Queries) CountSessionEvents(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countSessionEvents)
	var count int64
	err := row.Scan(&count)
	return count, err
}
