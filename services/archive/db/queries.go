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

const createFinalReview = `
INSERT INTO final_reviews (url, reviewer_version, summary, reviews, review_count, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

type CreateFinalReviewParams struct {
	Url             string
	ReviewerVersion int64
	Summary         string
	Reviews         string
	ReviewCount     int64
	CreatedAt       string
}

func (q *Queries) CreateFinalReview(ctx context.Context, arg CreateFinalReviewParams) error {
	_, err := q.db.ExecContext(ctx, createFinalReview,
		arg.Url,
		arg.ReviewerVersion,
		arg.Summary,
		arg.Reviews,
		arg.ReviewCount,
		arg.CreatedAt,
	)
	return err
}

const listFinalReviewsByUrl = `
SELECT url, reviewer_version, summary, reviews, review_count, created_at FROM final_reviews
WHERE url = ? ORDER BY id
`

type FinalReview struct {
	Url             string
	ReviewerVersion int64
	Summary         string
	Reviews         string
	ReviewCount     int64
	CreatedAt       string
}

func (q *Queries) ListFinalReviewsByUrl(ctx context.Context, url string) ([]FinalReview, error) {
	rows, err := q.db.QueryContext(ctx, listFinalReviewsByUrl, url)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []FinalReview
	for rows.Next() {
		var i FinalReview
		err := rows.Scan(&i.Url, &i.ReviewerVersion, &i.Summary, &i.Reviews, &i.ReviewCount, &i.CreatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
