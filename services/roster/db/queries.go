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

type Registration struct {
	Email            string
	UserID           string
	ReviewerVersion  int64
	RegistrationDate string
}

const createRegistration = `
INSERT INTO registrations (email, user_id, reviewer_version, registration_date)
VALUES (?, ?, ?, ?)
`

func (q *Queries) CreateRegistration(ctx context.Context, arg Registration) error {
	_, err := q.db.ExecContext(ctx, createRegistration,
		arg.Email,
		arg.UserID,
		arg.ReviewerVersion,
		arg.RegistrationDate,
	)
	return err
}

const getRegistration = `
SELECT email, user_id, reviewer_version, registration_date FROM registrations
WHERE email = ?
`

func (q *Queries) GetRegistration(ctx context.Context, email string) (Registration, error) {
	row := q.db.QueryRowContext(ctx, getRegistration, email)
	var i Registration
	err := row.Scan(&i.Email, &i.UserID, &i.ReviewerVersion, &i.RegistrationDate)
	return i, err
}

const listRegistrations = `
SELECT email, user_id, reviewer_version, registration_date FROM registrations
ORDER BY registration_date
`

func (q *Queries) ListRegistrations(ctx context.Context) ([]Registration, error) {
	rows, err := q.db.QueryContext(ctx, listRegistrations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Registration
	for rows.Next() {
		var i Registration
		err := rows.Scan(&i.Email, &i.UserID, &i.ReviewerVersion, &i.RegistrationDate)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
