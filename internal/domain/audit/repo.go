package audit

import (
	"context"
	"database/sql"
)

type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Insert(ctx context.Context, row Row) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO call_log (submission_id, logged_at, username, method, url, status, response)
		VALUES (?,?,?,?,?,?,?)
	`, row.SubmissionID, row.LoggedAt, row.Username, row.Method, row.URL, row.Status, row.Response)
	return err
}

func (r *Repo) List(ctx context.Context) ([]Row, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT submission_id, logged_at, username, method, url, status, response
		FROM call_log
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.SubmissionID, &row.LoggedAt, &row.Username,
			&row.Method, &row.URL, &row.Status, &row.Response); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
