package session

import (
	"context"
	"database/sql"
	"errors"
)

// Session is the persisted authenticated state. It exists iff the
// operator is logged in; a failed validation probe removes it.
type Session struct {
	Token    string
	Username string
}

type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

// Get returns the stored session, or nil when none exists.
func (r *Repo) Get(ctx context.Context) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT token, username FROM session WHERE id = 1`)
	var s Session
	if err := row.Scan(&s.Token, &s.Username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repo) Set(ctx context.Context, token, username string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session (id, token, username)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
		  token = excluded.token,
		  username = excluded.username,
		  updated_at = CURRENT_TIMESTAMP
	`, token, username)
	return err
}

func (r *Repo) Reset(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session WHERE id = 1`)
	return err
}
