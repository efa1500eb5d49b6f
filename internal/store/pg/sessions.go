package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"meshstudio.org/internal/auth"
)

type sessionStore struct{ db *sql.DB }

func (s *sessionStore) Create(ctx context.Context, rec *auth.SessionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		insert into sessions (id, account_id, token_hash, expires_at, created_at, revoked)
		values ($1, $2, $3, $4, $5, $6)
	`, rec.ID, rec.AccountID, rec.TokenHash, rec.ExpiresAt, rec.CreatedAt, rec.Revoked)
	return mapErr(err)
}

func (s *sessionStore) Find(ctx context.Context, id string) (*auth.SessionRecord, error) {
	var rec auth.SessionRecord
	err := s.db.QueryRowContext(ctx, `
		select id, account_id, token_hash, expires_at, created_at, revoked
		from sessions
		where id = $1
	`, id).Scan(&rec.ID, &rec.AccountID, &rec.TokenHash, &rec.ExpiresAt, &rec.CreatedAt, &rec.Revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %s", auth.ErrNotFound, id)
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return &rec, nil
}

func (s *sessionStore) Revoke(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		update sessions set revoked = true where id = $1
	`, id)
	if err != nil {
		return mapErr(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return fmt.Errorf("%w: session %s", auth.ErrNotFound, id)
	}
	return nil
}

func (s *sessionStore) DeleteExpired(ctx context.Context, before time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		delete from sessions where expires_at < $1
	`, before)
	return mapErr(err)
}
