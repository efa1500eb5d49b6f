package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"meshstudio.org/internal/auth"
)

type accountStore struct{ db *sql.DB }

func (s *accountStore) Create(ctx context.Context, account *auth.Account) error {
	_, err := s.db.ExecContext(ctx, `
		insert into accounts (id, username, password_hash, role_id, create_time, update_time, status)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, account.ID, account.Username, account.PasswordHash, account.RoleID,
		account.CreateTime, account.UpdateTime, account.Status)
	return mapErr(err)
}

func (s *accountStore) Find(ctx context.Context, id string) (*auth.Account, error) {
	account, err := s.scanOne(ctx, `
		select id, username, password_hash, role_id, create_time, update_time, status
		from accounts
		where id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s", auth.ErrNotFound, id)
	}
	return account, err
}

func (s *accountStore) FindActiveByUsername(ctx context.Context, username string) (*auth.Account, error) {
	account, err := s.scanOne(ctx, `
		select id, username, password_hash, role_id, create_time, update_time, status
		from accounts
		where username = $1 and status = $2
	`, username, auth.StatusActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s", auth.ErrNotFound, username)
	}
	return account, err
}

func (s *accountStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `
		update accounts set password_hash = $2, update_time = now() where id = $1
	`, id, passwordHash)
	if err != nil {
		return mapErr(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return fmt.Errorf("%w: account %s", auth.ErrNotFound, id)
	}
	return nil
}

func (s *accountStore) scanOne(ctx context.Context, query string, args ...any) (*auth.Account, error) {
	var account auth.Account
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&account.ID, &account.Username, &account.PasswordHash, &account.RoleID,
		&account.CreateTime, &account.UpdateTime, &account.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, mapErr(err)
	}
	return &account, nil
}
