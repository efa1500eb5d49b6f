package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"meshstudio.org/internal/auth"
)

type roleStore struct{ db *sql.DB }

func (s *roleStore) Create(ctx context.Context, role *auth.Role) error {
	authorities, err := json.Marshal(role.Authorities)
	if err != nil {
		return fmt.Errorf("marshal authorities: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		insert into roles (id, name, authorities, create_time, update_time, status)
		values ($1, $2, $3, $4, $5, $6)
	`, role.ID, role.Name, authorities, role.CreateTime, role.UpdateTime, role.Status)
	return mapErr(err)
}

func (s *roleStore) Find(ctx context.Context, id string) (*auth.Role, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, name, authorities, create_time, update_time, status
		from roles
		where id = $1
	`, id)
	role, err := scanRole(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: role %s", auth.ErrNotFound, id)
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return role, nil
}

func (s *roleStore) List(ctx context.Context, keyword string) ([]*auth.Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, authorities, create_time, update_time, status
		from roles
		where status = $1
		  and ($2 = '' or name ilike '%' || $2 || '%')
		order by name
	`, auth.StatusActive, keyword)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var roles []*auth.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return roles, nil
}

func (s *roleStore) Update(ctx context.Context, role *auth.Role) error {
	authorities, err := json.Marshal(role.Authorities)
	if err != nil {
		return fmt.Errorf("marshal authorities: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		update roles
		set name = $2, authorities = $3, update_time = $4
		where id = $1 and status = $5
	`, role.ID, role.Name, authorities, role.UpdateTime, auth.StatusActive)
	if err != nil {
		return mapErr(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return fmt.Errorf("%w: role %s", auth.ErrNotFound, role.ID)
	}
	return nil
}

func (s *roleStore) SetStatus(ctx context.Context, id string, status int) error {
	res, err := s.db.ExecContext(ctx, `
		update roles set status = $2, update_time = now() where id = $1
	`, id, status)
	if err != nil {
		return mapErr(err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return fmt.Errorf("%w: role %s", auth.ErrNotFound, id)
	}
	return nil
}

func (s *roleStore) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		select count(*) from roles where status = $1
	`, auth.StatusActive).Scan(&n)
	if err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (*auth.Role, error) {
	var (
		role auth.Role
		raw  []byte
	)
	if err := row.Scan(&role.ID, &role.Name, &raw, &role.CreateTime, &role.UpdateTime, &role.Status); err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &role.Authorities); err != nil {
			return nil, fmt.Errorf("decode authorities: %w", err)
		}
	}
	return &role, nil
}
