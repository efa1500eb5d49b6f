package auth

import (
	"context"
	"fmt"
	"strings"

	"meshstudio.org/internal/ids"
)

func validateRoleName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameEmpty
	}
	if strings.HasPrefix(name, ReservedNamePrefix) {
		return "", ErrNameReserved
	}
	return name, nil
}

// AddRole creates an active role. Authorities outside the catalog are
// silently dropped; an empty set is permitted.
func (s *Service) AddRole(ctx context.Context, name string, authorities []string) (*Role, error) {
	name, err := validateRoleName(name)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	role := &Role{
		ID:          ids.New(),
		Name:        name,
		Authorities: normalizeAuthorities(authorities),
		CreateTime:  now,
		UpdateTime:  now,
		Status:      StatusActive,
	}
	if err := s.store.Roles().Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// EditRole renames an active role and replaces its authority set. Name
// uniqueness is re-checked against other active roles; the storage layer
// reports the collision as ErrConflict.
func (s *Service) EditRole(ctx context.Context, id, name string, authorities []string) error {
	id = strings.TrimSpace(id)
	if id != "" && !ids.Valid(id) {
		return ErrMalformedID
	}
	name, err := validateRoleName(name)
	if err != nil {
		return err
	}
	role, err := s.store.Roles().Find(ctx, id)
	if err != nil {
		return err
	}
	if !role.Active() {
		return fmt.Errorf("%w: role %s", ErrNotFound, id)
	}
	role.Name = name
	role.Authorities = normalizeAuthorities(authorities)
	role.UpdateTime = s.now().UTC()
	return s.store.Roles().Update(ctx, role)
}

// DeleteRole soft-deletes a role. The record stays queryable by id but is
// excluded from listings and from name uniqueness, so the name is freed for
// reuse. Accounts still referencing the role keep the reference and simply
// resolve to no authorities.
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" || !ids.Valid(id) {
		return ErrMalformedID
	}
	return s.store.Roles().SetStatus(ctx, id, StatusDeleted)
}

// ListRoles returns active roles. A non-empty keyword filters by
// case-insensitive substring match on name.
func (s *Service) ListRoles(ctx context.Context, keyword string) ([]*Role, error) {
	return s.store.Roles().List(ctx, strings.TrimSpace(keyword))
}

// FindRole returns a role by id in any status; soft-deleted records remain
// visible here.
func (s *Service) FindRole(ctx context.Context, id string) (*Role, error) {
	id = strings.TrimSpace(id)
	if id == "" || !ids.Valid(id) {
		return nil, ErrMalformedID
	}
	return s.store.Roles().Find(ctx, id)
}
