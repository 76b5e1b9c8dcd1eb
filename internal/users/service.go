package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/okelo-dev/sokowear-backend/pkg/enums"
	pkgerrors "github.com/okelo-dev/sokowear-backend/pkg/errors"
	"github.com/okelo-dev/sokowear-backend/pkg/pagination"
)

// Service exposes the admin user management console: listing accounts,
// promoting or demoting admins, and deleting accounts.
type Service interface {
	ListUsers(ctx context.Context, p pagination.Params) (*UserListResult, error)
	SetRole(ctx context.Context, actorID, userID uuid.UUID, role string) (*UserDTO, error)
	DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error
}

type service struct {
	repo *Repository
}

// NewService constructs the users service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListUsers(ctx context.Context, p pagination.Params) (*UserListResult, error) {
	cursor, err := pagination.ParseCursor(p.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, cursor, pagination.LimitWithBuffer(p.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	limit := pagination.NormalizeLimit(p.Limit)
	result := &UserListResult{Users: make([]UserDTO, 0, len(rows))}
	for i := range rows {
		if i == limit {
			last := rows[limit-1]
			result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
				CreatedAt: last.CreatedAt,
				ID:        last.ID,
			})
			break
		}
		result.Users = append(result.Users, *FromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) SetRole(ctx context.Context, actorID, userID uuid.UUID, role string) (*UserDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	parsed, err := enums.ParseUserRole(strings.TrimSpace(role))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown role")
	}

	// An admin demoting themselves would lock the console.
	if actorID == userID && parsed != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot demote your own account")
	}

	if err := s.repo.UpdateRole(ctx, userID, parsed); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update role")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload user")
	}
	return FromModel(user), nil
}

func (s *service) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if actorID == userID {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot delete your own account")
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}
