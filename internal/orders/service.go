package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/okelo-dev/sokowear-backend/pkg/db/models"
	"github.com/okelo-dev/sokowear-backend/pkg/enums"
	pkgerrors "github.com/okelo-dev/sokowear-backend/pkg/errors"
	"github.com/okelo-dev/sokowear-backend/pkg/pagination"
)

// Service exposes order history for shoppers and order management for admins.
// Admin routes are gated by middleware; ListOrders and UpdateStatus trust
// their caller.
type Service interface {
	ListMyOrders(ctx context.Context, userID uuid.UUID, p pagination.Params) (*OrderListResult, error)
	GetOrder(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context, input AdminListInput) (*OrderListResult, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*OrderDTO, error)
}

// AdminListInput filters the admin order listing.
type AdminListInput struct {
	Status     string
	Pagination pagination.Params
}

type service struct {
	repo Repository
}

// NewService constructs the orders service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListMyOrders(ctx context.Context, userID uuid.UUID, p pagination.Params) (*OrderListResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	filter, err := buildFilter("", p)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return page(rows, p.Limit), nil
}

func (s *service) GetOrder(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID) (*OrderDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	// Owners see their own orders; admins see everything. Non-owners get a
	// not-found rather than a forbidden so order IDs stay unguessable.
	if order.UserID != actorID && actorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return toDTO(order), nil
}

func (s *service) ListOrders(ctx context.Context, input AdminListInput) (*OrderListResult, error) {
	filter, err := buildFilter(input.Status, input.Pagination)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return page(rows, input.Pagination.Limit), nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*OrderDTO, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	parsed, err := enums.ParseOrderStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	if err := s.repo.UpdateStatus(ctx, orderID, parsed); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return toDTO(order), nil
}

func buildFilter(status string, p pagination.Params) (ListFilter, error) {
	filter := ListFilter{Limit: pagination.LimitWithBuffer(p.Limit)}

	if status = strings.TrimSpace(status); status != "" {
		parsed, err := enums.ParseOrderStatus(status)
		if err != nil {
			return ListFilter{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
		}
		filter.Status = &parsed
	}

	cursor, err := pagination.ParseCursor(p.Cursor)
	if err != nil {
		return ListFilter{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	filter.Cursor = cursor
	return filter, nil
}

func page(rows []models.Order, requestedLimit int) *OrderListResult {
	limit := pagination.NormalizeLimit(requestedLimit)
	result := &OrderListResult{Orders: make([]OrderDTO, 0, len(rows))}
	for i := range rows {
		if i == limit {
			last := rows[limit-1]
			result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
				CreatedAt: last.CreatedAt,
				ID:        last.ID,
			})
			break
		}
		result.Orders = append(result.Orders, *toDTO(&rows[i]))
	}
	return result
}
