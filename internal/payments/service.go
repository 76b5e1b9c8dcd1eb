package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/okelo-dev/sokowear-backend/pkg/db/models"
	"github.com/okelo-dev/sokowear-backend/pkg/enums"
	pkgerrors "github.com/okelo-dev/sokowear-backend/pkg/errors"
	"github.com/okelo-dev/sokowear-backend/pkg/pagination"
)

// Service exposes the manual M-Pesa review workflow. Settlement is
// human-in-the-loop only; there is no gateway callback anywhere.
type Service interface {
	ListPayments(ctx context.Context, input ListInput) (*PaymentListResult, error)
	ConfirmPayment(ctx context.Context, paymentID, adminID uuid.UUID) (*PaymentDTO, error)
	RejectPayment(ctx context.Context, paymentID uuid.UUID) (*PaymentDTO, error)
}

// ListInput filters the admin payment listing.
type ListInput struct {
	Status     string
	Pagination pagination.Params
}

// PaymentDTO is the payment shape returned to the admin console.
type PaymentDTO struct {
	ID            uuid.UUID           `json:"id"`
	OrderID       uuid.UUID           `json:"order_id"`
	Amount        string              `json:"amount"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	MpesaNumber   *string             `json:"mpesa_number,omitempty"`
	Status        enums.PaymentStatus `json:"status"`
	ConfirmedBy   *uuid.UUID          `json:"confirmed_by,omitempty"`
	ConfirmedAt   *time.Time          `json:"confirmed_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// PaymentListResult pages payment listings.
type PaymentListResult struct {
	Payments   []PaymentDTO `json:"payments"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs the payments service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) ListPayments(ctx context.Context, input ListInput) (*PaymentListResult, error) {
	filter := ListFilter{Limit: pagination.LimitWithBuffer(input.Pagination.Limit)}

	if status := strings.TrimSpace(input.Status); status != "" {
		parsed, err := enums.ParsePaymentStatus(status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status")
		}
		filter.Status = &parsed
	}

	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	filter.Cursor = cursor

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}

	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	result := &PaymentListResult{Payments: make([]PaymentDTO, 0, len(rows))}
	for i := range rows {
		if i == limit {
			last := rows[limit-1]
			result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
				CreatedAt: last.CreatedAt,
				ID:        last.ID,
			})
			break
		}
		result.Payments = append(result.Payments, *toDTO(&rows[i]))
	}
	return result, nil
}

func (s *service) ConfirmPayment(ctx context.Context, paymentID, adminID uuid.UUID) (*PaymentDTO, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	payment, err := s.loadPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already reviewed")
	}

	if err := s.repo.Confirm(ctx, paymentID, adminID, s.now().UTC()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm payment")
	}
	return s.reload(ctx, paymentID)
}

func (s *service) RejectPayment(ctx context.Context, paymentID uuid.UUID) (*PaymentDTO, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}

	payment, err := s.loadPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment already reviewed")
	}

	if err := s.repo.Reject(ctx, paymentID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject payment")
	}
	return s.reload(ctx, paymentID)
}

func (s *service) loadPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (*PaymentDTO, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payment")
	}
	return toDTO(payment), nil
}

func toDTO(payment *models.Payment) *PaymentDTO {
	return &PaymentDTO{
		ID:            payment.ID,
		OrderID:       payment.OrderID,
		Amount:        payment.Amount.StringFixed(2),
		PaymentMethod: payment.PaymentMethod,
		MpesaNumber:   payment.MpesaNumber,
		Status:        payment.Status,
		ConfirmedBy:   payment.ConfirmedBy,
		ConfirmedAt:   payment.ConfirmedAt,
		CreatedAt:     payment.CreatedAt,
	}
}
