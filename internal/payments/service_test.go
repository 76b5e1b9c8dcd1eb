package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/okelo-dev/sokowear-backend/pkg/db/models"
	"github.com/okelo-dev/sokowear-backend/pkg/enums"
	pkgerrors "github.com/okelo-dev/sokowear-backend/pkg/errors"
	"github.com/okelo-dev/sokowear-backend/pkg/pagination"
)

type stubPaymentsRepo struct {
	payments   map[uuid.UUID]*models.Payment
	listRows   []models.Payment
	lastFilter ListFilter
	confirmErr error
}

func newStubPaymentsRepo() *stubPaymentsRepo {
	return &stubPaymentsRepo{payments: map[uuid.UUID]*models.Payment{}}
}

func (s *stubPaymentsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPaymentsRepo) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	s.payments[payment.ID] = payment
	return payment, nil
}

func (s *stubPaymentsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	payment, ok := s.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return payment, nil
}

func (s *stubPaymentsRepo) List(ctx context.Context, filter ListFilter) ([]models.Payment, error) {
	s.lastFilter = filter
	return s.listRows, nil
}

func (s *stubPaymentsRepo) Confirm(ctx context.Context, paymentID, adminID uuid.UUID, at time.Time) error {
	if s.confirmErr != nil {
		return s.confirmErr
	}
	payment, ok := s.payments[paymentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	payment.Status = enums.PaymentStatusConfirmed
	payment.ConfirmedBy = &adminID
	payment.ConfirmedAt = &at
	return nil
}

func (s *stubPaymentsRepo) Reject(ctx context.Context, paymentID uuid.UUID) error {
	payment, ok := s.payments[paymentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	payment.Status = enums.PaymentStatusRejected
	return nil
}

func seedPayment(repo *stubPaymentsRepo, status enums.PaymentStatus) *models.Payment {
	payment := &models.Payment{
		ID:            uuid.New(),
		OrderID:       uuid.New(),
		Amount:        decimal.RequireFromString("270.00"),
		PaymentMethod: enums.PaymentMethodMpesa,
		Status:        status,
		CreatedAt:     time.Now(),
	}
	repo.payments[payment.ID] = payment
	return payment
}

func TestConfirmPayment(t *testing.T) {
	t.Parallel()

	repo := newStubPaymentsRepo()
	svc, _ := NewService(repo)

	payment := seedPayment(repo, enums.PaymentStatusPending)
	adminID := uuid.New()

	out, err := svc.ConfirmPayment(context.Background(), payment.ID, adminID)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if out.Status != enums.PaymentStatusConfirmed {
		t.Fatalf("unexpected status %s", out.Status)
	}
	if out.ConfirmedBy == nil || *out.ConfirmedBy != adminID {
		t.Fatal("confirmed_by not stamped")
	}
	if out.ConfirmedAt == nil {
		t.Fatal("confirmed_at not stamped")
	}
	if out.Amount != "270.00" {
		t.Fatalf("unexpected amount %q", out.Amount)
	}
}

func TestConfirmPaymentGuards(t *testing.T) {
	t.Parallel()

	repo := newStubPaymentsRepo()
	svc, _ := NewService(repo)

	reviewed := seedPayment(repo, enums.PaymentStatusConfirmed)

	if _, err := svc.ConfirmPayment(context.Background(), reviewed.ID, uuid.New()); pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for reviewed payment, got %v", err)
	}
	if _, err := svc.ConfirmPayment(context.Background(), uuid.New(), uuid.New()); pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.ConfirmPayment(context.Background(), reviewed.ID, uuid.Nil); pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for nil admin, got %v", err)
	}
}

func TestRejectPayment(t *testing.T) {
	t.Parallel()

	repo := newStubPaymentsRepo()
	svc, _ := NewService(repo)

	payment := seedPayment(repo, enums.PaymentStatusPending)

	out, err := svc.RejectPayment(context.Background(), payment.ID)
	if err != nil {
		t.Fatalf("RejectPayment: %v", err)
	}
	if out.Status != enums.PaymentStatusRejected {
		t.Fatalf("unexpected status %s", out.Status)
	}

	if _, err := svc.RejectPayment(context.Background(), payment.ID); pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on double review, got %v", err)
	}
}

func TestListPaymentsStatusFilter(t *testing.T) {
	t.Parallel()

	repo := newStubPaymentsRepo()
	svc, _ := NewService(repo)

	if _, err := svc.ListPayments(context.Background(), ListInput{Status: "maybe"}); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, err := svc.ListPayments(context.Background(), ListInput{Status: "pending"}); err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	if repo.lastFilter.Status == nil || *repo.lastFilter.Status != enums.PaymentStatusPending {
		t.Fatalf("status filter not applied: %+v", repo.lastFilter.Status)
	}
}

func TestListPaymentsPaging(t *testing.T) {
	t.Parallel()

	repo := newStubPaymentsRepo()
	svc, _ := NewService(repo)

	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		repo.listRows = append(repo.listRows, models.Payment{
			ID:        uuid.New(),
			OrderID:   uuid.New(),
			Amount:    decimal.RequireFromString("100.00"),
			Status:    enums.PaymentStatusPending,
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		})
	}

	out, err := svc.ListPayments(context.Background(), ListInput{
		Pagination: pagination.Params{Limit: 2},
	})
	if err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	if len(out.Payments) != 2 || out.NextCursor == "" {
		t.Fatalf("expected 2 rows and a cursor, got %d %q", len(out.Payments), out.NextCursor)
	}
}
