package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/okelo-dev/sokowear-backend/pkg/db/models"
	"github.com/okelo-dev/sokowear-backend/pkg/enums"
	"github.com/okelo-dev/sokowear-backend/pkg/pagination"
)

// Repository defines payment persistence. Confirm couples the payment update
// with the order status transition in one transaction so a reviewed payment
// never leaves its order stuck in pending.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	List(ctx context.Context, filter ListFilter) ([]models.Payment, error)
	Confirm(ctx context.Context, paymentID, adminID uuid.UUID, at time.Time) error
	Reject(ctx context.Context, paymentID uuid.UUID) error
}

// ListFilter pages and narrows payment listings.
type ListFilter struct {
	Status *enums.PaymentStatus
	Cursor *pagination.Cursor
	Limit  int
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Payment, error) {
	query := r.db.WithContext(ctx).Model(&models.Payment{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID,
		)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []models.Payment
	if err := query.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Confirm(ctx context.Context, paymentID, adminID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.First(&payment, "id = ?", paymentID).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Payment{}).
			Where("id = ?", paymentID).
			Updates(map[string]any{
				"status":       enums.PaymentStatusConfirmed,
				"confirmed_by": adminID,
				"confirmed_at": at,
			})
		if result.Error != nil {
			return result.Error
		}

		return tx.Model(&models.Order{}).
			Where("id = ?", payment.OrderID).
			Update("status", enums.OrderStatusProcessing).Error
	})
}

func (r *repository) Reject(ctx context.Context, paymentID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Update("status", enums.PaymentStatusRejected)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
