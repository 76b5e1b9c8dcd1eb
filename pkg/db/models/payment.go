package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okelo-dev/sokowear-backend/pkg/enums"
)

// Payment records a manual M-Pesa settlement awaiting admin review.
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	MpesaNumber   *string             `gorm:"column:mpesa_number"`
	Status        enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ConfirmedBy   *uuid.UUID          `gorm:"column:confirmed_by;type:uuid"`
	ConfirmedAt   *time.Time          `gorm:"column:confirmed_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}
