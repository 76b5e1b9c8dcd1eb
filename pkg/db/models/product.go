package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/okelo-dev/sokowear-backend/pkg/enums"
)

// Product represents a catalog listing.
type Product struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string                `gorm:"column:name;not null"`
	Description   *string               `gorm:"column:description"`
	Price         decimal.Decimal       `gorm:"column:price;type:numeric(12,2);not null"`
	Category      enums.ProductCategory `gorm:"column:category;type:text;not null"`
	Sizes         pq.StringArray        `gorm:"column:sizes;type:text[];not null;default:ARRAY[]::text[]"`
	Color         *string               `gorm:"column:color"`
	Brand         *string               `gorm:"column:brand"`
	ImageURL      *string               `gorm:"column:image_url"`
	StockQuantity int                   `gorm:"column:stock_quantity;not null;default:0"`
	Rating        decimal.Decimal       `gorm:"column:rating;type:numeric(3,2);not null;default:0"`
	IsFeatured    bool                  `gorm:"column:is_featured;not null;default:false"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
