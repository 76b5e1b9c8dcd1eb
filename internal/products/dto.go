package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okelo-dev/sokowear-backend/pkg/db/models"
	"github.com/okelo-dev/sokowear-backend/pkg/enums"
)

// ProductDTO is the catalog shape returned to clients.
type ProductDTO struct {
	ID            uuid.UUID             `json:"id"`
	Name          string                `json:"name"`
	Description   *string               `json:"description,omitempty"`
	Price         decimal.Decimal       `json:"price"`
	Category      enums.ProductCategory `json:"category"`
	Sizes         []string              `json:"sizes"`
	Color         *string               `json:"color,omitempty"`
	Brand         *string               `json:"brand,omitempty"`
	ImageURL      *string               `json:"image_url,omitempty"`
	StockQuantity int                   `json:"stock_quantity"`
	Rating        decimal.Decimal       `json:"rating"`
	IsFeatured    bool                  `json:"is_featured"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// ProductListResult pages the catalog.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func toDTO(product *models.Product) *ProductDTO {
	sizes := make([]string, len(product.Sizes))
	copy(sizes, product.Sizes)
	return &ProductDTO{
		ID:            product.ID,
		Name:          product.Name,
		Description:   product.Description,
		Price:         product.Price,
		Category:      product.Category,
		Sizes:         sizes,
		Color:         product.Color,
		Brand:         product.Brand,
		ImageURL:      product.ImageURL,
		StockQuantity: product.StockQuantity,
		Rating:        product.Rating,
		IsFeatured:    product.IsFeatured,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
}
