package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okelo-dev/sokowear-backend/pkg/db/models"
	"github.com/okelo-dev/sokowear-backend/pkg/enums"
	"github.com/okelo-dev/sokowear-backend/pkg/types"
)

// OrderDTO is the order shape returned to clients, items included.
type OrderDTO struct {
	ID              uuid.UUID             `json:"id"`
	Reference       string                `json:"reference"`
	UserID          uuid.UUID             `json:"user_id"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	Currency        enums.Currency        `json:"currency"`
	Status          enums.OrderStatus     `json:"status"`
	ShippingAddress types.ShippingAddress `json:"shipping_address"`
	PaymentMethod   enums.PaymentMethod   `json:"payment_method"`
	Items           []OrderItemDTO        `json:"items"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// OrderItemDTO is the denormalized line snapshot inside an order.
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Size        *string         `json:"size,omitempty"`
	Quantity    int             `json:"quantity"`
}

// OrderListResult pages order listings.
type OrderListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func toDTO(order *models.Order) *OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Size:        item.Size,
			Quantity:    item.Quantity,
		})
	}
	return &OrderDTO{
		ID:              order.ID,
		Reference:       order.ID.String()[:8],
		UserID:          order.UserID,
		TotalAmount:     order.TotalAmount,
		Currency:        order.Currency,
		Status:          order.Status,
		ShippingAddress: order.ShippingAddress,
		PaymentMethod:   order.PaymentMethod,
		Items:           items,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}
