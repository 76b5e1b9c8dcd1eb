package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okelo-dev/sokowear-backend/internal/cart"
	"github.com/okelo-dev/sokowear-backend/pkg/config"
	"github.com/okelo-dev/sokowear-backend/pkg/db/models"
	"github.com/okelo-dev/sokowear-backend/pkg/enums"
	pkgerrors "github.com/okelo-dev/sokowear-backend/pkg/errors"
	"github.com/okelo-dev/sokowear-backend/pkg/notify"
	"github.com/okelo-dev/sokowear-backend/pkg/types"
)

type orderWriter interface {
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
}

type paymentWriter interface {
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
}

// Service converts a cart plus a shipping form into a persisted order. The
// order header, its items, and the optional pending payment are written
// sequentially without a wrapping transaction: a failure partway leaves the
// earlier writes in place and the cart untouched so the shopper can retry.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*PlaceOrderOutput, error)
}

type service struct {
	carts         *cart.Manager
	orders        orderWriter
	payments      paymentWriter
	sink          notify.Sink
	taxMultiplier decimal.Decimal
	currency      enums.Currency
}

// NewService constructs the checkout service.
func NewService(carts *cart.Manager, orders orderWriter, payments paymentWriter, sink notify.Sink, cfg config.CheckoutConfig) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart manager required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order writer required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment writer required")
	}
	if sink == nil {
		return nil, fmt.Errorf("notification sink required")
	}
	multiplier, err := cfg.TaxMultiplier()
	if err != nil {
		return nil, err
	}
	currency, err := enums.ParseCurrency(cfg.Currency)
	if err != nil {
		return nil, err
	}
	return &service{
		carts:         carts,
		orders:        orders,
		payments:      payments,
		sink:          sink,
		taxMultiplier: multiplier,
		currency:      currency,
	}, nil
}

// PlaceOrderInput carries the checkout form as submitted.
type PlaceOrderInput struct {
	ShippingAddress types.ShippingAddress
	PaymentMethod   enums.PaymentMethod
	MpesaNumber     string
}

// PlaceOrderOutput reports the created order. Reference is the first eight
// characters of the order ID, a purely cosmetic display convention.
type PlaceOrderOutput struct {
	OrderID   uuid.UUID       `json:"order_id"`
	Reference string          `json:"reference"`
	Total     decimal.Decimal `json:"total"`
	Currency  enums.Currency  `json:"currency"`
}

func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*PlaceOrderOutput, error) {
	// Preconditions run in a fixed order and the first failure wins. None of
	// them touches the cart or the store.
	if userID == uuid.Nil {
		s.sink.Notify(ctx, notify.Notification{
			Title:       "Authentication required",
			Description: "Please sign in to place an order",
			Variant:     notify.VariantDestructive,
		})
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	if missing := input.ShippingAddress.MissingFields(); len(missing) > 0 {
		s.sink.Notify(ctx, notify.Notification{
			Title:       "Missing information",
			Description: "Please fill in all required fields",
			Variant:     notify.VariantDestructive,
		})
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "required shipping fields missing").
			WithDetails(map[string]any{"missing_fields": missing})
	}
	if !input.PaymentMethod.IsValid() {
		s.sink.Notify(ctx, notify.Notification{
			Title:       "Missing information",
			Description: "Please choose a payment method",
			Variant:     notify.VariantDestructive,
		})
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	store := s.carts.StoreFor(userID)
	snapshot := store.Snapshot()
	if snapshot.IsEmpty() {
		s.sink.Notify(ctx, notify.Notification{
			Title:       "Empty cart",
			Description: "Your cart is empty",
			Variant:     notify.VariantDestructive,
		})
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}

	// The same multiplier backs the cart summary display, so the charged
	// amount always matches what the shopper saw.
	amount := snapshot.Total.Mul(s.taxMultiplier).Round(2)

	order := &models.Order{
		UserID:          userID,
		TotalAmount:     amount,
		Currency:        s.currency,
		Status:          enums.OrderStatusPending,
		ShippingAddress: input.ShippingAddress.Trimmed(),
		PaymentMethod:   input.PaymentMethod,
	}
	created, err := s.orders.CreateOrder(ctx, order)
	if err != nil {
		s.notifyWriteFailure(ctx)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order header")
	}

	items := make([]models.OrderItem, 0, len(snapshot.Items))
	for _, line := range snapshot.Items {
		var size *string
		if line.Size != "" {
			s := line.Size
			size = &s
		}
		items = append(items, models.OrderItem{
			OrderID:     created.ID,
			ProductID:   line.ProductID,
			ProductName: line.Name,
			UnitPrice:   line.UnitPrice,
			Size:        size,
			Quantity:    line.Quantity,
		})
	}
	// No compensating delete on failure here: a header-only order is an
	// accepted inconsistency and a user retry creates a fresh order.
	if err := s.orders.CreateOrderItems(ctx, items); err != nil {
		s.notifyWriteFailure(ctx)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
	}

	if input.PaymentMethod == enums.PaymentMethodMpesa {
		var mpesaNumber *string
		if input.MpesaNumber != "" {
			n := input.MpesaNumber
			mpesaNumber = &n
		}
		payment := &models.Payment{
			OrderID:       created.ID,
			Amount:        amount,
			PaymentMethod: input.PaymentMethod,
			MpesaNumber:   mpesaNumber,
			Status:        enums.PaymentStatusPending,
		}
		if _, err := s.payments.Create(ctx, payment); err != nil {
			s.notifyWriteFailure(ctx)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record pending payment")
		}
	}

	store.Dispatch(cart.Clear{})

	reference := created.ID.String()[:8]
	s.sink.Notify(ctx, notify.Notification{
		Title:       "Order placed successfully!",
		Description: fmt.Sprintf("Order #%s has been submitted", reference),
		Variant:     notify.VariantSuccess,
	})

	return &PlaceOrderOutput{
		OrderID:   created.ID,
		Reference: reference,
		Total:     amount,
		Currency:  s.currency,
	}, nil
}

func (s *service) notifyWriteFailure(ctx context.Context) {
	s.sink.Notify(ctx, notify.Notification{
		Title:       "Error",
		Description: "Failed to place order. Please try again.",
		Variant:     notify.VariantDestructive,
	})
}
