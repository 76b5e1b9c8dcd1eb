package checkout

import (
	"context"
	"errors"
	"testing"

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

type stubOrderWriter struct {
	headerErr error
	itemsErr  error
	orders    []*models.Order
	items     [][]models.OrderItem
}

func (s *stubOrderWriter) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if s.headerErr != nil {
		return nil, s.headerErr
	}
	created := *order
	created.ID = uuid.New()
	s.orders = append(s.orders, &created)
	return &created, nil
}

func (s *stubOrderWriter) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if s.itemsErr != nil {
		return s.itemsErr
	}
	s.items = append(s.items, items)
	return nil
}

type stubPaymentWriter struct {
	err      error
	payments []*models.Payment
}

func (s *stubPaymentWriter) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if s.err != nil {
		return nil, s.err
	}
	created := *payment
	created.ID = uuid.New()
	s.payments = append(s.payments, &created)
	return &created, nil
}

type recordingSink struct {
	notifications []notify.Notification
}

func (s *recordingSink) Notify(ctx context.Context, n notify.Notification) {
	s.notifications = append(s.notifications, n)
}

func (s *recordingSink) lastTitle() string {
	if len(s.notifications) == 0 {
		return ""
	}
	return s.notifications[len(s.notifications)-1].Title
}

func checkoutConfig() config.CheckoutConfig {
	return config.CheckoutConfig{TaxRate: "1.08", Currency: "KES"}
}

func validShipping() types.ShippingAddress {
	return types.ShippingAddress{
		FirstName: "Amina",
		LastName:  "Odhiambo",
		Email:     "amina@example.com",
		Address:   "12 Biashara St",
		City:      "Nairobi",
		County:    "Nairobi",
		Country:   "Kenya",
	}
}

func newTestService(t *testing.T, carts *cart.Manager, orders *stubOrderWriter, payments *stubPaymentWriter, sink *recordingSink) Service {
	t.Helper()
	svc, err := NewService(carts, orders, payments, sink, checkoutConfig())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func seedCart(carts *cart.Manager, userID uuid.UUID) {
	store := carts.StoreFor(userID)
	store.Dispatch(cart.AddItem{ProductID: uuid.New(), Name: "Linen Shirt", UnitPrice: decimal.RequireFromString("100"), Quantity: 2})
	store.Dispatch(cart.AddItem{ProductID: uuid.New(), Name: "Chinos", UnitPrice: decimal.RequireFromString("50"), Size: "M"})
}

func TestPlaceOrderRequiresAuthentication(t *testing.T) {
	t.Parallel()

	orders := &stubOrderWriter{}
	payments := &stubPaymentWriter{}
	sink := &recordingSink{}
	svc := newTestService(t, cart.NewManager(), orders, payments, sink)

	_, err := svc.PlaceOrder(context.Background(), uuid.Nil, PlaceOrderInput{
		ShippingAddress: validShipping(),
		PaymentMethod:   enums.PaymentMethodMpesa,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(orders.orders) != 0 || len(orders.items) != 0 || len(payments.payments) != 0 {
		t.Fatal("expected zero writes")
	}
	if sink.lastTitle() != "Authentication required" {
		t.Fatalf("unexpected notification %q", sink.lastTitle())
	}
}

func TestPlaceOrderRejectsBlankShippingFields(t *testing.T) {
	t.Parallel()

	carts := cart.NewManager()
	userID := uuid.New()
	seedCart(carts, userID)

	orders := &stubOrderWriter{}
	payments := &stubPaymentWriter{}
	sink := &recordingSink{}
	svc := newTestService(t, carts, orders, payments, sink)

	shipping := validShipping()
	shipping.City = "   " // whitespace only counts as blank

	_, err := svc.PlaceOrder(context.Background(), userID, PlaceOrderInput{
		ShippingAddress: shipping,
		PaymentMethod:   enums.PaymentMethodMpesa,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(orders.orders) != 0 || len(orders.items) != 0 {
		t.Fatal("expected zero writes")
	}
	if carts.StoreFor(userID).Snapshot().ItemCount != 3 {
		t.Fatal("cart must be preserved on validation failure")
	}
}

func TestPlaceOrderAllowsMissingPostalCode(t *testing.T) {
	t.Parallel()

	carts := cart.NewManager()
	userID := uuid.New()
	seedCart(carts, userID)

	orders := &stubOrderWriter{}
	svc := newTestService(t, carts, orders, &stubPaymentWriter{}, &recordingSink{})

	shipping := validShipping()
	shipping.PostalCode = ""

	if _, err := svc.PlaceOrder(context.Background(), userID, PlaceOrderInput{
		ShippingAddress: shipping,
		PaymentMethod:   enums.PaymentMethodCard,
	}); err != nil {
		t.Fatalf("postal code is optional: %v", err)
	}
}

func TestPlaceOrderRejectsEmptyCart(t *testing.T) {
	t.Parallel()

	orders := &stubOrderWriter{}
	payments := &stubPaymentWriter{}
	sink := &recordingSink{}
	svc := newTestService(t, cart.NewManager(), orders, payments, sink)

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderInput{
		ShippingAddress: validShipping(),
		PaymentMethod:   enums.PaymentMethodMpesa,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("expected empty cart error, got %v", err)
	}
	if len(orders.orders) != 0 || len(orders.items) != 0 || len(payments.payments) != 0 {
		t.Fatal("expected zero writes")
	}
	if sink.lastTitle() != "Empty cart" {
		t.Fatalf("unexpected notification %q", sink.lastTitle())
	}
}

func TestPlaceOrderSuccessMpesa(t *testing.T) {
	t.Parallel()

	carts := cart.NewManager()
	userID := uuid.New()
	seedCart(carts, userID)

	orders := &stubOrderWriter{}
	payments := &stubPaymentWriter{}
	sink := &recordingSink{}
	svc := newTestService(t, carts, orders, payments, sink)

	out, err := svc.PlaceOrder(context.Background(), userID, PlaceOrderInput{
		ShippingAddress: validShipping(),
		PaymentMethod:   enums.PaymentMethodMpesa,
		MpesaNumber:     "+254712345678",
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	// 250 subtotal * 1.08
	if !out.Total.Equal(decimal.RequireFromString("270.00")) {
		t.Fatalf("unexpected total %s", out.Total)
	}
	if out.Currency != enums.CurrencyKES {
		t.Fatalf("unexpected currency %s", out.Currency)
	}
	if out.Reference != out.OrderID.String()[:8] {
		t.Fatalf("reference %q does not match order id %s", out.Reference, out.OrderID)
	}

	if len(orders.orders) != 1 {
		t.Fatalf("expected one order header, got %d", len(orders.orders))
	}
	header := orders.orders[0]
	if header.Status != enums.OrderStatusPending {
		t.Fatalf("unexpected status %s", header.Status)
	}
	if !header.TotalAmount.Equal(out.Total) {
		t.Fatal("persisted amount must match returned total")
	}

	if len(orders.items) != 1 || len(orders.items[0]) != 2 {
		t.Fatalf("expected two order items, got %v", orders.items)
	}
	first := orders.items[0][0]
	if first.OrderID != out.OrderID || first.ProductName != "Linen Shirt" || !first.UnitPrice.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("unexpected item snapshot %+v", first)
	}
	if first.Size != nil {
		t.Fatal("sizeless line must persist a NULL size")
	}
	second := orders.items[0][1]
	if second.Size == nil || *second.Size != "M" {
		t.Fatalf("unexpected size on second item %+v", second)
	}

	if len(payments.payments) != 1 {
		t.Fatalf("expected pending payment, got %d", len(payments.payments))
	}
	payment := payments.payments[0]
	if payment.Status != enums.PaymentStatusPending || payment.OrderID != out.OrderID {
		t.Fatalf("unexpected payment %+v", payment)
	}
	if payment.MpesaNumber == nil || *payment.MpesaNumber != "+254712345678" {
		t.Fatal("mpesa number must be recorded")
	}

	if !carts.StoreFor(userID).Snapshot().IsEmpty() {
		t.Fatal("cart must be cleared after success")
	}
	if sink.lastTitle() != "Order placed successfully!" {
		t.Fatalf("unexpected notification %q", sink.lastTitle())
	}
}

func TestPlaceOrderCardSkipsPaymentWrite(t *testing.T) {
	t.Parallel()

	carts := cart.NewManager()
	userID := uuid.New()
	seedCart(carts, userID)

	payments := &stubPaymentWriter{}
	svc := newTestService(t, carts, &stubOrderWriter{}, payments, &recordingSink{})

	if _, err := svc.PlaceOrder(context.Background(), userID, PlaceOrderInput{
		ShippingAddress: validShipping(),
		PaymentMethod:   enums.PaymentMethodCard,
	}); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if len(payments.payments) != 0 {
		t.Fatal("card checkout must not create a payment row")
	}
}

func TestPlaceOrderHeaderFailureLeavesNothing(t *testing.T) {
	t.Parallel()

	carts := cart.NewManager()
	userID := uuid.New()
	seedCart(carts, userID)

	orders := &stubOrderWriter{headerErr: errors.New("connection reset")}
	sink := &recordingSink{}
	svc := newTestService(t, carts, orders, &stubPaymentWriter{}, sink)

	_, err := svc.PlaceOrder(context.Background(), userID, PlaceOrderInput{
		ShippingAddress: validShipping(),
		PaymentMethod:   enums.PaymentMethodMpesa,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(orders.orders) != 0 || len(orders.items) != 0 {
		t.Fatal("expected no writes after header failure")
	}
	if carts.StoreFor(userID).Snapshot().ItemCount != 3 {
		t.Fatal("cart must be preserved for retry")
	}
	if sink.lastTitle() != "Error" {
		t.Fatalf("unexpected notification %q", sink.lastTitle())
	}
}

func TestPlaceOrderItemFailureKeepsHeader(t *testing.T) {
	t.Parallel()

	carts := cart.NewManager()
	userID := uuid.New()
	seedCart(carts, userID)

	orders := &stubOrderWriter{itemsErr: errors.New("insert failed")}
	svc := newTestService(t, carts, orders, &stubPaymentWriter{}, &recordingSink{})

	_, err := svc.PlaceOrder(context.Background(), userID, PlaceOrderInput{
		ShippingAddress: validShipping(),
		PaymentMethod:   enums.PaymentMethodMpesa,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}

	// the header survives with no items and no compensating delete
	if len(orders.orders) != 1 {
		t.Fatalf("expected header-only order, got %d headers", len(orders.orders))
	}
	if len(orders.items) != 0 {
		t.Fatal("expected no item writes")
	}
	if carts.StoreFor(userID).Snapshot().ItemCount != 3 {
		t.Fatal("cart must be preserved for retry")
	}
}

func TestPlaceOrderRetryAfterItemFailureDuplicatesHeader(t *testing.T) {
	t.Parallel()

	carts := cart.NewManager()
	userID := uuid.New()
	seedCart(carts, userID)

	orders := &stubOrderWriter{itemsErr: errors.New("insert failed")}
	svc := newTestService(t, carts, orders, &stubPaymentWriter{}, &recordingSink{})

	input := PlaceOrderInput{ShippingAddress: validShipping(), PaymentMethod: enums.PaymentMethodCard}
	_, _ = svc.PlaceOrder(context.Background(), userID, input)

	orders.itemsErr = nil
	out, err := svc.PlaceOrder(context.Background(), userID, input)
	if err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}

	// no idempotency token: the retry creates a second header
	if len(orders.orders) != 2 {
		t.Fatalf("expected duplicate header on retry, got %d", len(orders.orders))
	}
	if orders.orders[0].ID == out.OrderID {
		t.Fatal("retry must create a fresh order")
	}
}

func TestNewServiceValidation(t *testing.T) {
	t.Parallel()

	carts := cart.NewManager()
	orders := &stubOrderWriter{}
	payments := &stubPaymentWriter{}
	sink := &recordingSink{}

	if _, err := NewService(nil, orders, payments, sink, checkoutConfig()); err == nil {
		t.Fatal("expected error without cart manager")
	}
	if _, err := NewService(carts, nil, payments, sink, checkoutConfig()); err == nil {
		t.Fatal("expected error without order writer")
	}
	if _, err := NewService(carts, orders, payments, sink, config.CheckoutConfig{TaxRate: "0.5", Currency: "KES"}); err == nil {
		t.Fatal("expected error for sub-1 tax multiplier")
	}
	if _, err := NewService(carts, orders, payments, sink, config.CheckoutConfig{TaxRate: "1.08", Currency: "XXX"}); err == nil {
		t.Fatal("expected error for unknown currency")
	}
}
