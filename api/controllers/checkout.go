package controllers

import (
	"net/http"
	"strings"

	"github.com/okelo-dev/sokowear-backend/api/responses"
	"github.com/okelo-dev/sokowear-backend/api/validators"
	"github.com/okelo-dev/sokowear-backend/internal/checkout"
	"github.com/okelo-dev/sokowear-backend/pkg/enums"
	pkgerrors "github.com/okelo-dev/sokowear-backend/pkg/errors"
	"github.com/okelo-dev/sokowear-backend/pkg/logger"
	"github.com/okelo-dev/sokowear-backend/pkg/types"
)

type placeOrderRequest struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	City          string `json:"city"`
	County        string `json:"county"`
	PostalCode    string `json:"postal_code,omitempty"`
	Country       string `json:"country"`
	PaymentMethod string `json:"payment_method"`
	MpesaNumber   string `json:"mpesa_number,omitempty"`
}

func (r placeOrderRequest) toInput() checkout.PlaceOrderInput {
	// Field-level validation lives in the checkout service so the client
	// gets the storefront's own messages rather than validator output.
	method, _ := enums.ParsePaymentMethod(strings.TrimSpace(r.PaymentMethod))

	return checkout.PlaceOrderInput{
		ShippingAddress: types.ShippingAddress{
			FirstName:  r.FirstName,
			LastName:   r.LastName,
			Email:      r.Email,
			Address:    r.Address,
			City:       r.City,
			County:     r.County,
			PostalCode: r.PostalCode,
			Country:    r.Country,
		},
		PaymentMethod: method,
		MpesaNumber:   r.MpesaNumber,
	}
}

// PlaceOrder submits the caller's cart as an order.
func PlaceOrder(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.PlaceOrder(r.Context(), userID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
