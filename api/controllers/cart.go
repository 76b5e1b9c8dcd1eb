package controllers

import (
	"net/http"

	"github.com/okelo-dev/sokowear-backend/api/responses"
	"github.com/okelo-dev/sokowear-backend/api/validators"
	"github.com/okelo-dev/sokowear-backend/internal/cart"
	productsvc "github.com/okelo-dev/sokowear-backend/internal/products"
	pkgerrors "github.com/okelo-dev/sokowear-backend/pkg/errors"
	"github.com/okelo-dev/sokowear-backend/pkg/logger"
)

// GetCart returns the caller's current cart snapshot.
func GetCart(carts *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if carts == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart manager unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, carts.StoreFor(userID).Snapshot())
	}
}

type cartAddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Size      string `json:"size,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
}

// CartAddItem adds a product to the cart. Unit price, name, and image come
// from the catalog row, never from the client.
func CartAddItem(carts *cart.Manager, products productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if carts == nil || products == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartAddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := parseUUIDField(payload.ProductID, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := products.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		imageURL := ""
		if product.ImageURL != nil {
			imageURL = *product.ImageURL
		}

		state := carts.StoreFor(userID).Dispatch(cart.AddItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			ImageURL:  imageURL,
			Size:      payload.Size,
			Quantity:  payload.Quantity,
		})

		responses.WriteSuccess(w, state)
	}
}

type cartUpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartUpdateQuantity sets the quantity for every cart row of the product.
func CartUpdateQuantity(carts *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if carts == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart manager unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartUpdateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state := carts.StoreFor(userID).Dispatch(cart.UpdateQuantity{
			ProductID: productID,
			Quantity:  payload.Quantity,
		})

		responses.WriteSuccess(w, state)
	}
}

// CartRemoveItem drops every row of the product from the cart.
func CartRemoveItem(carts *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if carts == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart manager unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state := carts.StoreFor(userID).Dispatch(cart.RemoveItem{ProductID: productID})
		responses.WriteSuccess(w, state)
	}
}

// CartClear empties the cart.
func CartClear(carts *cart.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if carts == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart manager unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state := carts.StoreFor(userID).Dispatch(cart.Clear{})
		responses.WriteSuccess(w, state)
	}
}
