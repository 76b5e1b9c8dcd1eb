package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one (product, size) entry in the cart. Two additions with the
// same product but a different size stay distinct rows.
type LineItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageURL  string          `json:"image_url,omitempty"`
	Size      string          `json:"size,omitempty"`
	Quantity  int             `json:"quantity"`
}

// State is the full cart snapshot. Total and ItemCount are recomputed from
// Items after every action, never patched incrementally.
type State struct {
	Items     []LineItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// NewState returns an empty cart.
func NewState() State {
	return State{Items: []LineItem{}, Total: decimal.Zero}
}

// IsEmpty reports whether the cart holds no line items.
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

// Action is a cart mutation. The concrete types below are the only
// implementations.
type Action interface {
	isAction()
}

// AddItem merges into an existing line item when (ProductID, Size) matches,
// including both sizes being empty, otherwise appends at the end. A zero
// Quantity defaults to 1.
type AddItem struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	ImageURL  string
	Size      string
	Quantity  int
}

// UpdateQuantity sets the quantity on every line item carrying ProductID.
// Zero and negative values are applied as given and the row is retained.
type UpdateQuantity struct {
	ProductID uuid.UUID
	Quantity  int
}

// RemoveItem drops every line item carrying ProductID, all sizes. No-op when
// the product is not in the cart.
type RemoveItem struct {
	ProductID uuid.UUID
}

// Clear empties the cart. Idempotent.
type Clear struct{}

func (AddItem) isAction()        {}
func (UpdateQuantity) isAction() {}
func (RemoveItem) isAction()     {}
func (Clear) isAction()          {}

// Apply is the pure reducer. The input state is never mutated; the returned
// state carries a fresh Items slice with Total and ItemCount recomputed.
func Apply(state State, action Action) State {
	switch a := action.(type) {
	case AddItem:
		return applyAdd(state, a)
	case UpdateQuantity:
		return applyUpdateQuantity(state, a)
	case RemoveItem:
		return applyRemove(state, a)
	case Clear:
		return NewState()
	default:
		return recompute(cloneItems(state.Items))
	}
}

func applyAdd(state State, action AddItem) State {
	quantity := action.Quantity
	if quantity == 0 {
		quantity = 1
	}

	items := cloneItems(state.Items)
	for i := range items {
		if items[i].ProductID == action.ProductID && items[i].Size == action.Size {
			items[i].Quantity += quantity
			return recompute(items)
		}
	}

	items = append(items, LineItem{
		ProductID: action.ProductID,
		Name:      action.Name,
		UnitPrice: action.UnitPrice,
		ImageURL:  action.ImageURL,
		Size:      action.Size,
		Quantity:  quantity,
	})
	return recompute(items)
}

func applyUpdateQuantity(state State, action UpdateQuantity) State {
	items := cloneItems(state.Items)
	for i := range items {
		if items[i].ProductID == action.ProductID {
			items[i].Quantity = action.Quantity
		}
	}
	return recompute(items)
}

func applyRemove(state State, action RemoveItem) State {
	items := make([]LineItem, 0, len(state.Items))
	for _, item := range state.Items {
		if item.ProductID == action.ProductID {
			continue
		}
		items = append(items, item)
	}
	return recompute(items)
}

func cloneItems(items []LineItem) []LineItem {
	cloned := make([]LineItem, len(items))
	copy(cloned, items)
	return cloned
}

func recompute(items []LineItem) State {
	total := decimal.Zero
	count := 0
	for _, item := range items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		count += item.Quantity
	}
	return State{Items: items, Total: total, ItemCount: count}
}
