package types

import "strings"

// ShippingAddress is the address snapshot captured at checkout and stored on
// the order as jsonb. Later profile edits never touch historical orders.
type ShippingAddress struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	City       string `json:"city"`
	County     string `json:"county"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
}

// requiredFields lists every field that must be non-empty after trimming.
// PostalCode is deliberately absent.
var requiredFields = []struct {
	name  string
	value func(ShippingAddress) string
}{
	{"first_name", func(a ShippingAddress) string { return a.FirstName }},
	{"last_name", func(a ShippingAddress) string { return a.LastName }},
	{"email", func(a ShippingAddress) string { return a.Email }},
	{"address", func(a ShippingAddress) string { return a.Address }},
	{"city", func(a ShippingAddress) string { return a.City }},
	{"county", func(a ShippingAddress) string { return a.County }},
	{"country", func(a ShippingAddress) string { return a.Country }},
}

// MissingFields returns the names of required fields that are blank or
// whitespace-only, in declaration order.
func (a ShippingAddress) MissingFields() []string {
	var missing []string
	for _, field := range requiredFields {
		if strings.TrimSpace(field.value(a)) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (a ShippingAddress) Trimmed() ShippingAddress {
	return ShippingAddress{
		FirstName:  strings.TrimSpace(a.FirstName),
		LastName:   strings.TrimSpace(a.LastName),
		Email:      strings.TrimSpace(a.Email),
		Address:    strings.TrimSpace(a.Address),
		City:       strings.TrimSpace(a.City),
		County:     strings.TrimSpace(a.County),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
}
