package types

import "strings"

// Address carries the shipping/billing fields collected at checkout.
type Address struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Line1      string `json:"addressLine1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// MissingField returns the name of the first empty required sub-field, or "".
func (a Address) MissingField() string {
	required := []struct {
		name  string
		value string
	}{
		{"fullName", a.FullName},
		{"email", a.Email},
		{"phone", a.Phone},
		{"addressLine1", a.Line1},
		{"city", a.City},
		{"state", a.State},
		{"postalCode", a.PostalCode},
		{"country", a.Country},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return field.name
		}
	}
	return ""
}

// Formatted renders the single-line form the order service expects.
func (a Address) Formatted() string {
	parts := []string{a.Line1, a.City, a.State, a.PostalCode, a.Country}
	return strings.Join(parts, ", ")
}
