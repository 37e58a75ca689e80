package types

import "strings"

// DefaultCountry is applied when a shipping address omits the country.
const DefaultCountry = "US"

// ShippingInfo is the delivery address captured on an order. It is stored as a
// jsonb document on the order row.
type ShippingInfo struct {
	RecipientName string  `json:"recipient_name" validate:"required,max=200"`
	Line1         string  `json:"line1" validate:"required,max=200"`
	Line2         *string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City          string  `json:"city" validate:"required,max=100"`
	State         string  `json:"state" validate:"required,max=100"`
	PostalCode    string  `json:"postal_code" validate:"required,max=20"`
	Country       string  `json:"country" validate:"omitempty,len=2"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// Normalize trims whitespace and fills the default country.
func (s ShippingInfo) Normalize() ShippingInfo {
	out := s
	out.RecipientName = strings.TrimSpace(s.RecipientName)
	out.Line1 = strings.TrimSpace(s.Line1)
	out.City = strings.TrimSpace(s.City)
	out.State = strings.TrimSpace(s.State)
	out.PostalCode = strings.TrimSpace(s.PostalCode)
	out.Country = strings.ToUpper(strings.TrimSpace(s.Country))
	if out.Country == "" {
		out.Country = DefaultCountry
	}
	if s.Line2 != nil {
		line2 := strings.TrimSpace(*s.Line2)
		out.Line2 = &line2
	}
	return out
}
