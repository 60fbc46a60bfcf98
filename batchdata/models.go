package batchdata

import "encoding/json"

// FlatRecord is the single standardized per-property result consumed by
// downstream CRM automation. Scalar fields carry the provider's value
// verbatim as raw JSON, with a default substituted when the source field
// is missing or null.
type FlatRecord struct {
	PropertyID     json.RawMessage `json:"property_id"`
	Address        json.RawMessage `json:"address"`
	OwnerName      json.RawMessage `json:"owner_name"` // assessor owner, not the skip-traced contact
	FirstContact   string          `json:"first_contact_name"`
	Bedrooms       json.RawMessage `json:"bedrooms"`
	Baths          json.RawMessage `json:"baths"`
	Sqft           json.RawMessage `json:"sqft"`
	EstimatedValue json.RawMessage `json:"estimated_value"`
	EquityPercent  json.RawMessage `json:"equity_percent"`
	LastSaleDate   json.RawMessage `json:"last_sale_date"`
	LastSalePrice  json.RawMessage `json:"last_sale_price"`
	Flags          []string        `json:"flags"`
	Phone0         string          `json:"phone_0"`
	Phone1         string          `json:"phone_1"`
	Phone2         string          `json:"phone_2"`
}

// AddressText returns the address when the provider sent a plain string,
// empty otherwise. Keyed paths (snapshot index, forwarder idempotency)
// skip records without one.
func (r FlatRecord) AddressText() string {
	var s string
	if err := json.Unmarshal(r.Address, &s); err != nil {
		return ""
	}
	return s
}
