package batchdata

import (
	"encoding/json"
	"errors"
	"fmt"
)

// maxPhones caps how many distinct numbers a flat record carries; the CRM
// side has exactly three phone slots per contact.
const maxPhones = 3

// ErrMalformedPayload marks structural problems with the inbound bundle:
// body is not a JSON array, the array is empty, or an envelope is not an
// object. Handlers translate it to a 400; any other mapping error is a 500.
var ErrMalformedPayload = errors.New("malformed payload")

// stringOrNumber accepts string or number JSON and stores as string
type stringOrNumber string

func (s *stringOrNumber) UnmarshalJSON(b []byte) error {
	// empty/null -> empty string
	if string(b) == "null" {
		*s = ""
		return nil
	}
	// If already a quoted string
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = stringOrNumber(str)
		return nil
	}
	// Try as number, keep textual form
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*s = stringOrNumber(num.String())
	return nil
}

// rawList tolerates a missing or wrong-typed list by degrading to empty,
// so one bad nesting level never fails the sibling envelopes.
type rawList []json.RawMessage

func (l *rawList) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		*l = nil
		return nil
	}
	*l = items
	return nil
}

type envelopeResults struct {
	Properties rawList `json:"properties"`
}

func (r *envelopeResults) UnmarshalJSON(b []byte) error {
	type plain envelopeResults
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		*r = envelopeResults{}
		return nil
	}
	*r = envelopeResults(p)
	return nil
}

type envelope struct {
	Results envelopeResults `json:"results"`
}

// propertyRecord is one bundled property as the provider ships it. Every
// field is optional; scalars stay raw so malformed provider types pass
// through to the output verbatim.
type propertyRecord struct {
	PropertyID     json.RawMessage `json:"property_id"`
	AddressFull    json.RawMessage `json:"property_address_full"`
	OwnerName      json.RawMessage `json:"owner_name"`
	TotalBedrooms  json.RawMessage `json:"total_bedrooms"`
	TotalBaths     json.RawMessage `json:"total_baths"`
	BuildingSqft   json.RawMessage `json:"building_square_feet"`
	EstimatedValue json.RawMessage `json:"EstimatedValue"`
	EquityPercent  json.RawMessage `json:"equity_percent"`
	SaleDate       json.RawMessage `json:"sale_date"`
	SalePrice      json.RawMessage `json:"sale_price"`
	Flags          []flagEntry     `json:"property_flags"`
	PhoneNumbers   rawList         `json:"phone_numbers"`
}

type flagEntry struct {
	Label stringOrNumber `json:"label"`
}

type contactWrapper struct {
	Contact json.RawMessage `json:"contact"`
}

type contactRecord struct {
	FullName stringOrNumber `json:"full_name"`
	Phone1   stringOrNumber `json:"phone_1"`
	Phone2   stringOrNumber `json:"phone_2"`
	Phone3   stringOrNumber `json:"phone_3"`
}

// MapBundlePayloadToRecords maps a bundle payload (a JSON array of provider
// envelopes, each nesting results.properties) onto one FlatRecord per
// property, preserving envelope order then intra-envelope order. The whole
// request either maps or fails; there is no per-record partial success.
func MapBundlePayloadToRecords(raw []byte) ([]FlatRecord, error) {
	body, err := normalizePayload(raw)
	if err != nil {
		return nil, err
	}
	var envelopes []json.RawMessage
	if err := json.Unmarshal(body, &envelopes); err != nil {
		return nil, fmt.Errorf("%w: expected a JSON array of envelopes", ErrMalformedPayload)
	}
	if len(envelopes) == 0 {
		return nil, fmt.Errorf("%w: expected a non-empty array", ErrMalformedPayload)
	}
	out := make([]FlatRecord, 0, len(envelopes))
	for i, rawEnv := range envelopes {
		if !startsWithObject(rawEnv) {
			return nil, fmt.Errorf("%w: envelope %d is not an object", ErrMalformedPayload, i)
		}
		var env envelope
		if err := json.Unmarshal(rawEnv, &env); err != nil {
			return nil, fmt.Errorf("%w: envelope %d: %v", ErrMalformedPayload, i, err)
		}
		for j, rawProp := range env.Results.Properties {
			var prop propertyRecord
			if err := json.Unmarshal(rawProp, &prop); err != nil {
				return nil, fmt.Errorf("envelope %d property %d: %w", i, j, err)
			}
			out = append(out, consolidate(prop))
		}
	}
	return out, nil
}

func consolidate(p propertyRecord) FlatRecord {
	rec := extractFields(p)
	rec.Flags = collectFlags(p.Flags)
	rec.FirstContact, rec.Phone0, rec.Phone1, rec.Phone2 = consolidateContacts(p.PhoneNumbers)
	return rec
}

var (
	emptyString = json.RawMessage(`""`)
	zeroNumber  = json.RawMessage(`0`)
)

func extractFields(p propertyRecord) FlatRecord {
	return FlatRecord{
		PropertyID:     fieldOr(p.PropertyID, emptyString),
		Address:        fieldOr(p.AddressFull, emptyString),
		OwnerName:      fieldOr(p.OwnerName, emptyString),
		Bedrooms:       fieldOr(p.TotalBedrooms, zeroNumber),
		Baths:          fieldOr(p.TotalBaths, zeroNumber),
		Sqft:           fieldOr(p.BuildingSqft, zeroNumber),
		EstimatedValue: fieldOr(p.EstimatedValue, zeroNumber),
		EquityPercent:  fieldOr(p.EquityPercent, zeroNumber),
		LastSaleDate:   fieldOr(p.SaleDate, emptyString),
		LastSalePrice:  fieldOr(p.SalePrice, zeroNumber),
	}
}

func collectFlags(flags []flagEntry) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		if f.Label != "" {
			out = append(out, string(f.Label))
		}
	}
	return out
}

// consolidateContacts reduces N contact wrappers to one name and up to
// three distinct phones. The name is the first non-empty full_name in
// wrapper order; phones are collected in encounter order scanning
// phone_1, phone_2, phone_3 within each wrapper, deduped by exact string
// equality. Malformed wrappers drop silently without failing the record.
func consolidateContacts(wrappers rawList) (name, p0, p1, p2 string) {
	phones := make([]string, 0, maxPhones)
	seen := make(map[string]struct{}, maxPhones)
	for _, rawWrap := range wrappers {
		var wrap contactWrapper
		if err := json.Unmarshal(rawWrap, &wrap); err != nil {
			continue
		}
		if len(wrap.Contact) == 0 || string(wrap.Contact) == "null" {
			continue
		}
		var contact contactRecord
		if err := json.Unmarshal(wrap.Contact, &contact); err != nil {
			continue
		}
		if name == "" && contact.FullName != "" {
			name = string(contact.FullName)
		}
		for _, phone := range []stringOrNumber{contact.Phone1, contact.Phone2, contact.Phone3} {
			if phone == "" || len(phones) == maxPhones {
				continue
			}
			if _, dup := seen[string(phone)]; dup {
				continue
			}
			seen[string(phone)] = struct{}{}
			phones = append(phones, string(phone))
		}
	}
	for len(phones) < maxPhones {
		phones = append(phones, "")
	}
	return name, phones[0], phones[1], phones[2]
}

func fieldOr(v, def json.RawMessage) json.RawMessage {
	if len(v) == 0 || string(v) == "null" {
		return def
	}
	return v
}

func startsWithObject(raw json.RawMessage) bool {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}
