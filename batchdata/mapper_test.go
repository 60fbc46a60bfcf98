package batchdata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMap(t *testing.T, payload string) []FlatRecord {
	t.Helper()
	records, err := MapBundlePayloadToRecords([]byte(payload))
	require.NoError(t, err)
	return records
}

func TestMapPreservesOrderAndCount(t *testing.T) {
	payload := `[
		{"results":{"properties":[{"property_id":"a"},{"property_id":"b"}]}},
		{"results":{"properties":[{"property_id":"c"}]}}
	]`
	records := mustMap(t, payload)
	require.Len(t, records, 3)
	assert.Equal(t, `"a"`, string(records[0].PropertyID))
	assert.Equal(t, `"b"`, string(records[1].PropertyID))
	assert.Equal(t, `"c"`, string(records[2].PropertyID))
}

func TestMapIsDeterministic(t *testing.T) {
	payload := `[{"results":{"properties":[
		{"property_id":"123","total_bedrooms":3,"property_flags":[{"label":"Vacant"}],
		 "phone_numbers":[{"contact":{"full_name":"A","phone_1":"111"}}]}
	]}}]`
	first, err := MapBundlePayloadToRecords([]byte(payload))
	require.NoError(t, err)
	second, err := MapBundlePayloadToRecords([]byte(payload))
	require.NoError(t, err)

	b1, err := json.Marshal(first)
	require.NoError(t, err)
	b2, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}

func TestMissingFieldsGetDefaults(t *testing.T) {
	records := mustMap(t, `[{"results":{"properties":[{}]}}]`)
	require.Len(t, records, 1)
	rec := records[0]

	assert.Equal(t, `""`, string(rec.PropertyID))
	assert.Equal(t, `""`, string(rec.Address))
	assert.Equal(t, `""`, string(rec.OwnerName))
	assert.Equal(t, "", rec.FirstContact)
	assert.Equal(t, `0`, string(rec.Bedrooms))
	assert.Equal(t, `0`, string(rec.Baths))
	assert.Equal(t, `0`, string(rec.Sqft))
	assert.Equal(t, `0`, string(rec.EstimatedValue))
	assert.Equal(t, `0`, string(rec.EquityPercent))
	assert.Equal(t, `""`, string(rec.LastSaleDate))
	assert.Equal(t, `0`, string(rec.LastSalePrice))
	assert.Equal(t, "", rec.Phone0)
	assert.Equal(t, "", rec.Phone1)
	assert.Equal(t, "", rec.Phone2)

	// flags must serialize as [], never null
	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"flags":[]`)
}

func TestNullFieldsGetDefaults(t *testing.T) {
	payload := `[{"results":{"properties":[
		{"property_id":null,"owner_name":null,"total_bedrooms":null,"sale_date":null}
	]}}]`
	records := mustMap(t, payload)
	require.Len(t, records, 1)
	assert.Equal(t, `""`, string(records[0].PropertyID))
	assert.Equal(t, `""`, string(records[0].OwnerName))
	assert.Equal(t, `0`, string(records[0].Bedrooms))
	assert.Equal(t, `""`, string(records[0].LastSaleDate))
}

func TestMalformedScalarPassesThroughVerbatim(t *testing.T) {
	payload := `[{"results":{"properties":[
		{"total_bedrooms":"three","EstimatedValue":{"amount":5}}
	]}}]`
	records := mustMap(t, payload)
	require.Len(t, records, 1)
	assert.Equal(t, `"three"`, string(records[0].Bedrooms))
	assert.JSONEq(t, `{"amount":5}`, string(records[0].EstimatedValue))
}

func TestFlagCollectionSkipsEmptyLabels(t *testing.T) {
	payload := `[{"results":{"properties":[
		{"property_flags":[{"label":"Flag1"},{},{"label":""},{"label":null},{"label":"Flag2"}]}
	]}}]`
	records := mustMap(t, payload)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"Flag1", "Flag2"}, records[0].Flags)
}

func TestContactConsolidation(t *testing.T) {
	payload := `[{"results":{"properties":[{"phone_numbers":[
		{"contact":{"full_name":"A","phone_1":"111","phone_2":"111"}},
		{"contact":{"full_name":"","phone_1":"222"}}
	]}]}}]`
	records := mustMap(t, payload)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "A", rec.FirstContact)
	assert.Equal(t, "111", rec.Phone0)
	assert.Equal(t, "222", rec.Phone1)
	assert.Equal(t, "", rec.Phone2)
}

// Phones come out in encounter order: phone_1, phone_2, phone_3 within each
// wrapper, wrappers in input order, first three distinct values win.
func TestPhoneEncounterOrder(t *testing.T) {
	payload := `[{"results":{"properties":[{"property_id":"123","phone_numbers":[
		{"contact":{"full_name":"John Smith","phone_1":"123-456-7890","phone_2":"987-654-3210","phone_3":"555-123-4567"}}
	]}]}}]`
	records := mustMap(t, payload)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "John Smith", rec.FirstContact)
	assert.Equal(t, "123-456-7890", rec.Phone0)
	assert.Equal(t, "987-654-3210", rec.Phone1)
	assert.Equal(t, "555-123-4567", rec.Phone2)
}

func TestPhoneCapAcrossWrappers(t *testing.T) {
	payload := `[{"results":{"properties":[{"phone_numbers":[
		{"contact":{"phone_1":"1","phone_2":"2"}},
		{"contact":{"full_name":"Late Name","phone_1":"2","phone_2":"3","phone_3":"4"}}
	]}]}}]`
	records := mustMap(t, payload)
	require.Len(t, records, 1)
	rec := records[0]
	// name collection keeps scanning after three phones are in
	assert.Equal(t, "Late Name", rec.FirstContact)
	assert.Equal(t, "1", rec.Phone0)
	assert.Equal(t, "2", rec.Phone1)
	assert.Equal(t, "3", rec.Phone2)
}

func TestMalformedContactWrappersSkipped(t *testing.T) {
	payload := `[{"results":{"properties":[{"phone_numbers":[
		5,
		"not an object",
		{"contact":"not an object either"},
		{"contact":null},
		{},
		{"contact":{"full_name":"Z","phone_1":"999"}}
	]}]}}]`
	records := mustMap(t, payload)
	require.Len(t, records, 1)
	assert.Equal(t, "Z", records[0].FirstContact)
	assert.Equal(t, "999", records[0].Phone0)
	assert.Equal(t, "", records[0].Phone1)
}

func TestMissingPhoneNumbers(t *testing.T) {
	for _, payload := range []string{
		`[{"results":{"properties":[{"property_id":"p"}]}}]`,
		`[{"results":{"properties":[{"property_id":"p","phone_numbers":"nope"}]}}]`,
		`[{"results":{"properties":[{"property_id":"p","phone_numbers":null}]}}]`,
	} {
		records := mustMap(t, payload)
		require.Len(t, records, 1)
		assert.Equal(t, "", records[0].FirstContact)
		assert.Equal(t, "", records[0].Phone0)
		assert.Equal(t, "", records[0].Phone1)
		assert.Equal(t, "", records[0].Phone2)
	}
}

func TestEnvelopeWithoutPropertiesContributesNothing(t *testing.T) {
	payload := `[
		{},
		{"results":null},
		{"results":"wrong type"},
		{"results":{"properties":[{"property_id":"only"}]}}
	]`
	records := mustMap(t, payload)
	require.Len(t, records, 1)
	assert.Equal(t, `"only"`, string(records[0].PropertyID))
}

func TestStructuralErrors(t *testing.T) {
	cases := map[string]string{
		"object body":      `{"results":{}}`,
		"string body":      `"hello"`,
		"empty array":      `[]`,
		"numeric envelope": `[42]`,
		"array envelope":   `[[]]`,
		"not json":         `garbage`,
	}
	for name, payload := range cases {
		records, err := MapBundlePayloadToRecords([]byte(payload))
		require.ErrorIs(t, err, ErrMalformedPayload, name)
		assert.Nil(t, records, name)
	}
}

func TestNumericContactValuesKeepTextualForm(t *testing.T) {
	payload := `[{"results":{"properties":[{"phone_numbers":[
		{"contact":{"full_name":"N","phone_1":5551234567}}
	]}]}}]`
	records := mustMap(t, payload)
	require.Len(t, records, 1)
	assert.Equal(t, "5551234567", records[0].Phone0)
}
