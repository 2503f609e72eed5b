package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testCustomer() *Customer {
	now := time.Date(2026, time.October, 17, 10, 0, 0, 0, time.UTC)
	return (&NewCustomer{
		FirstName:   "Ana",
		LastName:    "Ruiz",
		Email:       "ana@x.com",
		Phone:       "+57 300 111 2222",
		DateOfBirth: time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
		NationalID:  "12345678",
		Address:     Address{Street: "Calle 1", City: "Bogotá", State: "Cund.", PostalCode: "110001"},
		Documents:   []NewDocument{{Type: DocumentPassport, Filename: "passport.png"}},
	}).Build("ecc770d9-4576-4f72-affa-8b1454246692", now)
}

func TestCustomerDocumentsAlwaysRendered(t *testing.T) {
	c := testCustomer()
	c.Documents = nil

	body, err := json.Marshal(c)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &fields))
	require.JSONEq(t, `[]`, string(fields["documents"]))
	require.Equal(t, c.ID, jsonString(t, fields["id"]))

	t.Log("value and pointer encode the same")
	{
		byValue, err := json.Marshal(*c)
		require.NoError(t, err)
		require.JSONEq(t, string(body), string(byValue))
	}
}

func TestListItemLeavesDocumentsOut(t *testing.T) {
	c := testCustomer()
	require.Len(t, c.Documents, 1)

	body, err := json.Marshal(c.ListItem())
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &fields))
	require.NotContains(t, fields, "documents")
	require.Equal(t, "ana@x.com", jsonString(t, fields["email"]))
	require.Equal(t, "Colombia", c.ListItem().Address.Country)
}

func jsonString(t *testing.T, raw json.RawMessage) string {
	t.Helper()

	var s string
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}
