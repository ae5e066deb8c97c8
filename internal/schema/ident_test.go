package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSnake(t *testing.T) {
	cases := map[string]string{
		"firstName":  "first_name",
		"createdAt":  "created_at",
		"ID":         "id",
		"userID":     "user_id",
		"order2Item": "order2_item",
		"already_ok": "already_ok",
	}
	for in, want := range cases {
		assert.Equal(t, want, ToSnake(in), in)
	}
}

func TestToCamel(t *testing.T) {
	assert.Equal(t, "firstName", ToCamel("first_name"))
	assert.Equal(t, "createdAt", ToCamel("created_at"))
	assert.Equal(t, "id", ToCamel("id"))
}

func TestNormalizeTableName(t *testing.T) {
	got, err := NormalizeTableName("  Order Items ")
	require.NoError(t, err)
	assert.Equal(t, "order_items", got)

	got, err = NormalizeTableName("OrderItems")
	require.NoError(t, err)
	assert.Equal(t, "orderitems", got)

	for _, bad := range []string{"", "   ", "bad-name", `x";drop table tables;--`, "naïve", "tables", "fields", "tables_permissions"} {
		_, err := NormalizeTableName(bad)
		assert.Error(t, err, bad)
	}

	_, err = NormalizeTableName(strings.Repeat("a", MaxTableNameLen+1))
	assert.Error(t, err)
	_, err = NormalizeTableName(strings.Repeat("a", MaxTableNameLen))
	assert.NoError(t, err)
}

func TestNormalizeFieldName(t *testing.T) {
	got, err := NormalizeFieldName("firstName")
	require.NoError(t, err)
	assert.Equal(t, "firstname", got)

	got, err = NormalizeFieldName(" First Name ")
	require.NoError(t, err)
	assert.Equal(t, "first_name", got)

	_, err = NormalizeFieldName("first.name")
	assert.Error(t, err)
	_, err = NormalizeFieldName(strings.Repeat("b", MaxFieldNameLen+1))
	assert.Error(t, err)
}

func TestColumnName(t *testing.T) {
	known := map[string]struct{}{"first_name": {}, "placedat": {}, "id": {}}
	assert.Equal(t, "first_name", ColumnName("firstName", known))
	assert.Equal(t, "first_name", ColumnName("FIRST_NAME", known))
	assert.Equal(t, "placedat", ColumnName("placedAt", known))
	assert.Equal(t, "id", ColumnName("ID", known))
	assert.Equal(t, "last_name", ColumnName("lastName", known))
}

func TestQuoteIdent(t *testing.T) {
	q, err := QuoteIdent("orders")
	require.NoError(t, err)
	assert.Equal(t, `"orders"`, q)

	for _, bad := range []string{"", "Orders", `a"b`, "a b", "a;b"} {
		_, err := QuoteIdent(bad)
		assert.Error(t, err, bad)
	}
}
