package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"tablekit/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldTypeRoundTrip(t *testing.T) {
	for _, ft := range FieldTypes {
		for _, s := range []string{ft.String(), strings.ToLower(ft.String()), strings.ToUpper(ft.String())} {
			got, err := ParseFieldType(s)
			require.NoError(t, err, s)
			assert.Equal(t, ft, got, s)
		}
	}
}

func TestParseFieldTypeUnknown(t *testing.T) {
	for _, s := range []string{"", "int4", "varchar(10)", "\x00", "Jsonb", "ЧИСЛО"} {
		assert.NotPanics(t, func() {
			_, err := ParseFieldType(s)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
			assert.Contains(t, err.Error(), "Varchar, Integer, Float")
		})
	}
}

func TestParseFieldTypeAlias(t *testing.T) {
	got, err := ParseFieldType("String")
	require.NoError(t, err)
	assert.Equal(t, Varchar, got)
}

func TestPhysicalType(t *testing.T) {
	assert.Equal(t, "varchar", Varchar.PhysicalType())
	assert.Equal(t, "bool", Boolean.PhysicalType())
	assert.Equal(t, "bytea", Binary.PhysicalType())
	assert.Equal(t, "timestamp", Timestamp.PhysicalType())
	for _, ft := range FieldTypes {
		assert.NotEmpty(t, ft.PhysicalType(), ft.String())
	}
}

func TestFieldTypeJSON(t *testing.T) {
	var req CreateFieldRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"total","fieldType":"float"}`), &req))
	assert.Equal(t, Float, req.FieldType)

	b, err := json.Marshal(req.FieldType)
	require.NoError(t, err)
	assert.JSONEq(t, `"Float"`, string(b))

	err = json.Unmarshal([]byte(`{"fieldType":"decimal"}`), &req)
	require.Error(t, err)

	_, err = json.Marshal(FieldType(42))
	assert.Error(t, err)
}

func TestFieldTypeScan(t *testing.T) {
	var ft FieldType
	require.NoError(t, ft.Scan([]byte("Timestamp")))
	assert.Equal(t, Timestamp, ft)
	assert.Error(t, ft.Scan("nope"))
	assert.Error(t, ft.Scan(12))
}

func TestPermissionParse(t *testing.T) {
	for _, p := range Permissions {
		got, err := ParsePermission(strings.ToUpper(p.String()))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePermission("Truncate")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestPermissionForMethod(t *testing.T) {
	cases := map[string]Permission{
		"GET":    PermQuery,
		"post":   PermCreate,
		"PUT":    PermReplace,
		"PATCH":  PermUpdate,
		"DELETE": PermDelete,
	}
	for m, want := range cases {
		got, err := PermissionForMethod(m)
		require.NoError(t, err, m)
		assert.Equal(t, want, got, m)
	}
	_, err := PermissionForMethod("OPTIONS")
	assert.Error(t, err)
}
