package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapRow(t *testing.T) {
	out, err := MapRow(json.RawMessage(`{"first_name":"Bob","created_at":"2024-01-01T00:00:00"}`))
	require.NoError(t, err)
	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"firstName":"Bob","createdAt":"2024-01-01T00:00:00"}`, string(b))
}

func TestMapRowKeepsNestedValues(t *testing.T) {
	out, err := MapRow(json.RawMessage(`{"meta_data":{"inner_key":[1,{"deep_key":true}]},"id":3}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"inner_key":[1,{"deep_key":true}]}`, string(out["metaData"]))
	assert.Equal(t, json.RawMessage(`3`), out["id"])
}

func TestMapRowsEmpty(t *testing.T) {
	out, err := MapRows(nil)
	require.NoError(t, err)
	b, _ := json.Marshal(out)
	assert.Equal(t, "[]", string(b))
}

func TestMapRowRejectsNonObject(t *testing.T) {
	_, err := MapRow(json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}
