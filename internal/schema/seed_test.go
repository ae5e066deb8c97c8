package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersSeed = `
tables:
  - name: orders
    description: customer orders
    authGet: true
    fields:
      - name: id
        fieldType: Integer
        isPrimaryKey: true
        isAutoIncrement: true
        isUnique: true
      - name: total
        fieldType: float
        isRequired: true
`

const customersSeed = `
tables:
  - name: customers
    description: people
    auth: false
    fields:
      - name: id
        fieldType: Integer
        isPrimaryKey: true
        isUnique: true
      - name: First Name
        fieldType: string
`

func writeSeed(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadSeeds(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "b/orders.yaml", ordersSeed)
	writeSeed(t, dir, "a/customers.yml", customersSeed)
	writeSeed(t, dir, "README.md", "not a seed")

	tables, err := LoadSeeds(dir)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "customers", tables[0].Name)
	assert.Equal(t, "orders", tables[1].Name)

	orders := tables[1]
	require.NotNil(t, orders.AuthGet)
	assert.True(t, *orders.AuthGet)
	assert.Equal(t, Float, orders.Fields[1].FieldType)

	td, fields, err := tables[0].ToDefinition()
	require.NoError(t, err)
	assert.False(t, td.Auth)
	assert.Equal(t, "first_name", fields[1].Name)
	assert.Equal(t, Varchar, fields[1].FieldType)
}

func TestLoadSeedsDuplicate(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "one.yaml", ordersSeed)
	writeSeed(t, dir, "two.yaml", ordersSeed)

	_, err := LoadSeeds(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate table "orders"`)
}

func TestLoadSeedsBadType(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "bad.yaml", "tables:\n  - name: x\n    fields:\n      - name: id\n        fieldType: money\n")

	_, err := LoadSeeds(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
}
