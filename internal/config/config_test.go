package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tablekit.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadLayers(t *testing.T) {
	p := writeConfig(t, `
port: "9000"
dbUrl: postgres://file/db
jwtSecret: from-file
defaultLimit: 50
`)
	t.Setenv("TABLEKIT_DB_URL", "postgres://env/db")
	t.Setenv("TABLEKIT_MAX_LIMIT", "500")

	cfg, err := Load(p, []string{"-port", "7000"})
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "postgres://env/db", cfg.DBURL)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.Equal(t, 500, cfg.MaxLimit)
	assert.Equal(t, "warn", cfg.GormLogLevel)
	assert.Equal(t, ":7000", cfg.Addr())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TABLEKIT_DB_URL", "postgres://x")
	t.Setenv("TABLEKIT_JWT_SECRET", "s")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 100, cfg.DefaultLimit)
}

func TestLoadRequiresSecretAndDB(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dbUrl")
	assert.Contains(t, err.Error(), "jwtSecret")
}

func TestLoadBadValues(t *testing.T) {
	t.Setenv("TABLEKIT_DEFAULT_LIMIT", "many")
	_, err := Load("", nil)
	assert.Error(t, err)

	p := writeConfig(t, "port: [1,2")
	_, err = Load(p, nil)
	assert.Error(t, err)
}
