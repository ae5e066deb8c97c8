package auth

import (
	"testing"
	"time"

	"tablekit/internal/apperr"
	"tablekit/internal/schema"
	"tablekit/internal/testutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func newEvaluator(t *testing.T) (*Evaluator, *Verifier) {
	t.Helper()
	v, err := NewVerifier(secret)
	require.NoError(t, err)
	return NewEvaluator(v), v
}

func bearer(t *testing.T, api, admin bool) string {
	return testutil.Bearer(t, secret, api, admin)
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	_, err := NewVerifier("  ")
	assert.Error(t, err)
}

func TestParseToken(t *testing.T) {
	_, v := newEvaluator(t)
	claims, err := v.FromHeader(bearer(t, true, false))
	require.NoError(t, err)
	assert.True(t, claims.APIRights)
	assert.False(t, claims.AdminRights)

	for _, h := range []string{"", "Bearer", "Basic abc", "Bearer not.a.jwt"} {
		_, err := v.FromHeader(h)
		assert.True(t, apperr.Is(err, apperr.KindUnauthenticated), h)
	}
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	_, v := newEvaluator(t)
	_, err := v.FromHeader(testutil.Bearer(t, "other-secret", true, true))
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		APIRights:        true,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	tok, err := expired.SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = v.Parse(tok)
	require.Error(t, err)
	assert.Equal(t, "Token expired", err.Error())

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{APIRights: true})
	tok, err = noExp.SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = v.Parse(tok)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{APIRights: true})
	tok, err = none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.Parse(tok)
	assert.Error(t, err)
}

func table(auth bool) schema.TableDefinition {
	return schema.TableDefinition{ID: 1, Name: "orders", Auth: auth}
}

func TestDefaultPermissionsAllowEverything(t *testing.T) {
	e, _ := newEvaluator(t)
	perms := schema.DefaultPermissions(1)
	h := bearer(t, true, false)
	for _, m := range []string{"GET", "POST", "PUT", "PATCH", "DELETE"} {
		d, err := e.Authorize(table(true), perms, m, h)
		require.NoError(t, err, m)
		assert.False(t, d.Public)
		assert.NotNil(t, d.Claims)
	}
}

func TestDeleteDeniedEvenWithAPIRights(t *testing.T) {
	e, _ := newEvaluator(t)
	perms := schema.DefaultPermissions(1)
	for i := range perms {
		if perms[i].Permission == schema.PermDelete {
			perms[i].Allow = false
		}
	}
	_, err := e.Authorize(table(true), perms, "DELETE", bearer(t, true, true))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = e.Authorize(table(true), perms, "GET", bearer(t, true, false))
	assert.NoError(t, err)

	// публичный запрос тоже упирается в строку разрешения
	_, err = e.Authorize(table(false), perms, "DELETE", "")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestPublicTable(t *testing.T) {
	e, _ := newEvaluator(t)
	perms := schema.DefaultPermissions(1)

	d, err := e.Authorize(table(false), perms, "GET", "")
	require.NoError(t, err)
	assert.True(t, d.Public)
	assert.Nil(t, d.Claims)

	td := table(false)
	td.AuthPut = true
	for _, m := range []string{"PUT", "PATCH"} {
		_, err = e.Authorize(td, perms, m, "")
		assert.True(t, apperr.Is(err, apperr.KindUnauthenticated), m)
	}
	_, err = e.Authorize(td, perms, "POST", "")
	assert.NoError(t, err)
}

func TestTokenWithoutAPIRights(t *testing.T) {
	e, _ := newEvaluator(t)
	_, err := e.Authorize(table(true), schema.DefaultPermissions(1), "GET", bearer(t, false, true))
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestMissingPermissionRowIsIntegrityError(t *testing.T) {
	e, _ := newEvaluator(t)
	perms := schema.DefaultPermissions(1)[:2] // только Query и Create
	_, err := e.Authorize(table(true), perms, "DELETE", bearer(t, true, false))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindIntegrity))
	assert.Equal(t, 500, apperr.Status(err))
}

func TestUnsupportedMethod(t *testing.T) {
	e, _ := newEvaluator(t)
	_, err := e.Authorize(table(false), schema.DefaultPermissions(1), "OPTIONS", "")
	assert.Error(t, err)
}

func TestRequireAdmin(t *testing.T) {
	e, _ := newEvaluator(t)
	_, err := e.RequireAdmin(bearer(t, true, true))
	assert.NoError(t, err)
	_, err = e.RequireAdmin(bearer(t, true, false))
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = e.RequireAdmin("")
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}
