package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Bearer подписывает HS256-токен с правами api/admin сроком на час
// и возвращает готовое значение заголовка Authorization.
func Bearer(t *testing.T, secret string, apiRights, adminRights bool) string {
	t.Helper()
	now := time.Now()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"api_rights":   apiRights,
		"admin_rights": adminRights,
		"iat":          now.Unix(),
		"exp":          now.Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + tok
}
