// Package auth: проверка bearer-токенов и решение о доступе к таблице.
package auth

import (
	"errors"
	"strings"

	"tablekit/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
)

// Claims: содержимое токена {exp, api_rights, admin_rights}.
type Claims struct {
	APIRights   bool `json:"api_rights"`
	AdminRights bool `json:"admin_rights"`
	jwt.RegisteredClaims
}

// Verifier проверяет HS256-токены общим секретом.
// Секрет приходит из конфигурации и нигде больше не читается.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: empty JWT secret")
	}
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// Parse проверяет подпись и срок действия.
func (v *Verifier) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Unauthenticated("Token expired")
		}
		return nil, apperr.Unauthenticated("Invalid token")
	}
	return claims, nil
}

// FromHeader разбирает "Authorization: Bearer <jwt>".
func (v *Verifier) FromHeader(header string) (*Claims, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, apperr.Unauthenticated("Missing bearer token")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, apperr.Unauthenticated("Invalid authorization header")
	}
	return v.Parse(strings.TrimSpace(token))
}
