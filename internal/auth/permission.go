package auth

import (
	"net/http"
	"strings"

	"tablekit/internal/apperr"
	"tablekit/internal/schema"
)

// Decision: итог проверки доступа.
type Decision struct {
	Permission schema.Permission
	Public     bool    // аутентификация не требовалась
	Claims     *Claims // nil для публичного запроса
}

// Evaluator решает, можно ли выполнить операцию над таблицей.
// Работает только с уже загруженными строками каталога и в хранилище не ходит.
type Evaluator struct {
	verifier *Verifier
}

func NewEvaluator(v *Verifier) *Evaluator {
	return &Evaluator{verifier: v}
}

// methodFlag: флаг auth_* для метода; PATCH делит флаг с PUT.
func methodFlag(t schema.TableDefinition, method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		return t.AuthGet
	case http.MethodPost:
		return t.AuthPost
	case http.MethodPut, http.MethodPatch:
		return t.AuthPut
	case http.MethodDelete:
		return t.AuthDelete
	}
	return true
}

// Authorize: (1) публичный ли запрос по флагам таблицы; (2) если нет: токен с api_rights;
// (3) независимо от этого строка разрешения для операции должна быть allow=true.
// Отсутствие строки: нарушение целостности каталога, а не запрет.
func (e *Evaluator) Authorize(t schema.TableDefinition, perms []schema.TablePermission, method, authorization string) (Decision, error) {
	perm, err := schema.PermissionForMethod(method)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{Permission: perm}

	if !t.Auth && !methodFlag(t, method) {
		d.Public = true
	} else {
		claims, err := e.verifier.FromHeader(authorization)
		if err != nil {
			return Decision{}, err
		}
		if !claims.APIRights {
			return Decision{}, apperr.Forbidden("Token has no api rights")
		}
		d.Claims = claims
	}

	row, ok := findPermission(perms, perm)
	if !ok {
		return Decision{}, apperr.Integrity("Permission %s is missing for table %q", perm, t.Name).
			WithValues(map[string]any{"table": t.Name, "permission": perm.String()})
	}
	if !row.Allow {
		return Decision{}, apperr.Forbidden("Operation %s is not allowed on table %q", perm, t.Name).
			WithValues(t.Name)
	}
	return d, nil
}

// RequireAdmin: доступ к каталогу только с admin_rights.
func (e *Evaluator) RequireAdmin(authorization string) (*Claims, error) {
	claims, err := e.verifier.FromHeader(authorization)
	if err != nil {
		return nil, err
	}
	if !claims.AdminRights {
		return nil, apperr.Forbidden("Token has no admin rights")
	}
	return claims, nil
}

func findPermission(perms []schema.TablePermission, p schema.Permission) (schema.TablePermission, bool) {
	for _, row := range perms {
		if row.Permission == p {
			return row, true
		}
	}
	return schema.TablePermission{}, false
}
