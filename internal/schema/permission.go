package schema

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"tablekit/internal/apperr"
)

// Permission: операция над данными таблицы.
type Permission int

const (
	PermQuery Permission = iota + 1
	PermCreate
	PermReplace
	PermUpdate
	PermDelete
)

var Permissions = []Permission{PermQuery, PermCreate, PermReplace, PermUpdate, PermDelete}

var permissionNames = map[Permission]string{
	PermQuery:   "Query",
	PermCreate:  "Create",
	PermReplace: "Replace",
	PermUpdate:  "Update",
	PermDelete:  "Delete",
}

var methodPermissions = map[string]Permission{
	http.MethodGet:    PermQuery,
	http.MethodPost:   PermCreate,
	http.MethodPut:    PermReplace,
	http.MethodPatch:  PermUpdate,
	http.MethodDelete: PermDelete,
}

func ParsePermission(s string) (Permission, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, p := range Permissions {
		if strings.ToLower(permissionNames[p]) == key {
			return p, nil
		}
	}
	names := make([]string, 0, len(Permissions))
	for _, p := range Permissions {
		names = append(names, permissionNames[p])
	}
	return 0, apperr.Validation("unknown permission %q, expected one of %s", s, strings.Join(names, ", "))
}

// PermissionForMethod: GET→Query, POST→Create, PUT→Replace, PATCH→Update, DELETE→Delete.
func PermissionForMethod(method string) (Permission, error) {
	if p, ok := methodPermissions[strings.ToUpper(method)]; ok {
		return p, nil
	}
	return 0, apperr.Validation("unsupported method %q, expected one of GET, POST, PUT, PATCH, DELETE", method)
}

func (p Permission) Valid() bool {
	_, ok := permissionNames[p]
	return ok
}

func (p Permission) String() string {
	if n, ok := permissionNames[p]; ok {
		return n
	}
	return fmt.Sprintf("Permission(%d)", int(p))
}

func (p Permission) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid permission %d", int(p))
	}
	return json.Marshal(p.String())
}

func (p *Permission) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return apperr.Validation("permission must be a string")
	}
	v, err := ParsePermission(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p *Permission) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("permission: unsupported source %T", src)
	}
	v, err := ParsePermission(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p Permission) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid permission %d", int(p))
	}
	return p.String(), nil
}

func (Permission) GormDataType() string { return "varchar(9)" }
