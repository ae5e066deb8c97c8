package schema

import (
	"regexp"
	"strings"

	"tablekit/internal/apperr"
)

// CreateTableRequest: тело POST /tables (и запись в seed-файле).
type CreateTableRequest struct {
	Name        string               `json:"name" yaml:"name"`
	Description string               `json:"description" yaml:"description"`
	IsView      *bool                `json:"isView" yaml:"isView"`
	IsActive    *bool                `json:"isActive" yaml:"isActive"`
	IsDeleted   *bool                `json:"isDeleted" yaml:"isDeleted"`
	ViewSQL     *string              `json:"viewSql" yaml:"viewSql"`
	Capacity    *int                 `json:"capacity" yaml:"capacity"`
	Auth        *bool                `json:"auth" yaml:"auth"`
	AuthGet     *bool                `json:"authGet" yaml:"authGet"`
	AuthPost    *bool                `json:"authPost" yaml:"authPost"`
	AuthPut     *bool                `json:"authPut" yaml:"authPut"`
	AuthDelete  *bool                `json:"authDelete" yaml:"authDelete"`
	Fields      []CreateFieldRequest `json:"fields" yaml:"fields"`
}

// CreateFieldRequest: описание поля при создании.
type CreateFieldRequest struct {
	Name             string    `json:"name" yaml:"name"`
	Description      *string   `json:"description" yaml:"description"`
	FieldType        FieldType `json:"fieldType" yaml:"fieldType"`
	IsRequired       bool      `json:"isRequired" yaml:"isRequired"`
	IsPrimaryKey     bool      `json:"isPrimaryKey" yaml:"isPrimaryKey"`
	IsAutoIncrement  bool      `json:"isAutoIncrement" yaml:"isAutoIncrement"`
	IsGenerated      bool      `json:"isGenerated" yaml:"isGenerated"`
	IsUnique         bool      `json:"isUnique" yaml:"isUnique"`
	DefaultValue     *string   `json:"defaultValue" yaml:"defaultValue"`
	CustomExpression *string   `json:"customExpression" yaml:"customExpression"`
}

// UpdateTableRequest: PATCH /tables/:name; nil означает «не менять».
type UpdateTableRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
	IsDeleted   *bool   `json:"isDeleted"`
	Capacity    *int    `json:"capacity"`
	Auth        *bool   `json:"auth"`
	AuthGet     *bool   `json:"authGet"`
	AuthPost    *bool   `json:"authPost"`
	AuthPut     *bool   `json:"authPut"`
	AuthDelete  *bool   `json:"authDelete"`
}

// UpdateFieldRequest: PATCH /tables/:name/fields/:field.
type UpdateFieldRequest struct {
	Name             *string    `json:"name"`
	Description      *string    `json:"description"`
	FieldType        *FieldType `json:"fieldType"`
	IsRequired       *bool      `json:"isRequired"`
	IsPrimaryKey     *bool      `json:"isPrimaryKey"`
	IsAutoIncrement  *bool      `json:"isAutoIncrement"`
	IsGenerated      *bool      `json:"isGenerated"`
	IsUnique         *bool      `json:"isUnique"`
	DefaultValue     *string    `json:"defaultValue"`
	ClearDefault     bool       `json:"clearDefault"`
	CustomExpression *string    `json:"customExpression"`
}

func (r UpdateFieldRequest) IsEmpty() bool {
	return r.Name == nil && r.Description == nil && r.FieldType == nil &&
		r.IsRequired == nil && r.IsPrimaryKey == nil && r.IsAutoIncrement == nil &&
		r.IsGenerated == nil && r.IsUnique == nil && r.DefaultValue == nil &&
		!r.ClearDefault && r.CustomExpression == nil
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// ToDefinition нормализует имя, проверяет таблицу и возвращает её определение и поля.
// Ничего не пишет: всё проверяется до мутаций.
func (r CreateTableRequest) ToDefinition() (TableDefinition, []FieldDefinition, error) {
	if len(r.Fields) == 0 {
		return TableDefinition{}, nil, apperr.Validation("No fields provided")
	}
	name, err := NormalizeTableName(r.Name)
	if err != nil {
		return TableDefinition{}, nil, err.(*apperr.Error).WithValues(r.Name)
	}
	t := TableDefinition{
		Name:        name,
		Description: strings.TrimSpace(r.Description),
		IsView:      boolOr(r.IsView, false),
		IsActive:    boolOr(r.IsActive, true),
		IsDeleted:   boolOr(r.IsDeleted, false),
		ViewSQL:     r.ViewSQL,
		Capacity:    r.Capacity,
		Auth:        boolOr(r.Auth, true),
		AuthGet:     boolOr(r.AuthGet, false),
		AuthPost:    boolOr(r.AuthPost, false),
		AuthPut:     boolOr(r.AuthPut, false),
		AuthDelete:  boolOr(r.AuthDelete, false),
	}
	if err := ValidateTable(t); err != nil {
		return TableDefinition{}, nil, err
	}

	fields := make([]FieldDefinition, 0, len(r.Fields))
	seen := make(map[string]struct{}, len(r.Fields))
	for _, fr := range r.Fields {
		f, err := fr.ToDefinition()
		if err != nil {
			return TableDefinition{}, nil, err
		}
		if _, dup := seen[f.Name]; dup {
			return TableDefinition{}, nil, apperr.Conflict("Field %q already exists", f.Name)
		}
		seen[f.Name] = struct{}{}
		fields = append(fields, f)
	}
	if err := ValidateFieldSet(fields); err != nil {
		return TableDefinition{}, nil, err
	}
	return t, fields, nil
}

// ToDefinition нормализует и проверяет одно поле.
func (r CreateFieldRequest) ToDefinition() (FieldDefinition, error) {
	name, err := NormalizeFieldName(r.Name)
	if err != nil {
		return FieldDefinition{}, err.(*apperr.Error).WithValues(r.Name)
	}
	f := FieldDefinition{
		Name:             name,
		Description:      r.Description,
		FieldType:        r.FieldType,
		IsRequired:       r.IsRequired,
		IsPrimaryKey:     r.IsPrimaryKey,
		IsAutoIncrement:  r.IsAutoIncrement,
		IsGenerated:      r.IsGenerated,
		IsUnique:         r.IsUnique,
		DefaultValue:     r.DefaultValue,
		CustomExpression: r.CustomExpression,
	}
	if err := ValidateField(f); err != nil {
		return FieldDefinition{}, err
	}
	return f, nil
}

// Apply возвращает поле после применения патча (без проверки).
func (r UpdateFieldRequest) Apply(old FieldDefinition) (FieldDefinition, error) {
	f := old
	if r.Name != nil {
		name, err := NormalizeFieldName(*r.Name)
		if err != nil {
			return FieldDefinition{}, err
		}
		f.Name = name
	}
	if r.Description != nil {
		f.Description = r.Description
	}
	if r.FieldType != nil {
		f.FieldType = *r.FieldType
	}
	if r.IsRequired != nil {
		f.IsRequired = *r.IsRequired
	}
	if r.IsPrimaryKey != nil {
		f.IsPrimaryKey = *r.IsPrimaryKey
	}
	if r.IsAutoIncrement != nil {
		f.IsAutoIncrement = *r.IsAutoIncrement
	}
	if r.IsGenerated != nil {
		f.IsGenerated = *r.IsGenerated
	}
	if r.IsUnique != nil {
		f.IsUnique = *r.IsUnique
	}
	if r.ClearDefault {
		f.DefaultValue = nil
	} else if r.DefaultValue != nil {
		f.DefaultValue = r.DefaultValue
	}
	if r.CustomExpression != nil {
		f.CustomExpression = r.CustomExpression
	}
	return f, nil
}

// Apply применяет патч к таблице; имя нормализуется и проверяется.
func (r UpdateTableRequest) Apply(old TableDefinition) (TableDefinition, error) {
	t := old
	if r.Name != nil {
		name, err := NormalizeTableName(*r.Name)
		if err != nil {
			return TableDefinition{}, err
		}
		t.Name = name
	}
	if r.Description != nil {
		t.Description = strings.TrimSpace(*r.Description)
	}
	if r.IsActive != nil {
		t.IsActive = *r.IsActive
	}
	if r.IsDeleted != nil {
		t.IsDeleted = *r.IsDeleted
	}
	if r.Capacity != nil {
		t.Capacity = r.Capacity
	}
	if r.Auth != nil {
		t.Auth = *r.Auth
	}
	if r.AuthGet != nil {
		t.AuthGet = *r.AuthGet
	}
	if r.AuthPost != nil {
		t.AuthPost = *r.AuthPost
	}
	if r.AuthPut != nil {
		t.AuthPut = *r.AuthPut
	}
	if r.AuthDelete != nil {
		t.AuthDelete = *r.AuthDelete
	}
	return t, ValidateTable(t)
}

var viewSQLRe = regexp.MustCompile(`(?is)^\s*(select|with)\s`)

// ValidateTable проверяет инварианты таблицы.
func ValidateTable(t TableDefinition) error {
	if _, err := NormalizeTableName(t.Name); err != nil {
		return err
	}
	if t.Description == "" {
		return apperr.Validation("Description cannot be empty").WithValues(t.Name)
	}
	if t.Capacity != nil && *t.Capacity < 0 {
		return apperr.Validation("Capacity cannot be negative").WithValues(*t.Capacity)
	}
	if t.IsView {
		if t.ViewSQL == nil || strings.TrimSpace(*t.ViewSQL) == "" {
			return apperr.Validation("View SQL cannot be empty").WithValues(t.Name)
		}
		sql := strings.TrimSpace(*t.ViewSQL)
		sql = strings.TrimSuffix(sql, ";")
		if !viewSQLRe.MatchString(sql) || strings.Contains(sql, ";") {
			return apperr.Validation("View SQL must be a single SELECT statement").WithValues(t.Name)
		}
	} else if t.ViewSQL != nil && strings.TrimSpace(*t.ViewSQL) != "" {
		return apperr.Validation("View SQL is only allowed for views").WithValues(t.Name)
	}
	return nil
}

// ValidateField проверяет инварианты одного поля.
func ValidateField(f FieldDefinition) error {
	fail := func(msg string) error {
		return apperr.Validation("%s", msg).WithValues(f)
	}
	if f.Name == "" {
		return fail("Name cannot be empty")
	}
	if err := CheckIdent(f.Name); err != nil {
		return err
	}
	if !f.FieldType.Valid() {
		return fail("Field type cannot be empty")
	}
	if f.IsPrimaryKey && !f.IsUnique {
		return fail("Primary key must be unique")
	}
	if f.IsPrimaryKey && f.IsRequired {
		return fail("Primary key cannot be required")
	}
	if f.IsUnique && f.IsRequired {
		return fail("Unique key cannot be required")
	}
	if f.IsAutoIncrement && !f.IsPrimaryKey {
		return fail("Auto increment can only be set for primary key")
	}
	if f.IsAutoIncrement && f.FieldType != Integer {
		return fail("Auto increment can only be set for Integer fields")
	}
	if f.IsGenerated && !f.IsAutoIncrement {
		return fail("Generated can only be set for auto increment")
	}
	if f.DefaultValue != nil {
		if _, err := DefaultLiteral(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateFieldSet: ровно один первичный ключ на момент создания таблицы.
func ValidateFieldSet(fields []FieldDefinition) error {
	pks := 0
	for _, f := range fields {
		if f.IsPrimaryKey {
			pks++
		}
	}
	switch {
	case pks == 0:
		return apperr.Validation("Table must have exactly one primary key")
	case pks > 1:
		return apperr.Validation("Table must have exactly one primary key, got %d", pks)
	}
	return nil
}
