package schema

import "time"

// TableDefinition описывает пользовательскую таблицу (строка каталога "tables").
type TableDefinition struct {
	ID          int       `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:50;not null;uniqueIndex:tables_name_key"`
	Description string    `json:"description" gorm:"not null"`
	IsView      bool      `json:"isView" gorm:"not null"`
	IsActive    bool      `json:"isActive" gorm:"not null"`
	IsDeleted   bool      `json:"isDeleted" gorm:"not null"`
	ViewSQL     *string   `json:"viewSql" gorm:"column:view_sql"`
	Capacity    *int      `json:"capacity"`
	Auth        bool      `json:"auth" gorm:"not null"`
	AuthGet     bool      `json:"authGet" gorm:"not null"`
	AuthPost    bool      `json:"authPost" gorm:"not null"`
	AuthPut     bool      `json:"authPut" gorm:"not null"`
	AuthDelete  bool      `json:"authDelete" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Fields      []FieldDefinition `json:"-" gorm:"foreignKey:TableID;constraint:OnDelete:CASCADE"`
	Permissions []TablePermission `json:"-" gorm:"foreignKey:TableID;constraint:OnDelete:CASCADE"`
}

func (TableDefinition) TableName() string { return "tables" }

// Available: таблица видна через /custom.
func (t *TableDefinition) Available() bool {
	return t.IsActive && !t.IsDeleted
}

// FieldDefinition: колонка, принадлежащая таблице (строка каталога "fields").
type FieldDefinition struct {
	ID               int       `json:"id" gorm:"primaryKey"`
	Name             string    `json:"name" gorm:"size:255;not null;uniqueIndex:fields_table_name_key,priority:2"`
	Description      *string   `json:"description"`
	FieldType        FieldType `json:"fieldType" gorm:"not null"`
	TableID          int       `json:"tableId" gorm:"not null;index;uniqueIndex:fields_table_name_key,priority:1"`
	IsRequired       bool      `json:"isRequired" gorm:"not null"`
	IsPrimaryKey     bool      `json:"isPrimaryKey" gorm:"not null"`
	IsAutoIncrement  bool      `json:"isAutoIncrement" gorm:"not null"`
	IsGenerated      bool      `json:"isGenerated" gorm:"not null"`
	IsUnique         bool      `json:"isUnique" gorm:"not null"`
	DefaultValue     *string   `json:"defaultValue" gorm:"size:255"`
	CustomExpression *string   `json:"customExpression"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (FieldDefinition) TableName() string { return "fields" }

// TablePermission: разрешение одной операции для таблицы.
type TablePermission struct {
	ID         int        `json:"id" gorm:"primaryKey"`
	TableID    int        `json:"tableId" gorm:"not null;uniqueIndex:tables_permissions_table_perm_key,priority:1"`
	Permission Permission `json:"permission" gorm:"not null;uniqueIndex:tables_permissions_table_perm_key,priority:2"`
	Allow      bool       `json:"allow" gorm:"not null"`
}

func (TablePermission) TableName() string { return "tables_permissions" }

// DefaultPermissions: набор, создаваемый вместе с таблицей (всё разрешено).
func DefaultPermissions(tableID int) []TablePermission {
	out := make([]TablePermission, 0, len(Permissions))
	for _, p := range Permissions {
		out = append(out, TablePermission{TableID: tableID, Permission: p, Allow: true})
	}
	return out
}

// PrimaryKey возвращает поле первичного ключа, если оно есть.
func PrimaryKey(fields []FieldDefinition) (FieldDefinition, bool) {
	for _, f := range fields {
		if f.IsPrimaryKey {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// FieldByName ищет поле по точному (нормализованному) имени.
func FieldByName(fields []FieldDefinition, name string) (FieldDefinition, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// FieldNames: имена полей в порядке объявления.
func FieldNames(fields []FieldDefinition) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Name)
	}
	return out
}
