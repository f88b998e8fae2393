// Package models contains the gorm models of the catalog backend.
package models

// Setting is a named value persisted by the service itself, e.g. a generated signing key.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"unique;size:100"`
	Value []byte
}

// All lists every model in migration order.
func All() []any {
	return []any{
		&Setting{},
		&User{},
		&Role{},
		&Permission{},
		&RolePermission{},
		&UserRole{},
		&Category{},
		&Product{},
		&Subject{},
		&Teacher{},
	}
}
