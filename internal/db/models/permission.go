package models

import "time"

// Permission is a named right in resource.action form, e.g. "product.update".
type Permission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"unique;size:100;not null" json:"name"`
	Resource    string    `gorm:"size:100;not null" json:"resource"`
	Action      string    `gorm:"size:50;not null" json:"action"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName overrides the gorm default.
func (Permission) TableName() string {
	return "permissions"
}
