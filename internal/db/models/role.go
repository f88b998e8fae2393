package models

import "time"

// Role groups permissions. A user holds at most one role.
type Role struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"unique;size:100;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
	// IsSystem roles are created by the seeder and can not be deleted through the api.
	IsSystem  bool      `gorm:"default:false" json:"isSystem"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName overrides the gorm default.
func (Role) TableName() string {
	return "roles"
}
