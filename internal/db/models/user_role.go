package models

// UserRole assigns at most one role to a user. Deleting the user removes the
// row, deleting the role only clears RoleID.
type UserRole struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint64 `gorm:"not null;uniqueIndex" json:"userId"`
	User   *User  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	RoleID *uint  `json:"roleId"`
	Role   *Role  `gorm:"foreignKey:RoleID;constraint:OnDelete:SET NULL" json:"role,omitempty"`
}

// TableName overrides the gorm default.
func (UserRole) TableName() string {
	return "user_roles"
}
