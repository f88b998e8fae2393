package models

// RolePermission grants a permission to a role. The pair is unique, so a role
// can not hold the same permission twice. PermissionID is nullable.
type RolePermission struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	RoleID       uint        `gorm:"not null;uniqueIndex:idx_role_permission" json:"roleId"`
	PermissionID *uint       `gorm:"uniqueIndex:idx_role_permission" json:"permissionId"`
	Role         *Role       `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"-"`
	Permission   *Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE" json:"permission,omitempty"`
}

// TableName overrides the gorm default.
func (RolePermission) TableName() string {
	return "role_permissions"
}
