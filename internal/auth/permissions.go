package auth

import "strings"

// Permission names in resource.action form.
const (
	PermCategoryRead   = "category.read"
	PermCategoryCreate = "category.create"
	PermCategoryUpdate = "category.update"
	PermCategoryDelete = "category.delete"

	PermProductRead   = "product.read"
	PermProductCreate = "product.create"
	PermProductUpdate = "product.update"
	PermProductDelete = "product.delete"

	PermSubjectRead   = "subject.read"
	PermSubjectCreate = "subject.create"
	PermSubjectUpdate = "subject.update"
	PermSubjectDelete = "subject.delete"

	PermTeacherRead   = "teacher.read"
	PermTeacherCreate = "teacher.create"
	PermTeacherUpdate = "teacher.update"
	PermTeacherDelete = "teacher.delete"

	// PermAdminUsers allows managing user accounts and their role.
	PermAdminUsers = "admin.users"
	// PermAdminRoles allows managing roles, permissions and grants.
	PermAdminRoles = "admin.roles"
)

// Definition describes a built in permission.
type Definition struct {
	Name        string
	Description string
}

// Resource is the part of the name before the first dot.
func (d Definition) Resource() string {
	resource, _, _ := strings.Cut(d.Name, ".")

	return resource
}

// Action is the part of the name after the first dot.
func (d Definition) Action() string {
	_, action, _ := strings.Cut(d.Name, ".")

	return action
}

// Definitions lists the built in permissions, created on start.
var Definitions = []Definition{ //nolint:gochecknoglobals
	{PermCategoryRead, "View categories"},
	{PermCategoryCreate, "Create categories"},
	{PermCategoryUpdate, "Edit categories"},
	{PermCategoryDelete, "Delete categories and their products"},
	{PermProductRead, "View products"},
	{PermProductCreate, "Create products"},
	{PermProductUpdate, "Edit products and their image"},
	{PermProductDelete, "Delete products"},
	{PermSubjectRead, "View subjects"},
	{PermSubjectCreate, "Create subjects"},
	{PermSubjectUpdate, "Edit subjects"},
	{PermSubjectDelete, "Delete subjects and their teachers"},
	{PermTeacherRead, "View teachers"},
	{PermTeacherCreate, "Create teachers"},
	{PermTeacherUpdate, "Edit teachers and their photo"},
	{PermTeacherDelete, "Delete teachers"},
	{PermAdminUsers, "Manage user accounts"},
	{PermAdminRoles, "Manage roles and permissions"},
}

// ReadPermissions returns the names of all *.read permissions.
func ReadPermissions() []string {
	var out []string

	for _, d := range Definitions {
		if d.Action() == "read" {
			out = append(out, d.Name)
		}
	}

	return out
}
