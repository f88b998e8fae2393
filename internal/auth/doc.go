// Package auth implements the access control model and the token gateway of
// the catalog backend.
//
// # Access control
//
// A user holds at most one role (UserRole), a role is granted any number of
// permissions (RolePermission). A user has permission P if and only if the
// role of its UserRole row is granted P. Users without a UserRole row, or
// whose row has no role, have no permissions. Service maintains this graph
// and answers permission queries:
//   - AssignRole, GrantPermission, RevokePermission
//   - DeleteRole, DeletePermission with their cascades
//   - HasPermission, HasAnyPermission, HasAllPermissions, GetUserPermissions
//
// # Accounts and tokens
//
// LocalProvider registers and authenticates local accounts with argon2id
// password hashes. TokenManager issues HS256 access and refresh tokens and
// keeps revoked refresh tokens in a fiber.Storage until they expire.
//
// # Middleware
//
// RequireToken authenticates the bearer token of a request. RequirePermission
// and friends then consult Service for every request, token claims are never
// trusted for authorization:
//
//	api.Get("/products/",
//	    auth.RequireToken(tokens),
//	    auth.RequirePermission(authService, auth.PermProductRead),
//	    handler,
//	)
package auth
