package auth

import "errors"

var (
	// ErrUserNotFound is returned for unknown user ids or usernames.
	ErrUserNotFound = errors.New("user not found")

	// ErrRoleNotFound is returned for unknown role ids.
	ErrRoleNotFound = errors.New("role not found")

	// ErrPermissionNotFound is returned for unknown permission ids.
	ErrPermissionNotFound = errors.New("permission not found")

	// ErrDuplicateGrant is returned when a role already holds the permission.
	ErrDuplicateGrant = errors.New("role already has this permission")

	// ErrUsernameExists is returned when registering a taken username.
	ErrUsernameExists = errors.New("a user with that username already exists")

	// ErrEmailExists is returned when registering a taken email address.
	ErrEmailExists = errors.New("a user with that email already exists")

	// ErrUserAccountDisabled is returned when a disabled account tries to log in.
	ErrUserAccountDisabled = errors.New("user account is disabled")

	// ErrInvalidPassword is returned for a wrong password.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidOldPassword is returned when a password change does not match the current password.
	ErrInvalidOldPassword = errors.New("invalid old password")

	// ErrInvalidToken is returned for tokens that fail parsing, signature or expiry checks.
	ErrInvalidToken = errors.New("invalid token")

	// ErrWrongTokenType is returned when an access token is used as refresh token or vice versa.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrTokenRevoked is returned for refresh tokens revoked by logout.
	ErrTokenRevoked = errors.New("token has been revoked")

	// ErrTenantMismatch is returned for a token used outside the tenant schema it was issued in.
	ErrTenantMismatch = errors.New("token was issued for another tenant")
)
