package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Deliberately generic: the same error whether the email is unknown or
	// the password is wrong, so accounts can't be enumerated via login
	ErrLoginFailed = errors.New("invalid email or password")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrAccessTokenExpired = errors.New("access token is expired")
	ErrAccessTokenInvalid = errors.New("access token is invalid")
	ErrClaimsInvalid      = errors.New("access token payload is invalid")

	ErrElevationSecretMismatch = errors.New("admin elevation secret mismatch")
	ErrSelfRoleChange          = errors.New("user may not change own role")
	ErrLastAdmin               = errors.New("cannot remove the last admin user")
)
