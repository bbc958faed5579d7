package types

import "errors"

// Shared error values crossing package boundaries. Controllers map
// transport failures onto these so callers can render them directly.
var (
	ErrUnauthorized   = errors.New("invalid credentials or expired session")
	ErrForbidden      = errors.New("not permitted for this role")
	ErrInvalidRole    = errors.New("role must be 'admin' or 'user'")
	ErrInvalidStatus  = errors.New("status must be 'pending', 'in-progress' or 'completed'")
	ErrInvalidEmail   = errors.New("email must be 3-254 characters and contain '@'")
	ErrEmptyPassword  = errors.New("password cannot be empty")
	ErrEmptyName      = errors.New("name must be 1-100 characters")
	ErrEmptySelection = errors.New("no tasks selected")
)
