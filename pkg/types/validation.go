package types

import "strings"

// IsValidRole checks a role string against the two known roles.
func IsValidRole(role Role) bool {
	return role == RoleAdmin || role == RoleUser
}

// IsValidStatus checks a status string against the known task states.
func IsValidStatus(status Status) bool {
	switch status {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// IsValidEmail applies the minimal shape check the server applies.
// Full address validation is the server's job; the client only rejects
// values that cannot possibly be addresses.
func IsValidEmail(email string) bool {
	if len(email) < 3 || len(email) > 254 {
		return false
	}
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}

// Validate ensures a registration payload meets the register
// endpoint's requirements before it is sent.
func (r *Registration) Validate() error {
	if len(r.Name) < 1 || len(r.Name) > 100 {
		return ErrEmptyName
	}
	if !IsValidEmail(r.Email) {
		return ErrInvalidEmail
	}
	if r.Password == "" {
		return ErrEmptyPassword
	}
	return nil
}

// Validate ensures a user record is complete enough to act as a
// session identity.
func (u *User) Validate() error {
	if u.ID == "" {
		return ErrUnauthorized
	}
	if !IsValidRole(u.Role) {
		return ErrInvalidRole
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
