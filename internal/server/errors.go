package server

import "errors"

var (
	ErrEmailTaken      = errors.New("an account with this email already exists")
	ErrBadCredentials  = errors.New("invalid email or password")
	ErrAccountDisabled = errors.New("account is deactivated")
	ErrUserNotFound    = errors.New("user not found")
	ErrTaskNotFound    = errors.New("task not found")
)
