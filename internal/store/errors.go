package store

import "errors"

var (
	ErrStoreClosed           = errors.New("credential store is closed")
	ErrIncompleteCredentials = errors.New("token and user must both be present")
)
