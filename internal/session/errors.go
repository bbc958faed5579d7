package session

import "errors"

var (
	ErrAlreadyInitialized = errors.New("session controller already initialized")
	ErrNotInitialized     = errors.New("session controller not initialized")
	ErrStoreNotReady      = errors.New("credential store is not ready")
)
