package live

import "errors"

var (
	ErrMissingIdentity = errors.New("bind requires a user ID and token")
)
