package tasks

import "errors"

// ErrStaleResult marks a network completion that arrived after the
// session identity it was issued under had already been torn down.
// Callers treat it as "nothing happened", not as a failure to render.
var ErrStaleResult = errors.New("result discarded: session changed while request was in flight")
