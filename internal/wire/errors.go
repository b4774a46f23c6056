package wire

import "errors"

// ErrMalformed marks a datagram that failed to parse. Per spec §7 the
// correct response is to drop the message, never to crash.
var ErrMalformed = errors.New("malformed wire message")
