package chat

import "errors"

var (
	// ErrUnauthorized means the user is not a current member of the room,
	// or is mutating a message they do not own. No broadcast, no partial
	// state change.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation covers empty content and oversized or malformed
	// payloads rejected before persistence.
	ErrValidation = errors.New("validation failed")

	// ErrMalformed marks an undecodable or unknown inbound envelope. The
	// event is dropped and the connection stays open.
	ErrMalformed = errors.New("malformed event")
)
