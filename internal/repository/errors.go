package repository

import "errors"

var (
	// ErrNotFound means the referenced message, room, or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotMember means the user is not a current member of the room.
	ErrNotMember = errors.New("not a room member")
)
