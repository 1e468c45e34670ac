package storage

import "errors"

var (
	// ErrNotFound indicates that the requested user was not found.
	ErrNotFound = errors.New("user not found")

	// ErrDuplicatePhone indicates an insert collided with an existing user
	// for the same phone number (concurrent first contact).
	ErrDuplicatePhone = errors.New("phone number already registered")
)
