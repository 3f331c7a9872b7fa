package repo

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingField is returned when a required field is empty; the field name is wrapped in
	ErrMissingField = errors.New("missing required field")

	// ErrMissingPhoto is returned when a book is added without a cover photo
	ErrMissingPhoto = errors.New("photo is required")

	// ErrBookNotFound is returned when a book is not found
	ErrBookNotFound = errors.New("book not found")

	// ErrISBNAlreadyExists is returned when another book already carries the ISBN
	ErrISBNAlreadyExists = errors.New("book with this ISBN already exists")

	// ErrAccountNotFound is returned when an account is not found
	ErrAccountNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned when registering an email twice
	ErrEmailAlreadyExists = errors.New("email already registered")

	// ErrBadCredential is returned when a password does not match
	ErrBadCredential = errors.New("invalid credentials")

	// ErrRentRequestNotFound is returned when a rental request is not found
	ErrRentRequestNotFound = errors.New("rent request not found")

	// ErrNoRentRequests is returned when the ledger holds no rows at all
	ErrNoRentRequests = errors.New("no rent requests found")

	// ErrInvalidTransition is returned when reviewing a request that is not pending
	ErrInvalidTransition = errors.New("rent request already reviewed")

	// ErrInvalidAction is returned for a review action other than accept or reject
	ErrInvalidAction = errors.New("action must be accept or reject")

	// ErrInvalidRole is returned for a role other than User or Admin
	ErrInvalidRole = errors.New("role must be User or Admin")
)

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}

// requireFields returns ErrMissingField for the first blank value, in order
func requireFields(fields ...[2]string) error {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			return missing(f[0])
		}
	}
	return nil
}
