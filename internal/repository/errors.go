// Package repository defines the MySQL-backed stores used by the service and
// the sentinel errors shared between them.  Handlers and middleware match on
// these values with errors.Is rather than on driver errors.
package repository

import "errors"

// ErrUserNotFound is returned when no user matches the lookup key.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned when an insert violates the unique email index.
var ErrEmailExists = errors.New("email already exists")

// ErrInvalidRole is returned when a write would store a role outside the
// closed role set.
var ErrInvalidRole = errors.New("invalid role")
