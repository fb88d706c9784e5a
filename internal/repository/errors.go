// Package repository holds the MySQL access code.  The sentinel errors
// below let handlers and services tell failure scenarios apart without
// looking at driver errors.
package repository

import "errors"

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email already exists")

// ErrInsufficientStock is returned when a ledger decrement would take a
// group's total below zero, or when there are not enough available units
// to cover a request.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrInvalidTransition is returned when a status update does not start
// from the expected state (e.g. fulfilling a cancelled request).
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrConflict is returned when an insert collides with existing state,
// such as a donation unit that already has a transfusion.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller acts on a row owned by
// someone else.
var ErrForbidden = errors.New("forbidden")
