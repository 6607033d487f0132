// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and services to distinguish between failure scenarios without
// inspecting SQL driver errors themselves.
package repository

import "errors"

// ErrTouristNotFound is returned when the referenced tourist does not
// exist. Handlers translate this into an HTTP 404 response.
var ErrTouristNotFound = errors.New("tourist not found")

// ErrItemNotFound is returned when the referenced bookable item does not
// exist. Handlers translate this into an HTTP 404 response.
var ErrItemNotFound = errors.New("item not found")

// ErrBookingNotFound is returned when no booking matches the requested
// (item, tourist, date) slot.
var ErrBookingNotFound = errors.New("booking not found")

// ErrDuplicateBooking is returned when an insert collides with an
// existing active booking for the same (item, tourist, date). The
// database unique key is the source of truth for this condition, so two
// concurrent inserts can never both succeed.
var ErrDuplicateBooking = errors.New("duplicate booking")

// ErrInsufficientFunds is returned when a wallet debit would take the
// balance below zero. The check and the write happen in one conditional
// UPDATE, never as a read followed by a write.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrConflict is returned when a conditional update matched no row
// because the record changed underneath the caller (status flipped,
// version bumped). Services either retry or surface a state error.
var ErrConflict = errors.New("conflict")
