// Package service holds the booking, wallet, loyalty and reminder logic.
// Services depend on small store interfaces rather than *sql.DB so the
// state-machine and money rules can be tested without a database.
package service

import "errors"

// ErrInvalidAmount is returned when a wallet operation is attempted
// with a zero or negative amount.
var ErrInvalidAmount = errors.New("amount must be positive")

// ErrInvalidTier is returned when a tier outside 1..3 reaches the
// loyalty computations.
var ErrInvalidTier = errors.New("invalid loyalty tier")

// ErrInsufficientPoints is returned when a redemption is attempted with
// fewer points than one redemption unit.
var ErrInsufficientPoints = errors.New("insufficient loyalty points")

// ErrInvalidDate is returned when a booking targets a day in the past,
// a day outside an itinerary's schedule, or omits the date where one is
// required.
var ErrInvalidDate = errors.New("invalid booking date")

// ErrBookingClosed is returned when an activity is not open for booking.
var ErrBookingClosed = errors.New("item closed for booking")

// ErrBookingState is returned when a booking is not in a state the
// operation requires, including cancelling an already-cancelled booking.
var ErrBookingState = errors.New("booking not in required state")

// ErrLeadTimeTooShort is returned when a cancellation is attempted less
// than the minimum lead time before the scheduled date.
var ErrLeadTimeTooShort = errors.New("cancellation lead time too short")

// ErrDateRequired is returned when the tourist holds several active
// bookings on the item and the request does not say which one.
var ErrDateRequired = errors.New("date required to identify booking")

// ErrUnknownMethod is returned for payment methods other than wallet
// and card.
var ErrUnknownMethod = errors.New("unknown payment method")
