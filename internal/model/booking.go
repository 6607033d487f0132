package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle state of a booking.  The only legal
// transitions are RESERVED -> PAID, RESERVED -> CANCELLED and
// PAID -> CANCELLED.  CANCELLED is terminal; cancelled rows are retained
// for history rather than deleted.
type BookingStatus string

const (
	StatusReserved  BookingStatus = "RESERVED"
	StatusPaid      BookingStatus = "PAID"
	StatusCancelled BookingStatus = "CANCELLED"
)

// Valid reports whether s is one of the three known states.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusReserved, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether the booking still occupies its
// (item, tourist, date) slot.  Cancelled bookings free the slot.
func (s BookingStatus) Active() bool {
	return s == StatusReserved || s == StatusPaid
}

// Booking records a tourist's reservation of an item for a specific day.
// The uniqueness of active bookings per (item, tourist, date) is enforced
// by the database, not by application-level checks.
//
// Fields:
//  ID            – primary key identifier.
//  ItemID        – item being booked.
//  TouristID     – tourist who booked.
//  ScheduledDate – day of the activity/itinerary, UTC midnight.
//  Status        – RESERVED, PAID or CANCELLED.
//  AmountPaid    – EGP charged at payment time (zero while reserved).
//  PointsAwarded – loyalty points granted at payment time, kept for audit.
//  EarnTier      – tourist's tier at payment time, kept for audit.
//  PaymentRef    – external gateway reference for card payments.
//  RemindedAt    – when a reminder was last dispatched (nullable).
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Booking struct {
	ID            uint64          // bookings.id
	ItemID        uint64          // bookings.item_id
	TouristID     uint64          // bookings.tourist_id
	ScheduledDate time.Time       // bookings.scheduled_date
	Status        BookingStatus   // bookings.status
	AmountPaid    decimal.Decimal // bookings.amount_paid
	PointsAwarded decimal.Decimal // bookings.points_awarded
	EarnTier      int             // bookings.earn_tier
	PaymentRef    *string         // bookings.payment_ref (nullable)
	RemindedAt    *time.Time      // bookings.reminded_at (nullable)
	CreatedAt     time.Time       // bookings.created_at
	UpdatedAt     time.Time       // bookings.updated_at
}
