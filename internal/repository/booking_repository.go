package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/safarni/tourism-booking/internal/model"
)

// BookingRepo provides data access to the bookings table. Bookings are
// never deleted: cancellation flips the status to CANCELLED and clears
// the `active` marker, which frees the (item, tourist, date) slot for a
// later re-booking while keeping the row for history.
//
// The `active` column is 1 for RESERVED/PAID rows and NULL for
// CANCELLED ones. A unique key over (item_id, tourist_id,
// scheduled_date, active) therefore rejects a second active booking for
// the same slot but tolerates any number of cancelled ones, since NULL
// values never collide in a MySQL unique index.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, item_id, tourist_id, scheduled_date, status, amount_paid,
	   points_awarded, earn_tier, payment_ref, reminded_at, created_at, updated_at`

type bookingScanner interface {
	Scan(dest ...any) error
}

func scanBooking(s bookingScanner, b *model.Booking) error {
	return s.Scan(
		&b.ID, &b.ItemID, &b.TouristID, &b.ScheduledDate, &b.Status,
		&b.AmountPaid, &b.PointsAwarded, &b.EarnTier, &b.PaymentRef,
		&b.RemindedAt, &b.CreatedAt, &b.UpdatedAt,
	)
}

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (code 1062), which is how a collision on the active-slot unique key
// surfaces from the driver.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// Insert creates a new RESERVED booking and populates the generated ID
// and timestamps on the passed record. Exactly one of two concurrent
// inserts for the same slot succeeds; the loser gets
// ErrDuplicateBooking from the unique key, with no read-then-write
// window in between.
func (r *BookingRepo) Insert(ctx context.Context, b *model.Booking) error {
	const ins = `INSERT INTO bookings (item_id, tourist_id, scheduled_date, status, amount_paid, points_awarded, earn_tier, active)
				 VALUES (?, ?, ?, ?, 0, 0, 0, 1)`
	res, err := r.db.ExecContext(ctx, ins, b.ItemID, b.TouristID,
		b.ScheduledDate.UTC().Truncate(24*time.Hour), model.StatusReserved)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateBooking
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	return scanBooking(row, b)
}

// FindSlot returns the most recent booking for the slot regardless of
// status, or ErrBookingNotFound. Used to tell "never booked" apart from
// "already cancelled".
func (r *BookingRepo) FindSlot(ctx context.Context, itemID, touristID uint64, date time.Time) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
			   WHERE item_id = ? AND tourist_id = ? AND scheduled_date = ?
			   ORDER BY id DESC LIMIT 1`
	var b model.Booking
	err := scanBooking(r.db.QueryRowContext(ctx, q, itemID, touristID,
		date.UTC().Truncate(24*time.Hour)), &b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ActiveByItemAndTourist lists the tourist's RESERVED and PAID bookings
// on one item, earliest date first.
func (r *BookingRepo) ActiveByItemAndTourist(ctx context.Context, itemID, touristID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
			   WHERE item_id = ? AND tourist_id = ? AND active = 1
			   ORDER BY scheduled_date`
	return r.queryBookings(ctx, q, itemID, touristID)
}

// ReservedBooking returns the tourist's RESERVED booking on the item.
// When date is nil the earliest reserved booking is chosen.
func (r *BookingRepo) ReservedBooking(ctx context.Context, itemID, touristID uint64, date *time.Time) (*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings
		  WHERE item_id = ? AND tourist_id = ? AND status = ?`
	args := []any{itemID, touristID, model.StatusReserved}
	if date != nil {
		q += ` AND scheduled_date = ?`
		args = append(args, date.UTC().Truncate(24*time.Hour))
	}
	q += ` ORDER BY scheduled_date LIMIT 1`
	var b model.Booking
	err := scanBooking(r.db.QueryRowContext(ctx, q, args...), &b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListByItemAndTourist returns the tourist's full booking history on an
// item, cancelled rows included, newest first.
func (r *BookingRepo) ListByItemAndTourist(ctx context.Context, itemID, touristID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
			   WHERE item_id = ? AND tourist_id = ?
			   ORDER BY id DESC`
	return r.queryBookings(ctx, q, itemID, touristID)
}

func (r *BookingRepo) queryBookings(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// MarkPaid transitions a booking RESERVED -> PAID, recording the amount
// charged, the points awarded and the tier they were computed with, plus
// the gateway reference for card payments. The status precondition sits
// in the WHERE clause; a miss means the booking changed concurrently and
// yields ErrConflict.
func (r *BookingRepo) MarkPaid(ctx context.Context, id uint64, amount, points decimal.Decimal, tier int, paymentRef *string) error {
	const upd = `UPDATE bookings
				 SET status = ?, amount_paid = ?, points_awarded = ?, earn_tier = ?, payment_ref = ?, updated_at = UTC_TIMESTAMP()
				 WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, upd, model.StatusPaid, amount, points, tier, paymentRef, id, model.StatusReserved)
	if err != nil {
		return err
	}
	return oneRowOrConflict(res)
}

// MarkReserved reverts a PAID booking back to RESERVED, clearing the
// payment fields. Used as the compensating step when awarding loyalty
// points fails after the money moved.
func (r *BookingRepo) MarkReserved(ctx context.Context, id uint64) error {
	const upd = `UPDATE bookings
				 SET status = ?, amount_paid = 0, points_awarded = 0, earn_tier = 0, payment_ref = NULL, updated_at = UTC_TIMESTAMP()
				 WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, upd, model.StatusReserved, id, model.StatusPaid)
	if err != nil {
		return err
	}
	return oneRowOrConflict(res)
}

// MarkCancelled transitions a booking from the given status to
// CANCELLED and clears the active marker so the slot can be re-booked.
// The row itself is retained for history.
func (r *BookingRepo) MarkCancelled(ctx context.Context, id uint64, from model.BookingStatus) error {
	const upd = `UPDATE bookings
				 SET status = ?, active = NULL, updated_at = UTC_TIMESTAMP()
				 WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, upd, model.StatusCancelled, id, from)
	if err != nil {
		return err
	}
	return oneRowOrConflict(res)
}

// RestorePaid puts a just-cancelled booking back to PAID, reinstating
// the active marker and the payment fields. Used as the compensating
// step when a refund or points reversal fails after the row was already
// cancelled; MarkPaid cannot serve here because its precondition is
// RESERVED. Restoring active = 1 can collide with a new booking the
// tourist made on the slot in the meantime; that surfaces as
// ErrDuplicateBooking and is logged by the caller.
func (r *BookingRepo) RestorePaid(ctx context.Context, id uint64, amount, points decimal.Decimal, tier int, paymentRef *string) error {
	const upd = `UPDATE bookings
				 SET status = ?, active = 1, amount_paid = ?, points_awarded = ?, earn_tier = ?, payment_ref = ?, updated_at = UTC_TIMESTAMP()
				 WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, upd, model.StatusPaid, amount, points, tier, paymentRef, id, model.StatusCancelled)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateBooking
		}
		return err
	}
	return oneRowOrConflict(res)
}

// DueForReminder returns active bookings whose scheduled date falls in
// [from, to) and that have not been reminded yet.
func (r *BookingRepo) DueForReminder(ctx context.Context, from, to time.Time) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
			   WHERE active = 1 AND scheduled_date >= ? AND scheduled_date < ? AND reminded_at IS NULL
			   ORDER BY scheduled_date, id`
	return r.queryBookings(ctx, q, from.UTC(), to.UTC())
}

// ClaimReminder stamps reminded_at on a booking if and only if it is
// still unset, and reports whether this caller won the claim. Two
// overlapping sweeps therefore dispatch at most one reminder per
// booking.
func (r *BookingRepo) ClaimReminder(ctx context.Context, id uint64, at time.Time) (bool, error) {
	const upd = `UPDATE bookings SET reminded_at = ?, updated_at = UTC_TIMESTAMP()
				 WHERE id = ? AND reminded_at IS NULL`
	res, err := r.db.ExecContext(ctx, upd, at.UTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func oneRowOrConflict(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}
