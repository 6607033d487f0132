package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/safarni/tourism-booking/internal/model"
)

// Store bundles the repositories behind one value that satisfies the
// store interfaces declared by the service layer. Services depend on
// those interfaces, not on *sql.DB, which keeps them testable against
// in-memory fakes.
type Store struct {
	Tourists *TouristRepo
	Items    *ItemRepo
	Bookings *BookingRepo
}

// NewStore builds a Store over a single database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		Tourists: NewTouristRepo(db),
		Items:    NewItemRepo(db),
		Bookings: NewBookingRepo(db),
	}
}

func (s *Store) GetTourist(ctx context.Context, id uint64) (*model.Tourist, error) {
	return s.Tourists.GetByID(ctx, id)
}

func (s *Store) ApplyWalletDelta(ctx context.Context, id uint64, delta decimal.Decimal) (decimal.Decimal, error) {
	return s.Tourists.ApplyWalletDelta(ctx, id, delta)
}

func (s *Store) SetLoyalty(ctx context.Context, id uint64, points decimal.Decimal, tier int, badge string, walletDelta decimal.Decimal, expectVersion uint64) error {
	return s.Tourists.SetLoyalty(ctx, id, points, tier, badge, walletDelta, expectVersion)
}

func (s *Store) GetItem(ctx context.Context, id uint64) (*model.Item, error) {
	return s.Items.GetByID(ctx, id)
}

func (s *Store) ItemHasDate(ctx context.Context, itemID uint64, date time.Time) (bool, error) {
	return s.Items.HasDate(ctx, itemID, date)
}

func (s *Store) ListItemDates(ctx context.Context, itemID uint64) ([]time.Time, error) {
	return s.Items.ListDates(ctx, itemID)
}

func (s *Store) InsertBooking(ctx context.Context, b *model.Booking) error {
	return s.Bookings.Insert(ctx, b)
}

func (s *Store) FindSlot(ctx context.Context, itemID, touristID uint64, date time.Time) (*model.Booking, error) {
	return s.Bookings.FindSlot(ctx, itemID, touristID, date)
}

func (s *Store) ActiveBookings(ctx context.Context, itemID, touristID uint64) ([]model.Booking, error) {
	return s.Bookings.ActiveByItemAndTourist(ctx, itemID, touristID)
}

func (s *Store) ReservedBooking(ctx context.Context, itemID, touristID uint64, date *time.Time) (*model.Booking, error) {
	return s.Bookings.ReservedBooking(ctx, itemID, touristID, date)
}

func (s *Store) ListBookings(ctx context.Context, itemID, touristID uint64) ([]model.Booking, error) {
	return s.Bookings.ListByItemAndTourist(ctx, itemID, touristID)
}

func (s *Store) MarkPaid(ctx context.Context, id uint64, amount, points decimal.Decimal, tier int, paymentRef *string) error {
	return s.Bookings.MarkPaid(ctx, id, amount, points, tier, paymentRef)
}

func (s *Store) MarkReserved(ctx context.Context, id uint64) error {
	return s.Bookings.MarkReserved(ctx, id)
}

func (s *Store) MarkCancelled(ctx context.Context, id uint64, from model.BookingStatus) error {
	return s.Bookings.MarkCancelled(ctx, id, from)
}

func (s *Store) RestorePaid(ctx context.Context, id uint64, amount, points decimal.Decimal, tier int, paymentRef *string) error {
	return s.Bookings.RestorePaid(ctx, id, amount, points, tier, paymentRef)
}

func (s *Store) DueForReminder(ctx context.Context, from, to time.Time) ([]model.Booking, error) {
	return s.Bookings.DueForReminder(ctx, from, to)
}

func (s *Store) ClaimReminder(ctx context.Context, id uint64, at time.Time) (bool, error) {
	return s.Bookings.ClaimReminder(ctx, id, at)
}
