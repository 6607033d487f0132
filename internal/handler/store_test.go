package handler_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/safarni/tourism-booking/internal/model"
	"github.com/safarni/tourism-booking/internal/repository"
)

// stubStore backs handler tests with one tourist and one item. It keeps
// the store contract the handlers rely on through the service layer:
// conditional wallet writes, versioned loyalty writes and single-active
// booking slots.
type stubStore struct {
	mu       sync.Mutex
	tourist  model.Tourist
	item     model.Item
	dates    map[string]bool
	bookings []*model.Booking
	nextID   uint64
}

func newStubStore(tourist model.Tourist, item model.Item) *stubStore {
	return &stubStore{tourist: tourist, item: item, dates: map[string]bool{}, nextID: 1}
}

func dayKey(t time.Time) string { return t.UTC().Truncate(24 * time.Hour).Format("2006-01-02") }

func (s *stubStore) GetTourist(_ context.Context, id uint64) (*model.Tourist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.tourist.ID {
		return nil, repository.ErrTouristNotFound
	}
	cp := s.tourist
	return &cp, nil
}

func (s *stubStore) ApplyWalletDelta(_ context.Context, id uint64, delta decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.tourist.ID {
		return decimal.Zero, repository.ErrTouristNotFound
	}
	next := s.tourist.WalletBalance.Add(delta)
	if next.Sign() < 0 {
		return decimal.Zero, repository.ErrInsufficientFunds
	}
	s.tourist.WalletBalance = next
	s.tourist.Version++
	return next, nil
}

func (s *stubStore) SetLoyalty(_ context.Context, id uint64, points decimal.Decimal, tier int, badge string, walletDelta decimal.Decimal, expectVersion uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.tourist.ID {
		return repository.ErrTouristNotFound
	}
	if s.tourist.Version != expectVersion {
		return repository.ErrConflict
	}
	s.tourist.LoyaltyPoints = points
	s.tourist.Tier = tier
	s.tourist.Badge = badge
	s.tourist.WalletBalance = s.tourist.WalletBalance.Add(walletDelta)
	s.tourist.Version++
	return nil
}

func (s *stubStore) GetItem(_ context.Context, id uint64) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.item.ID {
		return nil, repository.ErrItemNotFound
	}
	cp := s.item
	return &cp, nil
}

func (s *stubStore) ItemHasDate(_ context.Context, itemID uint64, date time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return itemID == s.item.ID && s.dates[dayKey(date)], nil
}

func (s *stubStore) ListItemDates(_ context.Context, itemID uint64) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Time
	if itemID == s.item.ID {
		for k := range s.dates {
			d, err := time.ParseInLocation("2006-01-02", k, time.UTC)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (s *stubStore) InsertBooking(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.bookings {
		if ex.ItemID == b.ItemID && ex.TouristID == b.TouristID &&
			dayKey(ex.ScheduledDate) == dayKey(b.ScheduledDate) && ex.Status.Active() {
			return repository.ErrDuplicateBooking
		}
	}
	b.ID = s.nextID
	s.nextID++
	b.ScheduledDate = b.ScheduledDate.UTC().Truncate(24 * time.Hour)
	cp := *b
	s.bookings = append(s.bookings, &cp)
	return nil
}

func (s *stubStore) FindSlot(_ context.Context, itemID, touristID uint64, date time.Time) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.bookings) - 1; i >= 0; i-- {
		b := s.bookings[i]
		if b.ItemID == itemID && b.TouristID == touristID && dayKey(b.ScheduledDate) == dayKey(date) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, repository.ErrBookingNotFound
}

func (s *stubStore) ActiveBookings(_ context.Context, itemID, touristID uint64) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.ItemID == itemID && b.TouristID == touristID && b.Status.Active() {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubStore) ReservedBooking(_ context.Context, itemID, touristID uint64, date *time.Time) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.ItemID != itemID || b.TouristID != touristID || b.Status != model.StatusReserved {
			continue
		}
		if date != nil && dayKey(b.ScheduledDate) != dayKey(*date) {
			continue
		}
		cp := *b
		return &cp, nil
	}
	return nil, repository.ErrBookingNotFound
}

func (s *stubStore) ListBookings(_ context.Context, itemID, touristID uint64) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for i := len(s.bookings) - 1; i >= 0; i-- {
		b := s.bookings[i]
		if b.ItemID == itemID && b.TouristID == touristID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubStore) MarkPaid(_ context.Context, id uint64, amount, points decimal.Decimal, tier int, paymentRef *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.byID(id)
	if b == nil || b.Status != model.StatusReserved {
		return repository.ErrConflict
	}
	b.Status = model.StatusPaid
	b.AmountPaid = amount
	b.PointsAwarded = points
	b.EarnTier = tier
	b.PaymentRef = paymentRef
	return nil
}

func (s *stubStore) MarkReserved(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.byID(id)
	if b == nil || b.Status != model.StatusPaid {
		return repository.ErrConflict
	}
	b.Status = model.StatusReserved
	b.AmountPaid = decimal.Zero
	b.PointsAwarded = decimal.Zero
	b.EarnTier = 0
	b.PaymentRef = nil
	return nil
}

func (s *stubStore) MarkCancelled(_ context.Context, id uint64, from model.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.byID(id)
	if b == nil || b.Status != from {
		return repository.ErrConflict
	}
	b.Status = model.StatusCancelled
	return nil
}

func (s *stubStore) RestorePaid(_ context.Context, id uint64, amount, points decimal.Decimal, tier int, paymentRef *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.byID(id)
	if b == nil || b.Status != model.StatusCancelled {
		return repository.ErrConflict
	}
	b.Status = model.StatusPaid
	b.AmountPaid = amount
	b.PointsAwarded = points
	b.EarnTier = tier
	b.PaymentRef = paymentRef
	return nil
}

func (s *stubStore) byID(id uint64) *model.Booking {
	for _, b := range s.bookings {
		if b.ID == id {
			return b
		}
	}
	return nil
}
