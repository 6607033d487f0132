package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/safarni/tourism-booking/internal/model"
	"github.com/safarni/tourism-booking/internal/repository"
)

// memStore is an in-memory double for the repository store. It keeps
// the same conditional-update contract as the SQL implementation:
// wallet writes refuse to go negative, loyalty writes are guarded by
// the tourist version, booking inserts reject a second active slot and
// status flips require the expected current status. A single mutex
// makes each method atomic, which is what the single-statement SQL
// gives the real store.
type memStore struct {
	mu       sync.Mutex
	tourists map[uint64]*model.Tourist
	items    map[uint64]*model.Item
	dates    map[uint64]map[string]bool
	bookings []*model.Booking
	nextID   uint64
}

func newMemStore() *memStore {
	return &memStore{
		tourists: map[uint64]*model.Tourist{},
		items:    map[uint64]*model.Item{},
		dates:    map[uint64]map[string]bool{},
		nextID:   1,
	}
}

func day(t time.Time) time.Time { return t.UTC().Truncate(24 * time.Hour) }

func (s *memStore) addTourist(id uint64, wallet, points float64) *model.Tourist {
	t := &model.Tourist{
		ID:            id,
		WalletBalance: decimal.NewFromFloat(wallet),
		LoyaltyPoints: decimal.NewFromFloat(points),
		Tier:          1,
		Badge:         model.BadgeBronze,
	}
	s.tourists[id] = t
	return t
}

func (s *memStore) addItem(id uint64, kind model.ItemKind, price float64, open bool, dates ...time.Time) *model.Item {
	it := &model.Item{ID: id, Kind: kind, Price: decimal.NewFromFloat(price), IsOpen: open}
	s.items[id] = it
	ds := map[string]bool{}
	for _, d := range dates {
		ds[day(d).Format("2006-01-02")] = true
	}
	s.dates[id] = ds
	return it
}

func (s *memStore) GetTourist(_ context.Context, id uint64) (*model.Tourist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tourists[id]
	if !ok {
		return nil, repository.ErrTouristNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) ApplyWalletDelta(_ context.Context, id uint64, delta decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tourists[id]
	if !ok {
		return decimal.Zero, repository.ErrTouristNotFound
	}
	next := t.WalletBalance.Add(delta)
	if next.Sign() < 0 {
		return decimal.Zero, repository.ErrInsufficientFunds
	}
	t.WalletBalance = next
	t.Version++
	return next, nil
}

func (s *memStore) SetLoyalty(_ context.Context, id uint64, points decimal.Decimal, tier int, badge string, walletDelta decimal.Decimal, expectVersion uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tourists[id]
	if !ok {
		return repository.ErrTouristNotFound
	}
	if t.Version != expectVersion {
		return repository.ErrConflict
	}
	next := t.WalletBalance.Add(walletDelta)
	if next.Sign() < 0 {
		return repository.ErrConflict
	}
	t.LoyaltyPoints = points
	t.Tier = tier
	t.Badge = badge
	t.WalletBalance = next
	t.Version++
	return nil
}

func (s *memStore) GetItem(_ context.Context, id uint64) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	cp := *it
	return &cp, nil
}

func (s *memStore) ItemHasDate(_ context.Context, itemID uint64, date time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dates[itemID][day(date).Format("2006-01-02")], nil
}

func (s *memStore) ListItemDates(_ context.Context, itemID uint64) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Time
	for k := range s.dates[itemID] {
		d, err := time.ParseInLocation("2006-01-02", k, time.UTC)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (s *memStore) InsertBooking(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.bookings {
		if ex.ItemID == b.ItemID && ex.TouristID == b.TouristID &&
			ex.ScheduledDate.Equal(day(b.ScheduledDate)) && ex.Status.Active() {
			return repository.ErrDuplicateBooking
		}
	}
	b.ID = s.nextID
	s.nextID++
	b.ScheduledDate = day(b.ScheduledDate)
	cp := *b
	s.bookings = append(s.bookings, &cp)
	return nil
}

func (s *memStore) FindSlot(_ context.Context, itemID, touristID uint64, date time.Time) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.bookings) - 1; i >= 0; i-- {
		b := s.bookings[i]
		if b.ItemID == itemID && b.TouristID == touristID && b.ScheduledDate.Equal(day(date)) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, repository.ErrBookingNotFound
}

func (s *memStore) ActiveBookings(_ context.Context, itemID, touristID uint64) ([]model.Booking, error) {
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

func (s *memStore) ReservedBooking(_ context.Context, itemID, touristID uint64, date *time.Time) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *model.Booking
	for _, b := range s.bookings {
		if b.ItemID != itemID || b.TouristID != touristID || b.Status != model.StatusReserved {
			continue
		}
		if date != nil && !b.ScheduledDate.Equal(day(*date)) {
			continue
		}
		if found == nil || b.ScheduledDate.Before(found.ScheduledDate) {
			found = b
		}
	}
	if found == nil {
		return nil, repository.ErrBookingNotFound
	}
	cp := *found
	return &cp, nil
}

func (s *memStore) ListBookings(_ context.Context, itemID, touristID uint64) ([]model.Booking, error) {
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

func (s *memStore) MarkPaid(_ context.Context, id uint64, amount, points decimal.Decimal, tier int, paymentRef *string) error {
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

func (s *memStore) MarkReserved(_ context.Context, id uint64) error {
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

func (s *memStore) MarkCancelled(_ context.Context, id uint64, from model.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.byID(id)
	if b == nil || b.Status != from {
		return repository.ErrConflict
	}
	b.Status = model.StatusCancelled
	return nil
}

func (s *memStore) RestorePaid(_ context.Context, id uint64, amount, points decimal.Decimal, tier int, paymentRef *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.byID(id)
	if b == nil || b.Status != model.StatusCancelled {
		return repository.ErrConflict
	}
	for _, ex := range s.bookings {
		if ex.ID != b.ID && ex.ItemID == b.ItemID && ex.TouristID == b.TouristID &&
			ex.ScheduledDate.Equal(b.ScheduledDate) && ex.Status.Active() {
			return repository.ErrDuplicateBooking
		}
	}
	b.Status = model.StatusPaid
	b.AmountPaid = amount
	b.PointsAwarded = points
	b.EarnTier = tier
	b.PaymentRef = paymentRef
	return nil
}

func (s *memStore) DueForReminder(_ context.Context, from, to time.Time) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if !b.Status.Active() || b.RemindedAt != nil {
			continue
		}
		if !b.ScheduledDate.Before(from.UTC()) && b.ScheduledDate.Before(to.UTC()) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *memStore) ClaimReminder(_ context.Context, id uint64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.byID(id)
	if b == nil || b.RemindedAt != nil {
		return false, nil
	}
	t := at.UTC()
	b.RemindedAt = &t
	return true, nil
}

func (s *memStore) byID(id uint64) *model.Booking {
	for _, b := range s.bookings {
		if b.ID == id {
			return b
		}
	}
	return nil
}
