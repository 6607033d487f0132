package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/safarni/tourism-booking/internal/model"
	"github.com/safarni/tourism-booking/internal/notify"
	"github.com/safarni/tourism-booking/internal/payment"
	"github.com/safarni/tourism-booking/internal/queue"
	"github.com/safarni/tourism-booking/internal/repository"
)

// PaymentMethod selects how a booking is paid.
type PaymentMethod string

const (
	MethodWallet PaymentMethod = "WALLET"
	MethodCard   PaymentMethod = "CARD"
)

// cancelLeadTime is the minimum interval between "now" and the
// scheduled date for a cancellation to be accepted.
const cancelLeadTime = 48 * time.Hour

// LedgerStore is the persistence surface of the booking ledger. Every
// write that carries a precondition (duplicate slot, current status)
// expresses it inside a single conditional statement; the ledger never
// checks state in one call and writes it in another.
type LedgerStore interface {
	GetItem(ctx context.Context, id uint64) (*model.Item, error)
	GetTourist(ctx context.Context, id uint64) (*model.Tourist, error)
	ItemHasDate(ctx context.Context, itemID uint64, date time.Time) (bool, error)
	ListItemDates(ctx context.Context, itemID uint64) ([]time.Time, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
	FindSlot(ctx context.Context, itemID, touristID uint64, date time.Time) (*model.Booking, error)
	ActiveBookings(ctx context.Context, itemID, touristID uint64) ([]model.Booking, error)
	ReservedBooking(ctx context.Context, itemID, touristID uint64, date *time.Time) (*model.Booking, error)
	ListBookings(ctx context.Context, itemID, touristID uint64) ([]model.Booking, error)
	MarkPaid(ctx context.Context, id uint64, amount, points decimal.Decimal, tier int, paymentRef *string) error
	MarkReserved(ctx context.Context, id uint64) error
	MarkCancelled(ctx context.Context, id uint64, from model.BookingStatus) error
	RestorePaid(ctx context.Context, id uint64, amount, points decimal.Decimal, tier int, paymentRef *string) error
}

// Ledger orchestrates reservations, payments and cancellations over a
// bookable item, moving money through the wallet or the card gateway
// and points through the loyalty engine. Database conditionals are the
// correctness arbiter; the Redis locker only reduces contention.
type Ledger struct {
	store      LedgerStore
	wallet     *Wallet
	loyalty    *Loyalty
	gateway    payment.Gateway
	locker     *Locker
	dispatcher notify.Dispatcher

	// Now is the ledger's clock. Overridable in tests.
	Now func() time.Time
}

// NewLedger wires a Ledger from its collaborators. dispatcher may be
// nil, in which case state-change notifications are skipped.
func NewLedger(store LedgerStore, wallet *Wallet, loyalty *Loyalty, gateway payment.Gateway, locker *Locker, dispatcher notify.Dispatcher) *Ledger {
	return &Ledger{
		store:      store,
		wallet:     wallet,
		loyalty:    loyalty,
		gateway:    gateway,
		locker:     locker,
		dispatcher: dispatcher,
		Now:        time.Now,
	}
}

func lockKey(itemID, touristID uint64) string {
	return fmt.Sprintf("booking:%d:%d", itemID, touristID)
}

// CreateBooking reserves a slot on an item for the tourist. Activities
// must be open and accept any future date (defaulting to tomorrow when
// the request names none); itineraries accept only dates from their
// schedule. The duplicate-slot check is the insert itself, so of two
// concurrent attempts exactly one comes back RESERVED and the other
// gets repository.ErrDuplicateBooking.
func (g *Ledger) CreateBooking(ctx context.Context, itemID, touristID uint64, date *time.Time) (*model.Booking, error) {
	item, err := g.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if _, err := g.store.GetTourist(ctx, touristID); err != nil {
		return nil, err
	}
	day, err := g.resolveDate(ctx, item, date)
	if err != nil {
		return nil, err
	}
	b := &model.Booking{
		ItemID:        itemID,
		TouristID:     touristID,
		ScheduledDate: day,
		Status:        model.StatusReserved,
	}
	if err := g.store.InsertBooking(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (g *Ledger) resolveDate(ctx context.Context, item *model.Item, date *time.Time) (time.Time, error) {
	today := g.Now().UTC().Truncate(24 * time.Hour)
	if item.Kind == model.KindActivity {
		if !item.IsOpen {
			return time.Time{}, ErrBookingClosed
		}
		if date == nil {
			// Open activities run daily; an omitted date books the next occurrence.
			return today.AddDate(0, 0, 1), nil
		}
		day := date.UTC().Truncate(24 * time.Hour)
		if day.Before(today) {
			return time.Time{}, ErrInvalidDate
		}
		return day, nil
	}
	// Itineraries (custom or not) require a date from their schedule.
	if date == nil {
		return time.Time{}, fmt.Errorf("itinerary booking needs a date: %w", ErrInvalidDate)
	}
	day := date.UTC().Truncate(24 * time.Hour)
	if day.Before(today) {
		return time.Time{}, ErrInvalidDate
	}
	ok, err := g.store.ItemHasDate(ctx, item.ID, day)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, ErrInvalidDate
	}
	return day, nil
}

// Pay settles a RESERVED booking. Wallet payments debit the tourist's
// balance; card payments go through the gateway. On success the booking
// flips to PAID in one conditional statement that also records the
// amount, the points awarded and the tier they were computed with.
// Every failure after money moved is compensated before returning, so a
// caller retry keyed by (item, tourist, date) is always safe. Returns
// the tourist's resulting wallet balance.
func (g *Ledger) Pay(ctx context.Context, itemID, touristID uint64, method PaymentMethod, token string, date *time.Time) (decimal.Decimal, error) {
	if method != MethodWallet && method != MethodCard {
		return decimal.Zero, ErrUnknownMethod
	}
	item, err := g.store.GetItem(ctx, itemID)
	if err != nil {
		return decimal.Zero, err
	}
	release, ok := g.locker.Acquire(ctx, lockKey(itemID, touristID))
	if !ok {
		return decimal.Zero, fmt.Errorf("another operation in progress: %w", ErrBookingState)
	}
	defer release()

	b, err := g.store.ReservedBooking(ctx, itemID, touristID, date)
	if err != nil {
		return decimal.Zero, err
	}
	price := item.Price

	var ref *string
	switch method {
	case MethodWallet:
		if _, err := g.wallet.Debit(ctx, touristID, price); err != nil {
			return decimal.Zero, err
		}
	case MethodCard:
		res, err := g.gateway.Charge(ctx, token, price)
		if err != nil {
			return decimal.Zero, err
		}
		ref = &res.Reference
	}

	earned, err := g.loyalty.Earn(ctx, touristID, price)
	if err != nil {
		g.refund(ctx, touristID, price, method)
		return decimal.Zero, fmt.Errorf("awarding points: %w", err)
	}

	if err := g.store.MarkPaid(ctx, b.ID, price, earned.Points, earned.Tier, ref); err != nil {
		// The booking changed underneath us; give the points and the
		// money back before reporting the conflict. The reversal
		// subtracts the exact figure Earn just added: recomputing it
		// from the amount would use the post-earn tier, which is wrong
		// when the earn crossed a ceiling.
		if rerr := g.loyalty.ReverseExact(ctx, touristID, earned.Points); rerr != nil {
			log.Printf("ledger: reversing points after failed payment of booking %d: %v", b.ID, rerr)
		}
		g.refund(ctx, touristID, price, method)
		if errors.Is(err, repository.ErrConflict) {
			return decimal.Zero, fmt.Errorf("booking no longer reserved: %w", ErrBookingState)
		}
		return decimal.Zero, err
	}

	g.notifyBooking(ctx, b, queue.KindBookingPaid, map[string]any{
		"item_id": itemID,
		"amount":  price.StringFixed(2),
	})
	return g.wallet.Balance(ctx, touristID)
}

// refund returns a charge to the tourist's wallet. Card charges cannot
// be voided through the opaque gateway, so they are compensated as
// wallet credit too.
func (g *Ledger) refund(ctx context.Context, touristID uint64, amount decimal.Decimal, method PaymentMethod) {
	if method == MethodCard {
		log.Printf("ledger: crediting wallet of tourist %d with unattached card charge of %s", touristID, amount.StringFixed(2))
	}
	if _, err := g.wallet.Credit(ctx, touristID, amount); err != nil {
		log.Printf("ledger: REFUND FAILED for tourist %d amount %s: %v", touristID, amount.StringFixed(2), err)
	}
}

// Cancel cancels a RESERVED or PAID booking at least 48 hours before
// its scheduled date. Paid bookings are refunded to the wallet and the
// matching points reversed; the row is kept as CANCELLED so the slot
// can be booked again later. Cancelling an already-cancelled booking is
// an ErrBookingState no-op, never a second refund. Returns the
// tourist's resulting wallet balance.
func (g *Ledger) Cancel(ctx context.Context, itemID, touristID uint64, date *time.Time) (decimal.Decimal, error) {
	item, err := g.store.GetItem(ctx, itemID)
	if err != nil {
		return decimal.Zero, err
	}
	if _, err := g.store.GetTourist(ctx, touristID); err != nil {
		return decimal.Zero, err
	}
	release, ok := g.locker.Acquire(ctx, lockKey(itemID, touristID))
	if !ok {
		return decimal.Zero, fmt.Errorf("another operation in progress: %w", ErrBookingState)
	}
	defer release()

	b, err := g.findCancelable(ctx, itemID, touristID, date)
	if err != nil {
		return decimal.Zero, err
	}
	if b.ScheduledDate.Sub(g.Now().UTC()) < cancelLeadTime {
		return decimal.Zero, ErrLeadTimeTooShort
	}

	wasPaid := b.Status == model.StatusPaid
	if err := g.store.MarkCancelled(ctx, b.ID, b.Status); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return decimal.Zero, fmt.Errorf("booking changed concurrently: %w", ErrBookingState)
		}
		return decimal.Zero, err
	}

	if wasPaid {
		amount := b.AmountPaid
		if amount.Sign() <= 0 {
			amount = item.Price
		}
		if _, err := g.wallet.Credit(ctx, touristID, amount); err != nil {
			// Undo the cancellation so the tourist can retry; the money
			// never moved.
			if rerr := g.store.RestorePaid(ctx, b.ID, b.AmountPaid, b.PointsAwarded, b.EarnTier, b.PaymentRef); rerr != nil {
				log.Printf("ledger: restoring booking %d after failed refund: %v", b.ID, rerr)
			}
			return decimal.Zero, fmt.Errorf("refunding wallet: %w", err)
		}
		if err := g.loyalty.Reverse(ctx, touristID, amount); err != nil {
			// Roll the whole cancellation back: take the refund out
			// again and restore the PAID row.
			if _, derr := g.wallet.Debit(ctx, touristID, amount); derr != nil {
				log.Printf("ledger: reclaiming refund of booking %d: %v", b.ID, derr)
			}
			if rerr := g.store.RestorePaid(ctx, b.ID, b.AmountPaid, b.PointsAwarded, b.EarnTier, b.PaymentRef); rerr != nil {
				log.Printf("ledger: restoring booking %d after failed reversal: %v", b.ID, rerr)
			}
			return decimal.Zero, fmt.Errorf("reversing points: %w", err)
		}
	}

	g.notifyBooking(ctx, b, queue.KindBookingCancelled, map[string]any{
		"item_id":  itemID,
		"refunded": wasPaid,
	})
	return g.wallet.Balance(ctx, touristID)
}

func (g *Ledger) findCancelable(ctx context.Context, itemID, touristID uint64, date *time.Time) (*model.Booking, error) {
	if date != nil {
		b, err := g.store.FindSlot(ctx, itemID, touristID, *date)
		if err != nil {
			return nil, err
		}
		if !b.Status.Active() {
			return nil, fmt.Errorf("booking already cancelled: %w", ErrBookingState)
		}
		return b, nil
	}
	active, err := g.store.ActiveBookings(ctx, itemID, touristID)
	if err != nil {
		return nil, err
	}
	switch len(active) {
	case 0:
		return nil, repository.ErrBookingNotFound
	case 1:
		return &active[0], nil
	default:
		return nil, ErrDateRequired
	}
}

// Item exposes item lookup to the HTTP layer. For itineraries the
// available-dates set is returned alongside the item; activities run
// daily and have none.
func (g *Ledger) Item(ctx context.Context, itemID uint64) (*model.Item, []time.Time, error) {
	item, err := g.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item.Kind == model.KindActivity {
		return item, nil, nil
	}
	dates, err := g.store.ListItemDates(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	return item, dates, nil
}

// History returns the tourist's full booking history on an item,
// cancelled rows included.
func (g *Ledger) History(ctx context.Context, itemID, touristID uint64) ([]model.Booking, error) {
	if _, err := g.store.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return g.store.ListBookings(ctx, itemID, touristID)
}

func (g *Ledger) notifyBooking(ctx context.Context, b *model.Booking, kind string, payload map[string]any) {
	if g.dispatcher == nil {
		return
	}
	payload["booking_id"] = b.ID
	payload["date"] = b.ScheduledDate.Format("2006-01-02")
	if err := g.dispatcher.Notify(ctx, b.TouristID, kind, payload); err != nil {
		log.Printf("ledger: notify %s for booking %d: %v", kind, b.ID, err)
	}
}
