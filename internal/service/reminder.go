package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/safarni/tourism-booking/internal/model"
	"github.com/safarni/tourism-booking/internal/notify"
	"github.com/safarni/tourism-booking/internal/queue"
)

// ReminderStore is the persistence surface of the reminder sweep.
// ClaimReminder is the idempotence guard: it stamps the booking and
// reports whether this sweep won the claim.
type ReminderStore interface {
	DueForReminder(ctx context.Context, from, to time.Time) ([]model.Booking, error)
	ClaimReminder(ctx context.Context, id uint64, at time.Time) (bool, error)
}

// ReminderScheduler periodically finds active bookings scheduled within
// the next 24 hours and dispatches one reminder per booking. Claims are
// conditional updates, so overlapping sweeps (or several instances
// sweeping at once) cannot duplicate reminders; a Redis lock
// additionally keeps instances from scanning the same window twice.
type ReminderScheduler struct {
	Store         ReminderStore
	Dispatcher    notify.Dispatcher
	Locker        *Locker
	CheckInterval time.Duration

	// Now is the scheduler's clock. Overridable in tests.
	Now func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReminderScheduler creates a scheduler with the default daily-ish
// interval. Callers may lower CheckInterval before Start.
func NewReminderScheduler(store ReminderStore, dispatcher notify.Dispatcher, locker *Locker) *ReminderScheduler {
	return &ReminderScheduler{
		Store:         store,
		Dispatcher:    dispatcher,
		Locker:        locker,
		CheckInterval: time.Hour,
		Now:           time.Now,
		stop:          make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (rs *ReminderScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)
	go rs.run()
	log.Printf("[scheduler] started, check interval %v", rs.CheckInterval)
}

// Stop stops the scheduler and waits for an in-flight sweep to finish.
func (rs *ReminderScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		log.Println("[scheduler] stopped")
	}
}

func (rs *ReminderScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.Sweep(context.Background())

	for {
		select {
		case <-rs.ticker.C:
			rs.Sweep(context.Background())
		case <-rs.stop:
			return
		}
	}
}

// Sweep performs one pass: every active booking scheduled in
// [now, now+24h) that has not been reminded gets exactly one reminder.
// Dispatch failures are logged and never retried within the sweep; the
// claim stands so the tourist is not spammed on the next run.
func (rs *ReminderScheduler) Sweep(ctx context.Context) {
	now := rs.Now().UTC()

	if rs.Locker != nil {
		release, ok := rs.Locker.Acquire(ctx, "reminder:sweep")
		if !ok {
			log.Println("[scheduler] another instance is sweeping, skipping")
			return
		}
		defer release()
	}

	due, err := rs.Store.DueForReminder(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		log.Printf("[scheduler] listing due bookings: %v", err)
		return
	}

	sent := 0
	for _, b := range due {
		claimed, err := rs.Store.ClaimReminder(ctx, b.ID, now)
		if err != nil {
			log.Printf("[scheduler] claiming booking %d: %v", b.ID, err)
			continue
		}
		if !claimed {
			continue
		}
		payload := map[string]any{
			"booking_id": b.ID,
			"item_id":    b.ItemID,
			"date":       b.ScheduledDate.Format("2006-01-02"),
			"status":     string(b.Status),
		}
		if err := rs.Dispatcher.Notify(ctx, b.TouristID, queue.KindBookingReminder, payload); err != nil {
			log.Printf("[scheduler] notify tourist %d for booking %d: %v", b.TouristID, b.ID, err)
			continue
		}
		sent++
	}
	if len(due) > 0 {
		log.Printf("[scheduler] sweep done: %d due, %d reminders sent", len(due), sent)
	}
}
