package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/safarni/tourism-booking/internal/model"
)

// ItemRepo provides read access to bookable items and their
// available-dates set. Listings are managed by sellers through the CRUD
// surface outside this core, so only lookups live here.
type ItemRepo struct {
	db *sql.DB
}

// NewItemRepo returns a new ItemRepo bound to the given database.
func NewItemRepo(db *sql.DB) *ItemRepo { return &ItemRepo{db: db} }

// GetByID loads an item by primary key. Returns ErrItemNotFound when no
// row exists.
func (r *ItemRepo) GetByID(ctx context.Context, id uint64) (*model.Item, error) {
	const q = `SELECT id, seller_id, kind, title, price, is_open, created_at, updated_at
			   FROM items WHERE id = ?`
	var it model.Item
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&it.ID, &it.SellerID, &it.Kind, &it.Title, &it.Price, &it.IsOpen,
		&it.CreatedAt, &it.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// HasDate reports whether the given day is in the item's available-dates
// set. Dates are compared at day granularity in UTC.
func (r *ItemRepo) HasDate(ctx context.Context, itemID uint64, date time.Time) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM item_dates WHERE item_id = ? AND available_date = ?)`
	var ok bool
	day := date.UTC().Truncate(24 * time.Hour)
	if err := r.db.QueryRowContext(ctx, q, itemID, day).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// ListDates returns the item's available dates in ascending order.
func (r *ItemRepo) ListDates(ctx context.Context, itemID uint64) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT available_date FROM item_dates WHERE item_id = ? ORDER BY available_date`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
