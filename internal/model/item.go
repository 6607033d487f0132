package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemKind distinguishes the three bookable collections.  They share one
// table and one shape; only the availability rule differs.
type ItemKind string

const (
	KindActivity        ItemKind = "ACTIVITY"
	KindItinerary       ItemKind = "ITINERARY"
	KindCustomItinerary ItemKind = "CUSTOM_ITINERARY"
)

// Item represents a bookable item as stored in the `items` table.
// Activities are gated by the IsOpen flag and accept any future date;
// itineraries (custom or not) accept only dates listed in `item_dates`.
//
// Fields:
//  ID        – primary key identifier.
//  SellerID  – user who owns the listing (managed outside this core).
//  Kind      – ACTIVITY, ITINERARY or CUSTOM_ITINERARY.
//  Title     – listing title.
//  Price     – EGP price, strictly positive.
//  IsOpen    – whether an activity currently accepts bookings.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type Item struct {
	ID        uint64          // items.id
	SellerID  uint64          // items.seller_id
	Kind      ItemKind        // items.kind
	Title     string          // items.title
	Price     decimal.Decimal // items.price
	IsOpen    bool            // items.is_open
	CreatedAt time.Time       // items.created_at
	UpdatedAt time.Time       // items.updated_at
}

// ItemDate is one entry of an itinerary's available-dates set, stored in
// the `item_dates` table.  Dates are day-granular and kept in UTC.
type ItemDate struct {
	ID     uint64    // item_dates.id
	ItemID uint64    // item_dates.item_id
	Date   time.Time // item_dates.available_date
}
