package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/safarni/tourism-booking/internal/model"
	"github.com/safarni/tourism-booking/internal/payment"
	"github.com/safarni/tourism-booking/internal/repository"
	"github.com/safarni/tourism-booking/internal/service"
)

// BookingHandler exposes the booking lifecycle over HTTP: reserve a
// slot, pay for it, cancel it, and list history. All money and state
// rules live in the service layer; the handler parses input and maps
// sentinel errors to status codes.
type BookingHandler struct {
	Ledger *service.Ledger
}

// NewBookingHandler constructs a BookingHandler. The ledger must be non-nil.
func NewBookingHandler(ledger *service.Ledger) *BookingHandler {
	if ledger == nil {
		panic("nil ledger passed to NewBookingHandler")
	}
	return &BookingHandler{Ledger: ledger}
}

const dateLayout = "2006-01-02"

func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

// parseDate parses an optional YYYY-MM-DD request field.
func parseDate(s string) (*time.Time, bool) {
	if s == "" {
		return nil, true
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// Book handles POST /v1/items/:id/book. The body carries the tourist
// and an optional date; the response is the created booking with status
// RESERVED.
func (h *BookingHandler) Book(c echo.Context) error {
	itemID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	var body struct {
		TouristID uint64 `json:"touristId"`
		Date      string `json:"date"`
	}
	if err := c.Bind(&body); err != nil || body.TouristID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "touristId is required"})
	}
	date, ok := parseDate(body.Date)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	b, err := h.Ledger.CreateBooking(c.Request().Context(), itemID, body.TouristID, date)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrItemNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		case errors.Is(err, repository.ErrTouristNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tourist not found"})
		case errors.Is(err, repository.ErrDuplicateBooking):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "already booked for this date"})
		case errors.Is(err, service.ErrBookingClosed):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "item is closed for booking"})
		case errors.Is(err, service.ErrInvalidDate):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": bookingView(b)})
}

// Pay handles POST /v1/items/:id/pay. Wallet payments may fail with 400
// insufficient funds; card payments surface gateway declines as 402 and
// gateway unavailability as 502, leaving the booking RESERVED.
func (h *BookingHandler) Pay(c echo.Context) error {
	itemID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	var body struct {
		TouristID    uint64 `json:"touristId"`
		Method       string `json:"method"`
		PaymentToken string `json:"paymentToken"`
		Date         string `json:"date"`
	}
	if err := c.Bind(&body); err != nil || body.TouristID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "touristId is required"})
	}
	date, ok := parseDate(body.Date)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	var method service.PaymentMethod
	switch strings.ToUpper(body.Method) {
	case "WALLET":
		method = service.MethodWallet
	case "CARD":
		method = service.MethodCard
		if body.PaymentToken == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "paymentToken is required for card payments"})
		}
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "method must be wallet or card"})
	}

	balance, err := h.Ledger.Pay(c.Request().Context(), itemID, body.TouristID, method, body.PaymentToken, date)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrItemNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		case errors.Is(err, repository.ErrTouristNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tourist not found"})
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no reserved booking to pay"})
		case errors.Is(err, repository.ErrInsufficientFunds):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient wallet balance"})
		case errors.Is(err, service.ErrBookingState):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking is not payable"})
		case errors.Is(err, payment.ErrDeclined):
			return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment declined"})
		case errors.Is(err, payment.ErrUnavailable):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to process payment"})
	}
	return c.JSON(http.StatusOK, echo.Map{"remainingBalance": balance})
}

// Cancel handles POST /v1/items/:id/cancel. The date is optional when
// the tourist holds exactly one active booking on the item.
func (h *BookingHandler) Cancel(c echo.Context) error {
	itemID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	var body struct {
		TouristID uint64 `json:"touristId"`
		Date      string `json:"date"`
	}
	if err := c.Bind(&body); err != nil || body.TouristID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "touristId is required"})
	}
	date, ok := parseDate(body.Date)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	balance, err := h.Ledger.Cancel(c.Request().Context(), itemID, body.TouristID, date)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrItemNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		case errors.Is(err, repository.ErrTouristNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tourist not found"})
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "no booking to cancel"})
		case errors.Is(err, service.ErrLeadTimeTooShort):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "cancellation window has closed"})
		case errors.Is(err, service.ErrDateRequired):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date required to identify booking"})
		case errors.Is(err, service.ErrBookingState):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking already cancelled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"remainingBalance": balance})
}

// GetItem handles GET /v1/items/:id.
func (h *BookingHandler) GetItem(c echo.Context) error {
	itemID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	it, dates, err := h.Ledger.Item(c.Request().Context(), itemID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load item"})
	}
	view := echo.Map{
		"id":     it.ID,
		"kind":   it.Kind,
		"title":  it.Title,
		"price":  it.Price,
		"isOpen": it.IsOpen,
	}
	if it.Kind != model.KindActivity {
		formatted := make([]string, 0, len(dates))
		for _, d := range dates {
			formatted = append(formatted, d.Format(dateLayout))
		}
		view["availableDates"] = formatted
	}
	return c.JSON(http.StatusOK, echo.Map{"item": view})
}

// ListBookings handles GET /v1/items/:id/bookings?touristId=. It
// returns the tourist's booking history on the item, cancelled rows
// included.
func (h *BookingHandler) ListBookings(c echo.Context) error {
	itemID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	touristID, err := strconv.ParseUint(c.QueryParam("touristId"), 10, 64)
	if err != nil || touristID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "touristId is required"})
	}
	bookings, err := h.Ledger.History(c.Request().Context(), itemID, touristID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	items := make([]echo.Map, 0, len(bookings))
	for i := range bookings {
		items = append(items, bookingView(&bookings[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func bookingView(b *model.Booking) echo.Map {
	return echo.Map{
		"id":            b.ID,
		"itemId":        b.ItemID,
		"touristId":     b.TouristID,
		"scheduledDate": b.ScheduledDate.Format(dateLayout),
		"status":        b.Status,
		"amountPaid":    b.AmountPaid,
	}
}
