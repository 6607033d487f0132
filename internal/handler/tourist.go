package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/safarni/tourism-booking/internal/model"
	"github.com/safarni/tourism-booking/internal/repository"
	"github.com/safarni/tourism-booking/internal/service"
)

// TouristDirectory is the lookup surface this handler needs; the
// repository store satisfies it.
type TouristDirectory interface {
	GetTourist(ctx context.Context, id uint64) (*model.Tourist, error)
}

// TouristHandler exposes a tourist's wallet/loyalty snapshot and the
// point-redemption operation.
type TouristHandler struct {
	Tourists TouristDirectory
	Loyalty  *service.Loyalty
}

// NewTouristHandler constructs a TouristHandler. Both dependencies must
// be non-nil.
func NewTouristHandler(tourists TouristDirectory, loyalty *service.Loyalty) *TouristHandler {
	if tourists == nil || loyalty == nil {
		panic("nil dependency passed to NewTouristHandler")
	}
	return &TouristHandler{Tourists: tourists, Loyalty: loyalty}
}

// Get handles GET /v1/tourists/:id. It returns the wallet balance and
// the derived loyalty tuple.
func (h *TouristHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tourist id"})
	}
	t, err := h.Tourists.GetTourist(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTouristNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tourist not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tourist"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"wallet":        t.WalletBalance,
		"loyaltyPoints": t.LoyaltyPoints,
		"level":         t.Tier,
		"badge":         t.Badge,
	})
}

// RedeemPoints handles POST /v1/tourists/:id/redeemPoints. It converts
// the largest redeemable block of points into wallet credit.
func (h *TouristHandler) RedeemPoints(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tourist id"})
	}
	res, err := h.Loyalty.Redeem(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTouristNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tourist not found"})
		case errors.Is(err, service.ErrInsufficientPoints):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "not enough points to redeem"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to redeem points"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"pointsRedeemed":   res.PointsRedeemed,
		"egpAdded":         res.EGPCredited,
		"newWalletBalance": res.WalletBalance,
		"remainingPoints":  res.RemainingPoints,
	})
}
