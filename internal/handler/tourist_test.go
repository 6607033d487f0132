package handler_test

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safarni/tourism-booking/internal/handler"
	"github.com/safarni/tourism-booking/internal/service"
)

func newTouristHandler(store *stubStore) *handler.TouristHandler {
	return handler.NewTouristHandler(store, service.NewLoyalty(store))
}

func TestTouristGet(t *testing.T) {
	tourist := testTourist(750)
	tourist.LoyaltyPoints = decimal.NewFromInt(12500)
	store := newStubStore(tourist, testItem(300))
	h := newTouristHandler(store)

	rec, body := call(t, h.Get, http.MethodGet, "/v1/tourists/:id", "", map[string]string{"id": "1"}, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "750", body["wallet"])
	assert.Equal(t, "12500", body["loyaltyPoints"])
	assert.Equal(t, float64(1), body["level"])
	assert.Equal(t, "Bronze", body["badge"])
}

func TestTouristGetNotFound(t *testing.T) {
	store := newStubStore(testTourist(0), testItem(300))
	h := newTouristHandler(store)

	rec, _ := call(t, h.Get, http.MethodGet, "/v1/tourists/:id", "", map[string]string{"id": "9"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRedeemPoints(t *testing.T) {
	t.Run("converts blocks of points to wallet credit", func(t *testing.T) {
		tourist := testTourist(50)
		tourist.LoyaltyPoints = decimal.NewFromInt(25000)
		store := newStubStore(tourist, testItem(300))
		h := newTouristHandler(store)

		rec, body := call(t, h.RedeemPoints, http.MethodPost, "/v1/tourists/:id/redeemPoints", "",
			map[string]string{"id": "1"}, "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "20000", body["pointsRedeemed"])
		assert.Equal(t, "200", body["egpAdded"])
		assert.Equal(t, "250", body["newWalletBalance"])
		assert.Equal(t, "5000", body["remainingPoints"])
	})

	t.Run("too few points is 400", func(t *testing.T) {
		tourist := testTourist(50)
		tourist.LoyaltyPoints = decimal.NewFromInt(9999)
		store := newStubStore(tourist, testItem(300))
		h := newTouristHandler(store)

		rec, _ := call(t, h.RedeemPoints, http.MethodPost, "/v1/tourists/:id/redeemPoints", "",
			map[string]string{"id": "1"}, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
