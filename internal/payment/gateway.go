// Package payment wraps the external card-payment gateway. The gateway
// is opaque to the booking core: a charge either produces a reference or
// fails, and nothing else about card processing leaks in.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// ErrDeclined is returned when the gateway rejected the charge.
// Handlers translate this into HTTP 402.
var ErrDeclined = errors.New("payment declined")

// ErrUnavailable is returned when the gateway could not be reached or
// answered with a server error. Handlers translate this into HTTP 502.
var ErrUnavailable = errors.New("payment gateway unavailable")

// ChargeResult carries the gateway's reference for a successful charge.
type ChargeResult struct {
	Reference string `json:"reference"`
}

// Gateway authorizes card charges.
type Gateway interface {
	Charge(ctx context.Context, token string, amount decimal.Decimal) (ChargeResult, error)
}

// Disabled is the gateway used when no endpoint is configured; every
// charge fails as unavailable and wallet payments remain the only path.
type Disabled struct{}

// Charge always fails with ErrUnavailable.
func (Disabled) Charge(context.Context, string, decimal.Decimal) (ChargeResult, error) {
	return ChargeResult{}, fmt.Errorf("%w: no gateway configured", ErrUnavailable)
}

// HTTPGateway charges cards through a JSON-over-HTTP endpoint.
type HTTPGateway struct {
	url    string
	client *http.Client
}

// NewHTTPGateway returns a gateway client for the given endpoint URL.
func NewHTTPGateway(url string) *HTTPGateway {
	return &HTTPGateway{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Charge posts the charge request and maps the response: 2xx succeeds,
// 402 and other 4xx mean declined, everything else is unavailability.
func (g *HTTPGateway) Charge(ctx context.Context, token string, amount decimal.Decimal) (ChargeResult, error) {
	body, err := json.Marshal(map[string]string{
		"token":    token,
		"amount":   amount.StringFixed(2),
		"currency": "EGP",
	})
	if err != nil {
		return ChargeResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return ChargeResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return ChargeResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var out ChargeResult
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return ChargeResult{}, fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
		}
		return out, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ChargeResult{}, fmt.Errorf("%w (status %d)", ErrDeclined, resp.StatusCode)
	default:
		return ChargeResult{}, fmt.Errorf("%w (status %d)", ErrUnavailable, resp.StatusCode)
	}
}
