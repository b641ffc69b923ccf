package gateway

import (
	"context"

	"github.com/google/uuid"

	"github.com/arihant-coaching/coaching_api/internal/apperr"
)

// StaticGateway simulates the provider for local development without keys.
type StaticGateway struct {
	KeyID    string
	Currency string
}

// CreateOrder returns a synthetic order reference.
func (g StaticGateway) CreateOrder(_ context.Context, req OrderRequest) (Order, error) {
	if req.Amount <= 0 {
		return Order{}, apperr.Validation("amount must be a positive number of rupees")
	}
	currency := g.Currency
	if currency == "" {
		currency = "INR"
	}
	return Order{ID: "order_" + uuid.NewString(), Amount: req.Amount * paisePerRupee, Currency: currency, Receipt: req.Receipt}, nil
}

// PublicKey returns the configured key id, or a placeholder.
func (g StaticGateway) PublicKey() string {
	if g.KeyID == "" {
		return "rzp_test_static"
	}
	return g.KeyID
}
