package gateway

import (
	"context"
	"net/http"

	"github.com/arihant-coaching/coaching_api/internal/apperr"
)

// ErrGatewayUnavailable means the payment provider could not create the order in time.
var ErrGatewayUnavailable = apperr.New(apperr.KindUpstream, "gateway_unavailable", "payment initiation failed").WithStatus(http.StatusInternalServerError)

// OrderRequest describes a checkout order. Amount is in rupees.
type OrderRequest struct {
	Amount  int64
	Receipt string
	Notes   map[string]string
}

// Order is the provider's reference for a checkout. Amount is in paise.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// Gateway creates checkout orders with an external payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (Order, error)
	// PublicKey is the key id the checkout widget needs. Never the secret.
	PublicKey() string
}
