package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/arihant-coaching/coaching_api/internal/apperr"
	"github.com/arihant-coaching/coaching_api/internal/idgen"
	"github.com/arihant-coaching/coaching_api/internal/obs"
)

const paisePerRupee = 100

// orderCreator is the subset of the Razorpay orders resource in use.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayGateway creates orders through the Razorpay API.
type RazorpayGateway struct {
	orders   orderCreator
	keyID    string
	currency string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewRazorpayGateway builds a gateway for the given key pair.
func NewRazorpayGateway(keyID, keySecret, currency string, timeout time.Duration, logger *slog.Logger) *RazorpayGateway {
	client := razorpay.NewClient(keyID, keySecret)
	return newRazorpayGateway(client.Order, keyID, currency, timeout, logger)
}

func newRazorpayGateway(orders orderCreator, keyID, currency string, timeout time.Duration, logger *slog.Logger) *RazorpayGateway {
	if currency == "" {
		currency = "INR"
	}
	return &RazorpayGateway{orders: orders, keyID: keyID, currency: currency, timeout: timeout, logger: logger}
}

// PublicKey returns the Razorpay key id.
func (g *RazorpayGateway) PublicKey() string { return g.keyID }

type createResult struct {
	body map[string]interface{}
	err  error
}

// CreateOrder converts the rupee amount to paise and asks Razorpay for an order.
// Any failure, including the deadline passing, is ErrGatewayUnavailable.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	if req.Amount <= 0 {
		return Order{}, apperr.Validation("amount must be a positive number of rupees")
	}
	receipt := req.Receipt
	if receipt == "" {
		receipt = "receipt_" + idgen.NewKSUID()
	}

	ctx, span := obs.Tracer().Start(ctx, "razorpay.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.amount_rupees", req.Amount), attribute.String("order.receipt", receipt))

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	data := map[string]interface{}{
		"amount":   req.Amount * paisePerRupee,
		"currency": g.currency,
		"receipt":  receipt,
	}
	if len(req.Notes) > 0 {
		notes := make(map[string]interface{}, len(req.Notes))
		for k, v := range req.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	// The client has no context support, so the call is abandoned on deadline.
	done := make(chan createResult, 1)
	go func() {
		body, err := g.orders.Create(data, nil)
		done <- createResult{body: body, err: err}
	}()

	var res createResult
	select {
	case <-ctx.Done():
		res.err = ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		span.RecordError(res.err)
		span.SetStatus(codes.Error, "order creation failed")
		g.logger.Error("razorpay order creation failed", "receipt", receipt, "error", res.err)
		return Order{}, ErrGatewayUnavailable.Wrap(res.err)
	}

	order, err := parseOrder(res.body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected order payload")
		return Order{}, ErrGatewayUnavailable.Wrap(err)
	}
	span.SetAttributes(attribute.String("order.id", order.ID))
	return order, nil
}

func parseOrder(body map[string]interface{}) (Order, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return Order{}, fmt.Errorf("order response without id")
	}
	order := Order{ID: id}
	switch v := body["amount"].(type) {
	case float64:
		order.Amount = int64(v)
	case int64:
		order.Amount = v
	case int:
		order.Amount = int64(v)
	}
	order.Currency, _ = body["currency"].(string)
	order.Receipt, _ = body["receipt"].(string)
	return order, nil
}
