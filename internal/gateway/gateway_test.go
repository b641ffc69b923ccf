package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arihant-coaching/coaching_api/internal/logging"
)

type fakeOrders struct {
	delay time.Duration
	err   error
	got   map[string]interface{}
}

func (f *fakeOrders) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.got = data
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return map[string]interface{}{
		"id":       "order_abc",
		"amount":   float64(data["amount"].(int64)),
		"currency": data["currency"],
		"receipt":  data["receipt"],
	}, nil
}

func TestRazorpayCreateOrderConvertsToPaise(t *testing.T) {
	orders := &fakeOrders{}
	g := newRazorpayGateway(orders, "rzp_test_key", "INR", time.Second, logging.Discard())

	order, err := g.CreateOrder(context.Background(), OrderRequest{Amount: 1500, Notes: map[string]string{"course": "JEE"}})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, int64(150000), order.Amount)
	assert.Equal(t, int64(150000), orders.got["amount"])
	assert.Regexp(t, `^receipt_`, orders.got["receipt"])
	assert.Equal(t, "rzp_test_key", g.PublicKey())
}

func TestRazorpayCreateOrderFailures(t *testing.T) {
	g := newRazorpayGateway(&fakeOrders{err: errors.New("401 unauthorized")}, "k", "INR", time.Second, logging.Discard())
	_, err := g.CreateOrder(context.Background(), OrderRequest{Amount: 100})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)

	slow := newRazorpayGateway(&fakeOrders{delay: 200 * time.Millisecond}, "k", "INR", 20*time.Millisecond, logging.Discard())
	_, err = slow.CreateOrder(context.Background(), OrderRequest{Amount: 100})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)

	_, err = g.CreateOrder(context.Background(), OrderRequest{Amount: 0})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrGatewayUnavailable)
}

func TestStaticGateway(t *testing.T) {
	order, err := StaticGateway{}.CreateOrder(context.Background(), OrderRequest{Amount: 10})
	require.NoError(t, err)
	assert.Regexp(t, `^order_`, order.ID)
	assert.Equal(t, int64(1000), order.Amount)
	assert.NotEmpty(t, StaticGateway{}.PublicKey())
}

func TestVerifierAcceptsOwnSignature(t *testing.T) {
	v := NewVerifier("s3cret")
	sig := v.Sign("order_1", "pay_1")
	assert.True(t, v.Verify("order_1", "pay_1", sig))
	assert.Len(t, sig, 64)
}

func TestVerifierRejectsAnyMutation(t *testing.T) {
	v := NewVerifier("s3cret")
	sig := v.Sign("order_1", "pay_1")

	assert.False(t, v.Verify("order_2", "pay_1", sig))
	assert.False(t, v.Verify("order_1", "pay_2", sig))
	assert.False(t, NewVerifier("other").Verify("order_1", "pay_1", sig))
	assert.False(t, v.Verify("order_1", "pay_1", ""))
	assert.False(t, v.Verify("order_1", "pay_1", sig[:63]))

	for i := 0; i < len(sig); i++ {
		for bit := 0; bit < 8; bit++ {
			mutated := []byte(sig)
			mutated[i] ^= 1 << bit
			assert.False(t, v.Verify("order_1", "pay_1", string(mutated)), "byte %d bit %d", i, bit)
		}
	}
}
