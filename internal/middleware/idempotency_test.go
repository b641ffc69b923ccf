package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arihant-coaching/coaching_api/internal/logging"
)

type idempotencyFixture struct {
	app   *fiber.App
	mr    *miniredis.Miniredis
	calls int
	fail  bool
}

func newIdempotencyFixture(t *testing.T) *idempotencyFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	f := &idempotencyFixture{mr: mr}
	f.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard())})
	f.app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	f.app.Post("/payment/save", func(c *fiber.Ctx) error {
		f.calls++
		if f.fail {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"call": f.calls})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"call": f.calls})
	})
	return f
}

func (f *idempotencyFixture) post(t *testing.T, key, body string) (int, string, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/payment/save", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(payload), resp.Header.Get(replayedHeader)
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	f := newIdempotencyFixture(t)
	for i := 0; i < 2; i++ {
		status, _, _ := f.post(t, "", `{"paymentId":"pay_1"}`)
		assert.Equal(t, fiber.StatusCreated, status)
	}
	assert.Equal(t, 2, f.calls)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	f := newIdempotencyFixture(t)

	status, first, replayed := f.post(t, "abc123", `{"paymentId":"pay_1"}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Empty(t, replayed)

	status, second, replayed := f.post(t, "abc123", `{"paymentId":"pay_1"}`)
	assert.Equal(t, fiber.StatusCreated, status)
	assert.JSONEq(t, first, second)
	assert.Equal(t, "true", replayed)
	assert.Equal(t, 1, f.calls)
}

func TestIdempotencyRejectsReusedKeyWithOtherBody(t *testing.T) {
	f := newIdempotencyFixture(t)

	status, _, _ := f.post(t, "abc123", `{"paymentId":"pay_1"}`)
	require.Equal(t, fiber.StatusCreated, status)

	status, body, _ := f.post(t, "abc123", `{"paymentId":"pay_2"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "idempotency_key_reused")
	assert.Equal(t, 1, f.calls)
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	f := newIdempotencyFixture(t)
	f.fail = true

	status, _, _ := f.post(t, "retry-me", `{}`)
	require.Equal(t, fiber.StatusBadGateway, status)

	f.fail = false
	status, _, replayed := f.post(t, "retry-me", `{}`)
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Empty(t, replayed)
	assert.Equal(t, 2, f.calls)
}

func TestIdempotencyReportsInFlightRequest(t *testing.T) {
	f := newIdempotencyFixture(t)

	// A reservation left by a concurrent request that has not finished yet.
	payload := `{"fp":"` + fingerprintOf([]byte(`{}`)) + `"}`
	require.NoError(t, f.mr.Set(idempotencyPrefix+"POST:/payment/save:busy", payload))

	status, body, _ := f.post(t, "busy", `{}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Contains(t, body, "idempotency_in_flight")
	assert.Zero(t, f.calls)
}

func TestIdempotencyRejectsLongKey(t *testing.T) {
	f := newIdempotencyFixture(t)
	status, _, _ := f.post(t, strings.Repeat("k", maxKeyLength+1), `{}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Zero(t, f.calls)
}

func TestIdempotencyReleasesKeyWhenHandlerPanics(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	calls := 0
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard())})
	app.Use(recover.New())
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/payment/save", func(c *fiber.Ctx) error {
		calls++
		if calls == 1 {
			panic("receipt renderer crashed")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"call": calls})
	})

	send := func() int {
		req := httptest.NewRequest(fiber.MethodPost, "/payment/save", strings.NewReader(`{"paymentId":"pay_1"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(idempotencyKeyHeader, "panic-key")
		resp, err := app.Test(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusInternalServerError, send())
	assert.Equal(t, fiber.StatusCreated, send(), "a retry after a crash runs the handler again")
	assert.Equal(t, 2, calls)
}
