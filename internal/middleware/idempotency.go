package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/arihant-coaching/coaching_api/internal/apperr"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
	idempotencyPrefix    = "idempotency:v2:"
	maxKeyLength         = 255
	storeTimeout         = 2 * time.Second
)

var (
	errKeyTooLong   = apperr.Validation("Idempotency-Key header too long")
	errKeyInFlight  = apperr.New(apperr.KindConflict, "idempotency_in_flight", "a request with this Idempotency-Key is still processing")
	errKeyReused    = apperr.New(apperr.KindValidation, "idempotency_key_reused", "Idempotency-Key was already used with a different request body").WithStatus(http.StatusUnprocessableEntity)
	errReplayFailed = apperr.New(apperr.KindInternal, "idempotency_unavailable", "idempotency store failure")
)

// replayRecord is what Redis holds under a key. An empty Status marks a
// reservation whose request has not finished.
type replayRecord struct {
	Fingerprint string `json:"fp"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

func (r replayRecord) done() bool { return r.Status != 0 }

type replayStore struct {
	cache *redis.Client
	ttl   time.Duration
}

func (s replayStore) load(key string) (replayRecord, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	raw, err := s.cache.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return replayRecord{}, false, nil
	}
	if err != nil {
		return replayRecord{}, false, err
	}
	var rec replayRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return replayRecord{}, false, err
	}
	return rec, true, nil
}

func (s replayStore) reserve(key, fingerprint string) (bool, error) {
	payload, _ := json.Marshal(replayRecord{Fingerprint: fingerprint})
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	return s.cache.SetNX(ctx, key, payload, s.ttl).Result()
}

func (s replayStore) save(key string, rec replayRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	return s.cache.Set(ctx, key, payload, s.ttl).Err()
}

func (s replayStore) release(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	s.cache.Del(ctx, key)
}

// Idempotency replays the stored response of a completed unsafe request when
// the client repeats its Idempotency-Key on the same route with the same body.
// Requests without the header pass through. Errors and 5xx responses are not
// stored so the client may retry with the same key.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	store := replayStore{cache: cache, ttl: ttl}
	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		switch method {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		key := strings.TrimSpace(c.Get(idempotencyKeyHeader))
		if key == "" {
			return c.Next()
		}
		if len(key) > maxKeyLength {
			return errKeyTooLong
		}

		cacheKey := idempotencyPrefix + method + ":" + c.Path() + ":" + key
		fingerprint := fingerprintOf(c.Body())

		rec, found, err := store.load(cacheKey)
		if err != nil {
			logger.Error("idempotency lookup failed", slog.String("key", key), slog.Any("error", err))
			return errReplayFailed.Wrap(err)
		}
		if found {
			return replay(c, rec, fingerprint)
		}

		reserved, err := store.reserve(cacheKey, fingerprint)
		if err != nil {
			logger.Error("idempotency reservation failed", slog.String("key", key), slog.Any("error", err))
			return errReplayFailed.Wrap(err)
		}
		if !reserved {
			return errKeyInFlight
		}

		// Any exit that does not persist a response frees the key, including
		// a handler panic unwinding to the recover middleware.
		stored := false
		defer func() {
			if !stored {
				store.release(cacheKey)
			}
		}()

		if err := c.Next(); err != nil || c.Response().StatusCode() >= fiber.StatusInternalServerError {
			return err
		}

		rec = replayRecord{
			Fingerprint: fingerprint,
			Status:      c.Response().StatusCode(),
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		}
		if err := store.save(cacheKey, rec); err != nil {
			// The handler already ran; answer normally and let a retry run it again.
			logger.Error("idempotent response not persisted", slog.String("key", key), slog.Any("error", err))
			return nil
		}
		stored = true
		return nil
	}
}

func fingerprintOf(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func replay(c *fiber.Ctx, rec replayRecord, fingerprint string) error {
	if rec.Fingerprint != fingerprint {
		return errKeyReused
	}
	if !rec.done() {
		return errKeyInFlight
	}
	if rec.ContentType != "" {
		c.Set(fiber.HeaderContentType, rec.ContentType)
	}
	c.Set(replayedHeader, "true")
	return c.Status(rec.Status).Send(rec.Body)
}
