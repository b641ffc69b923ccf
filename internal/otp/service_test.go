package otp

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arihant-coaching/coaching_api/internal/logging"
	"github.com/arihant-coaching/coaching_api/internal/notification"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []notification.Message
}

func (n *captureNotifier) Send(_ context.Context, m notification.Message) error {
	n.mu.Lock()
	n.sent = append(n.sent, m)
	n.mu.Unlock()
	return nil
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(client),
	}
}

func newService(store Store, clock *fakeClock) *Service {
	return NewService(store, &captureNotifier{}, logging.Discard(), Options{TTL: 10 * time.Minute, Attempts: 3}).WithClock(clock.Now)
}

func TestIssueFormat(t *testing.T) {
	svc := newService(NewMemoryStore(), &fakeClock{t: time.Now()})
	code, err := svc.Issue(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)
}

func TestVerifySucceedsExactlyOnce(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc := newService(store, &fakeClock{t: time.Now()})

			code, err := svc.Issue(ctx, "Asha@X.com")
			require.NoError(t, err)

			require.NoError(t, svc.Verify(ctx, "asha@x.com", code))
			assert.ErrorIs(t, svc.Verify(ctx, "asha@x.com", code), ErrNotFound)
		})
	}
}

func TestVerifyExpired(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := &fakeClock{t: time.Now()}
			svc := newService(store, clock)

			code, err := svc.Issue(ctx, "late@x.com")
			require.NoError(t, err)

			clock.Advance(10*time.Minute + time.Second)
			assert.ErrorIs(t, svc.Verify(ctx, "late@x.com", code), ErrExpired)
			assert.ErrorIs(t, svc.Verify(ctx, "late@x.com", "000000"), ErrExpired)
		})
	}
}

func TestVerifyMismatchSpendsAttempts(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc := newService(store, &fakeClock{t: time.Now()})

			code, err := svc.Issue(ctx, "m@x.com")
			require.NoError(t, err)
			wrong := "000000"
			if code == wrong {
				wrong = "111111"
			}

			assert.ErrorIs(t, svc.Verify(ctx, "m@x.com", wrong), ErrMismatch)
			assert.ErrorIs(t, svc.Verify(ctx, "m@x.com", wrong), ErrMismatch)
			require.NoError(t, svc.Verify(ctx, "m@x.com", code))

			code, err = svc.Issue(ctx, "m@x.com")
			require.NoError(t, err)
			for i := 0; i < 3; i++ {
				assert.ErrorIs(t, svc.Verify(ctx, "m@x.com", wrong), ErrMismatch)
			}
			assert.ErrorIs(t, svc.Verify(ctx, "m@x.com", code), ErrNotFound)
		})
	}
}

func TestResendInvalidatesPreviousCode(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc := newService(store, &fakeClock{t: time.Now()})

			first, err := svc.Issue(ctx, "r@x.com")
			require.NoError(t, err)
			second, err := svc.Issue(ctx, "r@x.com")
			require.NoError(t, err)
			if first == second {
				t.Skip("random codes collided")
			}

			assert.ErrorIs(t, svc.Verify(ctx, "r@x.com", first), ErrMismatch)
			require.NoError(t, svc.Verify(ctx, "r@x.com", second))
		})
	}
}

func TestConcurrentVerifyOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	svc := newService(NewRedisStore(client), &fakeClock{t: time.Now()})

	code, err := svc.Issue(ctx, "race@x.com")
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if svc.Verify(ctx, "race@x.com", code) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestSendDeliversThroughNotifier(t *testing.T) {
	notifier := &captureNotifier{}
	svc := NewService(NewMemoryStore(), notifier, logging.Discard(), Options{})

	require.NoError(t, svc.Send(context.Background(), " New@X.com "))
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notification.KindOTP, notifier.sent[0].Kind)
	assert.Equal(t, "new@x.com", notifier.sent[0].Destination)
	assert.Regexp(t, `\d{6}`, notifier.sent[0].Body)
}

func TestRedisKeyOutlivesExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	svc := NewService(NewRedisStore(client), &captureNotifier{}, logging.Discard(), Options{TTL: time.Minute})

	_, err := svc.Issue(context.Background(), "ttl@x.com")
	require.NoError(t, err)
	ttl := mr.TTL(keyPrefix + "ttl@x.com")
	assert.Greater(t, ttl, time.Hour)
}
