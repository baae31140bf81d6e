package idempotency

import (
	"context"
	"time"

	redisadapter "github.com/sarawakparks/park-reservations/internal/adapters/redis"
)

// lockTTL bounds how long a crashed checkout attempt keeps its
// Idempotency-Key reserved.
const lockTTL = 30 * time.Second

// Idempotency replays a stored checkout response for a repeated
// Idempotency-Key and serializes concurrent attempts on the same key,
// so a retried or double-submitted POST commits nothing twice.
type Idempotency struct {
	redis *redisadapter.Idempotency
	ttl   time.Duration
}

func NewIdempotency(redis *redisadapter.Idempotency, ttl time.Duration) *Idempotency {
	return &Idempotency{redis: redis, ttl: ttl}
}

type Response struct {
	Status int
	Result []byte
}

func (i *Idempotency) Get(ctx context.Context, key string) (*Response, error) {
	stored, err := i.redis.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, nil
	}
	return &Response{Status: stored.Status, Result: stored.Body}, nil
}

// Begin reserves the key for this attempt. It reports false when
// another attempt with the same key is already in flight.
func (i *Idempotency) Begin(ctx context.Context, key string) (bool, error) {
	return i.redis.Lock(ctx, key, lockTTL)
}

// Finish stores the replayable response and releases the reservation.
func (i *Idempotency) Finish(ctx context.Context, key string, resp Response) error {
	if err := i.redis.Set(ctx, key, redisadapter.StoredResponse{
		Status: resp.Status,
		Body:   resp.Result,
	}, i.ttl); err != nil {
		return err
	}
	return i.redis.Unlock(ctx, key)
}

// Abort releases the reservation after a failed attempt so the client
// can retry with the same key.
func (i *Idempotency) Abort(ctx context.Context, key string) error {
	return i.redis.Unlock(ctx, key)
}
