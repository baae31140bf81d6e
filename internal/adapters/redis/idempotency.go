package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	checkoutKeyPrefix  = "idemp:checkout:"
	checkoutLockPrefix = "idemp:checkout:lock:"
)

// Idempotency stores finished checkout responses keyed by the
// client's Idempotency-Key, plus a short-lived in-flight lock so two
// concurrent attempts with the same key cannot both commit.
type Idempotency struct {
	client *redis.Client
}

func NewIdempotency(client *redis.Client) *Idempotency {
	return &Idempotency{client: client}
}

// StoredResponse is the replayable result of a finished checkout.
type StoredResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

func (i *Idempotency) Get(ctx context.Context, key string) (*StoredResponse, error) {
	val, err := i.client.Get(ctx, checkoutKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var resp StoredResponse
	err = json.Unmarshal(val, &resp)
	return &resp, err
}

func (i *Idempotency) Set(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return i.client.Set(ctx, checkoutKeyPrefix+key, data, ttl).Err()
}

// Lock reserves the key for one in-flight checkout attempt. The TTL
// bounds how long a crashed attempt can block retries with its key.
func (i *Idempotency) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return i.client.SetNX(ctx, checkoutLockPrefix+key, 1, ttl).Result()
}

func (i *Idempotency) Unlock(ctx context.Context, key string) error {
	return i.client.Del(ctx, checkoutLockPrefix+key).Err()
}
