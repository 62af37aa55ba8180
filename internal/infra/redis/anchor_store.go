package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// AnchorStore keeps attempt start times in Redis so every instance and every
// reconnect sees the same clock. The first writer wins via SETNX; the value is
// the start time in unix milliseconds. Keys carry no expiry and are removed
// only once a submission is stored.
type AnchorStore struct {
	client *redis.Client
}

func NewAnchorStore(client *redis.Client) *AnchorStore {
	return &AnchorStore{client: client}
}

func (s *AnchorStore) Anchor(ctx context.Context, code, email string, now time.Time) (time.Time, error) {
	key := s.key(code, email)
	if _, err := s.client.SetNX(ctx, key, now.UnixMilli(), 0).Result(); err != nil {
		return time.Time{}, err
	}

	raw, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse anchor %s: %w", key, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

func (s *AnchorStore) Clear(ctx context.Context, code, email string) error {
	return s.client.Del(ctx, s.key(code, email)).Err()
}

func (s *AnchorStore) key(code, email string) string {
	return "attempt:" + code + ":" + email + ":started"
}
