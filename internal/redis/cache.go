package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"matchpush/internal/teams"
)

// Cache key patterns:
// - webhook:seen:{recipient}:{type}:{unix_ts} - 48h TTL, re-delivery fast path
// - teams:tracked - short TTL, tracked identity list

// DedupStore short-circuits webhook re-delivery. The unique index on
// delivery_confirmations stays authoritative; a redis miss or error just
// falls through to the constraint-checked insert.
type DedupStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewDedupStore(client *goredis.Client) *DedupStore {
	return &DedupStore{client: client, ttl: 48 * time.Hour}
}

func dedupKey(recipientID, confirmationType string, platformTS time.Time) string {
	return fmt.Sprintf("webhook:seen:%s:%s:%d", recipientID, confirmationType, platformTS.Unix())
}

// MarkSeen returns true when this is the first time the key was seen.
// Errors report true so the caller proceeds to the database.
func (s *DedupStore) MarkSeen(ctx context.Context, recipientID, confirmationType string, platformTS time.Time) bool {
	if s == nil || s.client == nil {
		return true
	}
	first, err := s.client.SetNX(ctx, dedupKey(recipientID, confirmationType, platformTS), 1, s.ttl).Result()
	if err != nil {
		return true
	}
	return first
}

// Forget removes a seen marker, used when the database insert behind it
// failed and the webhook should be accepted again on retry.
func (s *DedupStore) Forget(ctx context.Context, recipientID, confirmationType string, platformTS time.Time) {
	if s == nil || s.client == nil {
		return
	}
	_ = s.client.Del(ctx, dedupKey(recipientID, confirmationType, platformTS)).Err()
}

// TrackedCache caches the audience collaborator's identity list.
type TrackedCache struct {
	client *goredis.Client
	source teams.TrackedSource
	ttl    time.Duration
}

func NewTrackedCache(client *goredis.Client, source teams.TrackedSource, ttl time.Duration) *TrackedCache {
	return &TrackedCache{client: client, source: source, ttl: ttl}
}

const trackedKey = "teams:tracked"

func (c *TrackedCache) ListTrackedIdentities(ctx context.Context) ([]string, error) {
	if c.client != nil {
		if raw, err := c.client.Get(ctx, trackedKey).Bytes(); err == nil {
			var cached []string
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	identities, err := c.source.ListTrackedIdentities(ctx)
	if err != nil {
		return nil, err
	}

	if c.client != nil {
		if raw, err := json.Marshal(identities); err == nil {
			_ = c.client.Set(ctx, trackedKey, raw, c.ttl).Err()
		}
	}
	return identities, nil
}
