package context

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is an optional distributed backing store for sender state,
// with fields for violation counts, trust, and block decisions. When
// attached, Evaluator mirrors TrustSender and BlockSender into it; it does
// not mirror violation counts and does not read sender state back from
// the store.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a RedisStore against addr (host:port).
func NewRedisStore(addr string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

func (r *RedisStore) key(senderID string) string {
	return "sentry:sender:" + senderID
}

// IncrementViolations atomically bumps and returns a sender's violation
// counter, refreshing its TTL.
func (r *RedisStore) IncrementViolations(ctx context.Context, senderID string) (int, error) {
	pipe := r.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, r.key(senderID), "violations", 1)
	pipe.Expire(ctx, r.key(senderID), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

// SetFlag sets a boolean flag field ("trusted" or "blocked") on a
// sender's hash.
func (r *RedisStore) SetFlag(ctx context.Context, senderID, field string) error {
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.key(senderID), field, "1")
	pipe.Expire(ctx, r.key(senderID), r.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// State hydrates a sender's violations/trusted/blocked fields.
func (r *RedisStore) State(ctx context.Context, senderID string) (violations int, trusted, blocked bool, err error) {
	vals, err := r.client.HGetAll(ctx, r.key(senderID)).Result()
	if err != nil {
		return 0, false, false, err
	}
	if v, ok := vals["violations"]; ok {
		violations, _ = strconv.Atoi(v)
	}
	trusted = vals["trusted"] == "1"
	blocked = vals["blocked"] == "1"
	return violations, trusted, blocked, nil
}

// Close releases the underlying connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
