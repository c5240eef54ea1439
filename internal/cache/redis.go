package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/contentguard/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// DecisionsChannel carries models.WSMessage events about the log
	DecisionsChannel = "moderation:decisions"
	// SummaryKey holds the cached analytics summary
	SummaryKey = "analytics:summary"
)

type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis client
func NewRedisClient(ctx context.Context, addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Pub/Sub

// DecisionLogged announces a committed decision and drops the cached summary
func (r *RedisClient) DecisionLogged(ctx context.Context, d models.ModerationDecision) error {
	if err := r.InvalidateSummary(ctx); err != nil {
		return err
	}
	return r.publish(ctx, models.WSMessage{Event: models.EventDecisionNew, Payload: d})
}

// LogsCleared announces a reset of the log
func (r *RedisClient) LogsCleared(ctx context.Context) error {
	if err := r.InvalidateSummary(ctx); err != nil {
		return err
	}
	return r.publish(ctx, models.WSMessage{Event: models.EventLogsCleared, Payload: map[string]any{"cleared_at": time.Now().UTC()}})
}

func (r *RedisClient) publish(ctx context.Context, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, DecisionsChannel, data).Err()
}

// SubscribeToDecisions subscribes to the decisions channel
func (r *RedisClient) SubscribeToDecisions(ctx context.Context) *redis.PubSub {
	return r.client.Subscribe(ctx, DecisionsChannel)
}

// Summary cache

// GetJSON loads key into v. It reports false on a cache miss.
func (r *RedisClient) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores v under key for ttl
func (r *RedisClient) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

// InvalidateSummary drops the cached analytics summary
func (r *RedisClient) InvalidateSummary(ctx context.Context) error {
	return r.client.Del(ctx, SummaryKey).Err()
}

// GetClient returns the underlying Redis client
func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}

// AllowAction implements a Redis-backed token-bucket limiter per key (client+action).
// Returns true if the action is allowed, false if rate-limited.
func (r *RedisClient) AllowAction(ctx context.Context, clientKey string, action string, rate int, burst int) (bool, error) {
	key := fmt.Sprintf("rl:%s:%s", action, clientKey)
	script := `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local vals = redis.call('HMGET', key, 'tokens', 'last')
local tokens = tonumber(vals[1])
local last = tonumber(vals[2])
if tokens == nil then tokens = burst end
if last == nil then last = now end
local delta = math.max(0, now - last)
local new_tokens = math.min(burst, tokens + (delta * rate / 1000))
if new_tokens >= 1 then
	new_tokens = new_tokens - 1
	redis.call('HMSET', key, 'tokens', new_tokens, 'last', now)
	redis.call('PEXPIRE', key, 60000)
	return 1
else
	redis.call('HMSET', key, 'tokens', new_tokens, 'last', now)
	redis.call('PEXPIRE', key, 60000)
	return 0
end
`

	now := time.Now().UnixNano() / int64(time.Millisecond)
	res, err := r.client.Eval(ctx, script, []string{key}, rate, burst, now).Result()
	if err != nil {
		return false, err
	}
	switch v := res.(type) {
	case int64:
		return v == 1, nil
	case int:
		return v == 1, nil
	default:
		return false, fmt.Errorf("unexpected result from rate limiter: %T %v", res, res)
	}
}
