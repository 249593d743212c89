package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// unlockScript deletes the key only while it still holds the caller's token, so an expired
// holder never releases a lock somebody else has taken since.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Client struct {
	RedisClient *redis.Client
}

func NewClient(ctx context.Context, dsn string) (*Client, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, err
	}

	redisClient := redis.NewClient(opts)
	return &Client{
		RedisClient: redisClient,
	}, nil
}

func (c *Client) Lock(ctx context.Context, lockKey string, lockTimeDuration time.Duration) (token string, ok bool, err error) {
	token = uuid.NewString()
	ok, err = c.RedisClient.SetNX(ctx, lockKey, token, lockTimeDuration).Result()
	if err != nil {
		return "", false, err
	}

	if !ok {
		return "", false, nil
	}

	return token, true, nil
}

func (c *Client) Unlock(ctx context.Context, lockKey, token string) (err error) {
	err = unlockScript.Run(ctx, c.RedisClient, []string{lockKey}, token).Err()
	if err == redis.Nil {
		return nil
	}

	return err
}

func (c *Client) Close() (err error) {
	err = c.RedisClient.Close()
	return err
}

func (c *Client) Ping(ctx context.Context) (err error) {
	err = c.RedisClient.Ping(ctx).Err()
	return err
}
