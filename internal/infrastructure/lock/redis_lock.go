package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	app "github.com/bizadmin/record-import/internal/application/dataimport"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLeaseLost = errors.New("job lock lease lost")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type lockClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisJobLocker grants one lease per job id. A lease holds a random token,
// so a worker can only refresh or release its own lock.
type RedisJobLocker struct {
	client lockClient
	prefix string
}

func NewRedisJobLocker(client lockClient) *RedisJobLocker {
	return &RedisJobLocker{client: client, prefix: "import:job-lock:"}
}

func (l *RedisJobLocker) Acquire(ctx context.Context, jobID string, ttl time.Duration) (app.JobLease, bool, error) {
	key := l.prefix + jobID
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !acquired {
		return nil, false, nil
	}

	return &redisLease{client: l.client, key: key, token: token, ttl: ttl}, true, nil
}

type redisLease struct {
	client lockClient
	key    string
	token  string
	ttl    time.Duration
}

func (l *redisLease) Refresh(ctx context.Context) error {
	extended, err := refreshScript.Run(ctx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("refresh lock %s: %w", l.key, err)
	}
	if extended == 0 {
		return ErrLeaseLost
	}
	return nil
}

func (l *redisLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	return nil
}
