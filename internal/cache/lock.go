package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"medicart_back_end/internal/store"
)

const (
	lockTTL       = 30 * time.Second
	lockWait      = 5 * time.Second
	lockRetryStep = 25 * time.Millisecond
)

// Ne supprime la clé que si elle porte encore notre jeton.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker est un verrou distribué SET NX PX par clé.
type Locker struct {
	client *redis.Client
}

func NewLocker(client *redis.Client) *Locker {
	return &Locker{client: client}
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, lockWait)
		defer cancel()
	}

	redisKey := "lock:" + key
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, lockTTL).Result()
		if err == nil && ok {
			break
		}
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("acquire %s: %w", redisKey, err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", store.ErrLockTimeout, redisKey)
		case <-time.After(lockRetryStep):
		}
	}

	unlock := func() {
		relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(relCtx, l.client, []string{redisKey}, token).Err(); err != nil {
			log.Printf("⚠️ Libération du verrou %s échouée: %v", redisKey, err)
		}
	}
	return unlock, nil
}
