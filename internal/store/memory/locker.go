package memory

import (
	"context"
	"fmt"
	"sync"

	"medicart_back_end/internal/store"
)

// Locker est un verrou par clé dans le processus. L'attente respecte ctx.
type Locker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocker() *Locker {
	return &Locker{slots: make(map[string]chan struct{})}
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %v", store.ErrLockTimeout, key, ctx.Err())
	}
}
