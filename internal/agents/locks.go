package agents

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type keyedLock struct {
	sem  chan struct{}
	refs int
}

// keyedMutex serializes work per agent id. Waiting honours context
// cancellation, and entries are dropped once no caller holds or awaits them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*keyedLock
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uuid.UUID]*keyedLock)}
}

func (k *keyedMutex) acquire(id uuid.UUID) *keyedLock {
	k.mu.Lock()
	defer k.mu.Unlock()

	l, ok := k.locks[id]
	if !ok {
		l = &keyedLock{sem: make(chan struct{}, 1)}
		k.locks[id] = l
	}
	l.refs++
	return l
}

func (k *keyedMutex) release(id uuid.UUID, l *keyedLock) {
	k.mu.Lock()
	defer k.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(k.locks, id)
	}
}

// Lock blocks until id is free or ctx is done. The returned func unlocks.
func (k *keyedMutex) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := k.acquire(id)

	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			k.release(id, l)
		}, nil
	case <-ctx.Done():
		k.release(id, l)
		return nil, ctx.Err()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
