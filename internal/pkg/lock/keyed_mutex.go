package lock

import (
	"context"
	"sync"
)

type slot struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex is an in-process Locker. Slots are created on demand and
// dropped once nobody holds or waits on them.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*slot)}
}

func (k *KeyedMutex) acquire(key string) *slot {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	return s
}

func (k *KeyedMutex) drop(key string, s *slot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}

func (k *KeyedMutex) releaser(key string, s *slot) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			k.drop(key, s)
		})
	}
}

func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	s := k.acquire(key)
	select {
	case s.ch <- struct{}{}:
		return k.releaser(key, s), nil
	case <-ctx.Done():
		k.drop(key, s)
		return nil, ctx.Err()
	}
}

func (k *KeyedMutex) TryLock(_ context.Context, key string) (func(), bool, error) {
	s := k.acquire(key)
	select {
	case s.ch <- struct{}{}:
		return k.releaser(key, s), true, nil
	default:
		k.drop(key, s)
		return nil, false, nil
	}
}

// size reports the number of live slots.
func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}
