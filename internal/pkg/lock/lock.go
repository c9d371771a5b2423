package lock

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotAcquired = errors.New("lock not acquired")

// Locker hands out exclusive per-key locks. The returned release func is
// safe to call more than once.
type Locker interface {
	// Lock blocks until the key is free or ctx is done.
	Lock(ctx context.Context, key string) (release func(), err error)
	// TryLock never waits; ok is false when the key is held elsewhere.
	TryLock(ctx context.Context, key string) (release func(), ok bool, err error)
}

func OwnerSessionsKey(userId uuid.UUID) string {
	return "owner:" + userId.String() + ":sessions"
}

func SessionWriteKey(sessionId uuid.UUID) string {
	return "session:" + sessionId.String() + ":write"
}

func SessionTurnKey(sessionId uuid.UUID) string {
	return "session:" + sessionId.String() + ":turn"
}
