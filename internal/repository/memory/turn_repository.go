package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// CompletedTurn records the outcome of a streaming turn that carried a
// client request id, so a retry of the same request can be answered
// without generating again.
type CompletedTurn struct {
	SessionId          uuid.UUID
	RequestId          string
	UserMessageId      uuid.UUID
	AssistantMessageId uuid.UUID
	Metadata           map[string]interface{}
	CompletedAt        time.Time
}

type TurnRepository struct {
	cache *cache.Cache
}

func NewTurnRepository(ttl time.Duration) *TurnRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &TurnRepository{
		cache: cache.New(ttl, ttl/2),
	}
}

func turnKey(sessionId uuid.UUID, requestId string) string {
	return sessionId.String() + ":" + requestId
}

func (r *TurnRepository) Save(turn *CompletedTurn) {
	r.cache.Set(turnKey(turn.SessionId, turn.RequestId), turn, cache.DefaultExpiration)
}

func (r *TurnRepository) Get(sessionId uuid.UUID, requestId string) (*CompletedTurn, bool) {
	if x, found := r.cache.Get(turnKey(sessionId, requestId)); found {
		return x.(*CompletedTurn), true
	}
	return nil, false
}
