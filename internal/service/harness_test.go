package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"easylaw-be/internal/constant"
	"easylaw-be/internal/dto"
	"easylaw-be/internal/entity"
	"easylaw-be/internal/model"
	"easylaw-be/internal/pkg/lock"
	"easylaw-be/internal/pkg/logger"
	"easylaw-be/internal/pkg/tokenizer"
	"easylaw-be/internal/repository/memory"
	"easylaw-be/internal/repository/unitofwork"
	"easylaw-be/pkg/database/dbtest"
	"easylaw-be/pkg/events"
	"easylaw-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

type recordingSink struct {
	mu        sync.Mutex
	events    []dto.StreamingMessage
	failAfter int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{failAfter: -1}
}

func (s *recordingSink) Send(message dto.StreamingMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAfter >= 0 && len(s.events) >= s.failAfter {
		return errors.New("connection closed")
	}
	s.events = append(s.events, message)
	return nil
}

func (s *recordingSink) snapshot() []dto.StreamingMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dto.StreamingMessage(nil), s.events...)
}

type fakeGenerator struct {
	mu        sync.Mutex
	fragments []string
	err       error
	metadata  map[string]interface{}
	calls     int
	requests  []llm.GenerationRequest

	// afterFragment runs once each fragment has been handed over.
	afterFragment func(i int)
}

func (g *fakeGenerator) Generate(ctx context.Context, req llm.GenerationRequest, onFragment func(string) error) (*llm.GenerationResult, error) {
	g.mu.Lock()
	g.calls++
	g.requests = append(g.requests, req)
	g.mu.Unlock()

	for i, fragment := range g.fragments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := onFragment(fragment); err != nil {
			return nil, err
		}
		if g.afterFragment != nil {
			g.afterFragment(i)
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return &llm.GenerationResult{Metadata: g.metadata}, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type harness struct {
	factory   unitofwork.RepositoryFactory
	locker    *lock.KeyedMutex
	publisher *recordingPublisher
	logger    logger.ILogger
	sessions  ISessionService
	messages  IMessageService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := dbtest.NewSQLite(t, &model.User{}, &model.ChatSession{}, &model.ChatMessage{}, &model.AdminLog{})
	h := &harness{
		factory:   unitofwork.NewRepositoryFactory(db),
		locker:    lock.NewKeyedMutex(),
		publisher: &recordingPublisher{},
		logger:    logger.NewNopLogger(),
	}
	h.sessions = NewSessionService(h.factory, h.locker, h.publisher, h.logger, SessionServiceConfig{MaxActiveSessions: 3})
	h.messages = NewMessageService(h.factory, h.locker, tokenizer.ApproximateCounter{}, h.publisher, h.logger, MessageServiceConfig{HistoryLimit: 50})
	return h
}

func (h *harness) streams(generator llm.Generator, turns *memory.TurnRepository) IStreamService {
	return NewStreamService(h.sessions, h.messages, generator, h.locker, turns, h.publisher, h.logger,
		StreamServiceConfig{HistoryLimit: 50, MaxMessageLength: 4000})
}

func (h *harness) createSession(t *testing.T, owner entity.Identity) *dto.SessionResponse {
	t.Helper()
	session, err := h.sessions.CreateSession(context.Background(), owner, &dto.CreateSessionRequest{Mode: constant.SessionModeLawsPublic})
	require.NoError(t, err)
	return session
}

func (h *harness) loadSession(t *testing.T, id uuid.UUID) *entity.ChatSession {
	t.Helper()
	session, err := h.sessions.FindAccessible(context.Background(), adminIdentity(), id)
	require.NoError(t, err)
	return session
}

func userIdentity() entity.Identity {
	return entity.Identity{UserId: uuid.New(), Role: constant.RoleUser}
}

func adminIdentity() entity.Identity {
	return entity.Identity{UserId: uuid.New(), Role: constant.RoleAdmin}
}

// steppingClock returns a clock that advances one second per call.
func steppingClock(start time.Time) Clock {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}
