package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"easylaw-be/internal/constant"
	"easylaw-be/internal/dto"
	"easylaw-be/internal/pkg/apperror"
	"easylaw-be/internal/pkg/lock"
	"easylaw-be/internal/repository/memory"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenContents(events []dto.StreamingMessage) []string {
	tokens := lo.Filter(events, func(e dto.StreamingMessage, _ int) bool { return e.Type == constant.StreamEventToken })
	return lo.Map(tokens, func(e dto.StreamingMessage, _ int) string { return e.Content })
}

func terminalEvents(events []dto.StreamingMessage) []dto.StreamingMessage {
	return lo.Filter(events, func(e dto.StreamingMessage, _ int) bool { return e.IsTerminal() })
}

func TestSendMessage_StreamsAndAppendsAnswer(t *testing.T) {
	h := newHarness(t)
	owner := userIdentity()
	session := h.createSession(t, owner)

	generator := &fakeGenerator{
		fragments: []string{"Upah minimum ", "ditetapkan ", "oleh gubernur."},
		metadata:  map[string]interface{}{"model": "llama3", "rag_sources": []interface{}{"PP 36/2021"}},
	}
	sink := newRecordingSink()

	err := h.streams(generator, nil).SendMessage(context.Background(), owner, &dto.SendMessageRequest{
		Type:      constant.FrameTypeMessage,
		SessionId: session.Id,
		Content:   "Berapa upah minimum?",
	}, sink)
	require.NoError(t, err)

	events := sink.snapshot()
	require.Len(t, events, 4)
	assert.Equal(t, []string{"Upah minimum ", "ditetapkan ", "oleh gubernur."}, tokenContents(events))

	complete := events[3]
	assert.Equal(t, constant.StreamEventComplete, complete.Type)
	require.NotNil(t, complete.MessageId)
	assert.Equal(t, "llama3", complete.Metadata["model"])
	assert.Contains(t, complete.Metadata, "tokens")
	for _, e := range events {
		require.NotNil(t, e.SessionId)
		assert.Equal(t, session.Id, *e.SessionId)
	}

	history, err := h.messages.History(context.Background(), owner, session.Id, dto.HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, constant.SenderUser, history.Messages[0].Sender)
	assistant := history.Messages[1]
	assert.Equal(t, constant.SenderAssistant, assistant.Sender)
	assert.Equal(t, *complete.MessageId, assistant.Id)
	assert.Equal(t, "Upah minimum ditetapkan oleh gubernur.", assistant.Content)
	assert.Positive(t, assistant.Tokens)
	assert.Equal(t, assistant.Tokens, complete.Metadata["tokens"])
	assert.Equal(t, int64(2), history.TotalMessages)
}

func TestSendMessage_PassesPriorHistoryOnly(t *testing.T) {
	h := newHarness(t)
	owner := userIdentity()
	session := h.createSession(t, owner)

	generator := &fakeGenerator{fragments: []string{"jawaban"}}
	streams := h.streams(generator, nil)

	for _, content := range []string{"pertanyaan satu", "pertanyaan dua"} {
		require.NoError(t, streams.SendMessage(context.Background(), owner, &dto.SendMessageRequest{
			Type: constant.FrameTypeMessage, SessionId: session.Id, Content: content,
		}, newRecordingSink()))
	}

	require.Len(t, generator.requests, 2)
	assert.Empty(t, generator.requests[0].History)

	second := generator.requests[1]
	assert.Equal(t, "pertanyaan dua", second.Content)
	assert.Equal(t, constant.SessionModeLawsPublic, second.Mode)
	require.Len(t, second.History, 2)
	assert.Equal(t, constant.SenderUser, second.History[0].Role)
	assert.Equal(t, "pertanyaan satu", second.History[0].Content)
	assert.Equal(t, constant.SenderAssistant, second.History[1].Role)
}

func TestSendMessage_GeneratorFailure(t *testing.T) {
	h := newHarness(t)
	owner := userIdentity()
	session := h.createSession(t, owner)

	generator := &fakeGenerator{fragments: []string{"Menurut "}, err: errors.New("model crashed")}
	sink := newRecordingSink()

	err := h.streams(generator, nil).SendMessage(context.Background(), owner, &dto.SendMessageRequest{
		Type: constant.FrameTypeMessage, SessionId: session.Id, Content: "Apa itu PHK?",
	}, sink)
	require.ErrorIs(t, err, apperror.ErrUpstream)

	events := sink.snapshot()
	terminal := terminalEvents(events)
	require.Len(t, terminal, 1)
	assert.Equal(t, constant.StreamEventError, terminal[0].Type)
	assert.Equal(t, apperror.ErrUpstream.Code, terminal[0].Metadata["code"])
	assert.Equal(t, terminal[0], events[len(events)-1])

	stored := h.loadSession(t, session.Id)
	assert.Equal(t, 1, stored.MessageCount, "only the user message is stored")
	assert.Equal(t, 1, h.publisher.count(constant.EventTurnFailed))
}

func TestSendMessage_EmptyAnswerIsAFailure(t *testing.T) {
	h := newHarness(t)
	owner := userIdentity()
	session := h.createSession(t, owner)
	sink := newRecordingSink()

	err := h.streams(&fakeGenerator{}, nil).SendMessage(context.Background(), owner, &dto.SendMessageRequest{
		Type: constant.FrameTypeMessage, SessionId: session.Id, Content: "halo",
	}, sink)
	require.ErrorIs(t, err, apperror.ErrUpstream)
	assert.Len(t, sink.snapshot(), 1)
}

func TestSendMessage_SessionBusy(t *testing.T) {
	h := newHarness(t)
	owner := userIdentity()
	session := h.createSession(t, owner)

	release, ok, err := h.locker.TryLock(context.Background(), lock.SessionTurnKey(session.Id))
	require.NoError(t, err)
	require.True(t, ok)
	defer release()

	generator := &fakeGenerator{fragments: []string{"x"}}
	sink := newRecordingSink()
	err = h.streams(generator, nil).SendMessage(context.Background(), owner, &dto.SendMessageRequest{
		Type: constant.FrameTypeMessage, SessionId: session.Id, Content: "halo",
	}, sink)
	require.ErrorIs(t, err, apperror.ErrSessionBusy)

	events := sink.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, apperror.ErrSessionBusy.Code, events[0].Metadata["code"])
	assert.Zero(t, generator.callCount())
	assert.Zero(t, h.loadSession(t, session.Id).MessageCount)
}

func TestSendMessage_Rejections(t *testing.T) {
	h := newHarness(t)
	owner := userIdentity()
	session := h.createSession(t, owner)
	streams := h.streams(&fakeGenerator{fragments: []string{"x"}}, nil)

	tests := []struct {
		name      string
		content   string
		otherUser bool
		wantErr   *apperror.AppError
	}{
		{name: "blank content", content: "   ", wantErr: apperror.ErrValidation},
		{name: "content too long", content: strings.Repeat("a", 4001), wantErr: apperror.ErrValidation},
		{name: "other user's session", content: "halo", otherUser: true, wantErr: apperror.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := owner
			if tt.otherUser {
				actor = userIdentity()
			}
			sink := newRecordingSink()
			err := streams.SendMessage(context.Background(), actor, &dto.SendMessageRequest{SessionId: session.Id, Content: tt.content}, sink)
			require.ErrorIs(t, err, tt.wantErr)

			events := sink.snapshot()
			require.Len(t, events, 1)
			assert.Equal(t, constant.StreamEventError, events[0].Type)
			assert.Equal(t, tt.wantErr.Code, events[0].Metadata["code"])
		})
	}

	t.Run("closed session", func(t *testing.T) {
		_, err := h.sessions.CloseSession(context.Background(), owner, session.Id)
		require.NoError(t, err)

		sink := newRecordingSink()
		err = streams.SendMessage(context.Background(), owner, &dto.SendMessageRequest{SessionId: session.Id, Content: "halo"}, sink)
		require.ErrorIs(t, err, apperror.ErrSessionClosed)
		require.Len(t, sink.snapshot(), 1)
	})

	assert.Zero(t, h.loadSession(t, session.Id).MessageCount)
}

func TestSendMessage_ClientDisconnectStillAppends(t *testing.T) {
	h := newHarness(t)
	owner := userIdentity()
	session := h.createSession(t, owner)

	generator := &fakeGenerator{fragments: []string{"satu ", "dua ", "tiga"}}
	sink := newRecordingSink()
	sink.failAfter = 1

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := h.streams(generator, nil).SendMessage(ctx, owner, &dto.SendMessageRequest{
		Type: constant.FrameTypeMessage, SessionId: session.Id, Content: "hitung",
	}, sink)
	require.NoError(t, err)

	assert.Len(t, sink.snapshot(), 1, "events after the disconnect are dropped")

	recent, err := h.messages.Recent(context.Background(), session.Id, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "satu dua tiga", recent[0].Content)
}

func TestSendMessage_CancelledRequestStillAppends(t *testing.T) {
	h := newHarness(t)
	owner := userIdentity()
	session := h.createSession(t, owner)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	generator := &fakeGenerator{
		fragments: []string{"satu ", "dua ", "tiga"},
		afterFragment: func(i int) {
			if i == 0 {
				cancel()
			}
		},
	}
	sink := newRecordingSink()

	err := h.streams(generator, nil).SendMessage(ctx, owner, &dto.SendMessageRequest{
		Type: constant.FrameTypeMessage, SessionId: session.Id, Content: "hitung",
	}, sink)
	require.NoError(t, err)
	require.Error(t, ctx.Err())

	events := sink.snapshot()
	assert.Equal(t, []string{"satu ", "dua ", "tiga"}, tokenContents(events))
	terminal := terminalEvents(events)
	require.Len(t, terminal, 1)
	assert.Equal(t, constant.StreamEventComplete, terminal[0].Type)

	recent, err := h.messages.Recent(context.Background(), session.Id, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, constant.SenderAssistant, recent[0].Sender)
	assert.Equal(t, "satu dua tiga", recent[0].Content)
	assert.Equal(t, 2, h.loadSession(t, session.Id).MessageCount)
}

func TestSendMessage_ReplaysCompletedTurn(t *testing.T) {
	h := newHarness(t)
	owner := userIdentity()
	session := h.createSession(t, owner)

	generator := &fakeGenerator{fragments: []string{"jawaban"}}
	streams := h.streams(generator, memory.NewTurnRepository(time.Minute))
	request := &dto.SendMessageRequest{
		Type: constant.FrameTypeMessage, SessionId: session.Id, Content: "halo", RequestId: "req-1",
	}

	first := newRecordingSink()
	require.NoError(t, streams.SendMessage(context.Background(), owner, request, first))
	second := newRecordingSink()
	require.NoError(t, streams.SendMessage(context.Background(), owner, request, second))

	assert.Equal(t, 1, generator.callCount())
	assert.Equal(t, 2, h.loadSession(t, session.Id).MessageCount)

	replayed := second.snapshot()
	require.Len(t, replayed, 1)
	assert.Equal(t, constant.StreamEventComplete, replayed[0].Type)
	assert.Equal(t, true, replayed[0].Metadata["replayed"])

	original := terminalEvents(first.snapshot())
	require.Len(t, original, 1)
	assert.Equal(t, *original[0].MessageId, *replayed[0].MessageId)
}

func TestTurnEmitter_SingleTerminalEvent(t *testing.T) {
	sink := newRecordingSink()
	h := newHarness(t)
	emitter := newTurnEmitter(sink, h.createSession(t, userIdentity()).Id, h.logger)

	emitter.token("a")
	emitter.fail(apperror.ErrUpstream)
	emitter.fail(apperror.ErrInternal)
	emitter.token("b")

	events := sink.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, constant.StreamEventToken, events[0].Type)
	assert.Equal(t, constant.StreamEventError, events[1].Type)
	assert.Equal(t, apperror.ErrUpstream.Code, events[1].Metadata["code"])
}
