package events

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const localTopic = "events"

// LocalBus is the in-process event bus used when no broker is configured.
// Every event goes to a single gochannel topic; subscribers filter by
// subject pattern.
type LocalBus struct {
	pubSub *gochannel.GoChannel
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	onErr  func(event Event, err error)
}

func NewLocalBus(logger watermill.LoggerAdapter) *LocalBus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &LocalBus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger),
		ctx:    ctx,
		cancel: cancel,
	}
}

// OnHandlerError registers a hook for handler failures. Failed events are
// acknowledged, not redelivered.
func (b *LocalBus) OnHandlerError(fn func(event Event, err error)) {
	b.onErr = fn
}

func (b *LocalBus) Publish(ctx context.Context, event Event) error {
	payload, err := Marshal(event)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("subject", Subject(event.EventType()))
	return b.pubSub.Publish(localTopic, msg)
}

func (b *LocalBus) Subscribe(subject string, _ string, handler Handler) error {
	messages, err := b.pubSub.Subscribe(b.ctx, localTopic)
	if err != nil {
		return err
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range messages {
			b.deliver(subject, msg, handler)
		}
	}()
	return nil
}

func (b *LocalBus) deliver(pattern string, msg *message.Message, handler Handler) {
	defer msg.Ack()

	subject := msg.Metadata.Get("subject")
	if !MatchSubject(pattern, subject) {
		return
	}
	event, err := Unmarshal(msg.Payload, TypeFromSubject(subject))
	if err != nil {
		return
	}
	if err := handler(b.ctx, event); err != nil && b.onErr != nil {
		b.onErr(event, err)
	}
}

func (b *LocalBus) Close() error {
	b.cancel()
	err := b.pubSub.Close()
	b.wg.Wait()
	return err
}
