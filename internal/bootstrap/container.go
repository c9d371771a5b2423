package bootstrap

import (
	"context"
	"fmt"
	"time"

	"easylaw-be/internal/config"
	"easylaw-be/internal/controller"
	"easylaw-be/internal/pkg/lock"
	"easylaw-be/internal/pkg/logger"
	"easylaw-be/internal/pkg/tokenizer"
	"easylaw-be/internal/repository/implementation"
	"easylaw-be/internal/repository/memory"
	"easylaw-be/internal/repository/unitofwork"
	"easylaw-be/internal/service"
	"easylaw-be/internal/websocket"
	"easylaw-be/pkg/embedding"
	"easylaw-be/pkg/events"
	"easylaw-be/pkg/llm/factory"
	pktNats "easylaw-be/pkg/nats"
	"easylaw-be/pkg/rag"
	"easylaw-be/pkg/rag/search"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SessionController controller.ISessionController
	ChatWsController  controller.IChatWsController
	AdminController   controller.IAdminController

	// Background workers, run by main
	WebSocketHub      *websocket.Hub
	SessionEventRelay *service.SessionEventRelay

	Logger logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	c.Logger = sysLogger
	c.closers = append(c.closers, func() { _ = sysLogger.Sync(); _ = wsLogger.Sync() })

	// 2. Infrastructure
	rdb := connectRedis(cfg.Infra.RedisURL, sysLogger)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	var locker lock.Locker
	switch cfg.Infra.LockBackend {
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("LOCK_BACKEND=redis but redis is unreachable at %s", cfg.Infra.RedisURL)
		}
		locker = lock.NewRedisLocker(rdb, cfg.Infra.LockTTL)
	default:
		locker = lock.NewKeyedMutex()
	}
	sysLogger.Info("BOOTSTRAP", "Lock backend ready", map[string]interface{}{"backend": cfg.Infra.LockBackend})

	publisher, subscriber := c.eventBus(cfg, sysLogger)

	var tokenCounter tokenizer.Counter = tokenizer.ApproximateCounter{}
	if counter, err := tokenizer.NewTiktokenCounter(); err != nil {
		sysLogger.Warn("BOOTSTRAP", "Tokenizer unavailable, using approximation", map[string]interface{}{"error": err.Error()})
	} else {
		tokenCounter = counter
	}

	// 3. Generation collaborator
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("init llm provider: %w", err)
	}
	embedder := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbeddingModel)
	retriever := search.NewRetriever(embedder, implementation.NewLawChunkRepository(db), cfg.Ai.RagTopK)
	generator := rag.NewLawGenerator(retriever, llmProvider, cfg.Chat.GenerationTimeout, sysLogger)
	sysLogger.Info("BOOTSTRAP", "Generation collaborator ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    llmProvider.ModelName(),
	})

	// 4. Services
	sessionService := service.NewSessionService(uowFactory, locker, publisher, sysLogger, service.SessionServiceConfig{
		MaxActiveSessions: cfg.Chat.MaxActiveSessions,
	})
	messageService := service.NewMessageService(uowFactory, locker, tokenCounter, publisher, sysLogger, service.MessageServiceConfig{
		HistoryLimit: cfg.Chat.HistoryLimit,
	})
	streamService := service.NewStreamService(
		sessionService,
		messageService,
		generator,
		locker,
		memory.NewTurnRepository(cfg.Chat.IdempotencyTTL),
		publisher,
		sysLogger,
		service.StreamServiceConfig{
			HistoryLimit:     cfg.Chat.HistoryLimit,
			MaxMessageLength: cfg.Chat.MaxMessageLength,
		},
	)
	adminService := service.NewAdminService(uowFactory, sessionService, locker, sysLogger)

	// 5. Realtime
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)
	c.SessionEventRelay = service.NewSessionEventRelay(subscriber, c.WebSocketHub, wsLogger)

	// 6. Controllers
	c.SessionController = controller.NewSessionController(sessionService, messageService)
	c.ChatWsController = controller.NewChatWsController(c.WebSocketHub, streamService, cfg.Auth.JwtSecret, wsLogger)
	c.AdminController = controller.NewAdminController(adminService)

	return c, nil
}

// eventBus prefers JetStream when configured and falls back to the
// in-process bus when NATS is unreachable.
func (c *Container) eventBus(cfg *config.Config, log logger.ILogger) (events.Publisher, events.Subscriber) {
	if cfg.Infra.EventBus == "nats" {
		natsPub, err := pktNats.NewPublisher(cfg.Infra.NatsURL)
		if err == nil {
			natsSub, subErr := pktNats.NewSubscriber(cfg.Infra.NatsURL)
			if subErr == nil {
				c.closers = append(c.closers, natsSub.Close, natsPub.Close)
				log.Info("BOOTSTRAP", "Event bus ready", map[string]interface{}{"backend": "nats"})
				return natsPub, natsSub
			}
			natsPub.Close()
			err = subErr
		}
		log.Warn("BOOTSTRAP", "Failed to connect to NATS, using in-process event bus", map[string]interface{}{"error": err.Error()})
	}

	bus := events.NewLocalBus(watermill.NewStdLogger(false, false))
	bus.OnHandlerError(func(event events.Event, err error) {
		log.Warn("EVENTS", "Event handler failed", map[string]interface{}{"type": event.EventType(), "error": err.Error()})
	})
	c.closers = append(c.closers, func() { _ = bus.Close() })
	log.Info("BOOTSTRAP", "Event bus ready", map[string]interface{}{"backend": "local"})
	return bus, bus
}

func connectRedis(url string, log logger.ILogger) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("BOOTSTRAP", "Failed to connect to Redis, cross-instance delivery disabled", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// Close releases infrastructure in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
