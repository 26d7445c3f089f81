package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"curator-bot/internal/config"
	"curator-bot/internal/pkg/logger"
	"curator-bot/internal/repository/contract"
	"curator-bot/internal/repository/memory"
	"curator-bot/internal/repository/rediscache"
	"curator-bot/internal/repository/unitofwork"
	"curator-bot/internal/router"
	"curator-bot/internal/service"
	"curator-bot/internal/telegram"
	"curator-bot/pkg/draft"
	"curator-bot/pkg/llm/factory"
	"curator-bot/pkg/llm/openai"
	"curator-bot/pkg/media"
	pktNats "curator-bot/pkg/nats"
	"curator-bot/pkg/reference"
	"curator-bot/pkg/session"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	SQLDB *sql.DB

	// Background services (run by cmd/curator)
	ConsumerService service.IConsumerService
	Dispatcher      *router.Dispatcher
	Source          *telegram.Source

	LifecycleService service.ILifecycleService
	Router           *router.Router

	closers []func() error
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	c := &Container{}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("bootstrap: sql handle: %w", err)
	}
	c.SQLDB = sqlDB

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)
	c.closers = append(c.closers, pubSub.Close)

	// 3. Session Store
	var sessionRepo contract.SessionRepository
	if cfg.Session.Backend == "redis" {
		rdb := rediscache.NewClient(cfg.Session.RedisURL)
		if err := rdb.Ping(ctx).Err(); err != nil {
			sysLogger.Warn("Bootstrap", "Redis is not reachable yet", map[string]interface{}{"error": err.Error()})
		}
		c.closers = append(c.closers, rdb.Close)
		sessionRepo = rediscache.NewSessionRepository(rdb, cfg.Session.TTL)
	} else {
		sessionRepo = memory.NewSessionRepository(cfg.Session.TTL)
	}
	sessions := session.NewManager(sessionRepo)
	sysLogger.Info("Bootstrap", "Session store ready", map[string]interface{}{
		"backend": cfg.Session.Backend,
		"ttl":     cfg.Session.TTL.String(),
	})

	// 4. Generative capabilities
	llmProvider, err := factory.NewLLMProvider(factory.Settings{
		Provider:      cfg.Ai.LLMProvider,
		Model:         cfg.Ai.LLMModel,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		OpenAIKey:     cfg.Ai.OpenAIKey,
		OpenAIBaseURL: cfg.Ai.OpenAIBaseURL,
		AnthropicKey:  cfg.Ai.AnthropicKey,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: llm provider: %w", err)
	}
	sysLogger.Info("Bootstrap", "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	var transcriber media.Transcriber
	if cfg.Ai.OpenAIKey != "" {
		transcriber = openai.NewTranscriber(cfg.Ai.OpenAIKey, cfg.Ai.OpenAIBaseURL, cfg.Ai.TranscriptionModel)
	} else {
		sysLogger.Warn("Bootstrap", "OPENAI_API_KEY not set, voice notes will be skipped", nil)
	}

	// 5. Transport
	bot, err := telegram.NewBot(cfg.Telegram.BotToken, sysLogger)
	if err != nil {
		return nil, err
	}
	messenger := telegram.NewMessenger(bot)
	c.Source = telegram.NewSource(bot, sysLogger)

	// 6. Lifecycle + events
	publisherService := service.NewPublisherService(pubSub, cfg.Events.LifecycleTopic, sysLogger)
	c.LifecycleService = service.NewLifecycleService(uowFactory, publisherService, sysLogger)

	var forwarder service.EventForwarder
	if cfg.Events.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.Events.NatsURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "NATS publisher degraded", map[string]interface{}{"error": err.Error()})
		}
		if natsPub != nil {
			forwarder = natsPub
			c.closers = append(c.closers, func() error { natsPub.Close(); return nil })
		}
	}

	var announcer service.Announcer
	if cfg.Events.AnnounceChatID != 0 {
		announcer = messenger
	}
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		cfg.Events.LifecycleTopic,
		forwarder,
		announcer,
		cfg.Events.AnnounceChatID,
		sysLogger,
	)

	// 7. Router
	c.Router = router.New(router.Dependencies{
		Sessions:   sessions,
		Collector:  media.NewCollector(sessions, telegram.NewFetcher(bot), transcriber, sysLogger),
		Composer:   draft.NewComposer(llmProvider, sessions, sysLogger),
		Lifecycle:  c.LifecycleService,
		Codec:      reference.NewCodec(c.LifecycleService, cfg.Reference.MinTokenLength, sysLogger),
		Messenger:  messenger,
		IsOperator: cfg.IsOperator,
		PageSize:   cfg.Reference.ListPageSize,
		Logger:     sysLogger,
	})
	c.Dispatcher = router.NewDispatcher(c.Router, sysLogger)

	return c, nil
}

// Close releases the bus, caches and brokers in reverse order of creation.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
