package bootstrap

import (
	"context"
	"fmt"
	"time"

	"ai-tutor-be/internal/config"
	"ai-tutor-be/internal/controller"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/internal/repository/implementation"
	"ai-tutor-be/internal/repository/memory"
	"ai-tutor-be/internal/repository/unitofwork"
	"ai-tutor-be/internal/service"
	"ai-tutor-be/pkg/embedding"
	"ai-tutor-be/pkg/llm/factory"
	pktNats "ai-tutor-be/pkg/nats"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor/cache"
	"ai-tutor-be/pkg/tutor/complexity"
	"ai-tutor-be/pkg/tutor/events"
	"ai-tutor-be/pkg/tutor/invoker"
	"ai-tutor-be/pkg/tutor/persona"
	"ai-tutor-be/pkg/tutor/prompt"
	"ai-tutor-be/pkg/tutor/retrieval"
	"ai-tutor-be/pkg/tutor/session"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const bootLogModule = "BOOTSTRAP"

type Container struct {
	// Controllers
	TutorController controller.ITutorController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires the tutor stack. A nil db selects the in-memory repositories.
func NewContainer(db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	c := &Container{Logger: sysLogger}

	// 1. Persistence
	var (
		uowFactory  unitofwork.RepositoryFactory
		sessionRepo contract.TutorSessionRepository
		index       retrieval.ContentIndex
	)
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
		sessionRepo = implementation.NewTutorSessionRepository(db)
		embedder := embedding.NewOllamaProvider(cfg.Ai.EmbeddingBaseURL, cfg.Ai.EmbeddingModel)
		index = retrieval.NewVectorIndex(embedder, implementation.NewContentChunkRepository(db), cfg.Tutor.RetrievalMinRelevance)
		sysLogger.Info(bootLogModule, "Using Postgres repositories", map[string]interface{}{"embedding_model": cfg.Ai.EmbeddingModel})
	} else {
		memStore := memory.NewStore()
		uowFactory = memory.NewRepositoryFactory(memStore)
		sessionRepo = memStore.Sessions
		index = retrieval.NewMemoryIndex()
		sysLogger.Warn(bootLogModule, "DB_CONNECTION_STRING not set, using in-memory repositories", nil)
	}

	// 2. Model backends
	fast, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.FastModel, cfg.Ai.LLMBaseURL, cfg.Ai.LLMAPIKey)
	if err != nil {
		return nil, fmt.Errorf("fast tier provider: %w", err)
	}
	advanced, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.AdvancedModel, cfg.Ai.LLMBaseURL, cfg.Ai.LLMAPIKey)
	if err != nil {
		return nil, fmt.Errorf("advanced tier provider: %w", err)
	}
	sysLogger.Info(bootLogModule, "Using LLM provider", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"fast":     cfg.Ai.FastModel,
		"advanced": cfg.Ai.AdvancedModel,
	})

	inv := invoker.NewInvoker(invoker.Config{
		Tiers: map[store.Tier]invoker.TierConfig{
			store.TierFast: {
				Provider: fast,
				Model:    cfg.Ai.FastModel,
				Rates:    invoker.Rates{InputPer1K: cfg.Ai.FastInputRate, OutputPer1K: cfg.Ai.FastOutputRate},
				Timeout:  cfg.Ai.Timeout,
			},
			store.TierAdvanced: {
				Provider: advanced,
				Model:    cfg.Ai.AdvancedModel,
				Rates:    invoker.Rates{InputPer1K: cfg.Ai.AdvancedInputRate, OutputPer1K: cfg.Ai.AdvancedOutputRate},
				Timeout:  cfg.Ai.Timeout,
			},
		},
		MaxRetries: uint64(cfg.Ai.MaxRetries),
	}, sysLogger)

	// 3. Response cache
	cacheStore := c.newCacheStore(cfg, sysLogger)

	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	var writer cache.Writer
	if cfg.Tutor.CacheAsync {
		writer = cache.NewAsyncWriter(pubSub, cache.WriteTopic, sysLogger)
	}
	responseCache := cache.NewCache(cacheStore, writer, cfg.Tutor.CacheTTL, sysLogger)
	c.ConsumerService = service.NewConsumerService(pubSub, cache.WriteTopic, cacheStore, sysLogger)

	// 4. Event bus
	var bus events.Bus
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn(bootLogModule, "Failed to connect to NATS, events disabled", map[string]interface{}{"error": err.Error()})
		} else {
			bus = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 5. Tutor components
	registry := persona.NewRegistry(persona.FullMesh)
	complexityCfg := complexity.DefaultConfig()
	complexityCfg.Threshold = cfg.Tutor.Complexity.Threshold
	complexityCfg.MediumQueryWords = cfg.Tutor.Complexity.MediumWords
	complexityCfg.LongQueryWords = cfg.Tutor.Complexity.LongWords
	complexityCfg.MediumQueryWeight = cfg.Tutor.Complexity.MediumWeight
	complexityCfg.LongQueryWeight = cfg.Tutor.Complexity.LongWeight
	complexityCfg.KeywordWeight = cfg.Tutor.Complexity.KeywordWeight
	complexityCfg.DepthWeight = cfg.Tutor.Complexity.DepthWeight
	complexityCfg.DeepConversationTurns = cfg.Tutor.Complexity.DepthTurns

	tutorService := service.NewTutorService(service.TutorDeps{
		UowFactory: uowFactory,
		Sessions: session.NewManager(sessionRepo, session.Config{
			IdleWindow: cfg.Tutor.SessionIdle,
			HistoryCap: cfg.Tutor.SessionHistoryCap,
		}, sysLogger),
		Retriever: retrieval.NewRetriever(index, nil, retrieval.Config{
			Timeout:      cfg.Tutor.RetrievalTimeout,
			TopK:         cfg.Tutor.RetrievalTopK,
			MinRelevance: cfg.Tutor.RetrievalMinRelevance,
		}, sysLogger),
		Analyzer: complexity.NewAnalyzer(complexityCfg),
		Registry: registry,
		Composer: prompt.NewComposer(registry),
		Invoker:  inv,
		Cache:    responseCache,
		Events:   events.NewBusPublisher(bus, sysLogger),
		Logger:   sysLogger,
	})

	c.TutorController = controller.NewTutorController(tutorService)
	return c, nil
}

// newCacheStore prefers Redis and falls back to process memory when it is unreachable
func (c *Container) newCacheStore(cfg *config.Config, sysLogger logger.ILogger) cache.Store {
	if cfg.App.RedisURL == "" {
		sysLogger.Warn(bootLogModule, "REDIS_URL not set, using in-memory response cache", nil)
		return cache.NewMemoryStore()
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		sysLogger.Warn(bootLogModule, "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		sysLogger.Warn(bootLogModule, "Failed to connect to Redis, using in-memory response cache", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return cache.NewMemoryStore()
	}

	c.closers = append(c.closers, func() { _ = rdb.Close() })
	return cache.NewRedisStore(rdb)
}

// Close releases connections in reverse order of creation
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
