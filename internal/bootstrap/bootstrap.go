package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/officebrain/concierge/internal/config"
	"github.com/officebrain/concierge/internal/core/ports"
	"github.com/officebrain/concierge/internal/core/usecase"
	"github.com/officebrain/concierge/internal/infrastructure/embstate"
	"github.com/officebrain/concierge/internal/infrastructure/keyword/postgres"
	"github.com/officebrain/concierge/internal/infrastructure/knowledge/neo4j"
	"github.com/officebrain/concierge/internal/infrastructure/llm/ollama"
	"github.com/officebrain/concierge/internal/infrastructure/queue/nats"
	"github.com/officebrain/concierge/internal/infrastructure/resilience"
	"github.com/officebrain/concierge/internal/infrastructure/vector/qdrant"
	"github.com/officebrain/concierge/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Queue     *nats.Queue
	Assistant ports.AssistantService
	Ingestor  ports.AnnouncementIngestor
	Metrics   *metrics.SearchMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	searchMetrics := metrics.NewSearchMetrics("concierge-api")
	executor := resilience.NewExecutor(resilience.DefaultPolicy(), logger)

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		HTTPTimeout:       cfg.OllamaTimeout,
		RequestsPerSecond: cfg.OllamaRatePerSecond,
		Executor:          executor,
	})

	cache := embstate.NewTTLCache(cfg.EmbedCacheTTL, searchMetrics.EmbeddingCacheLookups())
	breaker := embstate.NewWindowBreaker(cfg.BreakerThreshold, cfg.BreakerWindow, searchMetrics.EmbeddingBreakerOpens(), logger)
	embedder := usecase.NewEmbeddingService(ollamaClient, cache, breaker, cfg.EmbedCallTimeout, logger)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	controller := usecase.NewSearchController(repo, vectorDB, embedder, cfg.SearchTuning(), logger)

	graph, err := neo4j.New(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init knowledge graph: %w", err)
	}

	var classifier ports.IntentClassifier
	if cfg.ClassifierEnabled {
		classifier = ollamaClient
	}
	planner := usecase.NewPlanner(classifier, logger)
	tools := usecase.NewToolExecutor(controller, graph, repo, logger)
	assistant := usecase.NewAssistant(planner, tools, usecase.NewComposer(), logger)

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		_ = graph.Close(ctx)
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ingestor := usecase.NewAnnouncementIngest(repo, logger)

	return &App{
		Config:    cfg,
		Queue:     queue,
		Assistant: assistant,
		Ingestor:  ingestor,
		Metrics:   searchMetrics,

		closeFn: func() {
			queue.Close()
			_ = graph.Close(context.Background())
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
