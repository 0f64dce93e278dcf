package bootstrap

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"docuchat/internal/ai"
	"docuchat/internal/app"
	"docuchat/internal/cache"
	"docuchat/internal/chain"
	"docuchat/internal/config"
	"docuchat/internal/docload"
	"docuchat/internal/indexer"
	"docuchat/internal/pkg/logger"
	"docuchat/internal/platform/database"
	"docuchat/internal/platform/redis"
	"docuchat/internal/repository"
	"docuchat/internal/vectorstore"
)

// App holds every wired dependency. It is built once at startup and
// torn down once at shutdown.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *gorm.DB
	Redis     *redisv9.Client
	Chroma    *vectorstore.ChromaClient
	StartedAt time.Time

	ChatService     *app.ChatService
	DocumentService *app.DocumentService
}

// pipelineBuilder narrows *chain.Builder to the interface the chat
// service consumes.
type pipelineBuilder struct {
	builder *chain.Builder
}

func (pb pipelineBuilder) Build(model string) (app.Pipeline, error) {
	p, err := pb.builder.Build(model)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}

	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init database failed: %w", err)
	}

	// The history cache is optional; an empty address runs without it.
	var redisClient *redisv9.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = redis.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("init redis failed: %w", err)
		}
	}

	chroma := vectorstore.NewChromaClient(cfg.Chroma.BaseURL, cfg.Chroma.Collection)
	if err := chroma.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect chroma failed: %w", err)
	}

	aiClient := ai.NewOpenAICompatibleClient()
	embConfig := ai.EmbeddingConfig{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
	}

	split := func(path string) ([]string, error) {
		return docload.LoadAndSplit(path, cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	}
	documentIndexer := indexer.New(chroma, aiClient, embConfig, split, log)

	chainBuilder := chain.NewBuilder(
		aiClient,
		chroma,
		cfg.LLM.BaseURL,
		cfg.LLM.APIKey,
		cfg.LLM.Temperature,
		embConfig,
		cfg.Retrieval.TopK,
		log,
	)

	var historyCache app.HistoryCache
	if redisClient != nil {
		ttl := time.Duration(cfg.Redis.HistoryTTLSeconds) * time.Second
		historyCache = cache.NewHistoryCache(redisClient, ttl)
	}

	chatLogRepo := repository.NewChatLogRepository(db)
	docRepo := repository.NewDocumentRepository(db)

	application := &App{
		Config:    cfg,
		Logger:    log,
		DB:        db,
		Redis:     redisClient,
		Chroma:    chroma,
		StartedAt: time.Now(),

		ChatService:     app.NewChatService(chatLogRepo, pipelineBuilder{chainBuilder}, historyCache, log),
		DocumentService: app.NewDocumentService(docRepo, documentIndexer, "", log),
	}

	log.Info("application wired",
		zap.String("env", cfg.App.Env),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("history_cache", historyCache != nil),
		zap.String("chroma_collection", cfg.Chroma.Collection),
	)
	return application, nil
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("close redis failed", zap.Error(err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.Logger.Warn("close database failed", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}
