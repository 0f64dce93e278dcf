package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docuchat/internal/ai"
	"docuchat/internal/chain"
	"docuchat/internal/model"
	"docuchat/internal/repository"
)

// Pipeline is one built conversation chain, ready to invoke.
type Pipeline interface {
	Invoke(ctx context.Context, in chain.Input) (*chain.Output, error)
}

// PipelineBuilder constructs a pipeline for a requested model.
type PipelineBuilder interface {
	Build(model string) (Pipeline, error)
}

// HistoryCache fronts the chat-log store for history reads. Nil disables
// caching entirely.
type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, bool, error)
	SetHistory(ctx context.Context, sessionID string, messages []model.ChatMessage) error
	DeleteHistory(ctx context.Context, sessionID string) error
}

type ChatService struct {
	chatLogRepo  *repository.ChatLogRepository
	builder      PipelineBuilder
	historyCache HistoryCache
	logger       *zap.Logger
}

func NewChatService(
	chatLogRepo *repository.ChatLogRepository,
	builder PipelineBuilder,
	historyCache HistoryCache,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		chatLogRepo:  chatLogRepo,
		builder:      builder,
		historyCache: historyCache,
		logger:       logger,
	}
}

type ChatInput struct {
	Question  string
	SessionID string
	Model     string
}

type ChatResult struct {
	Answer    string
	SessionID string
	Model     string
}

// ChatTurn runs one question through the retrieval pipeline and appends
// the turn to the chat log. A missing session id starts a fresh session.
// There is no transaction spanning generation and persistence: the log
// insert either happens or it doesn't.
func (s *ChatService) ChatTurn(ctx context.Context, in ChatInput) (*ChatResult, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrInvalidInput)
	}

	modelName, err := ai.ResolveModel(in.Model)
	if err != nil {
		return nil, err
	}

	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	s.logger.Info("chat turn started",
		zap.String("session_id", sessionID),
		zap.String("model", modelName),
		zap.Int("question_len", len(question)),
	)

	history, err := s.history(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	pipeline, err := s.builder.Build(modelName)
	if err != nil {
		return nil, err
	}
	out, err := pipeline.Invoke(ctx, chain.Input{
		Question: question,
		History:  history,
	})
	if err != nil {
		return nil, fmt.Errorf("invoke pipeline: %w", err)
	}

	if err := s.chatLogRepo.Create(&model.ChatLog{
		SessionID:     sessionID,
		UserQuery:     question,
		ModelResponse: out.Answer,
		ModelName:     modelName,
	}); err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if err := s.historyCache.DeleteHistory(ctx, sessionID); err != nil {
			s.logger.Warn("invalidate history cache failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("chat turn completed",
		zap.String("session_id", sessionID),
		zap.String("model", modelName),
		zap.Int("answer_len", len(out.Answer)),
	)
	return &ChatResult{
		Answer:    out.Answer,
		SessionID: sessionID,
		Model:     modelName,
	}, nil
}

// History returns the session's turns expanded into (human, ai) pairs.
func (s *ChatService) History(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	return s.history(ctx, sessionID)
}

func (s *ChatService) history(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	if s.historyCache != nil {
		if cached, hit, err := s.historyCache.GetHistory(ctx, sessionID); err == nil && hit {
			return cached, nil
		}
	}

	messages, err := s.chatLogRepo.History(sessionID)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if err := s.historyCache.SetHistory(ctx, sessionID, messages); err != nil {
			s.logger.Warn("populate history cache failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	}
	return messages, nil
}
