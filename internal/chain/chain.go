package chain

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"docuchat/internal/ai"
	"docuchat/internal/model"
	"docuchat/internal/vectorstore"
)

const contextualizeSystemPrompt = "Given a chat history and the latest user question " +
	"which might reference context in the chat history, formulate a standalone question " +
	"which can be understood without the chat history. Do NOT answer the question, " +
	"just reformulate it if needed and otherwise return it as is."

const answerSystemPrompt = "You are a helpful AI assistant. " +
	"Use the following context to answer the user's question."

// Retriever is the similarity-search slice of the vector index.
type Retriever interface {
	Query(ctx context.Context, embedding []float32, topK int) ([]vectorstore.Chunk, error)
}

// LLM covers the chat-completion and embedding calls the pipeline makes.
type LLM interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error)
	Embed(ctx context.Context, cfg ai.EmbeddingConfig, text string) ([]float32, error)
}

// Builder constructs a retrieval pipeline per request. Pipelines are
// stateless configuration, so rebuilding per call costs little and keeps
// concurrent requests from sharing mutable state.
type Builder struct {
	llm         LLM
	retriever   Retriever
	baseURL     string
	apiKey      string
	temperature float64
	embConfig   ai.EmbeddingConfig
	topK        int
	logger      *zap.Logger
}

func NewBuilder(
	llm LLM,
	retriever Retriever,
	baseURL, apiKey string,
	temperature float64,
	embConfig ai.EmbeddingConfig,
	topK int,
	logger *zap.Logger,
) *Builder {
	if topK <= 0 {
		topK = 2
	}
	return &Builder{
		llm:         llm,
		retriever:   retriever,
		baseURL:     baseURL,
		apiKey:      apiKey,
		temperature: temperature,
		embConfig:   embConfig,
		topK:        topK,
		logger:      logger,
	}
}

// Build resolves the requested model against the catalog and returns a
// pipeline bound to it.
func (b *Builder) Build(modelName string) (*Pipeline, error) {
	resolved, err := ai.ResolveModel(modelName)
	if err != nil {
		return nil, err
	}
	temp := b.temperature
	return &Pipeline{
		builder: b,
		chatConfig: ai.ChatConfig{
			BaseURL:     b.baseURL,
			APIKey:      b.apiKey,
			Model:       resolved,
			Temperature: &temp,
		},
	}, nil
}

// Input is one chat turn: the current question plus prior history.
type Input struct {
	Question string
	History  []model.ChatMessage
}

// Output carries the generated answer and the chunks it was grounded on.
type Output struct {
	Answer  string
	Context []vectorstore.Chunk
}

// Pipeline runs reformulation, retrieval, and generation for one request.
type Pipeline struct {
	builder    *Builder
	chatConfig ai.ChatConfig
}

// Invoke executes the full chain. Any external failure propagates; the
// pipeline never retries.
func (p *Pipeline) Invoke(ctx context.Context, in Input) (*Output, error) {
	b := p.builder

	standalone, err := p.reformulate(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("reformulate question: %w", err)
	}

	embedding, err := b.llm.Embed(ctx, b.embConfig, standalone)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	chunks, err := b.retriever.Query(ctx, embedding, b.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	b.logger.Debug("context retrieved",
		zap.String("model", p.chatConfig.Model),
		zap.Int("chunks", len(chunks)),
	)

	answer, err := b.llm.Complete(ctx, p.chatConfig, p.answerMessages(in, chunks))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	return &Output{
		Answer:  strings.TrimSpace(answer),
		Context: chunks,
	}, nil
}

// reformulate rewrites the question into a standalone form using the chat
// history. With no history there is nothing to resolve, so the question
// passes through untouched.
func (p *Pipeline) reformulate(ctx context.Context, in Input) (string, error) {
	if len(in.History) == 0 {
		return in.Question, nil
	}

	messages := make([]ai.ChatMessage, 0, len(in.History)+2)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: contextualizeSystemPrompt})
	messages = append(messages, historyMessages(in.History)...)
	messages = append(messages, ai.ChatMessage{Role: "user", Content: in.Question})

	standalone, err := p.builder.llm.Complete(ctx, p.chatConfig, messages)
	if err != nil {
		return "", err
	}
	standalone = strings.TrimSpace(standalone)
	if standalone == "" {
		return in.Question, nil
	}
	return standalone, nil
}

func (p *Pipeline) answerMessages(in Input, chunks []vectorstore.Chunk) []ai.ChatMessage {
	var contextBlock strings.Builder
	for i, ch := range chunks {
		if i > 0 {
			contextBlock.WriteString("\n\n")
		}
		contextBlock.WriteString(ch.Text)
	}

	messages := make([]ai.ChatMessage, 0, len(in.History)+3)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: answerSystemPrompt})
	messages = append(messages, ai.ChatMessage{Role: "system", Content: "Context: " + contextBlock.String()})
	messages = append(messages, historyMessages(in.History)...)
	messages = append(messages, ai.ChatMessage{Role: "user", Content: in.Question})
	return messages
}

// historyMessages maps stored history roles onto the chat API's roles.
func historyMessages(history []model.ChatMessage) []ai.ChatMessage {
	out := make([]ai.ChatMessage, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Role == model.RoleAI {
			role = "assistant"
		}
		out = append(out, ai.ChatMessage{Role: role, Content: m.Content})
	}
	return out
}
