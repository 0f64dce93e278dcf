package chain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"docuchat/internal/ai"
	"docuchat/internal/model"
	"docuchat/internal/vectorstore"
)

type fakeLLM struct {
	completions []completionCall
	answers     []string
	embedded    []string
	err         error
}

type completionCall struct {
	cfg      ai.ChatConfig
	messages []ai.ChatMessage
}

func (f *fakeLLM) Complete(_ context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.completions = append(f.completions, completionCall{cfg: cfg, messages: messages})
	if len(f.answers) == 0 {
		return "", nil
	}
	answer := f.answers[0]
	f.answers = f.answers[1:]
	return answer, nil
}

func (f *fakeLLM) Embed(_ context.Context, _ ai.EmbeddingConfig, text string) ([]float32, error) {
	f.embedded = append(f.embedded, text)
	return []float32{0.1, 0.2}, nil
}

type fakeRetriever struct {
	chunks   []vectorstore.Chunk
	gotTopK  int
	queryErr error
}

func (f *fakeRetriever) Query(_ context.Context, _ []float32, topK int) ([]vectorstore.Chunk, error) {
	f.gotTopK = topK
	return f.chunks, f.queryErr
}

func newTestBuilder(llm *fakeLLM, retriever *fakeRetriever) *Builder {
	return NewBuilder(llm, retriever, "http://llm", "key", 0.7, ai.EmbeddingConfig{Model: "emb"}, 2, zap.NewNop())
}

func TestBuildRejectsUnknownModel(t *testing.T) {
	b := newTestBuilder(&fakeLLM{}, &fakeRetriever{})
	if _, err := b.Build("made-up-model"); !errors.Is(err, ai.ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestBuildDefaultsModelAndTemperature(t *testing.T) {
	b := newTestBuilder(&fakeLLM{}, &fakeRetriever{})
	p, err := b.Build("")
	if err != nil {
		t.Fatal(err)
	}
	if p.chatConfig.Model != ai.DefaultModel {
		t.Errorf("model = %q", p.chatConfig.Model)
	}
	if p.chatConfig.Temperature == nil || *p.chatConfig.Temperature != 0.7 {
		t.Errorf("temperature = %v", p.chatConfig.Temperature)
	}
}

func TestInvokeWithoutHistorySkipsReformulation(t *testing.T) {
	llm := &fakeLLM{answers: []string{"  the final answer  "}}
	retriever := &fakeRetriever{chunks: []vectorstore.Chunk{{Text: "chunk one"}, {Text: "chunk two"}}}
	p, err := newTestBuilder(llm, retriever).Build("")
	if err != nil {
		t.Fatal(err)
	}

	out, err := p.Invoke(context.Background(), Input{Question: "what is this?"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if out.Answer != "the final answer" {
		t.Errorf("answer = %q, should be trimmed", out.Answer)
	}
	if len(llm.completions) != 1 {
		t.Fatalf("no history means exactly one completion, got %d", len(llm.completions))
	}
	if len(llm.embedded) != 1 || llm.embedded[0] != "what is this?" {
		t.Errorf("should embed the original question, embedded %v", llm.embedded)
	}
	if retriever.gotTopK != 2 {
		t.Errorf("topK = %d", retriever.gotTopK)
	}
}

func TestInvokeWithHistoryReformulatesFirst(t *testing.T) {
	llm := &fakeLLM{answers: []string{"what does the Q3 report say?", "it says revenue grew"}}
	retriever := &fakeRetriever{chunks: []vectorstore.Chunk{{Text: "ctx"}}}
	p, err := newTestBuilder(llm, retriever).Build("")
	if err != nil {
		t.Fatal(err)
	}

	history := []model.ChatMessage{
		{Role: model.RoleHuman, Content: "tell me about the Q3 report"},
		{Role: model.RoleAI, Content: "it covers revenue"},
	}
	out, err := p.Invoke(context.Background(), Input{Question: "what does it say?", History: history})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if out.Answer != "it says revenue grew" {
		t.Errorf("answer = %q", out.Answer)
	}

	if len(llm.completions) != 2 {
		t.Fatalf("expected reformulation plus answer, got %d completions", len(llm.completions))
	}
	if len(llm.embedded) != 1 || llm.embedded[0] != "what does the Q3 report say?" {
		t.Errorf("retrieval should use the standalone question, embedded %v", llm.embedded)
	}

	reformMsgs := llm.completions[0].messages
	if reformMsgs[0].Role != "system" || !strings.Contains(reformMsgs[0].Content, "standalone question") {
		t.Errorf("reformulation system prompt wrong: %+v", reformMsgs[0])
	}
	// stored roles map onto the chat API's role names
	if reformMsgs[1].Role != "user" || reformMsgs[2].Role != "assistant" {
		t.Errorf("history roles not mapped: %+v", reformMsgs[1:3])
	}
}

func TestInvokeEmptyReformulationFallsBack(t *testing.T) {
	llm := &fakeLLM{answers: []string{"   ", "answer"}}
	retriever := &fakeRetriever{}
	p, err := newTestBuilder(llm, retriever).Build("")
	if err != nil {
		t.Fatal(err)
	}

	history := []model.ChatMessage{{Role: model.RoleHuman, Content: "hi"}}
	if _, err := p.Invoke(context.Background(), Input{Question: "original question", History: history}); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if llm.embedded[0] != "original question" {
		t.Errorf("blank reformulation must fall back to the original, embedded %q", llm.embedded[0])
	}
}

func TestInvokeStuffsContextIntoSystemMessage(t *testing.T) {
	llm := &fakeLLM{answers: []string{"done"}}
	retriever := &fakeRetriever{chunks: []vectorstore.Chunk{{Text: "alpha"}, {Text: "beta"}}}
	p, err := newTestBuilder(llm, retriever).Build("")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := p.Invoke(context.Background(), Input{Question: "q"}); err != nil {
		t.Fatal(err)
	}

	msgs := llm.completions[0].messages
	if len(msgs) < 3 {
		t.Fatalf("expected system, context, and user messages, got %d", len(msgs))
	}
	contextMsg := msgs[1]
	if contextMsg.Role != "system" || !strings.HasPrefix(contextMsg.Content, "Context: ") {
		t.Errorf("context message = %+v", contextMsg)
	}
	if !strings.Contains(contextMsg.Content, "alpha") || !strings.Contains(contextMsg.Content, "beta") {
		t.Errorf("context missing chunks: %q", contextMsg.Content)
	}
	last := msgs[len(msgs)-1]
	if last.Role != "user" || last.Content != "q" {
		t.Errorf("final message = %+v", last)
	}
}

func TestInvokeRetrieverFailurePropagates(t *testing.T) {
	llm := &fakeLLM{answers: []string{"never reached"}}
	retriever := &fakeRetriever{queryErr: errors.New("index down")}
	p, err := newTestBuilder(llm, retriever).Build("")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := p.Invoke(context.Background(), Input{Question: "q"}); err == nil {
		t.Fatal("expected retrieval error to propagate")
	}
}
