package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompleteSendsTemperatureAndParsesAnswer(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "the answer"}},
			},
		})
	}))
	defer srv.Close()

	temp := 0.7
	client := NewOpenAICompatibleClient()
	answer, err := client.Complete(context.Background(), ChatConfig{
		BaseURL:     srv.URL,
		APIKey:      "test-key",
		Model:       ModelGemini20Flash,
		Temperature: &temp,
	}, []ChatMessage{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if answer != "the answer" {
		t.Errorf("got answer %q", answer)
	}
	if gotBody["model"] != ModelGemini20Flash {
		t.Errorf("request model = %v", gotBody["model"])
	}
	if gotBody["temperature"] != 0.7 {
		t.Errorf("request temperature = %v", gotBody["temperature"])
	}
}

func TestCompleteNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient()
	_, err := client.Complete(context.Background(), ChatConfig{BaseURL: srv.URL}, []ChatMessage{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("expected error on 429 response")
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient()
	if _, err := client.Complete(context.Background(), ChatConfig{BaseURL: srv.URL}, nil); err == nil {
		t.Fatal("expected error on empty choices")
	}
}

func TestEmbedBatchOrderPreserved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		data := make([]map[string]interface{}, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]interface{}{"embedding": []float32{float32(i), float32(i)}}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient()
	vecs, err := client.EmbedBatch(context.Background(), EmbeddingConfig{BaseURL: srv.URL, Model: "text-embedding-004"},
		[]string{"first", "second", "third"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vecs))
	}
	for i, v := range vecs {
		if v[0] != float32(i) {
			t.Errorf("vector %d out of order: %v", i, v)
		}
	}
}

func TestEmbedBatchRejectsAllBlankInput(t *testing.T) {
	client := NewOpenAICompatibleClient()
	if _, err := client.EmbedBatch(context.Background(), EmbeddingConfig{}, []string{"  ", "\n"}); err == nil {
		t.Fatal("expected error for all-blank inputs")
	}
}
