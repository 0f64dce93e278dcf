package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Chunk is one indexed piece of a document as the vector index sees it:
// the chunk text plus the file_id metadata linking it back to a Document
// row in the relational store.
type Chunk struct {
	ID     string
	Text   string
	FileID uint
}

// ChromaClient talks to a Chroma server over its REST API. The index
// itself (embedding storage, similarity search) is entirely Chroma's;
// this client only moves chunks and filters in and out.
type ChromaClient struct {
	baseURL    string
	collection string

	httpClient   *http.Client
	collectionID string
}

func NewChromaClient(baseURL, collection string) *ChromaClient {
	return &ChromaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Connect resolves (creating if needed) the configured collection. Call
// once at startup before any other method.
func (c *ChromaClient) Connect(ctx context.Context) error {
	reqBody := map[string]interface{}{
		"name":          c.collection,
		"get_or_create": true,
	}
	var parsed struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/collections", reqBody, &parsed); err != nil {
		return fmt.Errorf("get or create collection failed: %w", err)
	}
	if parsed.ID == "" {
		return fmt.Errorf("collection %q resolved to empty id", c.collection)
	}
	c.collectionID = parsed.ID
	return nil
}

// Add submits chunks with their embeddings. embeddings[i] belongs to
// chunks[i].
func (c *ChromaClient) Add(ctx context.Context, chunks []Chunk, embeddings [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}

	ids := make([]string, len(chunks))
	documents := make([]string, len(chunks))
	metadatas := make([]map[string]interface{}, len(chunks))
	for i, ch := range chunks {
		ids[i] = ch.ID
		documents[i] = ch.Text
		metadatas[i] = map[string]interface{}{"file_id": ch.FileID}
	}

	reqBody := map[string]interface{}{
		"ids":        ids,
		"embeddings": embeddings,
		"documents":  documents,
		"metadatas":  metadatas,
	}
	path := fmt.Sprintf("/api/v1/collections/%s/add", c.collectionID)
	if err := c.doJSON(ctx, http.MethodPost, path, reqBody, nil); err != nil {
		return fmt.Errorf("add chunks failed: %w", err)
	}
	return nil
}

// CountByFileID returns how many chunks carry the given file_id.
func (c *ChromaClient) CountByFileID(ctx context.Context, fileID uint) (int, error) {
	reqBody := map[string]interface{}{
		"where":   map[string]interface{}{"file_id": fileID},
		"include": []string{},
	}
	var parsed struct {
		IDs []string `json:"ids"`
	}
	path := fmt.Sprintf("/api/v1/collections/%s/get", c.collectionID)
	if err := c.doJSON(ctx, http.MethodPost, path, reqBody, &parsed); err != nil {
		return 0, fmt.Errorf("get chunks by file_id failed: %w", err)
	}
	return len(parsed.IDs), nil
}

// DeleteByFileID removes every chunk whose metadata matches the file_id.
func (c *ChromaClient) DeleteByFileID(ctx context.Context, fileID uint) error {
	reqBody := map[string]interface{}{
		"where": map[string]interface{}{"file_id": fileID},
	}
	path := fmt.Sprintf("/api/v1/collections/%s/delete", c.collectionID)
	if err := c.doJSON(ctx, http.MethodPost, path, reqBody, nil); err != nil {
		return fmt.Errorf("delete chunks by file_id failed: %w", err)
	}
	return nil
}

// Query returns the topK most similar chunks for the embedding.
func (c *ChromaClient) Query(ctx context.Context, embedding []float32, topK int) ([]Chunk, error) {
	if topK <= 0 {
		topK = 2
	}
	reqBody := map[string]interface{}{
		"query_embeddings": [][]float32{embedding},
		"n_results":        topK,
		"include":          []string{"documents", "metadatas"},
	}
	var parsed struct {
		IDs       [][]string `json:"ids"`
		Documents [][]string `json:"documents"`
		Metadatas [][]struct {
			FileID uint `json:"file_id"`
		} `json:"metadatas"`
	}
	path := fmt.Sprintf("/api/v1/collections/%s/query", c.collectionID)
	if err := c.doJSON(ctx, http.MethodPost, path, reqBody, &parsed); err != nil {
		return nil, fmt.Errorf("query chunks failed: %w", err)
	}
	if len(parsed.Documents) == 0 {
		return nil, nil
	}

	chunks := make([]Chunk, 0, len(parsed.Documents[0]))
	for i, text := range parsed.Documents[0] {
		ch := Chunk{Text: text}
		if len(parsed.IDs) > 0 && i < len(parsed.IDs[0]) {
			ch.ID = parsed.IDs[0][i]
		}
		if len(parsed.Metadatas) > 0 && i < len(parsed.Metadatas[0]) {
			ch.FileID = parsed.Metadatas[0][i].FileID
		}
		chunks = append(chunks, ch)
	}
	return chunks, nil
}

func (c *ChromaClient) doJSON(ctx context.Context, method, path string, reqBody, out interface{}) error {
	var body io.Reader
	if reqBody != nil {
		raw, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request failed: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("response status %d: %s", resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response json failed: %w", err)
	}
	return nil
}
