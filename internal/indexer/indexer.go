package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"docuchat/internal/ai"
	"docuchat/internal/vectorstore"
)

// Embedding providers commonly cap array inputs; keep batches small.
const embeddingBatchSize = 10

// VectorIndex is the slice of the Chroma client the indexer needs.
type VectorIndex interface {
	Add(ctx context.Context, chunks []vectorstore.Chunk, embeddings [][]float32) error
	CountByFileID(ctx context.Context, fileID uint) (int, error)
	DeleteByFileID(ctx context.Context, fileID uint) error
}

// Embedder turns chunk texts into vectors.
type Embedder interface {
	EmbedBatch(ctx context.Context, cfg ai.EmbeddingConfig, texts []string) ([][]float32, error)
}

// Splitter produces the chunk texts for a file on disk.
type Splitter func(path string) ([]string, error)

// Indexer turns a source file into vector-index chunks stamped with a
// file_id, and reverses that by deleting all chunks for a file_id.
type Indexer struct {
	index     VectorIndex
	embedder  Embedder
	embConfig ai.EmbeddingConfig
	split     Splitter
	logger    *zap.Logger
}

func New(index VectorIndex, embedder Embedder, embConfig ai.EmbeddingConfig, split Splitter, logger *zap.Logger) *Indexer {
	return &Indexer{
		index:     index,
		embedder:  embedder,
		embConfig: embConfig,
		split:     split,
		logger:    logger,
	}
}

// Index loads and splits the file, embeds every chunk, and submits the
// batch with file_id metadata. The error reports which stage failed;
// callers decide on cleanup (see DocumentService.Upload).
func (ix *Indexer) Index(ctx context.Context, path string, fileID uint) error {
	texts, err := ix.split(path)
	if err != nil {
		return fmt.Errorf("load and split %s: %w", path, err)
	}
	if len(texts) == 0 {
		return fmt.Errorf("no content extracted from %s", path)
	}

	chunks := make([]vectorstore.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = vectorstore.Chunk{
			ID:     fmt.Sprintf("%d:%d", fileID, i),
			Text:   text,
			FileID: fileID,
		}
	}

	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		var batched [][]float32
		err := retry.Do(
			func() error {
				var embedErr error
				batched, embedErr = ix.embedder.EmbedBatch(ctx, ix.embConfig, batch)
				return embedErr
			},
			retry.Context(ctx),
			retry.Attempts(3),
			retry.Delay(500*time.Millisecond),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			return fmt.Errorf("embed chunks %d..%d: %w", start, end-1, err)
		}
		if len(batched) != len(batch) {
			return fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(batched), len(batch))
		}
		embeddings = append(embeddings, batched...)
	}

	if err := ix.index.Add(ctx, chunks, embeddings); err != nil {
		return fmt.Errorf("submit chunks to vector index: %w", err)
	}

	ix.logger.Info("document indexed",
		zap.Uint("file_id", fileID),
		zap.Int("chunks", len(chunks)),
	)
	return nil
}

// Delete removes every chunk tagged with fileID from the vector index.
func (ix *Indexer) Delete(ctx context.Context, fileID uint) error {
	count, err := ix.index.CountByFileID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("count chunks for file_id %d: %w", fileID, err)
	}
	ix.logger.Info("deleting indexed chunks",
		zap.Uint("file_id", fileID),
		zap.Int("chunks", count),
	)

	if err := ix.index.DeleteByFileID(ctx, fileID); err != nil {
		return fmt.Errorf("delete chunks for file_id %d: %w", fileID, err)
	}
	return nil
}
