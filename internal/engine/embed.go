package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"
)

// EmbedChunks produces one embedding vector per chunk. Chunks embed
// concurrently up to the configured worker limit, and results keep
// chunk order regardless of completion order.
func (e *gemini) EmbedChunks(ctx context.Context, chunks []Chunk) ([][]float32, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to embed", ErrEmbedding)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  e.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	vectors := make([][]float32, len(chunks))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(e.cfg.EmbedWorkers)

	for i, chunk := range chunks {
		group.Go(func() error {
			resp, err := client.Models.EmbedContent(
				ctx,
				e.cfg.EmbeddingModel,
				[]*genai.Content{{Parts: []*genai.Part{{Text: chunk.Content}}}},
				&genai.EmbedContentConfig{TaskType: "RETRIEVAL_DOCUMENT"},
			)
			if err != nil {
				return fmt.Errorf("%w: chunk %d: %v", ErrEmbedding, chunk.Position, err)
			}
			if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
				return fmt.Errorf("%w: chunk %d: empty embedding", ErrEmbedding, chunk.Position)
			}
			vectors[i] = resp.Embeddings[0].Values
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug("chunks embedded",
		"chunks", len(chunks),
		"dimensions", len(vectors[0]),
	)

	return vectors, nil
}
