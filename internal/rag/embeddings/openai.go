// Package embeddings turns text into vectors via the OpenAI embeddings
// API, batched and order-preserving.
package embeddings

import (
	"context"
	"fmt"
	"sort"

	openai "github.com/meguminnnnnnnnn/go-openai"
	"golang.org/x/sync/errgroup"

	"propertyrag/internal/rag/interfaces"
	"propertyrag/pkg/logger"
)

// maxBatchSize is the embeddings API batch limit.
const maxBatchSize = 2048

// EmbeddingError reports which batch of a request failed. A failed batch
// aborts the whole request; there are no partial results.
type EmbeddingError struct {
	Batch int
	Err   error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding batch %d failed: %v", e.Batch, e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// embeddingsAPI is the slice of the OpenAI client we use; tests substitute
// a fake.
type embeddingsAPI interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIEmbedder is an EmbeddingModel backed by the OpenAI API.
type OpenAIEmbedder struct {
	client     embeddingsAPI
	model      string
	dimensions int
	log        *logger.Logger
}

// NewOpenAIEmbedder creates an embedder for the given model and vector
// dimension.
func NewOpenAIEmbedder(apiKey, model string, dimensions int, log *logger.Logger) *OpenAIEmbedder {
	config := openai.DefaultConfig(apiKey)
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(config),
		model:      model,
		dimensions: dimensions,
		log:        log,
	}
}

// Embed generates one vector per input text, index-aligned to the input
// order. Batches are issued concurrently; each response is re-sorted by
// the service-provided index before reassembly, so a permuted or retried
// batch response cannot corrupt chunk-to-vector alignment.
func (m *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	eg, gctx := errgroup.WithContext(ctx)

	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end
		batchIdx := start / maxBatchSize

		eg.Go(func() error {
			batch := texts[start:end]
			resp, err := m.client.CreateEmbeddings(gctx, openai.EmbeddingRequest{
				Input:      batch,
				Model:      openai.EmbeddingModel(m.model),
				Dimensions: m.dimensions,
			})
			if err != nil {
				return &EmbeddingError{Batch: batchIdx, Err: err}
			}
			if len(resp.Data) != len(batch) {
				return &EmbeddingError{
					Batch: batchIdx,
					Err:   fmt.Errorf("expected %d embeddings, got %d", len(batch), len(resp.Data)),
				}
			}

			sort.Slice(resp.Data, func(i, j int) bool {
				return resp.Data[i].Index < resp.Data[j].Index
			})
			for i, item := range resp.Data {
				results[start+i] = item.Embedding
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	m.log.Info(fmt.Sprintf("Embedded %d texts", len(texts)))
	return results, nil
}

// EmbedOne generates a vector for a single text.
func (m *OpenAIEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

var _ interfaces.EmbeddingModel = (*OpenAIEmbedder)(nil)
