package embeddings

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"propertyrag/pkg/logger"
)

// fakeEmbeddingsAPI returns vectors derived from the input index, with the
// response data deliberately permuted to exercise the re-sort.
type fakeEmbeddingsAPI struct {
	calls int
	fail  bool
}

func (f *fakeEmbeddingsAPI) CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	f.calls++
	if f.fail {
		return openai.EmbeddingResponse{}, errors.New("boom")
	}

	req := conv.Convert()
	texts, ok := req.Input.([]string)
	if !ok {
		return openai.EmbeddingResponse{}, fmt.Errorf("unexpected input type %T", req.Input)
	}

	data := make([]openai.Embedding, len(texts))
	for i := range texts {
		data[i] = openai.Embedding{
			Index:     i,
			Embedding: []float32{float32(i), float32(len(texts[i]))},
		}
	}
	// Reverse, simulating an out-of-order batch response.
	for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
		data[i], data[j] = data[j], data[i]
	}

	return openai.EmbeddingResponse{Data: data}, nil
}

func newTestEmbedder(api embeddingsAPI) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client:     api,
		model:      "text-embedding-3-small",
		dimensions: 2,
		log:        logger.New("embeddings-test"),
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	api := &fakeEmbeddingsAPI{}
	m := newTestEmbedder(api)

	vectors, err := m.Embed(context.Background(), []string{})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 0 {
		t.Errorf("expected no vectors, got %d", len(vectors))
	}
	if api.calls != 0 {
		t.Errorf("expected no API calls for empty input, got %d", api.calls)
	}
}

func TestEmbedRestoresInputOrder(t *testing.T) {
	m := newTestEmbedder(&fakeEmbeddingsAPI{})

	vectors, err := m.Embed(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}

	// The fake permutes its response; vector i must still carry index i.
	want := [][]float32{{0, 1}, {1, 2}, {2, 3}}
	if !reflect.DeepEqual(vectors, want) {
		t.Errorf("Embed() = %v, want %v", vectors, want)
	}
}

func TestEmbedBatchFailureAbortsRequest(t *testing.T) {
	m := newTestEmbedder(&fakeEmbeddingsAPI{fail: true})

	_, err := m.Embed(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error")
	}

	var embErr *EmbeddingError
	if !errors.As(err, &embErr) {
		t.Fatalf("expected *EmbeddingError, got %T", err)
	}
	if embErr.Batch != 0 {
		t.Errorf("expected failing batch 0, got %d", embErr.Batch)
	}
}

func TestEmbedOne(t *testing.T) {
	m := newTestEmbedder(&fakeEmbeddingsAPI{})

	vector, err := m.EmbedOne(context.Background(), "hello")
	if err != nil {
		t.Fatalf("EmbedOne() error = %v", err)
	}
	if !reflect.DeepEqual(vector, []float32{0, 5}) {
		t.Errorf("EmbedOne() = %v", vector)
	}
}
