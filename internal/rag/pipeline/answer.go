package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"propertyrag/internal/cache"
	"propertyrag/internal/llm"
	"propertyrag/internal/models"
	"propertyrag/internal/rag/schema"
	"propertyrag/pkg/logger"
)

// noInformationAnswer is returned, without a generation call, when
// retrieval finds nothing.
const noInformationAnswer = "Ich konnte keine relevanten Informationen in den Dokumenten finden."

const answerSystemPromptTemplate = `Du bist ein Experte für Immobiliendokumente und beantwortest Fragen basierend auf den bereitgestellten Dokumentausschnitten.

Regeln:
1. Antworte NUR basierend auf den bereitgestellten Quellen
2. Wenn die Quellen keine Antwort enthalten, sage das ehrlich
3. Zitiere relevante Quellen mit [Quellenname, Seite X]
4. Antworte auf %s
5. Sei präzise und konkret, vermeide Spekulationen
6. Bei Zahlen und Daten: gib sie exakt wie in den Quellen an`

const answerUserPromptTemplate = `Beantworte die folgende Frage basierend auf den Dokumentausschnitten:

FRAGE: %s

DOKUMENTAUSSCHNITTE:
%s

Antworte präzise und zitiere die relevanten Quellen.`

// maxExcerptChars bounds the excerpt length in the returned source list.
const maxExcerptChars = 500

// AnswerError wraps any failure while answering a query.
type AnswerError struct {
	Err error
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *AnswerError) Unwrap() error {
	return e.Err
}

// Retriever is the slice of the retrieval engine the answer engine needs.
type Retriever interface {
	RetrieveWithContext(ctx context.Context, query string, topK int, filter schema.SearchFilter, contextChunks int) ([]schema.RetrievedChunk, error)
}

// AnswerOptions are the generation and retrieval parameters of one
// AnswerEngine instance.
type AnswerOptions struct {
	TopK          int
	ContextChunks int
	MaxTokens     int
	Temperature   float32
	Language      string
}

// AnswerEngine turns a question into a generated, cited answer. The cache
// is optional; when present the full response is cached around the whole
// operation.
type AnswerEngine struct {
	retriever Retriever
	chat      llm.ChatModel
	answers   *cache.AnswerCache
	opts      AnswerOptions
	log       *logger.Logger
}

func NewAnswerEngine(retriever Retriever, chat llm.ChatModel, answers *cache.AnswerCache, opts AnswerOptions, log *logger.Logger) *AnswerEngine {
	return &AnswerEngine{
		retriever: retriever,
		chat:      chat,
		answers:   answers,
		opts:      opts,
		log:       log,
	}
}

// Answer retrieves context-expanded chunks for the question and generates
// an answer citing them. With no retrieved chunks it returns the fixed
// no-information answer and an empty source list.
func (e *AnswerEngine) Answer(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	if e.answers != nil {
		if cached := e.answers.Get(ctx, req); cached != nil {
			e.log.Debug("Answer served from cache")
			return cached, nil
		}
	}

	filter := schema.SearchFilter{DocumentIDs: req.DocumentIDs}
	if req.ProjectID != nil {
		filter.ProjectID = *req.ProjectID
	}
	topK := req.TopK
	if topK <= 0 {
		topK = e.opts.TopK
	}

	chunks, err := e.retriever.RetrieveWithContext(ctx, req.Question, topK, filter, e.opts.ContextChunks)
	if err != nil {
		return nil, &AnswerError{Err: err}
	}
	if len(chunks) == 0 {
		e.log.Warn("No chunks found for question")
		return &models.QueryResponse{
			Answer:  noInformationAnswer,
			Sources: []models.Source{},
			Query:   req.Question,
		}, nil
	}

	answer, err := e.chat.Chat(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: fmt.Sprintf(answerSystemPromptTemplate, e.opts.Language)},
			{Role: llm.RoleUser, Content: fmt.Sprintf(answerUserPromptTemplate, req.Question, buildContext(chunks))},
		},
		Temperature: e.opts.Temperature,
		MaxTokens:   e.opts.MaxTokens,
	})
	if err != nil {
		return nil, &AnswerError{Err: err}
	}

	resp := &models.QueryResponse{
		Answer:  answer,
		Sources: buildSources(chunks),
		Query:   req.Question,
	}
	if e.answers != nil {
		e.answers.Set(ctx, req, resp)
	}

	e.log.WithPayload(map[string]interface{}{
		"chunk_count":  len(chunks),
		"source_count": len(resp.Sources),
	}).Info("Query answered")
	return resp, nil
}

// buildContext concatenates the chunks in retrieval order, each under a
// numbered source header, separated by a visible divider.
func buildContext(chunks []schema.RetrievedChunk) string {
	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		pageInfo := ""
		if chunk.PageNumber != nil {
			pageInfo = fmt.Sprintf(", Seite %d", *chunk.PageNumber)
		}
		parts[i] = fmt.Sprintf("[Quelle %d: %s%s]\n%s", i+1, chunk.Filename, pageInfo, chunk.Content)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// buildSources deduplicates the chunks by (document, page), first
// occurrence winning, truncates excerpts and sorts by score descending.
func buildSources(chunks []schema.RetrievedChunk) []models.Source {
	seen := make(map[string]bool, len(chunks))
	sources := make([]models.Source, 0, len(chunks))
	for _, chunk := range chunks {
		key := fmt.Sprintf("%s|%d", chunk.DocumentID, pageOrZero(chunk.PageNumber))
		if seen[key] {
			continue
		}
		seen[key] = true

		excerpt := chunk.Content
		if runes := []rune(excerpt); len(runes) > maxExcerptChars {
			excerpt = string(runes[:maxExcerptChars])
		}
		sources = append(sources, models.Source{
			DocumentID:   chunk.DocumentID,
			Filename:     chunk.Filename,
			PageNumber:   chunk.PageNumber,
			ChunkContent: excerpt,
			Score:        chunk.Score,
		})
	}

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Score > sources[j].Score
	})
	return sources
}
