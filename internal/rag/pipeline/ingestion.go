// Package pipeline contains the ingestion, retrieval and answer engines
// that tie the adapters and stores together.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"propertyrag/internal/models"
	"propertyrag/internal/rag/interfaces"
	"propertyrag/internal/rag/schema"
	"propertyrag/internal/store"
	"propertyrag/pkg/logger"
)

// Ingestion stage names, used in errors and lifecycle events.
const (
	StageCreate   = "create"
	StageParse    = "parse"
	StageClassify = "classify"
	StageEmbed    = "embed"
	StagePersist  = "persist"
	StageFinalize = "finalize"
)

// IngestionError reports which stage an ingestion run failed in. By the
// time the caller sees it, the document has already been moved to failed.
type IngestionError struct {
	Stage string
	Err   error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed at stage %s: %v", e.Stage, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// IngestionDeps are the collaborators an IngestionPipeline runs on.
// Events may be nil to disable lifecycle publishing.
type IngestionDeps struct {
	Parser     interfaces.Parser
	Splitter   interfaces.Splitter
	Embedder   interfaces.EmbeddingModel
	Classifier interfaces.Classifier
	Extractor  interfaces.Extractor
	Documents  interfaces.DocumentStore
	Chunks     interfaces.ChunkStore
	Extracted  interfaces.ExtractedStore
	Vectors    interfaces.VectorStore
	Events     interfaces.EventPublisher
}

// IngestionOptions control one ingestion run.
type IngestionOptions struct {
	DocumentType models.DocumentType // unknown triggers classification
	ProjectID    *string
	AutoExtract  bool
}

// IngestionPipeline runs the staged ingestion of one document. A pipeline
// instance is stateless and safe for concurrent runs; per-document
// serialization is the caller's concern.
type IngestionPipeline struct {
	deps IngestionDeps
	log  *logger.Logger
}

func NewIngestionPipeline(deps IngestionDeps, log *logger.Logger) *IngestionPipeline {
	return &IngestionPipeline{deps: deps, log: log}
}

// Ingest runs the full pipeline on one PDF: parse, classify when the type
// is unknown, chunk, embed, persist, optional best-effort extraction,
// finalize. Any stage failure after record creation moves the document to
// failed before the typed error is returned.
func (p *IngestionPipeline) Ingest(ctx context.Context, content []byte, filename string, opts IngestionOptions) (string, error) {
	docType := opts.DocumentType
	if docType == "" {
		docType = models.DocumentTypeUnknown
	}

	doc := &models.Document{
		Filename:     filename,
		DocumentType: docType,
		Status:       models.StatusPending,
		ProjectID:    opts.ProjectID,
	}
	if err := p.deps.Documents.Create(ctx, doc); err != nil {
		return "", &IngestionError{Stage: StageCreate, Err: err}
	}
	log := p.log.WithPayload(map[string]interface{}{
		"document_id": doc.ID,
		"filename":    filename,
	})
	log.Info("Ingestion started")

	if err := p.deps.Documents.UpdateStatus(ctx, doc.ID, models.StatusProcessing, nil); err != nil {
		return doc.ID, p.fail(ctx, doc.ID, StageFinalize, err)
	}
	p.publish(ctx, doc.ID, models.StatusProcessing, StageParse)

	parsed, err := p.deps.Parser.Parse(content, filename)
	if err != nil {
		return doc.ID, p.fail(ctx, doc.ID, StageParse, err)
	}
	fullText := parsed.FullText()

	if docType == models.DocumentTypeUnknown {
		docType, err = p.deps.Classifier.Classify(ctx, fullText)
		if err != nil {
			return doc.ID, p.fail(ctx, doc.ID, StageClassify, err)
		}
		if err := p.deps.Documents.UpdateType(ctx, doc.ID, docType); err != nil {
			return doc.ID, p.fail(ctx, doc.ID, StageClassify, err)
		}
		log.WithField("document_type", string(docType)).Info("Document classified")
	}

	textChunks := p.deps.Splitter.Split(parsed)
	if len(textChunks) == 0 {
		// An entirely blank document is not an error.
		log.Warn("Document produced no chunks")
		if err := p.deps.Documents.UpdateStatus(ctx, doc.ID, models.StatusCompleted, &parsed.PageCount); err != nil {
			return doc.ID, p.fail(ctx, doc.ID, StageFinalize, err)
		}
		p.publish(ctx, doc.ID, models.StatusCompleted, "")
		return doc.ID, nil
	}

	texts := make([]string, len(textChunks))
	for i, c := range textChunks {
		texts[i] = c.Content
	}
	vectors, err := p.deps.Embedder.Embed(ctx, texts)
	if err != nil {
		return doc.ID, p.fail(ctx, doc.ID, StageEmbed, err)
	}

	rows := make([]*models.Chunk, len(textChunks))
	entries := make([]schema.VectorEntry, len(textChunks))
	projectID := ""
	if opts.ProjectID != nil {
		projectID = *opts.ProjectID
	}
	for i, c := range textChunks {
		id := uuid.New().String()
		rows[i] = &models.Chunk{
			ID:         id,
			DocumentID: doc.ID,
			Content:    c.Content,
			PageNumber: c.PageNumber,
			ChunkIndex: c.ChunkIndex,
			TokenCount: c.TokenCount,
		}
		entries[i] = schema.VectorEntry{
			ChunkID:    id,
			DocumentID: doc.ID,
			ProjectID:  projectID,
			Vector:     vectors[i],
		}
	}
	if err := p.deps.Chunks.CreateMany(ctx, rows); err != nil {
		return doc.ID, p.fail(ctx, doc.ID, StagePersist, err)
	}
	if err := p.deps.Vectors.Add(ctx, entries); err != nil {
		return doc.ID, p.fail(ctx, doc.ID, StagePersist, err)
	}

	if opts.AutoExtract && docType != models.DocumentTypeUnknown {
		p.extractAndStore(ctx, doc.ID, fullText, docType)
	}

	if err := p.deps.Documents.UpdateStatus(ctx, doc.ID, models.StatusCompleted, &parsed.PageCount); err != nil {
		return doc.ID, p.fail(ctx, doc.ID, StageFinalize, err)
	}
	p.publish(ctx, doc.ID, models.StatusCompleted, "")

	log.WithPayload(map[string]interface{}{
		"document_type": string(docType),
		"chunk_count":   len(textChunks),
		"page_count":    parsed.PageCount,
	}).Info("Ingestion completed")
	return doc.ID, nil
}

// ReExtract re-runs structured extraction for an already ingested
// document, reconstructing its text from the persisted chunks. Without
// force it returns the existing record's data. It never changes the
// document's status, and an extraction failure surfaces as a nil result
// rather than an error.
func (p *IngestionPipeline) ReExtract(ctx context.Context, documentID string, force bool) (datatypes.JSON, error) {
	existing, err := p.deps.Extracted.GetByDocument(ctx, documentID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if existing != nil && !force {
		return existing.Data, nil
	}

	doc, err := p.deps.Documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	log := p.log.WithField("document_id", documentID)
	if doc.DocumentType == models.DocumentTypeUnknown {
		log.Warn("Cannot extract data from a document of unknown type")
		return nil, nil
	}

	rows, err := p.deps.Chunks.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(rows))
	for i, row := range rows {
		parts[i] = row.Content
	}
	text := strings.Join(parts, "\n\n")

	record, confidence, err := p.deps.Extractor.Extract(ctx, text, doc.DocumentType)
	if err != nil {
		log.WithField("error", err.Error()).Error("Re-extraction failed")
		return nil, nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	err = p.deps.Extracted.Upsert(ctx, &models.ExtractedRecord{
		DocumentID:   documentID,
		DocumentType: doc.DocumentType,
		Data:         datatypes.JSON(data),
		Confidence:   &confidence,
	})
	if err != nil {
		return nil, err
	}
	log.WithField("confidence", confidence).Info("Document re-extracted")
	return datatypes.JSON(data), nil
}

// extractAndStore is ingestion's best-effort extraction path: failures are
// logged and swallowed, the document still completes.
func (p *IngestionPipeline) extractAndStore(ctx context.Context, documentID, text string, docType models.DocumentType) {
	log := p.log.WithField("document_id", documentID)

	record, confidence, err := p.deps.Extractor.Extract(ctx, text, docType)
	if err != nil {
		log.WithField("error", err.Error()).Warn("Extraction failed, continuing ingestion")
		return
	}
	data, err := json.Marshal(record)
	if err != nil {
		log.WithField("error", err.Error()).Warn("Failed to encode extracted record")
		return
	}

	err = p.deps.Extracted.Upsert(ctx, &models.ExtractedRecord{
		DocumentID:   documentID,
		DocumentType: docType,
		Data:         datatypes.JSON(data),
		Confidence:   &confidence,
	})
	if err != nil {
		log.WithField("error", err.Error()).Warn("Failed to store extracted record")
		return
	}
	log.WithField("confidence", confidence).Info("Extraction stored")
}

// fail moves the document to failed, emits the lifecycle event and wraps
// the stage error.
func (p *IngestionPipeline) fail(ctx context.Context, documentID, stage string, err error) error {
	if updateErr := p.deps.Documents.UpdateStatus(ctx, documentID, models.StatusFailed, nil); updateErr != nil {
		p.log.WithPayload(map[string]interface{}{
			"document_id": documentID,
			"error":       updateErr.Error(),
		}).Error("Failed to mark document as failed")
	}
	p.publish(ctx, documentID, models.StatusFailed, stage)
	return &IngestionError{Stage: stage, Err: err}
}

func (p *IngestionPipeline) publish(ctx context.Context, documentID string, status models.ProcessingStatus, stage string) {
	if p.deps.Events == nil {
		return
	}
	p.deps.Events.PublishStatus(ctx, documentID, status, stage)
}
