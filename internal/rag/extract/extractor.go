package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"propertyrag/internal/llm"
	"propertyrag/internal/models"
	"propertyrag/pkg/logger"
)

// ExtractionError wraps any failure while pulling structured data out of a
// classified document.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor turns the full text of a classified document into the typed
// payload for its document type, plus a confidence score.
type Extractor struct {
	chat llm.ChatModel
	log  *logger.Logger
}

func New(chat llm.ChatModel, log *logger.Logger) *Extractor {
	return &Extractor{chat: chat, log: log}
}

// Extract asks the model for the schema fields of docType and validates the
// response. Responses that fail strict validation go through one repair
// pass (numeric strings parsed, unknown keys dropped) before being rejected.
// The confidence score is the filled share of the schema's fields.
func (e *Extractor) Extract(ctx context.Context, text string, docType models.DocumentType) (interface{}, float64, error) {
	prompt, ok := prompts[docType]
	if !ok {
		return nil, 0, &ExtractionError{Reason: fmt.Sprintf("no extraction schema for document type %q", docType)}
	}

	raw, err := e.chat.Chat(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: fmt.Sprintf(prompt, text)},
		},
		Temperature: 0,
		JSONObject:  true,
	})
	if err != nil {
		return nil, 0, &ExtractionError{Reason: "extraction model call failed", Err: err}
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, 0, &ExtractionError{Reason: "extraction response is not valid JSON", Err: err}
	}

	schema := schemas[docType]
	record, decodeErr := decode(docType, data)
	if decodeErr != nil {
		data = repair(data, schema)
		record, decodeErr = decode(docType, data)
		if decodeErr != nil {
			return nil, 0, &ExtractionError{Reason: "extraction response failed validation", Err: decodeErr}
		}
		e.log.WithField("document_type", string(docType)).Debug("Extraction response required repair")
	}

	return record, scoreConfidence(data, schema), nil
}

// decode re-marshals the map into the typed payload with strict field
// checking, so unexpected keys or mistyped values surface as errors.
func decode(docType models.DocumentType, data map[string]interface{}) (interface{}, error) {
	buf, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var record interface{}
	switch docType {
	case models.DocumentTypeMietvertrag:
		record = &models.MietvertragData{}
	case models.DocumentTypeGutachten:
		record = &models.GutachtenData{}
	case models.DocumentTypeGrundbuchauszug:
		record = &models.GrundbuchauszugData{}
	case models.DocumentTypeNebenkostenabrechnung:
		record = &models.NebenkostenabrechnungData{}
	default:
		return nil, fmt.Errorf("unsupported document type %q", docType)
	}

	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.DisallowUnknownFields()
	if err := dec.Decode(record); err != nil {
		return nil, err
	}
	return record, nil
}
