// Package classify infers the document type from a text sample.
package classify

import (
	"context"
	"fmt"
	"strings"

	"propertyrag/internal/llm"
	"propertyrag/internal/models"
	"propertyrag/internal/rag/interfaces"
	"propertyrag/pkg/logger"
)

// maxSampleChars bounds the text sent to the model; a prefix is enough to
// tell the document types apart.
const maxSampleChars = 3000

const classificationPrompt = `Analysiere den folgenden Dokumenttext und bestimme den Dokumenttyp.

Mögliche Dokumenttypen:
- mietvertrag: Mietverträge, Pachtverträge, Nutzungsverträge für Immobilien
- gutachten: Verkehrswertgutachten, Immobilienbewertungen, Sachverständigengutachten
- grundbuchauszug: Grundbuchauszüge, Grundbuchblätter, Eigentumsauskünfte
- nebenkostenabrechnung: Betriebskostenabrechnungen, Nebenkostenabrechnungen, Hausgeldabrechnungen
- unknown: Falls keiner der obigen Typen passt

Antworte NUR mit einem der folgenden Wörter (kleingeschrieben):
mietvertrag, gutachten, grundbuchauszug, nebenkostenabrechnung, unknown

Dokumenttext (erste 3000 Zeichen):
%s

Dokumenttyp:`

// ClassificationError reports a generation-service failure during type
// inference.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("failed to classify document: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// Classifier assigns one of the known document types using the chat model.
type Classifier struct {
	chat llm.ChatModel
	log  *logger.Logger
}

// New creates a Classifier.
func New(chat llm.ChatModel, log *logger.Logger) *Classifier {
	return &Classifier{chat: chat, log: log}
}

// Classify returns the document type for the given text. Empty input maps
// to unknown without a model call, and any label the model returns that is
// not an exact known type maps to unknown as well.
func (c *Classifier) Classify(ctx context.Context, text string) (models.DocumentType, error) {
	if strings.TrimSpace(text) == "" {
		c.log.Warn("Empty text for classification, defaulting to unknown")
		return models.DocumentTypeUnknown, nil
	}

	sample := text
	if runes := []rune(sample); len(runes) > maxSampleChars {
		sample = string(runes[:maxSampleChars])
	}

	result, err := c.chat.Chat(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf(classificationPrompt, sample)},
		},
		Temperature: 0,
		MaxTokens:   20,
	})
	if err != nil {
		return models.DocumentTypeUnknown, &ClassificationError{Err: err}
	}

	docType := models.ParseDocumentType(strings.ToLower(strings.TrimSpace(result)))
	c.log.Info(fmt.Sprintf("Classified document as '%s'", docType))
	return docType, nil
}

var _ interfaces.Classifier = (*Classifier)(nil)
