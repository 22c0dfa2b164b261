// Package events publishes document lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"propertyrag/internal/models"
	"propertyrag/pkg/logger"
)

// StatusEvent is the message emitted on every ingestion stage transition.
type StatusEvent struct {
	DocumentID string                  `json:"document_id"`
	Status     models.ProcessingStatus `json:"status"`
	Stage      string                  `json:"stage,omitempty"`
	Timestamp  time.Time               `json:"timestamp"`
}

// KafkaPublisher emits StatusEvents. Publishing is best effort; a broker
// outage must never fail an ingestion.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *logger.Logger
}

func NewKafkaPublisher(writer *kafka.Writer, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, log: log}
}

// PublishStatus emits one lifecycle event keyed by document ID, so events
// for the same document stay ordered within a partition.
func (p *KafkaPublisher) PublishStatus(ctx context.Context, documentID string, status models.ProcessingStatus, stage string) {
	event := StatusEvent{
		DocumentID: documentID,
		Status:     status,
		Stage:      stage,
		Timestamp:  time.Now().UTC(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		p.log.WithField("error", err.Error()).Warn("Failed to marshal lifecycle event")
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(documentID),
		Value: value,
	})
	if err != nil {
		p.log.WithPayload(map[string]interface{}{
			"document_id": documentID,
			"error":       err.Error(),
		}).Warn("Failed to publish lifecycle event")
	}
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
