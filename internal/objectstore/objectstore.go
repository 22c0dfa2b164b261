// Package objectstore retains the raw uploaded PDFs in MinIO.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"

	"propertyrag/pkg/logger"
)

// DocumentStore writes and reads original PDF files, one object per
// document under documents/<id>.pdf.
type DocumentStore struct {
	client *minio.Client
	bucket string
	log    *logger.Logger
}

func NewDocumentStore(client *minio.Client, bucket string, log *logger.Logger) *DocumentStore {
	return &DocumentStore{client: client, bucket: bucket, log: log}
}

func objectName(documentID string) string {
	return fmt.Sprintf("documents/%s.pdf", documentID)
}

// Put stores the original PDF bytes for a document.
func (s *DocumentStore) Put(ctx context.Context, documentID string, content []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName(documentID),
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: "application/pdf"},
	)
	if err != nil {
		return fmt.Errorf("failed to store PDF for document %s: %w", documentID, err)
	}
	return nil
}

// Get returns the original PDF bytes for a document.
func (s *DocumentStore) Get(ctx context.Context, documentID string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectName(documentID), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PDF for document %s: %w", documentID, err)
	}
	defer obj.Close()

	content, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF for document %s: %w", documentID, err)
	}
	return content, nil
}

// Delete removes the stored PDF. Missing objects are not an error.
func (s *DocumentStore) Delete(ctx context.Context, documentID string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectName(documentID), minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete PDF for document %s: %w", documentID, err)
	}
	return nil
}
