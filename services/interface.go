package services

import (
	"context"

	"docpipe_backend/models"
)

// ObjectStore is the slice of the storage platform the document
// pipeline needs. *storage.Service implements it.
type ObjectStore interface {
	FileExists(fileKey string) (bool, error)
	DownloadObject(ctx context.Context, fileKey string) ([]byte, error)
	UploadObject(ctx context.Context, fileKey string, data []byte, contentType string) error
	RemoveObject(ctx context.Context, fileKey string) error
	PublicObjectURL(fileKey string) string
	GeneratePresignedUpload(filename, userID, contentType string, maxFileSize int64, docID string) (*models.UploadResp, error)
}

// PageEngine performs the per-page PDF work: counting, splitting out
// page artifacts and extracting page text.
type PageEngine interface {
	PageCount(data []byte) (int, error)
	// ExtractPage returns the page artifact bytes plus its extension
	// and content type.
	ExtractPage(data []byte, pageNumber int) ([]byte, string, string, error)
	ExtractPageText(data []byte, pageNumber int) (string, error)
}

// EventPublisher fans lifecycle events out to websocket subscribers.
// *events.EventPublisher implements it.
type EventPublisher interface {
	PublishDocumentEvent(event *models.DocumentEvent) error
}
