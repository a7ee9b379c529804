package repository

import (
	"context"

	"docpipe_backend/models"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error

	GetByID(ctx context.Context, documentID string) (*models.Document, error)
	ListByUser(ctx context.Context, userID, status string, limit, offset int) ([]*models.Document, int64, error)

	UpdateStatus(ctx context.Context, documentID string, status string) error
	// UpdateProgress only moves progress forward; a stale lower value is a no-op.
	UpdateProgress(ctx context.Context, documentID string, progress float64) error
	UpdateFields(ctx context.Context, documentID string, fields map[string]interface{}) error

	Delete(ctx context.Context, documentID string) error
}

type PageRepository interface {
	Create(ctx context.Context, page *models.Page) error

	ListByDocument(ctx context.Context, documentID string) ([]*models.Page, error)
	CountByDocument(ctx context.Context, documentID string) (int64, error)

	DeleteByDocument(ctx context.Context, documentID string) error
}

// ProcessingLogRepository is append-only: entries are never mutated and
// only disappear when their document's whole row set is purged.
type ProcessingLogRepository interface {
	Append(ctx context.Context, entry *models.ProcessingLogEntry) error
	ListByDocument(ctx context.Context, documentID string) ([]*models.ProcessingLogEntry, error)
}
