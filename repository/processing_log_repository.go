package repository

import (
	"context"

	"docpipe_backend/models"

	"gorm.io/gorm"
)

type processingLogRepository struct {
	DB *gorm.DB
}

func NewProcessingLogRepository(db *gorm.DB) ProcessingLogRepository {
	return &processingLogRepository{DB: db}
}

func (r *processingLogRepository) Append(ctx context.Context, entry *models.ProcessingLogEntry) error {
	return r.DB.WithContext(ctx).Create(entry).Error
}

func (r *processingLogRepository) ListByDocument(ctx context.Context, documentID string) ([]*models.ProcessingLogEntry, error) {
	var entries []*models.ProcessingLogEntry
	err := r.DB.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}
