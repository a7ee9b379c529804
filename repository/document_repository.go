package repository

import (
	"context"

	"docpipe_backend/models"

	"gorm.io/gorm"
)

type documentRepository struct {
	DB *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{DB: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	return r.DB.WithContext(ctx).Create(doc).Error
}

func (r *documentRepository) GetByID(ctx context.Context, documentID string) (*models.Document, error) {
	var doc models.Document
	err := r.DB.WithContext(ctx).Where("id = ?", documentID).First(&doc).Error
	return &doc, err
}

func (r *documentRepository) ListByUser(ctx context.Context, userID, status string, limit, offset int) ([]*models.Document, int64, error) {
	query := r.DB.WithContext(ctx).Model(&models.Document{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var docs []*models.Document
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&docs).Error
	return docs, total, err
}

func (r *documentRepository) UpdateStatus(ctx context.Context, documentID string, status string) error {
	return r.DB.WithContext(ctx).Model(&models.Document{}).Where("id = ?", documentID).Update("status", status).Error
}

func (r *documentRepository) UpdateProgress(ctx context.Context, documentID string, progress float64) error {
	// The guard keeps progress monotonic when a stale writer loses the race.
	return r.DB.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ? AND processing_progress <= ?", documentID, progress).
		Update("processing_progress", progress).Error
}

func (r *documentRepository) UpdateFields(ctx context.Context, documentID string, fields map[string]interface{}) error {
	return r.DB.WithContext(ctx).Model(&models.Document{}).Where("id = ?", documentID).Updates(fields).Error
}

func (r *documentRepository) Delete(ctx context.Context, documentID string) error {
	return r.DB.WithContext(ctx).Where("id = ?", documentID).Delete(&models.Document{}).Error
}
