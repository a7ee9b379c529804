package repository

import (
	"context"

	"docpipe_backend/models"

	"gorm.io/gorm"
)

type pageRepository struct {
	DB *gorm.DB
}

func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepository{DB: db}
}

func (r *pageRepository) Create(ctx context.Context, page *models.Page) error {
	return r.DB.WithContext(ctx).Create(page).Error
}

func (r *pageRepository) ListByDocument(ctx context.Context, documentID string) ([]*models.Page, error) {
	var pages []*models.Page
	err := r.DB.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("page_number ASC").
		Find(&pages).Error
	return pages, err
}

func (r *pageRepository) CountByDocument(ctx context.Context, documentID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Page{}).Where("document_id = ?", documentID).Count(&count).Error
	return count, err
}

func (r *pageRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	return r.DB.WithContext(ctx).Where("document_id = ?", documentID).Delete(&models.Page{}).Error
}
