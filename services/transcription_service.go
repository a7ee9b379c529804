package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docpipe_backend/models"
	"docpipe_backend/pkg/apperr"
	"docpipe_backend/pkg/logging"
	"docpipe_backend/platform/cache"
	"docpipe_backend/repository"
)

const (
	transcriptionAction      = "Text processing"
	transcriptionCachePrefix = "transcription:"
	transcriptionCacheTTL    = 24 * time.Hour
)

// TranscriptionService derives a document's transcription from the
// extracted text of its pages. It is the worker behind TaskProcessText.
type TranscriptionService struct {
	docRepo    repository.DocumentRepository
	pageRepo   repository.PageRepository
	logService *ProcessingLogService
	publisher  EventPublisher
	textCache  *cache.TypedCache[string]
}

func NewTranscriptionService(
	docRepo repository.DocumentRepository,
	pageRepo repository.PageRepository,
	logService *ProcessingLogService,
	publisher EventPublisher,
	cacheService cache.CacheService,
) *TranscriptionService {
	s := &TranscriptionService{
		docRepo:    docRepo,
		pageRepo:   pageRepo,
		logService: logService,
		publisher:  publisher,
	}
	if cacheService != nil {
		s.textCache = cache.NewTypedCache[string](cacheService)
	}
	return s
}

// AggregateTranscription joins the non-empty page texts with a blank
// line, in ascending page order. Pure: same pages in, same text out.
func AggregateTranscription(pages []*models.Page) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p.ExtractedText) == "" {
			continue
		}
		parts = append(parts, p.ExtractedText)
	}
	return strings.Join(parts, "\n\n")
}

// ProcessText runs one transcription job to completion, absorbing every
// error into the document state and the returned result.
func (s *TranscriptionService) ProcessText(ctx context.Context, documentID string) *models.TranscriptionResult {
	log := logging.ForDocument(documentID)

	if documentID == "" {
		return &models.TranscriptionResult{Success: false, Error: "document id is required"}
	}
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		message := fmt.Sprintf("document not found: %v", err)
		s.logService.Error(ctx, documentID, transcriptionAction+" failed", message)
		return &models.TranscriptionResult{Success: false, Error: message}
	}

	if err := s.docRepo.UpdateFields(ctx, doc.ID, map[string]interface{}{
		"status":              models.StatusProcessing,
		"processing_progress": float64(0),
		"error_message":       "",
	}); err != nil {
		return s.fail(ctx, doc, fmt.Sprintf("failed to enter processing: %v", err))
	}
	s.logService.Success(ctx, doc.ID, transcriptionAction+" started", doc.Filename)

	pages, err := s.pageRepo.ListByDocument(ctx, doc.ID)
	if err != nil {
		// The underlying error surfaces verbatim on the document.
		return s.fail(ctx, doc, err.Error())
	}

	transcription := AggregateTranscription(pages)

	now := time.Now()
	if err := s.docRepo.UpdateFields(ctx, doc.ID, map[string]interface{}{
		"status":              models.StatusProcessed,
		"processing_progress": float64(100),
		"transcription":       transcription,
		"error_message":       "",
		"processed_at":        &now,
	}); err != nil {
		return s.fail(ctx, doc, fmt.Sprintf("failed to persist transcription: %v", err))
	}

	if s.textCache != nil {
		if err := s.textCache.Delete(transcriptionCachePrefix + doc.ID); err != nil {
			log.Warn("fail invalidating transcription cache", "error", err)
		}
	}

	s.logService.Success(ctx, doc.ID, transcriptionAction+" completed",
		fmt.Sprintf("aggregated %d pages", len(pages)))
	s.publish(doc, models.EventDocumentProcessed, models.StatusProcessed, "transcription ready")
	log.Info("transcription completed", "pages", len(pages))

	return &models.TranscriptionResult{Success: true, PageCount: len(pages)}
}

// GetTranscription serves the persisted transcription through the
// layered cache. The ownership check runs before any cache read: the
// cache key is doc-scoped, so a warm entry must never leak across users.
func (s *TranscriptionService) GetTranscription(ctx context.Context, userID, documentID string) (string, error) {
	if userID == "" {
		return "", apperr.Auth("authentication required")
	}
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return "", apperr.NotFound("document not found")
	}
	if doc.UserID != userID {
		return "", apperr.Auth("document belongs to another user")
	}

	if s.textCache == nil {
		return doc.Transcription, nil
	}
	text, err := s.textCache.GetOrLoad(transcriptionCachePrefix+documentID, transcriptionCacheTTL, func() (string, error) {
		return doc.Transcription, nil
	})
	if err != nil {
		logging.ForDocument(documentID).Warn("fail reading transcription cache", "error", err)
		return doc.Transcription, nil
	}
	return text, nil
}

func (s *TranscriptionService) fail(ctx context.Context, doc *models.Document, message string) *models.TranscriptionResult {
	if err := s.docRepo.UpdateFields(ctx, doc.ID, map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": message,
	}); err != nil {
		logging.ForDocument(doc.ID).Error("failed to mark document failed", "error", err)
	}
	s.logService.Error(ctx, doc.ID, transcriptionAction+" failed", message)
	s.publish(doc, models.EventDocumentFailed, models.StatusFailed, message)
	return &models.TranscriptionResult{Success: false, Error: message}
}

func (s *TranscriptionService) publish(doc *models.Document, eventType models.DocumentEventType, status, message string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishDocumentEvent(&models.DocumentEvent{
		Type:    eventType,
		DocID:   doc.ID,
		UserID:  doc.UserID,
		Status:  status,
		Message: message,
	}); err != nil {
		logging.ForDocument(doc.ID).Warn("fail publishing event", "error", err)
	}
}
