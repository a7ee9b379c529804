package services

import (
	"context"
	"fmt"
	"time"

	"docpipe_backend/models"
	"docpipe_backend/pkg/apperr"
	"docpipe_backend/pkg/logging"
	"docpipe_backend/platform/cache"
	"docpipe_backend/repository"
	"docpipe_backend/utils"

	"github.com/google/uuid"
)

const DocumentTaskQueue = "document_tasks"

type DocumentService struct {
	docRepo     repository.DocumentRepository
	pageRepo    repository.PageRepository
	logService  *ProcessingLogService
	queue       cache.MessageQueue
	store       ObjectStore
	publisher   EventPublisher
	maxFileSize int64
}

func NewDocumentService(
	docRepo repository.DocumentRepository,
	pageRepo repository.PageRepository,
	logService *ProcessingLogService,
	queue cache.MessageQueue,
	store ObjectStore,
	publisher EventPublisher,
	maxFileSize int64,
) *DocumentService {
	return &DocumentService{
		docRepo:     docRepo,
		pageRepo:    pageRepo,
		logService:  logService,
		queue:       queue,
		store:       store,
		publisher:   publisher,
		maxFileSize: maxFileSize,
	}
}

// RequestUpload creates the document record in the uploading state and
// hands the client a presigned POST for the raw bytes.
func (s *DocumentService) RequestUpload(ctx context.Context, userID string, req models.UploadReq) (*models.UploadResp, error) {
	if userID == "" {
		return nil, apperr.Auth("authentication required")
	}
	if req.FileName == "" {
		return nil, apperr.Validation("file_name is required")
	}
	if req.FileSize <= 0 || req.FileSize > s.maxFileSize {
		return nil, apperr.Validation(fmt.Sprintf("file size must be between 1 byte and %d bytes", s.maxFileSize))
	}
	if !utils.AllowedContentType(req.ContentType) {
		return nil, apperr.Validation(fmt.Sprintf("unsupported content type %q", req.ContentType))
	}
	mediaType, err := utils.MediaTypeFromFilename(req.FileName)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	docID := uuid.New().String()
	res, err := s.store.GeneratePresignedUpload(req.FileName, userID, req.ContentType, s.maxFileSize, docID)
	if err != nil {
		logging.Logger.Error("fail RequestUpload", "error", err, "docID", docID)
		return nil, apperr.Upstream("failed to generate upload URL", err)
	}

	doc := &models.Document{
		ID:        docID,
		UserID:    userID,
		Filename:  req.FileName,
		MediaType: mediaType,
		FileKey:   res.FileKey,
		FileSize:  req.FileSize,
		Status:    models.StatusUploading,
	}
	if req.PipelineID != "" {
		doc.PipelineID = &req.PipelineID
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		logging.Logger.Error("failed to create document", "error", err, "docID", docID)
		return nil, apperr.Upstream("failed to create document", err)
	}

	s.logService.Success(ctx, docID, "Upload requested", fmt.Sprintf("presigned upload issued for %q", req.FileName))
	return res, nil
}

// ConfirmUpload moves uploading -> uploaded once the object is durably
// stored, then queues the conversion job.
func (s *DocumentService) ConfirmUpload(ctx context.Context, userID, documentID string) (*models.ConfirmUploadResp, error) {
	doc, err := s.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.FileExists(doc.FileKey)
	if err != nil {
		return nil, apperr.Upstream("failed to check uploaded file", err)
	}
	if !ok {
		s.failDocument(ctx, doc, "Upload confirm", "file does not exist in storage")
		return nil, apperr.Validation("file does not exist in storage")
	}

	originalURL := s.store.PublicObjectURL(doc.FileKey)
	if err := s.docRepo.UpdateFields(ctx, doc.ID, map[string]interface{}{
		"status":              models.StatusUploaded,
		"original_url":        originalURL,
		"processing_progress": float64(0),
	}); err != nil {
		return nil, apperr.Upstream("failed to update document", err)
	}
	s.logService.Success(ctx, doc.ID, "Upload confirmed", fmt.Sprintf("stored at %s", originalURL))
	s.publishStatus(doc.ID, doc.UserID, models.EventDocumentUploaded, models.StatusUploaded, "upload confirmed")

	if err := s.enqueue(ctx, doc, models.TaskConvertToImages); err != nil {
		return nil, err
	}
	return &models.ConfirmUploadResp{
		Message: "Upload confirmed successfully",
		DocID:   doc.ID,
		Status:  "queued",
	}, nil
}

// RequestConversion re-enters processing for an explicit convert or
// retry action. Allowed from every state except uploading.
func (s *DocumentService) RequestConversion(ctx context.Context, userID, documentID string) error {
	doc, err := s.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if doc.Status == models.StatusUploading {
		return apperr.Validation("document bytes are not uploaded yet")
	}
	return s.enqueue(ctx, doc, models.TaskConvertToImages)
}

// RequestTranscription queues the text aggregation job.
func (s *DocumentService) RequestTranscription(ctx context.Context, userID, documentID string) error {
	doc, err := s.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if doc.Status == models.StatusUploading {
		return apperr.Validation("document bytes are not uploaded yet")
	}
	count, err := s.pageRepo.CountByDocument(ctx, doc.ID)
	if err != nil {
		return apperr.Upstream("failed to count pages", err)
	}
	if count == 0 {
		return apperr.Validation("document has no pages; run conversion first")
	}
	return s.enqueue(ctx, doc, models.TaskProcessText)
}

// enqueue applies the -> processing transition (progress reset, error
// cleared) and pushes the task. Concurrent enqueues on one document are
// last-writer-wins by design.
func (s *DocumentService) enqueue(ctx context.Context, doc *models.Document, kind string) error {
	if err := s.docRepo.UpdateFields(ctx, doc.ID, map[string]interface{}{
		"status":              models.StatusProcessing,
		"processing_progress": float64(0),
		"error_message":       "",
	}); err != nil {
		return apperr.Upstream("failed to update document", err)
	}
	task := models.TaskMessage{
		Kind:       kind,
		DocumentID: doc.ID,
		UserID:     doc.UserID,
		CreatedAt:  time.Now(),
	}
	if err := s.queue.PushToQueue(DocumentTaskQueue, task); err != nil {
		s.failDocument(ctx, doc, "Queue", fmt.Sprintf("failed to queue %s: %v", kind, err))
		return apperr.Upstream("failed to queue task", err)
	}
	s.logService.Success(ctx, doc.ID, "Task queued", kind)
	s.publishStatus(doc.ID, doc.UserID, models.EventDocumentProcessing, models.StatusProcessing, kind+" queued")
	return nil
}

func (s *DocumentService) GetDocument(ctx context.Context, userID, documentID string) (*models.Document, error) {
	return s.ownedDocument(ctx, userID, documentID)
}

func (s *DocumentService) GetDocumentPages(ctx context.Context, userID, documentID string) ([]*models.Page, error) {
	if _, err := s.ownedDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}
	pages, err := s.pageRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, apperr.Upstream("failed to list pages", err)
	}
	return pages, nil
}

func (s *DocumentService) GetProcessingLog(ctx context.Context, userID, documentID string) ([]*models.ProcessingLogEntry, error) {
	if _, err := s.ownedDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}
	return s.logService.List(ctx, documentID)
}

func (s *DocumentService) ListDocuments(ctx context.Context, userID, status string, page, limit int) ([]*models.Document, int64, error) {
	if userID == "" {
		return nil, 0, apperr.Auth("authentication required")
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	docs, total, err := s.docRepo.ListByUser(ctx, userID, status, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, apperr.Upstream("failed to list documents", err)
	}
	return docs, total, nil
}

// DeleteDocument removes the document, its pages and their stored
// objects. Processing log entries are retained: the audit trail is
// append-only.
func (s *DocumentService) DeleteDocument(ctx context.Context, userID, documentID string) error {
	doc, err := s.ownedDocument(ctx, userID, documentID)
	if err != nil {
		return err
	}

	pages, err := s.pageRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return apperr.Upstream("failed to list pages", err)
	}
	for _, p := range pages {
		if p.ImageKey == "" {
			continue
		}
		if err := s.store.RemoveObject(ctx, p.ImageKey); err != nil {
			logging.Logger.Warn("failed to remove page object", "key", p.ImageKey, "error", err)
		}
	}
	if doc.FileKey != "" {
		if err := s.store.RemoveObject(ctx, doc.FileKey); err != nil {
			logging.Logger.Warn("failed to remove original object", "key", doc.FileKey, "error", err)
		}
	}

	if err := s.pageRepo.DeleteByDocument(ctx, documentID); err != nil {
		return apperr.Upstream("failed to delete pages", err)
	}
	if err := s.docRepo.Delete(ctx, documentID); err != nil {
		return apperr.Upstream("failed to delete document", err)
	}
	s.logService.Success(ctx, documentID, "Document deleted", doc.Filename)
	return nil
}

func (s *DocumentService) ownedDocument(ctx context.Context, userID, documentID string) (*models.Document, error) {
	if userID == "" {
		return nil, apperr.Auth("authentication required")
	}
	if documentID == "" {
		return nil, apperr.Validation("document id is required")
	}
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, apperr.NotFound("document not found")
	}
	if doc.UserID != userID {
		return nil, apperr.Auth("document belongs to another user")
	}
	return doc, nil
}

func (s *DocumentService) failDocument(ctx context.Context, doc *models.Document, action, message string) {
	if err := s.docRepo.UpdateFields(ctx, doc.ID, map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": message,
	}); err != nil {
		logging.Logger.Error("failed to mark document failed", "docID", doc.ID, "error", err)
	}
	s.logService.Error(ctx, doc.ID, action, message)
	s.publishStatus(doc.ID, doc.UserID, models.EventDocumentFailed, models.StatusFailed, message)
}

func (s *DocumentService) publishStatus(docID, userID string, eventType models.DocumentEventType, status, message string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishDocumentEvent(&models.DocumentEvent{
		Type:    eventType,
		DocID:   docID,
		UserID:  userID,
		Status:  status,
		Message: message,
	}); err != nil {
		logging.Logger.Warn("fail publishing document event", "docID", docID, "error", err)
	}
}
