package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"docpipe_backend/models"
	"docpipe_backend/pkg/logging"
	"docpipe_backend/repository"
	"docpipe_backend/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

const (
	// Pages are processed in fixed concurrent batches to bound the
	// number of in-flight storage calls per document.
	conversionBatchSize = 3

	// Progress sits here once the page count is known; the remaining
	// 90 points are spread over the pages.
	conversionBaseProgress = 10

	conversionAction = "Conversion"
)

// ConversionService turns an uploaded document into per-page artifacts
// and Page records. It is the worker behind TaskConvertToImages.
type ConversionService struct {
	docRepo    repository.DocumentRepository
	pageRepo   repository.PageRepository
	logService *ProcessingLogService
	store      ObjectStore
	engine     PageEngine
	publisher  EventPublisher
	keys       *utils.FileKeyGenerator
}

func NewConversionService(
	docRepo repository.DocumentRepository,
	pageRepo repository.PageRepository,
	logService *ProcessingLogService,
	store ObjectStore,
	engine PageEngine,
	publisher EventPublisher,
) *ConversionService {
	return &ConversionService{
		docRepo:    docRepo,
		pageRepo:   pageRepo,
		logService: logService,
		store:      store,
		engine:     engine,
		publisher:  publisher,
		keys:       utils.NewFileKeyGenerator(utils.StrategyUserBased, "documents"),
	}
}

// ConversionProgress maps pages finished so far onto the 10..100 range:
// floor(10 + done/total*90). Monotonic for growing done.
func ConversionProgress(done, total int) float64 {
	if total <= 0 {
		return conversionBaseProgress
	}
	p := math.Floor(conversionBaseProgress + float64(done)/float64(total)*90)
	if p > 100 {
		p = 100
	}
	return p
}

// ProcessDocument runs one conversion job to completion. Every error is
// absorbed here: the document ends up processed or failed, the log gets
// an entry either way, and the caller receives a structured result.
func (s *ConversionService) ProcessDocument(ctx context.Context, documentID, userID string) *models.ConversionResult {
	log := logging.ForDocument(documentID)

	if documentID == "" {
		return s.reject(ctx, log, documentID, "document id is required")
	}
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return s.reject(ctx, log, documentID, fmt.Sprintf("document not found: %v", err))
	}
	if userID != "" && doc.UserID != userID {
		return s.fail(ctx, log, doc, "document belongs to another user")
	}
	if doc.FileKey == "" && doc.OriginalURL == "" {
		return s.fail(ctx, log, doc, "document has no stored source file")
	}

	// Enter (or re-enter, on retry) the processing state.
	if err := s.docRepo.UpdateFields(ctx, doc.ID, map[string]interface{}{
		"status":              models.StatusProcessing,
		"processing_progress": float64(0),
		"error_message":       "",
	}); err != nil {
		return s.fail(ctx, log, doc, fmt.Sprintf("failed to enter processing: %v", err))
	}
	s.logService.Success(ctx, doc.ID, conversionAction+" started", doc.Filename)
	s.publishProgress(doc, models.EventDocumentProcessing, nil, "conversion started")

	data, err := s.store.DownloadObject(ctx, doc.FileKey)
	if err != nil {
		return s.fail(ctx, log, doc, fmt.Sprintf("failed to download source file: %v", err))
	}
	if len(data) == 0 {
		return s.fail(ctx, log, doc, "downloaded source file is empty")
	}

	// The page count must be known before any real progress is reported.
	total, err := s.pageTotal(doc, data)
	if err != nil {
		return s.fail(ctx, log, doc, fmt.Sprintf("failed to determine page count: %v", err))
	}
	s.updateProgress(ctx, doc, conversionBaseProgress, 0, 0, total)
	log.Info("conversion started", "pages", total)

	thumbnails := make([]string, total)
	var mu sync.Mutex
	completed, failed := 0, 0

	for start := 1; start <= total; start += conversionBatchSize {
		end := start + conversionBatchSize - 1
		if end > total {
			end = total
		}

		// All pages of a batch finish before the next batch starts.
		g, gctx := errgroup.WithContext(ctx)
		for n := start; n <= end; n++ {
			pageNumber := n
			g.Go(func() error {
				url, pageErr := s.processPage(gctx, doc, data, pageNumber)
				mu.Lock()
				defer mu.Unlock()
				if pageErr != nil {
					// A single page failure is swallowed: logged,
					// skipped, and the job carries on.
					failed++
					log.Warn("page conversion failed", "page", pageNumber, "error", pageErr)
					s.logService.Error(gctx, doc.ID, conversionAction+" page",
						fmt.Sprintf("page %d failed: %v", pageNumber, pageErr))
					return nil
				}
				completed++
				thumbnails[pageNumber-1] = url
				return nil
			})
		}
		_ = g.Wait()

		done := completed + failed
		s.updateProgress(ctx, doc, ConversionProgress(done, total), completed, failed, total)
	}

	urls := make([]string, 0, total)
	for _, u := range thumbnails {
		if u != "" {
			urls = append(urls, u)
		}
	}

	now := time.Now()
	if err := s.docRepo.UpdateFields(ctx, doc.ID, map[string]interface{}{
		"status":              models.StatusProcessed,
		"processing_progress": float64(100),
		"page_count":          total,
		"thumbnail_urls":      pq.StringArray(urls),
		"error_message":       "",
		"processed_at":        &now,
	}); err != nil {
		return s.fail(ctx, log, doc, fmt.Sprintf("failed to finalize document: %v", err))
	}

	s.logService.Success(ctx, doc.ID, conversionAction+" completed",
		fmt.Sprintf("%d/%d pages converted", completed, total))
	s.publishProgress(doc, models.EventDocumentProcessed, &models.ProgressInfo{
		PagesCompleted: completed,
		PagesFailed:    failed,
		TotalPages:     total,
		Percentage:     100,
	}, "conversion completed")
	log.Info("conversion completed", "completed", completed, "failed", failed)

	return &models.ConversionResult{
		Success:    true,
		PageCount:  total,
		Thumbnails: urls,
	}
}

func (s *ConversionService) pageTotal(doc *models.Document, data []byte) (int, error) {
	if doc.MediaType == models.MediaTypeImage {
		return 1, nil
	}
	total, err := s.engine.PageCount(data)
	if err != nil {
		return 0, err
	}
	if total <= 0 {
		return 0, fmt.Errorf("document has no pages")
	}
	return total, nil
}

// processPage produces the artifact for one page, uploads it, and
// creates the Page record. Returns the artifact URL.
func (s *ConversionService) processPage(ctx context.Context, doc *models.Document, data []byte, pageNumber int) (string, error) {
	var (
		artifact    []byte
		ext         string
		contentType string
		text        string
		err         error
	)
	if doc.MediaType == models.MediaTypeImage {
		// Single-page image documents pass the original through.
		artifact, ext, contentType = data, ".png", "image/png"
	} else {
		artifact, ext, contentType, err = s.engine.ExtractPage(data, pageNumber)
		if err != nil {
			return "", fmt.Errorf("extract page: %w", err)
		}
		text, err = s.engine.ExtractPageText(data, pageNumber)
		if err != nil {
			// Text is optional on a page; the artifact alone is enough.
			logging.ForDocument(doc.ID).Warn("page text extraction failed",
				"page", pageNumber, "error", err)
			text = ""
		}
	}

	key := s.keys.PageImageKey(doc.ID, pageNumber, ext)
	if err := s.store.UploadObject(ctx, key, artifact, contentType); err != nil {
		return "", fmt.Errorf("upload page artifact: %w", err)
	}
	url := s.store.PublicObjectURL(key)

	page := &models.Page{
		ID:            uuid.New().String(),
		DocumentID:    doc.ID,
		PageNumber:    pageNumber,
		ImageKey:      key,
		ImageURL:      url,
		ExtractedText: text,
	}
	if err := s.pageRepo.Create(ctx, page); err != nil {
		return "", fmt.Errorf("create page record: %w", err)
	}
	return url, nil
}

func (s *ConversionService) updateProgress(ctx context.Context, doc *models.Document, progress float64, completed, failed, total int) {
	if err := s.docRepo.UpdateProgress(ctx, doc.ID, progress); err != nil {
		logging.ForDocument(doc.ID).Warn("fail updating progress", "error", err)
	}
	s.publishProgress(doc, models.EventDocumentProgress, &models.ProgressInfo{
		PagesCompleted: completed,
		PagesFailed:    failed,
		TotalPages:     total,
		Percentage:     int(progress),
	}, "converting pages")
}

// reject handles fatal errors raised before the document row could be
// loaded; only the audit entry and the failure payload are possible.
func (s *ConversionService) reject(ctx context.Context, log *slog.Logger, documentID, message string) *models.ConversionResult {
	log.Error("conversion rejected", "error", message)
	if documentID != "" {
		s.logService.Error(ctx, documentID, conversionAction+" failed", message)
	}
	return &models.ConversionResult{Success: false, Error: message}
}

// fail applies the processing -> failed transition with its audit entry
// and returns the non-success result. No per-page work happens after.
func (s *ConversionService) fail(ctx context.Context, log *slog.Logger, doc *models.Document, message string) *models.ConversionResult {
	log.Error("conversion failed", "error", message)
	if err := s.docRepo.UpdateFields(ctx, doc.ID, map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": message,
	}); err != nil {
		logging.ForDocument(doc.ID).Error("failed to mark document failed", "error", err)
	}
	s.logService.Error(ctx, doc.ID, conversionAction+" failed", message)
	s.publishProgress(doc, models.EventDocumentFailed, nil, message)
	return &models.ConversionResult{Success: false, Error: message}
}

func (s *ConversionService) publishProgress(doc *models.Document, eventType models.DocumentEventType, progress *models.ProgressInfo, message string) {
	if s.publisher == nil {
		return
	}
	status := models.StatusProcessing
	switch eventType {
	case models.EventDocumentProcessed:
		status = models.StatusProcessed
	case models.EventDocumentFailed:
		status = models.StatusFailed
	}
	if err := s.publisher.PublishDocumentEvent(&models.DocumentEvent{
		Type:     eventType,
		DocID:    doc.ID,
		UserID:   doc.UserID,
		Status:   status,
		Message:  message,
		Progress: progress,
	}); err != nil {
		logging.ForDocument(doc.ID).Warn("fail publishing event", "error", err)
	}
}
