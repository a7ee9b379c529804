package services

import (
	"context"
	"sync"
	"time"

	"docpipe_backend/models"
	"docpipe_backend/pkg/logging"
)

// UploadTrackerService keeps the ephemeral per-document upload state the
// UI polls while a file moves through the pipeline. It mirrors remote
// events for display only; the persisted Document status stays the
// source of truth. Tasks live in memory and die with the process.
type UploadTrackerService struct {
	mu    sync.RWMutex
	tasks map[string]*models.UploadTask
}

func NewUploadTrackerService() *UploadTrackerService {
	return &UploadTrackerService{
		tasks: make(map[string]*models.UploadTask),
	}
}

func (t *UploadTrackerService) Start(documentID, fileName string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tasks[documentID] = &models.UploadTask{
		DocumentID: documentID,
		FileName:   fileName,
		Status:     models.UploadStatusPending,
		UpdatedAt:  time.Now(),
	}
}

// SetProgress applies a progress callback. Only forward movement is
// kept; a late lower percentage is dropped so the bar never flickers
// backwards.
func (t *UploadTrackerService) SetProgress(documentID string, progress float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	task, ok := t.tasks[documentID]
	if !ok {
		return
	}
	if progress < task.Progress {
		return
	}
	if progress > 100 {
		progress = 100
	}
	task.Progress = progress
	if task.Status == models.UploadStatusPending {
		task.Status = models.UploadStatusUploading
	}
	task.UpdatedAt = time.Now()
}

func (t *UploadTrackerService) SetProcessing(documentID string, currentPage, totalPages int, progress float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	task, ok := t.tasks[documentID]
	if !ok {
		return
	}
	task.Status = models.UploadStatusProcessing
	task.CurrentPage = currentPage
	task.TotalPages = totalPages
	if progress >= task.Progress {
		task.Progress = progress
	}
	task.UpdatedAt = time.Now()
}

// ResetProcessing re-enters the processing state with progress back at
// zero, as happens on an explicit retry.
func (t *UploadTrackerService) ResetProcessing(documentID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	task, ok := t.tasks[documentID]
	if !ok {
		return
	}
	task.Status = models.UploadStatusProcessing
	task.Progress = 0
	task.CurrentPage = 0
	task.TotalPages = 0
	task.Error = ""
	task.UpdatedAt = time.Now()
}

func (t *UploadTrackerService) SetComplete(documentID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	task, ok := t.tasks[documentID]
	if !ok {
		return
	}
	task.Status = models.UploadStatusComplete
	task.Progress = 100
	task.Error = ""
	task.UpdatedAt = time.Now()
}

func (t *UploadTrackerService) SetError(documentID, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	task, ok := t.tasks[documentID]
	if !ok {
		return
	}
	task.Status = models.UploadStatusError
	task.Error = message
	task.UpdatedAt = time.Now()
}

// Get returns a copy so callers never share the tracked struct.
func (t *UploadTrackerService) Get(documentID string) (models.UploadTask, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	task, ok := t.tasks[documentID]
	if !ok {
		return models.UploadTask{}, false
	}
	return *task, true
}

func (t *UploadTrackerService) Remove(documentID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tasks, documentID)
}

// Consume mirrors published document events into the tracked tasks
// until ctx is cancelled.
func (t *UploadTrackerService) Consume(ctx context.Context, events <-chan *models.DocumentEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			t.apply(event)
		}
	}
}

func (t *UploadTrackerService) apply(event *models.DocumentEvent) {
	switch event.Type {
	case models.EventDocumentUploaded:
		t.SetProgress(event.DocID, 100)
	case models.EventDocumentProcessing:
		// A (re)entered processing run starts its climb from zero.
		t.ResetProcessing(event.DocID)
	case models.EventDocumentProgress:
		if event.Progress != nil {
			done := event.Progress.PagesCompleted + event.Progress.PagesFailed
			t.SetProcessing(event.DocID, done, event.Progress.TotalPages, float64(event.Progress.Percentage))
		}
	case models.EventDocumentProcessed:
		t.SetComplete(event.DocID)
	case models.EventDocumentFailed:
		t.SetError(event.DocID, event.Message)
	}
}

// Sweep drops terminal tasks untouched for longer than maxAge.
func (t *UploadTrackerService) Sweep(maxAge time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := time.Now().Add(-maxAge)
	for id, task := range t.tasks {
		terminal := task.Status == models.UploadStatusComplete || task.Status == models.UploadStatusError
		if terminal && task.UpdatedAt.Before(cutoff) {
			delete(t.tasks, id)
		}
	}
}

// RunSweeper sweeps on an interval until ctx is cancelled.
func (t *UploadTrackerService) RunSweeper(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep(maxAge)
			logging.Logger.Debug("upload tracker sweep done")
		}
	}
}
