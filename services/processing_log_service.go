package services

import (
	"context"

	"docpipe_backend/models"
	"docpipe_backend/pkg/logging"
	"docpipe_backend/repository"

	"github.com/google/uuid"
)

// ProcessingLogService appends to the per-document audit trail.
// Appends are at-least-once best-effort: a failed write is logged and
// swallowed so it can never roll back the state transition it records.
type ProcessingLogService struct {
	logRepo repository.ProcessingLogRepository
}

func NewProcessingLogService(logRepo repository.ProcessingLogRepository) *ProcessingLogService {
	return &ProcessingLogService{logRepo: logRepo}
}

func (s *ProcessingLogService) Record(ctx context.Context, documentID, action, status, message string) {
	entry := &models.ProcessingLogEntry{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		Action:     action,
		Status:     status,
		Message:    message,
	}
	if err := s.logRepo.Append(ctx, entry); err != nil {
		logging.Logger.Error("fail appending processing log",
			"documentID", documentID,
			"action", action,
			"error", err,
		)
	}
}

func (s *ProcessingLogService) Success(ctx context.Context, documentID, action, message string) {
	s.Record(ctx, documentID, action, models.LogStatusSuccess, message)
}

func (s *ProcessingLogService) Error(ctx context.Context, documentID, action, message string) {
	s.Record(ctx, documentID, action, models.LogStatusError, message)
}

func (s *ProcessingLogService) List(ctx context.Context, documentID string) ([]*models.ProcessingLogEntry, error) {
	return s.logRepo.ListByDocument(ctx, documentID)
}
