package models

import "time"

type DocumentEventType string

const (
	EventDocumentUploaded   DocumentEventType = "uploaded"
	EventDocumentProcessing DocumentEventType = "processing"
	EventDocumentProgress   DocumentEventType = "progress"
	EventDocumentProcessed  DocumentEventType = "processed"
	EventDocumentFailed     DocumentEventType = "failed"
)

type ProgressInfo struct {
	PagesCompleted int `json:"pages_completed"`
	PagesFailed    int `json:"pages_failed"`
	TotalPages     int `json:"total_pages"`
	Percentage     int `json:"percentage"`
}

type DocumentEvent struct {
	Type      DocumentEventType `json:"type"`
	DocID     string            `json:"doc_id"`
	UserID    string            `json:"user_id"`
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Progress  *ProgressInfo     `json:"progress,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
