package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	LogStatusSuccess = "success"
	LogStatusError   = "error"
)

// ProcessingLogEntry is the append-only audit trail of actions taken
// against a document. Entries are never updated or deleted; a failed
// append must not roll back the state transition it describes.
type ProcessingLogEntry struct {
	ID         string `gorm:"column:id;type:varchar(255);primaryKey" json:"id"`
	DocumentID string `gorm:"column:document_id;type:varchar(255);not null;index:idx_log_document_id" json:"document_id"`

	Action  string `gorm:"column:action;type:varchar(255);not null" json:"action"`
	Status  string `gorm:"column:status;type:varchar(20);not null" json:"status"`
	Message string `gorm:"column:message;type:text" json:"message"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp" json:"created_at"`
}

func (ProcessingLogEntry) TableName() string {
	return "processing_logs"
}

func (e *ProcessingLogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return nil
}
