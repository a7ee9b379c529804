package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Document lifecycle status constants
const (
	StatusUploading  = "uploading"
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusFailed     = "failed"
)

const (
	MediaTypePDF   = "pdf"
	MediaTypeImage = "image"
)

type Document struct {
	ID       string `gorm:"column:id;type:varchar(255);primaryKey" json:"id"`
	UserID   string `gorm:"column:user_id;type:varchar(255);not null;index:idx_doc_user_id" json:"user_id"`
	Filename string `gorm:"column:filename;type:varchar(512);not null" json:"filename"`

	MediaType string `gorm:"column:media_type;type:varchar(20);default:'pdf'" json:"media_type"`
	FileKey   string `gorm:"column:file_key;type:varchar(255)" json:"file_key"`
	FileSize  int64  `gorm:"column:file_size;type:bigint" json:"file_size"`

	OriginalURL   string         `gorm:"column:original_url;type:text" json:"original_url"`
	ThumbnailURLs pq.StringArray `gorm:"column:thumbnail_urls;type:text[]" json:"thumbnail_urls"`
	PageCount     int            `gorm:"column:page_count;type:int" json:"page_count"`
	Transcription string         `gorm:"column:transcription;type:text" json:"transcription"`

	Status             string  `gorm:"column:status;type:varchar(30);default:'uploading';index:idx_doc_status" json:"status"`
	ProcessingProgress float64 `gorm:"column:processing_progress;type:float;default:0" json:"processing_progress"`
	ErrorMessage       string  `gorm:"column:error_message;type:text" json:"error_message"`

	PipelineID *string `gorm:"column:pipeline_id;type:varchar(255)" json:"pipeline_id,omitempty"`

	CreatedAt   time.Time  `gorm:"column:created_at;type:timestamp" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;type:timestamp" json:"updated_at"`
	ProcessedAt *time.Time `gorm:"column:processed_at;type:timestamp" json:"processed_at,omitempty"`
}

func (Document) TableName() string {
	return "documents"
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.Status == "" {
		d.Status = StatusUploading
	}
	if d.MediaType == "" {
		d.MediaType = MediaTypePDF
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	return nil
}

func (d *Document) IsProcessed() bool {
	return d.Status == StatusProcessed
}

func (d *Document) IsFailed() bool {
	return d.Status == StatusFailed
}

func (d *Document) IsProcessing() bool {
	return d.Status == StatusProcessing
}

// MarkProcessed applies the terminal success transition in memory.
// Progress lands on exactly 100 and any prior error is cleared.
func (d *Document) MarkProcessed() {
	now := time.Now()
	d.Status = StatusProcessed
	d.ProcessingProgress = 100
	d.ErrorMessage = ""
	d.ProcessedAt = &now
}

// MarkFailed applies the failure transition in memory. The message is
// required: failed documents always carry a non-empty error.
func (d *Document) MarkFailed(message string) {
	if message == "" {
		message = "processing failed"
	}
	d.Status = StatusFailed
	d.ErrorMessage = message
}

// MarkProcessing re-enters the processing state for a fresh or retried
// run: progress resets to zero and the previous error is cleared.
func (d *Document) MarkProcessing() {
	d.Status = StatusProcessing
	d.ProcessingProgress = 0
	d.ErrorMessage = ""
}
