package models

import "time"

type UploadReq struct {
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
	ContentType string `json:"content_type"`
	PipelineID  string `json:"pipeline_id,omitempty"`
}

type UploadResp struct {
	DocID     string            `json:"doc_id"`
	UploadURL string            `json:"upload_url"`
	FileKey   string            `json:"file_key"`
	Fields    map[string]string `json:"fields,omitempty"`
	Expires   time.Time         `json:"expires"`
	Provider  string            `json:"provider"` // "minio" or "s3"
}

type ConfirmUploadResp struct {
	Message string `json:"message"`
	DocID   string `json:"doc_id"`
	Status  string `json:"status"`
}

// Task kinds carried on the document task queue.
const (
	TaskConvertToImages = "convert_to_images"
	TaskProcessText     = "process_text"
)

// TaskMessage is one unit of work pushed to the queue by the API and
// popped by a background worker.
type TaskMessage struct {
	Kind       string    `json:"kind"`
	DocumentID string    `json:"document_id"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// ConversionResult is the structured outcome of one conversion run.
// Workers never let an error escape past this boundary.
type ConversionResult struct {
	Success    bool     `json:"success"`
	PageCount  int      `json:"page_count"`
	Thumbnails []string `json:"thumbnails,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// TranscriptionResult is the structured outcome of one text aggregation run.
type TranscriptionResult struct {
	Success   bool   `json:"success"`
	PageCount int    `json:"page_count"`
	Error     string `json:"error,omitempty"`
}

// Upload task status constants (ephemeral, never persisted).
const (
	UploadStatusPending    = "pending"
	UploadStatusUploading  = "uploading"
	UploadStatusProcessing = "processing"
	UploadStatusComplete   = "complete"
	UploadStatusError      = "error"
)

// UploadTask mirrors the remote state of one in-flight upload for
// display. The persisted Document status stays authoritative.
type UploadTask struct {
	DocumentID  string    `json:"document_id"`
	FileName    string    `json:"file_name"`
	Progress    float64   `json:"progress"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	CurrentPage int       `json:"current_page,omitempty"`
	TotalPages  int       `json:"total_pages,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
