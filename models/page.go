package models

import (
	"time"

	"gorm.io/gorm"
)

// Page is one extracted page of a Document. Pages are created by the
// conversion worker only and deleted transitively with their document.
type Page struct {
	ID         string `gorm:"column:id;type:varchar(255);primaryKey" json:"id"`
	DocumentID string `gorm:"column:document_id;type:varchar(255);not null;uniqueIndex:idx_page_doc_number,priority:1" json:"document_id"`
	PageNumber int    `gorm:"column:page_number;type:int;not null;uniqueIndex:idx_page_doc_number,priority:2" json:"page_number"`

	ImageKey      string `gorm:"column:image_key;type:varchar(255)" json:"image_key"`
	ImageURL      string `gorm:"column:image_url;type:text" json:"image_url"`
	ExtractedText string `gorm:"column:extracted_text;type:text" json:"extracted_text"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp" json:"created_at"`
}

func (Page) TableName() string {
	return "pages"
}

func (p *Page) BeforeCreate(tx *gorm.DB) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	return nil
}
