package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MediaItem is one row of the media catalog. The stored object lives in
// the media bucket under FileName; URL is resolved once at upload time
// and kept redundantly on the row.
type MediaItem struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	FileName  string    `gorm:"not null;uniqueIndex" json:"file_name"`
	URL       string    `gorm:"not null" json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *MediaItem) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
