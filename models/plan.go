package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plan is one pricing tier shown on the marketing page. Plans are
// created and deleted by admins but never edited in place; display
// order is computed (primary first, then oldest first), not stored.
type Plan struct {
	ID   string `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`

	// Price is display text, e.g. "$49/mo" or the literal "Contact".
	Price string `gorm:"not null" json:"price"`

	// Features is the comma-joined feature text as stored, already
	// normalized ("a, b, c") at creation time.
	Features string `json:"features"`

	IsPrimary bool      `gorm:"default:false" json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Plan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// FeatureList splits the stored feature text into its display items,
// dropping anything that trims to empty.
func (p *Plan) FeatureList() []string {
	var features []string
	for _, part := range strings.Split(p.Features, ",") {
		if part = strings.TrimSpace(part); part != "" {
			features = append(features, part)
		}
	}
	return features
}
