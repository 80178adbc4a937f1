package models

import "gorm.io/gorm"

// ContactMessage is a submission from the public contact form.
// Submissions that trip the honeypot field are never stored.
type ContactMessage struct {
	gorm.Model

	Name    string `gorm:"not null" json:"name"`
	Email   string `gorm:"not null;index" json:"email"`
	Message string `gorm:"not null" json:"message"`

	// Forwarded records whether the notification email to the sales
	// inbox went out; a send failure leaves the row with false.
	Forwarded bool `gorm:"default:false" json:"forwarded"`
}
