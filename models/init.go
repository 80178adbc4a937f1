package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Plan{},
		&MediaItem{},
		&ContactMessage{},
	)
}

// SeedDefaultPlans inserts the standard pricing tiers on a fresh
// database so the marketing page is never empty. Existing plans are
// left alone.
func SeedDefaultPlans(db *gorm.DB) error {
	var count int64
	if err := db.Model(&Plan{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	defaultPlans := []Plan{
		{
			Name:      "Starter",
			Price:     "$99/mo",
			Features:  "Patient scheduling, E-prescriptions, Email support",
			CreatedAt: now,
		},
		{
			Name:      "Clinic",
			Price:     "$249/mo",
			Features:  "Everything in Starter, Telehealth visits, Billing integration, Priority support",
			IsPrimary: true,
			CreatedAt: now.Add(time.Second),
		},
		{
			Name:      "Enterprise",
			Price:     "Contact",
			Features:  "Everything in Clinic, Multi-site rollout, Dedicated onboarding, SLA",
			CreatedAt: now.Add(2 * time.Second),
		},
	}

	return db.Create(&defaultPlans).Error
}

// SeedAdminUser creates the dashboard account named by configuration if
// it does not exist yet. Empty credentials skip seeding (useful in
// development where an account already exists).
func SeedAdminUser(db *gorm.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	var existing User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return db.Create(&User{
		Email:        email,
		PasswordHash: string(hashed),
		IsActive:     true,
	}).Error
}
