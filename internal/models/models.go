package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment is one ledger row per purchase. TransactionID is the provider's
// identifier and the idempotency key: webhook re-delivery must never create a
// second row for the same transaction.
type Payment struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Email         string    `gorm:"not null"`
	TransactionID string    `gorm:"uniqueIndex;not null"`
	Amount        float64   `gorm:"not null"`
	Currency      string    `gorm:"not null"`
	Status        string    `gorm:"not null"`
	ProductID     string
	PaymentMethod string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// UserProfile holds the 21-day program state. The ID is the auth user id, not
// a generated key. The webhook only ever writes the starter values; progress
// fields are mutated later by the app itself.
type UserProfile struct {
	ID                     uuid.UUID `gorm:"type:uuid;primary_key;"`
	Name                   string    `gorm:"not null"`
	Email                  string    `gorm:"unique;not null"`
	HasCompletedOnboarding bool      `gorm:"default:false"`
	CurrentDay             int       `gorm:"default:1"`
	StartDate              time.Time
	TotalPoints            int `gorm:"default:0"`
	Streak                 int `gorm:"default:0"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
