package storage

import (
	"context"

	"secando/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// RecordPayment appends a ledger row, ignoring a duplicate transaction id.
// Returns false when the row already existed (webhook replay).
func (s *Store) RecordPayment(ctx context.Context, payment *models.Payment) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}},
			DoNothing: true,
		}).
		Create(payment)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// EnsureProfile inserts the starter profile if absent and is a no-op when one
// already exists. A blind upsert here would reset current_day/total_points on
// webhook replay after the user has progressed through the program.
func (s *Store) EnsureProfile(ctx context.Context, profile *models.UserProfile) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(profile)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
