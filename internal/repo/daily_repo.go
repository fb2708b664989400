// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// DailyCharacter binding (one character per calendar date).
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/titandle/titandle-backend/internal/domain"
)

// GetDailyByDate returns the binding for the given date key ("2006-01-02"),
// with its character preloaded, or ErrNotFound.
func GetDailyByDate(ctx context.Context, db *gorm.DB, date string) (*domain.DailyCharacter, error) {
	var d domain.DailyCharacter
	err := db.WithContext(ctx).
		Preload("Character").
		Where("date = ?", date).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDaily binds characterID to the given date key. The UNIQUE indexes
// on date and on character_id make bindings immutable facts: a second
// binding for the same date (or a repeat appearance of the same character)
// returns ErrDuplicate, and callers re-read the existing row instead.
func CreateDaily(ctx context.Context, db *gorm.DB, characterID uint, date string) (*domain.DailyCharacter, error) {
	d := &domain.DailyCharacter{
		CharacterID: characterID,
		Date:        date,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return d, nil
}

// ListDailyHistory returns past bindings newest-first, characters
// preloaded. Limit <= 0 means no limit.
func ListDailyHistory(ctx context.Context, db *gorm.DB, limit int) ([]domain.DailyCharacter, error) {
	q := db.WithContext(ctx).Preload("Character").Order("date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []domain.DailyCharacter
	err := q.Find(&out).Error
	return out, err
}
