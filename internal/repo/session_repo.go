// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// GameSession model, including the leaderboard query.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/titandle/titandle-backend/internal/domain"
)

// CreateSession inserts a new game session pinned to the given daily
// character.
func CreateSession(ctx context.Context, db *gorm.DB, player string, characterID uint, startedAt time.Time) (*domain.GameSession, error) {
	s := &domain.GameSession{
		Player:      player,
		StartedAt:   startedAt.UTC(),
		Won:         false,
		CharacterID: characterID,
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// GetSession fetches a session by id with its target character preloaded,
// or ErrNotFound.
func GetSession(ctx context.Context, db *gorm.DB, id uint) (*domain.GameSession, error) {
	var s domain.GameSession
	err := db.WithContext(ctx).Preload("Character").First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FinishSession records the end of a session: end time, duration, and
// outcome. Returns ErrNotFound if the session does not exist.
func FinishSession(ctx context.Context, db *gorm.DB, id uint, endedAt time.Time, durationSeconds int, won bool) error {
	end := endedAt.UTC()
	res := db.WithContext(ctx).Model(&domain.GameSession{}).Where("id = ?", id).
		Updates(map[string]any{
			"ended_at":         end,
			"duration_seconds": durationSeconds,
			"won":              won,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Leaderboard returns the fastest winning sessions, shortest duration
// first, with target characters preloaded.
func Leaderboard(ctx context.Context, db *gorm.DB, limit int) ([]domain.GameSession, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []domain.GameSession
	err := db.WithContext(ctx).
		Preload("Character").
		Where("won = ?", true).
		Where("duration_seconds IS NOT NULL").
		Order("duration_seconds ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
