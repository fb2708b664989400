// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/titandle/titandle-backend/internal/domain"
)

// CreateUser inserts a new user row. Username and email uniqueness are
// enforced by the schema; a violation surfaces as ErrDuplicate.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetUserByID fetches a user by primary key, or ErrNotFound.
func GetUserByID(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByLogin fetches a user whose username or email equals login,
// or ErrNotFound. Login endpoints accept either identifier.
func GetUserByLogin(ctx context.Context, db *gorm.DB, login string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("username = ? OR email = ?", login, login).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername fetches a user by username, or ErrNotFound.
func GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a user by email, or ErrNotFound.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// TouchUserLogin records a successful login and rotates the API token when
// a non-empty token is supplied.
func TouchUserLogin(ctx context.Context, db *gorm.DB, id uint, apiToken string, at time.Time) error {
	updates := map[string]any{"last_login": at.UTC()}
	if apiToken != "" {
		updates["api_token"] = apiToken
	}
	return db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(updates).Error
}

// ClearUserAPIToken invalidates the user's API token (logout).
func ClearUserAPIToken(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("api_token", "").Error
}
