// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Character
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a character is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - Unique-index violations are normalized to ErrDuplicate; other DB
//     errors (connectivity issues, etc.) propagate as the raw gorm error.
//
// The one non-obvious operation is CreateOrGetCharacterByName: it leans on
// the UNIQUE index on characters.name so that two concurrent imports of the
// same character converge on a single row; the loser of the insert race
// detects the duplicate violation and re-reads the winner.
package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/titandle/titandle-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations,
// so the message is inspected in addition to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// CreateCharacter inserts a new character row. The caller is responsible
// for field validation; the UNIQUE index on name rejects duplicates,
// which surface as ErrDuplicate.
func CreateCharacter(ctx context.Context, db *gorm.DB, c *domain.Character) error {
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetCharacterByID fetches a single character by primary key, or
// ErrNotFound if missing.
func GetCharacterByID(ctx context.Context, db *gorm.DB, id uint) (*domain.Character, error) {
	var c domain.Character
	if err := db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCharacterByName fetches a single character by exact name, or
// ErrNotFound if missing.
func GetCharacterByName(ctx context.Context, db *gorm.DB, name string) (*domain.Character, error) {
	var c domain.Character
	if err := db.WithContext(ctx).Where("name = ?", name).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CountCharacters returns the total number of stored characters.
func CountCharacters(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Character{}).Count(&total).Error
	return total, err
}

// ListCharactersPage returns characters ordered by id. Pass desc=true for
// newest-first. Limit <= 0 means no limit.
func ListCharactersPage(ctx context.Context, db *gorm.DB, desc bool, limit, offset int) ([]domain.Character, error) {
	order := "id ASC"
	if desc {
		order = "id DESC"
	}
	q := db.WithContext(ctx).Order(order).Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []domain.Character
	err := q.Find(&out).Error
	return out, err
}

// LatestCharacter returns the most recently inserted character (highest
// id), or ErrNotFound when the table is empty.
func LatestCharacter(ctx context.Context, db *gorm.DB) (*domain.Character, error) {
	var c domain.Character
	if err := db.WithContext(ctx).Order("id DESC").First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// SampleRandomCharacters returns up to n characters drawn uniformly at
// random, independent of insertion order. The selection happens in the
// database (ORDER BY RANDOM()) so the full table is never loaded.
func SampleRandomCharacters(ctx context.Context, db *gorm.DB, n int) ([]domain.Character, error) {
	var out []domain.Character
	err := db.WithContext(ctx).Order("RANDOM()").Limit(n).Find(&out).Error
	return out, err
}

// SearchCharactersLocal performs a case-insensitive substring match on
// name. Quote characters are stripped from the input so a pasted name can
// never alter the LIKE pattern's meaning.
func SearchCharactersLocal(ctx context.Context, db *gorm.DB, name string) ([]domain.Character, error) {
	clean := strings.TrimSpace(strings.NewReplacer(`"`, "", `'`, "").Replace(name))
	var out []domain.Character
	err := db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", "%"+strings.ToLower(clean)+"%").
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// CreateOrGetCharacterByName inserts c unless a character with the same
// name already exists, in which case the existing row is returned
// unchanged (fields from the fresher import never overwrite stored data).
// The returned bool is true when a new row was created.
//
// Safe under concurrent duplicate imports: the name UNIQUE index arbitrates
// the race and the losing insert re-reads the winning row.
func CreateOrGetCharacterByName(ctx context.Context, db *gorm.DB, c *domain.Character) (*domain.Character, bool, error) {
	existing, err := GetCharacterByName(ctx, db, c.Name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			winner, getErr := GetCharacterByName(ctx, db, c.Name)
			if getErr != nil {
				return nil, false, getErr
			}
			return winner, false, nil
		}
		return nil, false, err
	}
	return c, true, nil
}

// UpdateCharacter persists administrative edits to an existing row.
// Returns ErrNotFound if the character does not exist.
func UpdateCharacter(ctx context.Context, db *gorm.DB, c *domain.Character) error {
	res := db.WithContext(ctx).Model(&domain.Character{}).Where("id = ?", c.ID).
		Select("name", "image", "species", "gender", "age", "status").
		Updates(c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCharacter removes a character by id. Returns ErrNotFound if no row
// was deleted.
func DeleteCharacter(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Character{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
