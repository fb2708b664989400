// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the quiz
// aggregate (quizzes, questions, and their many-to-many link).
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/titandle/titandle-backend/internal/domain"
)

// CreateQuiz inserts a new quiz row.
func CreateQuiz(ctx context.Context, db *gorm.DB, q *domain.Quiz) error {
	return db.WithContext(ctx).Create(q).Error
}

// GetQuiz fetches a quiz with its questions preloaded, or ErrNotFound.
func GetQuiz(ctx context.Context, db *gorm.DB, id uint) (*domain.Quiz, error) {
	var q domain.Quiz
	if err := db.WithContext(ctx).Preload("Questions").First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// ListQuizzes returns all quizzes with questions preloaded, newest date
// first.
func ListQuizzes(ctx context.Context, db *gorm.DB) ([]domain.Quiz, error) {
	var out []domain.Quiz
	err := db.WithContext(ctx).Preload("Questions").Order("date DESC").Find(&out).Error
	return out, err
}

// AttachQuestion links a question to a quiz. Both must exist; a missing
// row surfaces as ErrNotFound.
func AttachQuestion(ctx context.Context, db *gorm.DB, quizID, questionID uint) error {
	quiz, err := GetQuiz(ctx, db, quizID)
	if err != nil {
		return err
	}
	question, err := GetQuestion(ctx, db, questionID)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Model(quiz).Association("Questions").Append(question)
}

// DetachQuestion unlinks a question from a quiz. Both must exist; the link
// itself is not required to.
func DetachQuestion(ctx context.Context, db *gorm.DB, quizID, questionID uint) error {
	quiz, err := GetQuiz(ctx, db, quizID)
	if err != nil {
		return err
	}
	question, err := GetQuestion(ctx, db, questionID)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Model(quiz).Association("Questions").Delete(question)
}

// CreateQuestion inserts a new question row.
func CreateQuestion(ctx context.Context, db *gorm.DB, q *domain.Question) error {
	return db.WithContext(ctx).Create(q).Error
}

// GetQuestion fetches a question by id, or ErrNotFound.
func GetQuestion(ctx context.Context, db *gorm.DB, id uint) (*domain.Question, error) {
	var q domain.Question
	if err := db.WithContext(ctx).First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// ListQuestions returns all questions ordered by id.
func ListQuestions(ctx context.Context, db *gorm.DB) ([]domain.Question, error) {
	var out []domain.Question
	err := db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}

// DeleteQuestion removes a question by id. Returns ErrNotFound if no row
// was deleted.
func DeleteQuestion(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Question{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
