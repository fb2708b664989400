// Package domain defines the core persistence models for the application.
// This file contains the quiz aggregate: quizzes and their questions, linked
// many-to-many.
package domain

import "time"

// Quiz groups a set of questions under a title for a given date.
type Quiz struct {
	ID          uint      `json:"id"          gorm:"primaryKey"`
	Title       string    `json:"title"       gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text"`
	Date        time.Time `json:"date"        gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Questions []Question `json:"questions,omitempty" gorm:"many2many:quiz_questions"`
}

// TableName returns the database table name for Quiz.
func (Quiz) TableName() string { return "quizzes" }

// Question is a single quiz prompt about a catalog character. PromptData
// carries the type-specific payload (e.g. a quote or an image URL) and
// ExternalCharacterID references the third-party catalog, not the local
// characters table.
type Question struct {
	ID                  uint      `json:"id"                    gorm:"primaryKey"`
	Type                string    `json:"type"                  gorm:"type:varchar(64);not null"`
	ExternalCharacterID int       `json:"external_character_id" gorm:"not null"`
	CorrectAnswer       string    `json:"correct_answer"        gorm:"type:varchar(255);not null"`
	PromptData          string    `json:"prompt_data"           gorm:"type:varchar(255);not null"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`

	Quizzes []Quiz `json:"-" gorm:"many2many:quiz_questions"`
}

// TableName returns the database table name for Question.
func (Question) TableName() string { return "questions" }
