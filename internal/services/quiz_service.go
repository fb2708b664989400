// Package services – QuizService
//
// Thin orchestration over the quiz aggregate: quizzes, questions, and their
// many-to-many links. No caching; quiz content changes through
// administrative endpoints only.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/titandle/titandle-backend/internal/domain"
	"github.com/titandle/titandle-backend/internal/repo"
)

// QuizRepo defines the repository contract required by QuizService.
type QuizRepo interface {
	CreateQuiz(ctx context.Context, db *gorm.DB, q *domain.Quiz) error
	GetQuiz(ctx context.Context, db *gorm.DB, id uint) (*domain.Quiz, error)
	ListQuizzes(ctx context.Context, db *gorm.DB) ([]domain.Quiz, error)
	AttachQuestion(ctx context.Context, db *gorm.DB, quizID, questionID uint) error
	DetachQuestion(ctx context.Context, db *gorm.DB, quizID, questionID uint) error
	CreateQuestion(ctx context.Context, db *gorm.DB, q *domain.Question) error
	GetQuestion(ctx context.Context, db *gorm.DB, id uint) (*domain.Question, error)
	ListQuestions(ctx context.Context, db *gorm.DB) ([]domain.Question, error)
	DeleteQuestion(ctx context.Context, db *gorm.DB, id uint) error
}

// QuizService manages quizzes and their questions.
type QuizService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the quiz repository used by this service.
	Repo QuizRepo
}

// NewQuizService constructs a QuizService.
func NewQuizService(db *gorm.DB, r QuizRepo) *QuizService {
	return &QuizService{DB: db, Repo: r}
}

// CreateQuiz inserts a new quiz. A blank title falls back to a dated
// default; a zero date becomes today.
func (s *QuizService) CreateQuiz(ctx context.Context, title, description string, date time.Time) (*domain.Quiz, error) {
	if date.IsZero() {
		date = time.Now().UTC()
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Quiz " + domain.DateKey(date)
	}
	q := &domain.Quiz{Title: title, Description: strings.TrimSpace(description), Date: date}
	if err := s.Repo.CreateQuiz(ctx, s.DB, q); err != nil {
		return nil, err
	}
	return q, nil
}

// GetQuiz fetches a quiz with its questions.
func (s *QuizService) GetQuiz(ctx context.Context, id uint) (*domain.Quiz, error) {
	q, err := s.Repo.GetQuiz(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrQuizNotFound
	}
	return q, err
}

// ListQuizzes returns all quizzes, newest date first.
func (s *QuizService) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.Repo.ListQuizzes(ctx, s.DB)
}

// AttachQuestion links a question to a quiz. Both must exist.
func (s *QuizService) AttachQuestion(ctx context.Context, quizID, questionID uint) error {
	err := s.Repo.AttachQuestion(ctx, s.DB, quizID, questionID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrQuizNotFound
	}
	return err
}

// DetachQuestion unlinks a question from a quiz.
func (s *QuizService) DetachQuestion(ctx context.Context, quizID, questionID uint) error {
	err := s.Repo.DetachQuestion(ctx, s.DB, quizID, questionID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrQuizNotFound
	}
	return err
}

// CreateQuestion inserts a new question.
func (s *QuizService) CreateQuestion(ctx context.Context, q *domain.Question) error {
	return s.Repo.CreateQuestion(ctx, s.DB, q)
}

// GetQuestion fetches a question by id.
func (s *QuizService) GetQuestion(ctx context.Context, id uint) (*domain.Question, error) {
	q, err := s.Repo.GetQuestion(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrQuestionNotFound
	}
	return q, err
}

// ListQuestions returns all questions.
func (s *QuizService) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	return s.Repo.ListQuestions(ctx, s.DB)
}

// DeleteQuestion removes a question.
func (s *QuizService) DeleteQuestion(ctx context.Context, id uint) error {
	err := s.Repo.DeleteQuestion(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrQuestionNotFound
	}
	return err
}
