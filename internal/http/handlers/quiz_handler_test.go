package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/titandle/titandle-backend/internal/domain"
	"github.com/titandle/titandle-backend/internal/services"
)

func TestCreateQuiz_DateHandling(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var gotDate time.Time
	h := newStubHandlers(nil, nil, nil, nil, stubQuizSvc{
		createQuiz: func(_ context.Context, title, description string, date time.Time) (*domain.Quiz, error) {
			gotDate = date
			return &domain.Quiz{ID: 1, Title: title, Description: description, Date: date}, nil
		},
	})
	r := gin.New()
	r.POST("/quizzes", h.CreateQuiz)

	// Malformed date -> 400
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/quizzes",
		bytes.NewBufferString(`{"title":"Quiz","date":"14/07/2025"}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad date -> %d", w.Code)
	}

	// Explicit date is passed through
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/quizzes",
		bytes.NewBufferString(`{"title":"Quiz","date":"2025-07-14"}`)))
	if w.Code != http.StatusCreated {
		t.Fatalf("create -> %d body=%s", w.Code, w.Body.String())
	}
	if gotDate.Format(domain.DateLayout) != "2025-07-14" {
		t.Fatalf("date = %v", gotDate)
	}

	// Blank date reaches the service as the zero time (service defaults to today)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/quizzes",
		bytes.NewBufferString(`{"title":"Quiz"}`)))
	if w.Code != http.StatusCreated {
		t.Fatalf("create blank date -> %d", w.Code)
	}
	if !gotDate.IsZero() {
		t.Fatalf("expected zero date, got %v", gotDate)
	}
}

func TestGetQuiz_NotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newStubHandlers(nil, nil, nil, nil, stubQuizSvc{
		getQuiz: func(context.Context, uint) (*domain.Quiz, error) {
			return nil, services.ErrQuizNotFound
		},
	})
	r := gin.New()
	r.GET("/quizzes/:id", h.GetQuiz)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quizzes/99", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing quiz -> %d", w.Code)
	}
}

func TestAttachDetachQuestion(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var attached [2]uint
	h := newStubHandlers(nil, nil, nil, nil, stubQuizSvc{
		attach: func(_ context.Context, quizID, questionID uint) error {
			if quizID == 99 {
				return services.ErrQuizNotFound
			}
			attached = [2]uint{quizID, questionID}
			return nil
		},
		detach: func(_ context.Context, quizID, questionID uint) error {
			if questionID == 99 {
				return services.ErrQuestionNotFound
			}
			return nil
		},
	})
	r := gin.New()
	r.POST("/quizzes/:id/add-question/:questionId", h.AttachQuestion)
	r.POST("/quizzes/:id/remove-question/:questionId", h.DetachQuestion)

	// Attach success -> 204
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/quizzes/3/add-question/7", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("attach -> %d", w.Code)
	}
	if attached != [2]uint{3, 7} {
		t.Fatalf("attach ids = %v", attached)
	}

	// Unknown quiz -> 404
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/quizzes/99/add-question/7", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("attach missing quiz -> %d", w.Code)
	}

	// Detach unknown question -> 404
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/quizzes/3/remove-question/99", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("detach missing question -> %d", w.Code)
	}

	// Bad id -> 400 before the service is hit
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/quizzes/abc/add-question/7", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id -> %d", w.Code)
	}
}

func TestCreateQuestion_Validation_And_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Missing required fields -> 400
	{
		h := newStubHandlers(nil, nil, nil, nil, nil)
		r := gin.New()
		r.POST("/questions", h.CreateQuestion)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/questions",
			bytes.NewBufferString(`{"type":"identity"}`)))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("missing fields -> %d", w.Code)
		}
	}

	// Success -> 201 with trimmed type
	{
		var savedType string
		h := newStubHandlers(nil, nil, nil, nil, stubQuizSvc{
			createQuestion: func(_ context.Context, q *domain.Question) error {
				savedType = q.Type
				q.ID = 12
				return nil
			},
		})
		r := gin.New()
		r.POST("/questions", h.CreateQuestion)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/questions",
			bytes.NewBufferString(`{"type":" identity ","external_character_id":87,"correct_answer":"Levi Ackermann","prompt_data":"Who is this character?"}`)))
		if w.Code != http.StatusCreated {
			t.Fatalf("create -> %d body=%s", w.Code, w.Body.String())
		}
		if savedType != "identity" {
			t.Fatalf("type = %q", savedType)
		}
		var out domain.Question
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.ID != 12 || out.ExternalCharacterID != 87 {
			t.Fatalf("unexpected question: %#v", out)
		}
	}
}

func TestDeleteQuestion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newStubHandlers(nil, nil, nil, nil, stubQuizSvc{
		deleteQuestion: func(_ context.Context, id uint) error {
			if id == 404 {
				return services.ErrQuestionNotFound
			}
			return nil
		},
	})
	r := gin.New()
	r.DELETE("/questions/:id", h.DeleteQuestion)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/questions/404", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing -> %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/questions/12", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete -> %d", w.Code)
	}
}

func TestListQuizzes_And_Questions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newStubHandlers(nil, nil, nil, nil, stubQuizSvc{
		listQuizzes: func(context.Context) ([]domain.Quiz, error) {
			return []domain.Quiz{{ID: 1, Title: "Daily quiz 2025-07-14"}}, nil
		},
		listQuestions: func(context.Context) ([]domain.Question, error) {
			return []domain.Question{{ID: 12, Type: "identity"}}, nil
		},
	})
	r := gin.New()
	r.GET("/quizzes", h.ListQuizzes)
	r.GET("/questions", h.ListQuestions)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quizzes", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("quizzes -> %d", w.Code)
	}
	var quizzes []domain.Quiz
	if err := json.Unmarshal(w.Body.Bytes(), &quizzes); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(quizzes) != 1 || quizzes[0].Title != "Daily quiz 2025-07-14" {
		t.Fatalf("unexpected quizzes: %#v", quizzes)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/questions", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("questions -> %d", w.Code)
	}
	var questions []domain.Question
	if err := json.Unmarshal(w.Body.Bytes(), &questions); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(questions) != 1 || questions[0].Type != "identity" {
		t.Fatalf("unexpected questions: %#v", questions)
	}
}
