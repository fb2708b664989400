// Quiz HTTP handlers.
//
// Administrative endpoints for the quiz aggregate:
//   - GET    /quizzes                                     (list)
//   - GET    /quizzes/{id}                                (fetch with questions)
//   - POST   /quizzes                                     (create)
//   - POST   /quizzes/{id}/add-question/{questionId}      (attach)
//   - POST   /quizzes/{id}/remove-question/{questionId}   (detach)
//   - GET    /questions                                   (list)
//   - GET    /questions/{id}                              (fetch)
//   - POST   /questions                                   (create)
//   - DELETE /questions/{id}                              (delete)
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/titandle/titandle-backend/internal/domain"
	"github.com/titandle/titandle-backend/internal/services"
)

//
// DTOs
//

// CreateQuizRequest is the JSON payload for creating a quiz.
type CreateQuizRequest struct {
	// Title names the quiz; blank falls back to a dated default.
	Title string `json:"title" example:"Daily quiz 2025-07-14"`
	// Description optionally explains the quiz.
	Description string `json:"description"`
	// Date is the quiz day in YYYY-MM-DD form; blank means today.
	Date string `json:"date" example:"2025-07-14"`
}

// CreateQuestionRequest is the JSON payload for creating a question.
type CreateQuestionRequest struct {
	// Type classifies the question (e.g. "identity", "appearance").
	Type string `json:"type" binding:"required,min=1,max=64" example:"identity"`
	// ExternalCharacterID references the third-party catalog entry.
	ExternalCharacterID int `json:"external_character_id" binding:"min=0" example:"87"`
	// CorrectAnswer is the expected answer text.
	CorrectAnswer string `json:"correct_answer" binding:"required" example:"Levi Ackermann"`
	// PromptData carries the type-specific prompt payload.
	PromptData string `json:"prompt_data" binding:"required" example:"Who is this character?"`
}

//
// Helpers
//

// failQuizErr maps quiz-layer errors to HTTP responses.
func failQuizErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrQuizNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "quiz or question not found")
	case errors.Is(err, services.ErrQuestionNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "question not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

//
// Handlers
//

// ListQuizzes godoc
// @ID          listQuizzes
// @Summary     List quizzes
// @Description Returns all quizzes, newest date first, with questions preloaded.
// @Tags        Quizzes
// @Produce     json
//
// @Success     200  {array}  domain.Quiz
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /quizzes [get]
func (h *Handlers) ListQuizzes(c *gin.Context) {
	items, err := h.quizSvc.ListQuizzes(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// GetQuiz godoc
// @ID          getQuiz
// @Summary     Get a quiz
// @Description Returns one quiz with its questions.
// @Tags        Quizzes
// @Produce     json
//
// @Param       id  path  int  true  "Quiz ID"  minimum(1)
//
// @Success     200  {object} domain.Quiz
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Quiz not found"
// @Router      /quizzes/{id} [get]
func (h *Handlers) GetQuiz(c *gin.Context) {
	id, okID := parseIDParam(c, "id")
	if !okID {
		return
	}
	q, err := h.quizSvc.GetQuiz(c.Request.Context(), id)
	if err != nil {
		failQuizErr(c, err)
		return
	}
	ok(c, http.StatusOK, q)
}

// CreateQuiz godoc
// @ID          createQuiz
// @Summary     Create a quiz
// @Description Creates a quiz for a given date. Blank title and date receive dated defaults.
// @Tags        Quizzes
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateQuizRequest  true  "Create quiz payload"
//
// @Success     201  {object} domain.Quiz
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /quizzes [post]
func (h *Handlers) CreateQuiz(c *gin.Context) {
	var req CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	var date time.Time
	if s := strings.TrimSpace(req.Date); s != "" {
		parsed, err := time.Parse(domain.DateLayout, s)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	q, err := h.quizSvc.CreateQuiz(c.Request.Context(), req.Title, req.Description, date)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, q)
}

// AttachQuestion godoc
// @ID          attachQuestion
// @Summary     Attach a question to a quiz
// @Description Links an existing question to an existing quiz. Attaching twice is a no-op.
// @Tags        Quizzes
// @Produce     json
//
// @Param       id          path  int  true  "Quiz ID"      minimum(1)
// @Param       questionId  path  int  true  "Question ID"  minimum(1)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Quiz or question not found"
// @Router      /quizzes/{id}/add-question/{questionId} [post]
func (h *Handlers) AttachQuestion(c *gin.Context) {
	quizID, okQuiz := parseIDParam(c, "id")
	if !okQuiz {
		return
	}
	questionID, okQ := parseIDParam(c, "questionId")
	if !okQ {
		return
	}
	if err := h.quizSvc.AttachQuestion(c.Request.Context(), quizID, questionID); err != nil {
		failQuizErr(c, err)
		return
	}
	noContent(c)
}

// DetachQuestion godoc
// @ID          detachQuestion
// @Summary     Detach a question from a quiz
// @Description Unlinks a question from a quiz without deleting either.
// @Tags        Quizzes
// @Produce     json
//
// @Param       id          path  int  true  "Quiz ID"      minimum(1)
// @Param       questionId  path  int  true  "Question ID"  minimum(1)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Quiz or question not found"
// @Router      /quizzes/{id}/remove-question/{questionId} [post]
func (h *Handlers) DetachQuestion(c *gin.Context) {
	quizID, okQuiz := parseIDParam(c, "id")
	if !okQuiz {
		return
	}
	questionID, okQ := parseIDParam(c, "questionId")
	if !okQ {
		return
	}
	if err := h.quizSvc.DetachQuestion(c.Request.Context(), quizID, questionID); err != nil {
		failQuizErr(c, err)
		return
	}
	noContent(c)
}

// ListQuestions godoc
// @ID          listQuestions
// @Summary     List questions
// @Description Returns all questions across quizzes.
// @Tags        Quizzes
// @Produce     json
//
// @Success     200  {array}  domain.Question
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /questions [get]
func (h *Handlers) ListQuestions(c *gin.Context) {
	items, err := h.quizSvc.ListQuestions(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// GetQuestion godoc
// @ID          getQuestion
// @Summary     Get a question
// @Description Returns one question by id.
// @Tags        Quizzes
// @Produce     json
//
// @Param       id  path  int  true  "Question ID"  minimum(1)
//
// @Success     200  {object} domain.Question
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Question not found"
// @Router      /questions/{id} [get]
func (h *Handlers) GetQuestion(c *gin.Context) {
	id, okID := parseIDParam(c, "id")
	if !okID {
		return
	}
	q, err := h.quizSvc.GetQuestion(c.Request.Context(), id)
	if err != nil {
		failQuizErr(c, err)
		return
	}
	ok(c, http.StatusOK, q)
}

// CreateQuestion godoc
// @ID          createQuestion
// @Summary     Create a question
// @Description Creates a standalone question; attach it to quizzes separately.
// @Tags        Quizzes
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateQuestionRequest  true  "Create question payload"
//
// @Success     201  {object} domain.Question
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /questions [post]
func (h *Handlers) CreateQuestion(c *gin.Context) {
	var req CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "type, correct_answer, and prompt_data required")
		return
	}

	q := &domain.Question{
		Type:                strings.TrimSpace(req.Type),
		ExternalCharacterID: req.ExternalCharacterID,
		CorrectAnswer:       req.CorrectAnswer,
		PromptData:          req.PromptData,
	}
	if err := h.quizSvc.CreateQuestion(c.Request.Context(), q); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, q)
}

// DeleteQuestion godoc
// @ID          deleteQuestion
// @Summary     Delete a question
// @Description Removes a question and its quiz links.
// @Tags        Quizzes
// @Produce     json
//
// @Param       id  path  int  true  "Question ID"  minimum(1)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Question not found"
// @Router      /questions/{id} [delete]
func (h *Handlers) DeleteQuestion(c *gin.Context) {
	id, okID := parseIDParam(c, "id")
	if !okID {
		return
	}
	if err := h.quizSvc.DeleteQuestion(c.Request.Context(), id); err != nil {
		failQuizErr(c, err)
		return
	}
	noContent(c)
}
