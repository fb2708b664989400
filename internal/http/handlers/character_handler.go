// Character HTTP handlers.
//
// This file exposes REST endpoints for the character catalog:
//   - GET    /characters           (list; paginated with ETag, or full cached list)
//   - GET    /characters/{id}      (fetch one)
//   - POST   /characters           (create)
//   - PUT    /characters/{id}      (update)
//   - DELETE /characters/{id}      (delete)
//   - GET    /characters/search    (catalog search with local fallback)
//   - GET    /characters/random    (hourly random character)
//   - GET    /characters/daily     (today's character)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/titandle/titandle-backend/internal/domain"
	"github.com/titandle/titandle-backend/internal/repo"
	"github.com/titandle/titandle-backend/internal/services"
	"github.com/titandle/titandle-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// CharacterService defines catalog operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type CharacterService interface {
	// Random returns the shared random character for the current hour.
	Random(ctx context.Context) (*domain.Character, error)
	// Search queries the catalog by partial name, falling back to local data.
	Search(ctx context.Context, name string) ([]domain.Character, error)
	// ListAll returns the full cached character listing.
	ListAll(ctx context.Context) ([]domain.Character, error)
	// ListPage returns a page of characters and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Character, int64, error)
	// Get fetches a character by id.
	Get(ctx context.Context, id uint) (*domain.Character, error)
	// Create inserts a new character.
	Create(ctx context.Context, c *domain.Character) error
	// Update persists edits to an existing character.
	Update(ctx context.Context, c *domain.Character) error
	// Delete removes a character by id.
	Delete(ctx context.Context, id uint) error
}

// DailyService exposes the daily-binding selector consumed by HTTP handlers.
// The same binding backs /characters/daily, new game sessions, and the
// stateless guess endpoint, so every player sees one target per date.
type DailyService interface {
	// GetOrCreateToday returns today's binding, creating it when absent.
	GetOrCreateToday(ctx context.Context) (*domain.DailyCharacter, error)
	// History returns past daily bindings, newest first.
	History(ctx context.Context, limit int) ([]domain.DailyCharacter, error)
}

// SessionService defines game session operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SessionService interface {
	// Start opens a session for player against today's character.
	Start(ctx context.Context, player string) (*domain.GameSession, error)
	// Get fetches a session by id.
	Get(ctx context.Context, id uint) (*domain.GameSession, error)
	// End closes a session, recording duration and outcome.
	End(ctx context.Context, id uint, won bool) (*domain.GameSession, error)
	// Guess evaluates a guessed name within a session.
	Guess(ctx context.Context, id uint, name string) (*services.GuessResult, error)
	// Leaderboard returns the fastest winning sessions.
	Leaderboard(ctx context.Context) ([]domain.GameSession, error)
	// StatelessGuess compares a guessed name against today's character.
	StatelessGuess(ctx context.Context, name string) (*services.GuessResult, error)
}

// AuthService defines account operations consumed by HTTP handlers.
type AuthService interface {
	// Register creates a new user account.
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	// Login verifies credentials and returns the user plus a signed JWT.
	Login(ctx context.Context, login, password string) (*domain.User, string, error)
	// Logout revokes the user's API token, invalidating outstanding JWTs.
	Logout(ctx context.Context, userID uint) error
}

// QuizService defines quiz and question operations consumed by HTTP handlers.
type QuizService interface {
	CreateQuiz(ctx context.Context, title, description string, date time.Time) (*domain.Quiz, error)
	GetQuiz(ctx context.Context, id uint) (*domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	AttachQuestion(ctx context.Context, quizID, questionID uint) error
	DetachQuestion(ctx context.Context, quizID, questionID uint) error
	CreateQuestion(ctx context.Context, q *domain.Question) error
	GetQuestion(ctx context.Context, id uint) (*domain.Question, error)
	ListQuestions(ctx context.Context) ([]domain.Question, error)
	DeleteQuestion(ctx context.Context, id uint) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for characters, sessions, auth, and quizzes.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	charSvc  CharacterService
	dailySvc DailyService
	sessSvc  SessionService
	authSvc  AuthService
	quizSvc  QuizService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(charSvc CharacterService, dailySvc DailyService, sessSvc SessionService, authSvc AuthService, quizSvc QuizService) *Handlers {
	return &Handlers{
		charSvc:  charSvc,
		dailySvc: dailySvc,
		sessSvc:  sessSvc,
		authSvc:  authSvc,
		quizSvc:  quizSvc,
	}
}

//
// DTOs
//

// CreateCharacterRequest is the JSON payload for creating a character.
type CreateCharacterRequest struct {
	// Name is the character's unique name.
	Name string `json:"name" binding:"required,min=1,max=255" example:"Eren Yeager"`
	// Image is an optional portrait URL.
	Image string `json:"image" example:"https://example.com/eren.jpg"`
	// Species lists the character's species tags in catalog order.
	Species []string `json:"species" example:"Human,Intelligent Titan"`
	// Gender is the reported gender, "Unknown" when absent.
	Gender string `json:"gender" example:"Male"`
	// Age is the character's age in years.
	Age int `json:"age" binding:"min=0" example:"19"`
	// Status is the life status, "Unknown" when absent.
	Status string `json:"status" example:"Deceased"`
}

// UpdateCharacterRequest is the JSON payload for updating a character.
// Zero-valued fields keep their stored values.
type UpdateCharacterRequest struct {
	Name    string   `json:"name" example:"Eren Yeager"`
	Image   string   `json:"image"`
	Species []string `json:"species"`
	Gender  string   `json:"gender"`
	Age     *int     `json:"age"`
	Status  string   `json:"status"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListCharactersResponse wraps a page of characters and pagination information.
type ListCharactersResponse struct {
	Characters []domain.Character `json:"characters"`
	Pagination Pagination         `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// parseIDParam parses the named path parameter as an unsigned integer id.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("%s must be a positive integer", name))
		return 0, false
	}
	return uint(id), true
}

// failCharacterErr maps acquisition-layer errors to HTTP responses.
func failCharacterErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCharacterNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "character not found")
	case errors.Is(err, services.ErrCharacterExists):
		fail(c, http.StatusConflict, ErrCodeConflict, "character already exists")
	case errors.Is(err, services.ErrNoDailyCharacter):
		fail(c, http.StatusNotFound, ErrCodeNoDaily, "no daily character available")
	case errors.Is(err, services.ErrStoreUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "character store unavailable")
	case errors.Is(err, services.ErrAcquisitionFailed):
		fail(c, http.StatusInternalServerError, ErrCodeAcquisitionFailed, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

//
// Handlers
//

// ListCharacters godoc
// @ID          listCharacters
// @Summary     List characters
// @Description Without query params, returns the full cached character list. With page/page_size, returns a page with weak ETag support (may return 304).
// @Tags        Characters
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100)
//
// @Success     200  {object} handlers.ListCharactersResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /characters [get]
func (h *Handlers) ListCharacters(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okSvc := h.charSvc.(*services.CharacterService); okSvc {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.CharactersStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"characters:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	// Full cached listing unless pagination was requested explicitly.
	if c.Query("page") == "" && c.Query("page_size") == "" {
		items, err := h.charSvc.ListAll(ctx)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
			return
		}
		total := int64(len(items))
		ok(c, http.StatusOK, ListCharactersResponse{
			Characters: items,
			Pagination: Pagination{Page: 1, PageSize: len(items), Total: total, TotalPages: 1},
		})
		return
	}

	page, pageSize := clampPagination(c)
	items, total, err := h.charSvc.ListPage(ctx, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListCharactersResponse{
		Characters: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetCharacter godoc
// @ID          getCharacter
// @Summary     Get a character
// @Description Returns one character by its numeric id.
// @Tags        Characters
// @Produce     json
//
// @Param       id  path  int  true  "Character ID"  minimum(1)
//
// @Success     200  {object} domain.Character
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Character not found"
// @Router      /characters/{id} [get]
func (h *Handlers) GetCharacter(c *gin.Context) {
	id, okID := parseIDParam(c, "id")
	if !okID {
		return
	}
	ch, err := h.charSvc.Get(c.Request.Context(), id)
	if err != nil {
		failCharacterErr(c, err)
		return
	}
	ok(c, http.StatusOK, ch)
}

// CreateCharacter godoc
// @ID          createCharacter
// @Summary     Create a character
// @Description Creates a character from administrative input. Missing attributes receive the catalog defaults.
// @Tags        Characters
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateCharacterRequest  true  "Create character payload"
//
// @Success     201  {object} domain.Character
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     409  {object} handlers.ErrorResponse "Name already taken"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /characters [post]
func (h *Handlers) CreateCharacter(c *gin.Context) {
	var req CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required")
		return
	}

	ch := &domain.Character{
		Name:    name,
		Image:   req.Image,
		Species: req.Species,
		Gender:  req.Gender,
		Age:     req.Age,
		Status:  req.Status,
	}
	if err := h.charSvc.Create(c.Request.Context(), ch); err != nil {
		if errors.Is(err, services.ErrCharacterExists) {
			fail(c, http.StatusConflict, ErrCodeConflict, "character already exists")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, ch)
}

// UpdateCharacter godoc
// @ID          updateCharacter
// @Summary     Update a character
// @Description Applies the supplied fields to an existing character. Omitted fields stay unchanged.
// @Tags        Characters
// @Accept      json
// @Produce     json
//
// @Param       id    path  int  true  "Character ID"  minimum(1)
// @Param       body  body  handlers.UpdateCharacterRequest  true  "Fields to update"
//
// @Success     200  {object} domain.Character
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Character not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /characters/{id} [put]
func (h *Handlers) UpdateCharacter(c *gin.Context) {
	id, okID := parseIDParam(c, "id")
	if !okID {
		return
	}

	var req UpdateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ctx := c.Request.Context()
	ch, err := h.charSvc.Get(ctx, id)
	if err != nil {
		failCharacterErr(c, err)
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		ch.Name = name
	}
	if req.Image != "" {
		ch.Image = req.Image
	}
	if req.Species != nil {
		ch.Species = req.Species
	}
	if req.Gender != "" {
		ch.Gender = req.Gender
	}
	if req.Age != nil && *req.Age >= 0 {
		ch.Age = *req.Age
	}
	if req.Status != "" {
		ch.Status = req.Status
	}

	if err := h.charSvc.Update(ctx, ch); err != nil {
		failCharacterErr(c, err)
		return
	}
	ok(c, http.StatusOK, ch)
}

// DeleteCharacter godoc
// @ID          deleteCharacter
// @Summary     Delete a character
// @Description Removes a character by id.
// @Tags        Characters
// @Produce     json
//
// @Param       id  path  int  true  "Character ID"  minimum(1)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Character not found"
// @Router      /characters/{id} [delete]
func (h *Handlers) DeleteCharacter(c *gin.Context) {
	id, okID := parseIDParam(c, "id")
	if !okID {
		return
	}
	if err := h.charSvc.Delete(c.Request.Context(), id); err != nil {
		failCharacterErr(c, err)
		return
	}
	noContent(c)
}

// SearchCharacters godoc
// @ID          searchCharacters
// @Summary     Search characters by name
// @Description Queries the external catalog by partial name, persisting new matches. Falls back to local data when the catalog is unreachable.
// @Tags        Characters
// @Produce     json
//
// @Param       name  query  string  true  "Partial name to search for"  example(Levi)
//
// @Success     200  {array}  domain.Character
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Acquisition failed"
// @Router      /characters/search [get]
func (h *Handlers) SearchCharacters(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name query parameter required")
		return
	}
	items, err := h.charSvc.Search(c.Request.Context(), name)
	if err != nil {
		failCharacterErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// RandomCharacter godoc
// @ID          randomCharacter
// @Summary     Random character
// @Description Returns the random character for the current hour. All requests within the same hour share one character.
// @Tags        Characters
// @Produce     json
//
// @Success     200  {object} domain.Character
// @Failure     500  {object} handlers.ErrorResponse "Acquisition failed"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /characters/random [get]
func (h *Handlers) RandomCharacter(c *gin.Context) {
	ch, err := h.charSvc.Random(c.Request.Context())
	if err != nil {
		failCharacterErr(c, err)
		return
	}
	ok(c, http.StatusOK, ch)
}

// DailyCharacter godoc
// @ID          dailyCharacter
// @Summary     Character of the day
// @Description Returns the character bound to today's date, the same target game sessions play against.
// @Tags        Characters
// @Produce     json
//
// @Success     200  {object} domain.Character
// @Failure     404  {object} handlers.ErrorResponse "No daily character yet"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /characters/daily [get]
func (h *Handlers) DailyCharacter(c *gin.Context) {
	daily, err := h.dailySvc.GetOrCreateToday(c.Request.Context())
	if err != nil {
		failCharacterErr(c, err)
		return
	}
	ok(c, http.StatusOK, daily.Character)
}

// DailyHistory godoc
// @ID          dailyHistory
// @Summary     Daily character history
// @Description Returns past daily bindings, newest first.
// @Tags        Characters
// @Produce     json
//
// @Param       limit  query  int  false  "Maximum entries"  minimum(1) maximum(365) default(30)
//
// @Success     200  {array}  domain.DailyCharacter
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /characters/daily/history [get]
func (h *Handlers) DailyHistory(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 30)
	if limit < 1 {
		limit = 30
	}
	limit = utils.ClampInt(limit, 1, 365)
	items, err := h.dailySvc.History(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}
