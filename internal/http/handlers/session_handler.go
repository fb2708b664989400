// Game session HTTP handlers.
//
// This file exposes the playthrough endpoints:
//   - POST /game-sessions              (start against today's character)
//   - GET  /game-sessions/{id}         (inspect a session)
//   - POST /game-sessions/{id}/end     (give up; rejects double-end)
//   - POST /game-sessions/{id}/guess   (guess within a session)
//   - GET  /game-sessions/leaderboard  (fastest winning runs)
//   - POST /guess                      (stateless guess against today's character)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous session was
// started under the same key, StartSession replays that session and sets
// `Idempotency-Replayed: true` instead of opening a second run.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/titandle/titandle-backend/internal/http/middleware"
	"github.com/titandle/titandle-backend/internal/repo"
	"github.com/titandle/titandle-backend/internal/services"
)

// sessionIdemTTL bounds how long a session-start Idempotency-Key replays.
const sessionIdemTTL = 24 * time.Hour

//
// DTOs
//

// StartSessionRequest is the JSON payload for starting a game session.
// The body is optional; anonymous runs omit the player name.
type StartSessionRequest struct {
	// Player is an optional display name for the leaderboard.
	Player string `json:"player" example:"scout-105"`
}

// GuessRequest is the JSON payload for a guess, stateless or in-session.
type GuessRequest struct {
	// Name is the guessed character name.
	Name string `json:"name" binding:"required,min=1,max=255" example:"Levi Ackermann"`
}

//
// Helpers
//

// failSessionErr maps session-layer errors to HTTP responses.
func failSessionErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
	case errors.Is(err, services.ErrSessionEnded):
		fail(c, http.StatusBadRequest, ErrCodeSessionEnded, "session already ended")
	case errors.Is(err, services.ErrGuessNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no character matches that name")
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

// StartSession godoc
// @ID          startSession
// @Summary     Start a game session
// @Description Opens a run against today's character. Supports idempotency via the Idempotency-Key header (same key → same session).
// @Tags        Sessions
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.StartSessionRequest  false  "Start payload"
//
// @Success     201  {object} domain.GameSession
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "No daily character yet"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /game-sessions [post]
func (h *Handlers) StartSession(c *gin.Context) {
	ctx := c.Request.Context()

	var req StartSessionRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	player := strings.TrimSpace(req.Player)

	// Idempotency (replay path): read validated key if present.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" {
		if svc, okSvc := h.sessSvc.(*services.SessionService); okSvc && svc.DB != nil {
			uid := sessionOwner(c)
			scope := middleware.IdempotencyScope(c)
			if rec, err := repo.GetIdempotency(ctx, svc.DB, uid, scope, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if id, err2 := strconv.ParseUint(rec.ResultID, 10, 32); err2 == nil {
					if prev, err3 := h.sessSvc.Get(ctx, uint(id)); err3 == nil {
						c.Header("Idempotency-Replayed", "true")
						ok(c, http.StatusOK, prev)
						return
					}
				}
			}
		}
	}

	sess, err := h.sessSvc.Start(ctx, player)
	if err != nil {
		failSessionErr(c, err)
		return
	}

	// Idempotency (store path): best effort.
	if idemKey != "" {
		if svc, okSvc := h.sessSvc.(*services.SessionService); okSvc && svc.DB != nil {
			uid := sessionOwner(c)
			scope := middleware.IdempotencyScope(c)
			resultID := strconv.FormatUint(uint64(sess.ID), 10)
			_, _ = repo.CreateIdempotency(ctx, svc.DB, uid, scope, idemKey, resultID, http.StatusCreated, sessionIdemTTL)
		}
	}

	ok(c, http.StatusCreated, sess)
}

// GetSession godoc
// @ID          getSession
// @Summary     Get a game session
// @Description Returns a session with its pinned target character.
// @Tags        Sessions
// @Produce     json
//
// @Param       id  path  int  true  "Session ID"  minimum(1)
//
// @Success     200  {object} domain.GameSession
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Router      /game-sessions/{id} [get]
func (h *Handlers) GetSession(c *gin.Context) {
	id, okID := parseIDParam(c, "id")
	if !okID {
		return
	}
	sess, err := h.sessSvc.Get(c.Request.Context(), id)
	if err != nil {
		failSessionErr(c, err)
		return
	}
	ok(c, http.StatusOK, sess)
}

// EndSession godoc
// @ID          endSession
// @Summary     End a game session
// @Description Closes a session as abandoned (wins are recorded by a correct guess). A session can only end once.
// @Tags        Sessions
// @Produce     json
//
// @Param       id  path  int  true  "Session ID"  minimum(1)
//
// @Success     200  {object} domain.GameSession
// @Failure     400  {object} handlers.ErrorResponse "Already ended"
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Router      /game-sessions/{id}/end [post]
func (h *Handlers) EndSession(c *gin.Context) {
	id, okID := parseIDParam(c, "id")
	if !okID {
		return
	}
	sess, err := h.sessSvc.End(c.Request.Context(), id, false)
	if err != nil {
		failSessionErr(c, err)
		return
	}
	ok(c, http.StatusOK, sess)
}

// GuessInSession godoc
// @ID          guessInSession
// @Summary     Guess within a session
// @Description Compares the guessed character against the session's target field by field. A correct guess wins and closes the session.
// @Tags        Sessions
// @Accept      json
// @Produce     json
//
// @Param       id    path  int                    true  "Session ID"  minimum(1)
// @Param       body  body  handlers.GuessRequest  true  "Guess payload"
//
// @Success     200  {object} services.GuessResult
// @Failure     400  {object} handlers.ErrorResponse "Bad request or session ended"
// @Failure     404  {object} handlers.ErrorResponse "Session or character not found"
// @Router      /game-sessions/{id}/guess [post]
func (h *Handlers) GuessInSession(c *gin.Context) {
	id, okID := parseIDParam(c, "id")
	if !okID {
		return
	}

	var req GuessRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required")
		return
	}

	res, err := h.sessSvc.Guess(c.Request.Context(), id, strings.TrimSpace(req.Name))
	if err != nil {
		failSessionErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// Leaderboard godoc
// @ID          leaderboard
// @Summary     Leaderboard
// @Description Returns the fastest winning sessions, quickest first, with weak ETag support (may return 304).
// @Tags        Sessions
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
//
// @Success     200  {array}  domain.GameSession
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /game-sessions/leaderboard [get]
func (h *Handlers) Leaderboard(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if svc, okSvc := h.sessSvc.(*services.SessionService); okSvc && svc.DB != nil {
		count, maxTS, err := repo.LeaderboardStats(ctx, svc.DB)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"leaderboard:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, err := h.sessSvc.Leaderboard(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// StatelessGuess godoc
// @ID          statelessGuess
// @Summary     Guess without a session
// @Description Compares a guessed character against today's character by name, with a field-by-field breakdown.
// @Tags        Sessions
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.GuessRequest  true  "Guess payload"
//
// @Success     200  {object} services.GuessResult
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Character or daily target not found"
// @Router      /guess [post]
func (h *Handlers) StatelessGuess(c *gin.Context) {
	var req GuessRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required")
		return
	}

	res, err := h.sessSvc.StatelessGuess(c.Request.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		failSessionErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// sessionOwner identifies who a session-start idempotency record belongs to:
// the authenticated user when present, otherwise the anonymous bucket used by
// the idempotency middleware.
func sessionOwner(c *gin.Context) string {
	if u, okUser := middleware.CurrentUser(c); okUser {
		return strconv.FormatUint(uint64(u.ID), 10)
	}
	return "anonymous"
}
