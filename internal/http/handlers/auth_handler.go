// Auth HTTP handlers.
//
// This file exposes account endpoints:
//   - POST /auth/register  (create account)
//   - POST /auth/login     (exchange credentials for a JWT)
//   - GET  /auth/me        (current account, JWT-protected)
//   - POST /auth/logout    (revoke the API token, JWT-protected)
//
// Login rotates the account's API token, so a fresh login invalidates all
// previously issued JWTs; logout clears the token and invalidates them too.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/titandle/titandle-backend/internal/http/middleware"
	"github.com/titandle/titandle-backend/internal/services"
)

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	// Username is the unique display name (3-64 chars).
	Username string `json:"username" binding:"required,min=3,max=64" example:"scout-105"`
	// Email is the unique contact address.
	Email string `json:"email" binding:"required,email" example:"scout@example.com"`
	// Password is the plaintext password (8-72 chars, bcrypt limit).
	Password string `json:"password" binding:"required,min=8,max=72" example:"shinzo-sasageyo"`
}

// LoginRequest is the JSON payload for logging in. Login accepts either the
// username or the email address.
type LoginRequest struct {
	Login    string `json:"login"    binding:"required" example:"scout-105"`
	Password string `json:"password" binding:"required" example:"shinzo-sasageyo"`
}

// LoginResponse carries the issued JWT and the authenticated account.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *UserSummary `json:"user"`
}

// UserSummary is the public projection of an account.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

//
// Handlers
//

// Register godoc
// @ID          register
// @Summary     Create an account
// @Description Registers a new player. Username and email must both be unused.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Registration payload"
//
// @Success     201  {object} handlers.UserSummary
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     409  {object} handlers.ErrorResponse "Username or email taken"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username, email, and password required")
		return
	}

	u, err := h.authSvc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUserExists) {
			fail(c, http.StatusConflict, ErrCodeConflict, "username or email already taken")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, UserSummary{ID: u.ID, Username: u.Username, Email: u.Email})
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Exchanges a username-or-email plus password for a signed JWT. Issues a fresh API token, invalidating earlier JWTs.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
//
// @Success     200  {object} handlers.LoginResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Invalid credentials"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "login and password required")
		return
	}

	u, token, err := h.authSvc.Login(c.Request.Context(), strings.TrimSpace(req.Login), req.Password)
	if err != nil {
		// Unknown user and wrong password are indistinguishable on purpose.
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
		return
	}
	ok(c, http.StatusOK, LoginResponse{
		Token: token,
		User:  &UserSummary{ID: u.ID, Username: u.Username, Email: u.Email},
	})
}

// Me godoc
// @ID          me
// @Summary     Current account
// @Description Returns the account resolved from the bearer token.
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object} handlers.UserSummary
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Router      /auth/me [get]
func (h *Handlers) Me(c *gin.Context) {
	u, okUser := middleware.CurrentUser(c)
	if !okUser {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	ok(c, http.StatusOK, UserSummary{ID: u.ID, Username: u.Username, Email: u.Email})
}

// Logout godoc
// @ID          logout
// @Summary     Log out
// @Description Revokes the account's API token, invalidating every outstanding JWT.
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
//
// @Success     204  {string} string "No Content"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	u, okUser := middleware.CurrentUser(c)
	if !okUser {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	if err := h.authSvc.Logout(c.Request.Context(), u.ID); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}
