// Package services – AuthService
//
// This file implements user registration and login. Passwords are stored as
// bcrypt hashes; logins are rewarded with an HS256 JWT plus a rotating API
// token persisted on the user row, so logout can revoke access before the
// JWT expires.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/titandle/titandle-backend/internal/domain"
	"github.com/titandle/titandle-backend/internal/repo"
)

// UserRepo defines the repository contract required by AuthService.
type UserRepo interface {
	// CreateUser inserts a new user; ErrDuplicate when username or email is taken.
	CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error

	// GetUserByID fetches a user by primary key.
	GetUserByID(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error)

	// GetUserByLogin fetches a user by username or email.
	GetUserByLogin(ctx context.Context, db *gorm.DB, login string) (*domain.User, error)

	// TouchUserLogin records a successful login and rotates the API token.
	TouchUserLogin(ctx context.Context, db *gorm.DB, id uint, apiToken string, at time.Time) error

	// ClearUserAPIToken revokes the user's API token.
	ClearUserAPIToken(ctx context.Context, db *gorm.DB, id uint) error
}

// Claims are the application claims embedded in issued JWTs.
type Claims struct {
	Username string `json:"username"`
	Token    string `json:"tok"`
	jwt.RegisteredClaims
}

// AuthService handles registration, login, token validation, and logout.
type AuthService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo UserRepo

	// Secret signs and verifies JWTs (HS256).
	Secret []byte
	// Issuer is stamped into and checked against the iss claim.
	Issuer string
	// TokenTTL bounds how long an issued JWT stays valid.
	TokenTTL time.Duration

	Log zerolog.Logger

	// now is injectable for expiry tests.
	now func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(db *gorm.DB, r UserRepo, secret, issuer string, ttl time.Duration, log zerolog.Logger) *AuthService {
	return &AuthService{
		DB:       db,
		Repo:     r,
		Secret:   []byte(secret),
		Issuer:   issuer,
		TokenTTL: ttl,
		Log:      log,
		now:      time.Now,
	}
}

// Register creates a new user with a bcrypt-hashed password.
// ErrUserExists when the username or email is already taken.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.Repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	s.Log.Info().Str("username", username).Msg("user registered")
	return u, nil
}

// Login verifies credentials (username or email plus password) and, on
// success, rotates the API token, records last_login, and issues a JWT.
func (s *AuthService) Login(ctx context.Context, login, password string) (*domain.User, string, error) {
	u, err := s.Repo.GetUserByLogin(ctx, s.DB, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	apiToken := uuid.NewString()
	now := s.now().UTC()
	if err := s.Repo.TouchUserLogin(ctx, s.DB, u.ID, apiToken, now); err != nil {
		return nil, "", err
	}
	u.APIToken = apiToken
	u.LastLogin = &now

	jwtStr, err := s.issueToken(u, now)
	if err != nil {
		return nil, "", err
	}
	return u, jwtStr, nil
}

// Authenticate validates a bearer JWT and returns the user it belongs to.
// A rotated or cleared API token invalidates all previously issued JWTs.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := s.Repo.GetUserByID(ctx, s.DB, uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if u.APIToken == "" || u.APIToken != claims.Token {
		return nil, ErrInvalidToken
	}
	return u, nil
}

// Logout revokes the user's API token, invalidating outstanding JWTs.
func (s *AuthService) Logout(ctx context.Context, userID uint) error {
	return s.Repo.ClearUserAPIToken(ctx, s.DB, userID)
}

func (s *AuthService) issueToken(u *domain.User, now time.Time) (string, error) {
	claims := &Claims{
		Username: u.Username,
		Token:    u.APIToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			Issuer:    s.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) parseToken(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.Issuer),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	var claims Claims
	if _, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.Secret, nil
	}); err != nil {
		return nil, err
	}
	return &claims, nil
}
