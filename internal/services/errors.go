// Package services defines the business logic for character acquisition, the
// daily character selection, authentication, game sessions, and quizzes.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Acquisition-related errors.
var (
	// ErrAcquisitionFailed indicates that every path to a character was
	// exhausted: external catalog, retries, and local fallbacks.
	ErrAcquisitionFailed = errors.New("character acquisition failed")

	// ErrStoreUnavailable indicates that the database could not be reached
	// even after a connectivity check and one retry.
	ErrStoreUnavailable = errors.New("character store unavailable")

	// ErrCharacterNotFound indicates that the requested character does not
	// exist locally.
	ErrCharacterNotFound = errors.New("character not found")

	// ErrCharacterExists is returned when creating a character whose name is
	// already taken.
	ErrCharacterExists = errors.New("character already exists")

	// ErrNoDailyCharacter indicates that no daily character could be
	// determined (empty catalog and empty local store).
	ErrNoDailyCharacter = errors.New("no daily character available")
)

// Auth-related errors.
var (
	// ErrInvalidCredentials is returned when a login attempt fails, without
	// distinguishing unknown user from wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserExists is returned when registering a username or email that is
	// already taken.
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotFound indicates that the authenticated user no longer exists.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidToken is returned for expired, malformed, or revoked tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// Game-session-related errors.
var (
	// ErrSessionNotFound indicates that the requested game session does not
	// exist.
	ErrSessionNotFound = errors.New("game session not found")

	// ErrSessionEnded is returned when ending or guessing on a session that
	// is already closed.
	ErrSessionEnded = errors.New("game session already ended")

	// ErrGuessNotFound is returned when the guessed name matches no known
	// character.
	ErrGuessNotFound = errors.New("guessed character not found")
)

// Quiz-related errors.
var (
	// ErrQuizNotFound indicates that the requested quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")

	// ErrQuestionNotFound indicates that the requested question does not exist.
	ErrQuestionNotFound = errors.New("question not found")
)
