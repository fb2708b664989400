// Package services – SessionService
//
// This file implements the game session lifecycle: starting a run against
// the day's character, guessing, ending, and the leaderboard. The target is
// pinned on the session row at start time, so a run that crosses midnight
// keeps its original character.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/titandle/titandle-backend/internal/domain"
	"github.com/titandle/titandle-backend/internal/game"
	"github.com/titandle/titandle-backend/internal/repo"
)

// SessionRepo defines the repository contract required by SessionService.
type SessionRepo interface {
	// CreateSession inserts a new session pinned to a character.
	CreateSession(ctx context.Context, db *gorm.DB, player string, characterID uint, startedAt time.Time) (*domain.GameSession, error)

	// GetSession fetches a session with its character preloaded.
	GetSession(ctx context.Context, db *gorm.DB, id uint) (*domain.GameSession, error)

	// FinishSession records end time, duration, and outcome.
	FinishSession(ctx context.Context, db *gorm.DB, id uint, endedAt time.Time, durationSeconds int, won bool) error

	// Leaderboard returns the fastest winning sessions.
	Leaderboard(ctx context.Context, db *gorm.DB, limit int) ([]domain.GameSession, error)
}

// DailyTarget supplies the character a new session plays against.
// DailyService satisfies it.
type DailyTarget interface {
	GetOrCreateToday(ctx context.Context) (*domain.DailyCharacter, error)
}

// GuessLookup resolves a guessed name to a known character.
// CharacterService satisfies it via Search.
type GuessLookup interface {
	Search(ctx context.Context, name string) ([]domain.Character, error)
}

// GuessResult is the outcome of one guess within a session.
type GuessResult struct {
	Match      bool            `json:"match"`
	Comparison game.Comparison `json:"comparison"`
	Guessed    *domain.Character `json:"guessed"`
	Session    *domain.GameSession `json:"session,omitempty"`
}

// SessionService manages game sessions.
type SessionService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the session repository used by this service.
	Repo SessionRepo
	// Daily provides the target character for new sessions.
	Daily DailyTarget
	// Lookup resolves guessed names.
	Lookup GuessLookup

	// LeaderboardSize caps leaderboard results.
	LeaderboardSize int

	Log zerolog.Logger

	// now is injectable for duration tests.
	now func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(db *gorm.DB, r SessionRepo, daily DailyTarget, lookup GuessLookup, log zerolog.Logger) *SessionService {
	return &SessionService{
		DB:              db,
		Repo:            r,
		Daily:           daily,
		Lookup:          lookup,
		LeaderboardSize: 10,
		Log:             log,
		now:             time.Now,
	}
}

// Start opens a new session for player against today's character.
func (s *SessionService) Start(ctx context.Context, player string) (*domain.GameSession, error) {
	daily, err := s.Daily.GetOrCreateToday(ctx)
	if err != nil {
		return nil, err
	}

	sess, err := s.Repo.CreateSession(ctx, s.DB, player, daily.CharacterID, s.now())
	if err != nil {
		return nil, err
	}
	sess.Character = daily.Character
	return sess, nil
}

// Get fetches a session by id.
func (s *SessionService) Get(ctx context.Context, id uint) (*domain.GameSession, error) {
	sess, err := s.Repo.GetSession(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	return sess, err
}

// End closes a session with the caller-reported outcome. Rejects sessions
// that are already closed.
func (s *SessionService) End(ctx context.Context, id uint, won bool) (*domain.GameSession, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.EndedAt != nil {
		return nil, ErrSessionEnded
	}

	end := s.now().UTC()
	duration := int(end.Sub(sess.StartedAt).Seconds())
	if err := s.Repo.FinishSession(ctx, s.DB, id, end, duration, won); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	sess.EndedAt = &end
	sess.DurationSeconds = &duration
	sess.Won = won
	return sess, nil
}

// Guess evaluates a named guess against the session's pinned character. A
// correct guess wins and closes the session; wrong guesses leave it open.
func (s *SessionService) Guess(ctx context.Context, id uint, name string) (*GuessResult, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.EndedAt != nil {
		return nil, ErrSessionEnded
	}

	guessed, err := s.resolveGuess(ctx, name)
	if err != nil {
		return nil, err
	}

	target := &sess.Character
	result := &GuessResult{
		Match:      game.IsMatch(guessed, target),
		Comparison: game.Compare(guessed, target),
		Guessed:    guessed,
		Session:    sess,
	}

	if result.Match {
		end := s.now().UTC()
		duration := int(end.Sub(sess.StartedAt).Seconds())
		if err := s.Repo.FinishSession(ctx, s.DB, id, end, duration, true); err != nil {
			return nil, err
		}
		sess.EndedAt = &end
		sess.DurationSeconds = &duration
		sess.Won = true
		s.Log.Info().Uint("session", id).Str("player", sess.Player).Int("duration_s", duration).Msg("session won")
	}
	return result, nil
}

// Leaderboard returns the fastest winning sessions.
func (s *SessionService) Leaderboard(ctx context.Context) ([]domain.GameSession, error) {
	return s.Repo.Leaderboard(ctx, s.DB, s.LeaderboardSize)
}

// StatelessGuess compares the guessed name against today's character
// without session bookkeeping. Anonymous play: nothing is recorded, the
// match is decided by normalized name equality.
func (s *SessionService) StatelessGuess(ctx context.Context, name string) (*GuessResult, error) {
	guessed, err := s.resolveGuess(ctx, name)
	if err != nil {
		return nil, err
	}

	daily, err := s.Daily.GetOrCreateToday(ctx)
	if err != nil {
		return nil, err
	}
	target := &daily.Character

	return &GuessResult{
		Match:      game.SameName(guessed.Name, target.Name),
		Comparison: game.Compare(guessed, target),
		Guessed:    guessed,
	}, nil
}

// resolveGuess maps a player-typed name to a character. The search funnel
// tolerates partial input; among the results the normalized exact match
// wins, otherwise the first result (original ranking) stands in.
func (s *SessionService) resolveGuess(ctx context.Context, name string) (*domain.Character, error) {
	results, err := s.Lookup.Search(ctx, name)
	if err != nil || len(results) == 0 {
		return nil, ErrGuessNotFound
	}
	for i := range results {
		if game.SameName(results[i].Name, name) {
			return &results[i], nil
		}
	}
	return &results[0], nil
}
