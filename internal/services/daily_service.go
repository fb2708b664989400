// Package services – DailyService
//
// This file implements the daily character selector: the production policy
// that binds exactly one character to each calendar date. The binding is
// created lazily on the first request of the day and is immutable; every
// later request of the same day reads the persisted row, so all players see
// the same target regardless of which instance served them.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/titandle/titandle-backend/internal/cache"
	"github.com/titandle/titandle-backend/internal/domain"
	"github.com/titandle/titandle-backend/internal/repo"
)

// maxBindAttempts bounds the retry loop when freshly acquired characters
// turn out to be already bound to earlier dates.
const maxBindAttempts = 5

// DailyRepo defines the repository contract required by DailyService.
type DailyRepo interface {
	// GetDailyByDate returns the binding for a date key, character preloaded.
	GetDailyByDate(ctx context.Context, db *gorm.DB, date string) (*domain.DailyCharacter, error)

	// CreateDaily binds a character to a date; ErrDuplicate when either side
	// is already bound.
	CreateDaily(ctx context.Context, db *gorm.DB, characterID uint, date string) (*domain.DailyCharacter, error)

	// ListDailyHistory returns past bindings newest-first.
	ListDailyHistory(ctx context.Context, db *gorm.DB, limit int) ([]domain.DailyCharacter, error)

	// SampleRandomCharacters draws up to n random local characters.
	SampleRandomCharacters(ctx context.Context, db *gorm.DB, n int) ([]domain.Character, error)
}

// RandomSource yields candidate characters for a fresh daily binding.
// CharacterService satisfies it.
type RandomSource interface {
	RandomFresh(ctx context.Context) (*domain.Character, error)
}

// DailyService selects and persists the character of the day.
type DailyService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the daily-binding repository.
	Repo DailyRepo
	// Source provides candidate characters when no binding exists yet.
	Source RandomSource
	// Cache holds the day's binding so repeat reads skip the database.
	Cache cache.Store
	// TTL bounds the cached binding; the row itself is immutable.
	TTL time.Duration

	Log zerolog.Logger
}

// NewDailyService constructs a DailyService.
func NewDailyService(db *gorm.DB, r DailyRepo, source RandomSource, store cache.Store, ttl time.Duration, log zerolog.Logger) *DailyService {
	return &DailyService{DB: db, Repo: r, Source: source, Cache: store, TTL: ttl, Log: log}
}

// GetOrCreate returns the binding for the given date key, creating it from
// a freshly acquired character when none exists. Concurrent first requests
// converge: the date's unique index arbitrates, and losers re-read the
// winning row. The resolved binding is cached per date; failures are not.
func (s *DailyService) GetOrCreate(ctx context.Context, date string) (*domain.DailyCharacter, error) {
	key := cache.Key("daily", date)
	b, err := s.Cache.GetOrCompute(ctx, key, s.TTL, func(ctx context.Context) ([]byte, error) {
		d, err := s.resolve(ctx, date)
		if err != nil {
			return nil, err
		}
		return json.Marshal(d)
	})
	if err != nil {
		return nil, err
	}
	var d domain.DailyCharacter
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// resolve reads or creates the binding for date against the database.
func (s *DailyService) resolve(ctx context.Context, date string) (*domain.DailyCharacter, error) {
	existing, err := s.Repo.GetDailyByDate(ctx, s.DB, date)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < maxBindAttempts; attempt++ {
		candidate, err := s.pickCandidate(ctx, attempt)
		if err != nil {
			return nil, err
		}

		bound, err := s.Repo.CreateDaily(ctx, s.DB, candidate.ID, date)
		if err == nil {
			s.Log.Info().Str("date", date).Str("character", candidate.Name).Msg("daily character bound")
			bound.Character = *candidate
			return bound, nil
		}
		if !errors.Is(err, repo.ErrDuplicate) {
			return nil, err
		}

		// Duplicate means either a concurrent request won the date, or this
		// character already appeared on an earlier date. Re-read decides.
		if winner, gerr := s.Repo.GetDailyByDate(ctx, s.DB, date); gerr == nil {
			return winner, nil
		}
		s.Log.Debug().Str("date", date).Str("character", candidate.Name).Msg("candidate already used, retrying")
	}
	return nil, ErrNoDailyCharacter
}

// GetOrCreateToday is GetOrCreate for the current UTC date.
func (s *DailyService) GetOrCreateToday(ctx context.Context) (*domain.DailyCharacter, error) {
	return s.GetOrCreate(ctx, domain.DateKey(time.Now()))
}

// History returns past bindings, newest first.
func (s *DailyService) History(ctx context.Context, limit int) ([]domain.DailyCharacter, error) {
	return s.Repo.ListDailyHistory(ctx, s.DB, limit)
}

// pickCandidate acquires a character for a new binding. The first attempt
// goes through the full acquisition chain; retries draw from the local
// catalog, which is cheaper and cannot keep returning the same exhausted
// row.
func (s *DailyService) pickCandidate(ctx context.Context, attempt int) (*domain.Character, error) {
	if attempt == 0 {
		c, err := s.Source.RandomFresh(ctx)
		if err == nil {
			return c, nil
		}
		s.Log.Warn().Err(err).Msg("acquisition failed for daily candidate, sampling local catalog")
	}
	sample, err := s.Repo.SampleRandomCharacters(ctx, s.DB, 1)
	if err != nil {
		return nil, err
	}
	if len(sample) == 0 {
		return nil, ErrNoDailyCharacter
	}
	return &sample[0], nil
}
