// Package services – CharacterService
//
// This file implements the CharacterService, the acquisition layer that
// unifies three character sources behind a read-through cache: the external
// catalog, the local database, and administrative input. Every read funnels
// through the cache; on a miss the service fetches from the catalog,
// persists what it learned (create-or-return by name), and degrades to local
// data when the catalog or the database misbehaves.
//
// Fallback order mirrors the deployment reality the service grew up in: the
// catalog is flaky, the database occasionally drops connections, and a stale
// character is always better than an empty screen.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/titandle/titandle-backend/internal/aotapi"
	"github.com/titandle/titandle-backend/internal/cache"
	"github.com/titandle/titandle-backend/internal/domain"
	"github.com/titandle/titandle-backend/internal/repo"
)

// hourLayout keys the random-character cache entry: one shared random
// character per clock hour.
const hourLayout = "2006-01-02-15"

// Catalog defines the external-source contract required by CharacterService.
type Catalog interface {
	// FetchByID retrieves a single normalized catalog record.
	FetchByID(ctx context.Context, id int) (*aotapi.CharacterData, error)

	// SearchByName queries the catalog by (partial) name.
	SearchByName(ctx context.Context, name string) ([]aotapi.CharacterData, error)
}

// CharacterRepo defines the repository contract required by CharacterService.
type CharacterRepo interface {
	// GetCharacterByID fetches a character by primary key.
	GetCharacterByID(ctx context.Context, db *gorm.DB, id uint) (*domain.Character, error)

	// GetCharacterByName fetches a character by exact name.
	GetCharacterByName(ctx context.Context, db *gorm.DB, name string) (*domain.Character, error)

	// CountCharacters returns the catalog size for pagination.
	CountCharacters(ctx context.Context, db *gorm.DB) (int64, error)

	// ListCharactersPage returns a page of characters ordered by id.
	ListCharactersPage(ctx context.Context, db *gorm.DB, desc bool, limit, offset int) ([]domain.Character, error)

	// LatestCharacter returns the most recently inserted character.
	LatestCharacter(ctx context.Context, db *gorm.DB) (*domain.Character, error)

	// SearchCharactersLocal performs the case-insensitive local search.
	SearchCharactersLocal(ctx context.Context, db *gorm.DB, name string) ([]domain.Character, error)

	// CreateOrGetCharacterByName inserts or returns the existing row by name.
	CreateOrGetCharacterByName(ctx context.Context, db *gorm.DB, c *domain.Character) (*domain.Character, bool, error)

	// CreateCharacter inserts a new character row.
	CreateCharacter(ctx context.Context, db *gorm.DB, c *domain.Character) error

	// UpdateCharacter persists edits to an existing row.
	UpdateCharacter(ctx context.Context, db *gorm.DB, c *domain.Character) error

	// DeleteCharacter removes a character by id.
	DeleteCharacter(ctx context.Context, db *gorm.DB, id uint) error

	// Ping verifies database connectivity before a retry.
	Ping(ctx context.Context, db *gorm.DB) error
}

// CharacterService provides cached character acquisition plus the
// administrative CRUD operations on the local catalog copy.
type CharacterService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the character repository used by this service.
	Repo CharacterRepo
	// Catalog is the external character source.
	Catalog Catalog
	// Cache is the read-through store in front of both sources.
	Cache cache.Store

	// MaxCharacterID bounds the random catalog id (inclusive).
	MaxCharacterID int
	// RandomTTL, SearchTTL, ListTTL control cache entry lifetimes.
	RandomTTL time.Duration
	SearchTTL time.Duration
	ListTTL   time.Duration

	Log zerolog.Logger

	// now and randID are injectable for deterministic tests.
	now    func() time.Time
	randID func(max int) int
}

// NewCharacterService constructs a CharacterService with the given
// collaborators and TTLs.
func NewCharacterService(db *gorm.DB, r CharacterRepo, catalog Catalog, store cache.Store, maxID int, randomTTL, searchTTL, listTTL time.Duration, log zerolog.Logger) *CharacterService {
	return &CharacterService{
		DB:             db,
		Repo:           r,
		Catalog:        catalog,
		Cache:          store,
		MaxCharacterID: maxID,
		RandomTTL:      randomTTL,
		SearchTTL:      searchTTL,
		ListTTL:        listTTL,
		Log:            log,
		now:            time.Now,
		randID:         func(max int) int { return rand.Intn(max + 1) },
	}
}

// Random returns the random character for the current clock hour. All
// callers within the hour share one entry; concurrent misses share one
// catalog fetch.
func (s *CharacterService) Random(ctx context.Context) (*domain.Character, error) {
	key := cache.Key("random", s.now().UTC().Format(hourLayout))
	return s.cachedCharacter(ctx, key, s.RandomTTL, s.acquireRandom)
}

// RandomFresh bypasses the cache entirely and always triggers a new catalog
// fetch. Used by the reroll endpoint.
func (s *CharacterService) RandomFresh(ctx context.Context) (*domain.Character, error) {
	return s.acquireRandom(ctx)
}

// acquireRandom implements the uncached acquisition chain: random catalog id,
// fetch, persist (with one connectivity-checked retry), then the local
// latest-row fallback when the database stays down.
func (s *CharacterService) acquireRandom(ctx context.Context) (*domain.Character, error) {
	id := s.randID(s.MaxCharacterID)
	s.Log.Debug().Int("catalog_id", id).Msg("fetching random character")

	data, err := s.Catalog.FetchByID(ctx, id)
	if err != nil {
		var transport *aotapi.TransportError
		if !errors.As(err, &transport) {
			return nil, fmt.Errorf("%w: %v", ErrAcquisitionFailed, err)
		}
		s.Log.Warn().Err(err).Int("catalog_id", id).Msg("catalog unreachable, using latest row")
		return s.latestFallback(ctx, err)
	}

	saved, err := s.saveIfNotExists(ctx, data)
	if err == nil {
		return saved, nil
	}
	s.Log.Warn().Err(err).Str("name", data.Name).Msg("persisting random character failed, using latest row")
	return s.latestFallback(ctx, err)
}

// latestFallback serves the most recently stored character when acquisition
// could not complete. cause is the acquisition error reported when the store
// holds no rows either.
func (s *CharacterService) latestFallback(ctx context.Context, cause error) (*domain.Character, error) {
	latest, err := s.Repo.LatestCharacter(ctx, s.DB)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: no local fallback: %v", ErrAcquisitionFailed, cause)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return latest, nil
}

// Search returns the characters matching name, persisting every usable
// catalog record. Catalog failures and empty answers degrade to a local
// substring search; only a failed catalog plus an empty local result is an
// error.
func (s *CharacterService) Search(ctx context.Context, name string) ([]domain.Character, error) {
	key := cache.Key("search", name)
	b, err := s.Cache.GetOrCompute(ctx, key, s.SearchTTL, func(ctx context.Context) ([]byte, error) {
		chars, err := s.searchUncached(ctx, name)
		if err != nil {
			return nil, err
		}
		return json.Marshal(chars)
	})
	if err != nil {
		return nil, err
	}
	var out []domain.Character
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CharacterService) searchUncached(ctx context.Context, name string) ([]domain.Character, error) {
	results, apiErr := s.Catalog.SearchByName(ctx, name)
	if apiErr != nil {
		s.Log.Warn().Err(apiErr).Str("query", name).Msg("catalog search failed, trying local store")
	}

	chars := make([]domain.Character, 0, len(results))
	created := false
	for i := range results {
		saved, isNew, err := s.saveOne(ctx, &results[i])
		if err != nil {
			// One bad record must not sink the rest of the batch.
			s.Log.Warn().Err(err).Str("name", results[i].Name).Msg("persisting search result failed")
			continue
		}
		created = created || isNew
		chars = append(chars, *saved)
	}
	if created {
		s.invalidate(ctx)
	}

	if len(chars) == 0 {
		local, err := s.Repo.SearchCharactersLocal(ctx, s.DB, name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if len(local) == 0 && apiErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrAcquisitionFailed, apiErr)
		}
		return local, nil
	}
	return chars, nil
}

// ListAll returns the full catalog copy through the shared "all" cache
// entry.
func (s *CharacterService) ListAll(ctx context.Context) ([]domain.Character, error) {
	key := cache.Key("all")
	b, err := s.Cache.GetOrCompute(ctx, key, s.ListTTL, func(ctx context.Context) ([]byte, error) {
		chars, err := s.Repo.ListCharactersPage(ctx, s.DB, false, 0, 0)
		if err != nil {
			return nil, err
		}
		return json.Marshal(chars)
	})
	if err != nil {
		return nil, err
	}
	var out []domain.Character
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPage returns one page of the catalog plus the total count, uncached
// (administrative listing, always fresh).
func (s *CharacterService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Character, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total, err := s.Repo.CountCharacters(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Character{}, 0, nil
	}
	items, err := s.Repo.ListCharactersPage(ctx, s.DB, false, pageSize, (page-1)*pageSize)
	return items, total, err
}

// Get fetches a single character by id.
func (s *CharacterService) Get(ctx context.Context, id uint) (*domain.Character, error) {
	c, err := s.Repo.GetCharacterByID(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrCharacterNotFound
	}
	return c, err
}

// GetByName fetches a single character by exact name.
func (s *CharacterService) GetByName(ctx context.Context, name string) (*domain.Character, error) {
	c, err := s.Repo.GetCharacterByName(ctx, s.DB, name)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrCharacterNotFound
	}
	return c, err
}

// Create inserts an administratively supplied character and invalidates the
// character caches.
func (s *CharacterService) Create(ctx context.Context, c *domain.Character) error {
	if err := s.Repo.CreateCharacter(ctx, s.DB, c); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return ErrCharacterExists
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Update persists edits to an existing character and invalidates the
// character caches.
func (s *CharacterService) Update(ctx context.Context, c *domain.Character) error {
	if err := s.Repo.UpdateCharacter(ctx, s.DB, c); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCharacterNotFound
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes a character and invalidates the character caches.
func (s *CharacterService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteCharacter(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCharacterNotFound
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

// saveIfNotExists persists a catalog record with one connectivity-checked
// retry on failure.
func (s *CharacterService) saveIfNotExists(ctx context.Context, data *aotapi.CharacterData) (*domain.Character, error) {
	saved, created, err := s.saveOne(ctx, data)
	if err != nil {
		// The pool may be holding dead connections. Ping re-dials; if the
		// database answers, one retry is warranted.
		if pingErr := s.Repo.Ping(ctx, s.DB); pingErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		saved, created, err = s.saveOne(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	if created {
		s.invalidate(ctx)
	}
	return saved, nil
}

// saveOne maps one catalog record to a domain row and inserts it unless the
// name already exists.
func (s *CharacterService) saveOne(ctx context.Context, data *aotapi.CharacterData) (*domain.Character, bool, error) {
	c := &domain.Character{
		Name:    data.Name,
		Image:   data.Image,
		Species: data.Species,
		Gender:  data.Gender,
		Age:     data.Age,
		Status:  data.Status,
	}
	return s.Repo.CreateOrGetCharacterByName(ctx, s.DB, c)
}

// invalidate flushes the cache after a catalog mutation. Search entries are
// keyed per query, so a targeted delete cannot reach them all; a full clear
// is the only way to keep every derived entry consistent. Cleared entries
// rebuild on the next read, and the persisted daily binding recomputes to
// the same value.
func (s *CharacterService) invalidate(ctx context.Context) {
	s.Cache.Clear(ctx)
}

// cachedCharacter runs a single-character producer through the cache.
func (s *CharacterService) cachedCharacter(ctx context.Context, key string, ttl time.Duration, produce func(context.Context) (*domain.Character, error)) (*domain.Character, error) {
	b, err := s.Cache.GetOrCompute(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		c, err := produce(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(c)
	})
	if err != nil {
		return nil, err
	}
	var c domain.Character
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
