package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/titandle/titandle-backend/internal/aotapi"
	"github.com/titandle/titandle-backend/internal/cache"
	"github.com/titandle/titandle-backend/internal/domain"
	"github.com/titandle/titandle-backend/internal/repo"
)

// ----- Fake catalog -----

type fakeCatalog struct {
	fetchCalls  int
	fetchData   *aotapi.CharacterData
	fetchErr    error
	searchCalls int
	searchData  []aotapi.CharacterData
	searchErr   error
}

func (c *fakeCatalog) FetchByID(ctx context.Context, id int) (*aotapi.CharacterData, error) {
	c.fetchCalls++
	return c.fetchData, c.fetchErr
}

func (c *fakeCatalog) SearchByName(ctx context.Context, name string) ([]aotapi.CharacterData, error) {
	c.searchCalls++
	return c.searchData, c.searchErr
}

// ----- Fake repo -----

type fakeCharRepo struct {
	byName map[string]*domain.Character
	nextID uint

	// saveFailures makes the first N CreateOrGet calls fail.
	saveFailures int
	saveCalls    int

	// failNames fails CreateOrGet for specific names (batch accumulation tests).
	failNames map[string]bool

	pingErr   error
	pingCalls int

	latest    *domain.Character
	latestErr error

	local    []domain.Character
	localErr error

	createErr error
}

func newFakeCharRepo() *fakeCharRepo {
	return &fakeCharRepo{byName: map[string]*domain.Character{}, nextID: 1}
}

func (r *fakeCharRepo) GetCharacterByID(ctx context.Context, db *gorm.DB, id uint) (*domain.Character, error) {
	for _, c := range r.byName {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *fakeCharRepo) GetCharacterByName(ctx context.Context, db *gorm.DB, name string) (*domain.Character, error) {
	if c, ok := r.byName[name]; ok {
		return c, nil
	}
	return nil, repo.ErrNotFound
}

func (r *fakeCharRepo) CountCharacters(ctx context.Context, db *gorm.DB) (int64, error) {
	return int64(len(r.byName)), nil
}

func (r *fakeCharRepo) ListCharactersPage(ctx context.Context, db *gorm.DB, desc bool, limit, offset int) ([]domain.Character, error) {
	out := make([]domain.Character, 0, len(r.byName))
	for _, c := range r.byName {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeCharRepo) LatestCharacter(ctx context.Context, db *gorm.DB) (*domain.Character, error) {
	if r.latestErr != nil {
		return nil, r.latestErr
	}
	if r.latest == nil {
		return nil, repo.ErrNotFound
	}
	return r.latest, nil
}

func (r *fakeCharRepo) SearchCharactersLocal(ctx context.Context, db *gorm.DB, name string) ([]domain.Character, error) {
	return r.local, r.localErr
}

func (r *fakeCharRepo) CreateOrGetCharacterByName(ctx context.Context, db *gorm.DB, c *domain.Character) (*domain.Character, bool, error) {
	r.saveCalls++
	if r.saveFailures > 0 {
		r.saveFailures--
		return nil, false, errors.New("database is gone")
	}
	if r.failNames[c.Name] {
		return nil, false, errors.New("constraint violated")
	}
	if existing, ok := r.byName[c.Name]; ok {
		return existing, false, nil
	}
	c.ID = r.nextID
	r.nextID++
	r.byName[c.Name] = c
	r.latest = c
	return c, true, nil
}

func (r *fakeCharRepo) CreateCharacter(ctx context.Context, db *gorm.DB, c *domain.Character) error {
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.byName[c.Name]; ok {
		return repo.ErrDuplicate
	}
	c.ID = r.nextID
	r.nextID++
	r.byName[c.Name] = c
	return nil
}

func (r *fakeCharRepo) UpdateCharacter(ctx context.Context, db *gorm.DB, c *domain.Character) error {
	return nil
}

func (r *fakeCharRepo) DeleteCharacter(ctx context.Context, db *gorm.DB, id uint) error {
	for name, c := range r.byName {
		if c.ID == id {
			delete(r.byName, name)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r *fakeCharRepo) Ping(ctx context.Context, db *gorm.DB) error {
	r.pingCalls++
	return r.pingErr
}

// ----- Helpers -----

func newCharService(catalog Catalog, r CharacterRepo) *CharacterService {
	s := NewCharacterService(nil, r, catalog, cache.NewMemory(), 201,
		time.Hour, time.Hour, time.Hour, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2025, 7, 14, 10, 30, 0, 0, time.UTC) }
	s.randID = func(max int) int { return 7 }
	return s
}

func catalogRecord(name string) *aotapi.CharacterData {
	return &aotapi.CharacterData{
		Name:    name,
		Species: []string{"Human"},
		Gender:  "Male",
		Age:     19,
		Status:  "Alive",
	}
}

// ----- Random -----

func TestRandom_FetchesOncePerHour(t *testing.T) {
	catalog := &fakeCatalog{fetchData: catalogRecord("Eren Yeager")}
	r := newFakeCharRepo()
	s := newCharService(catalog, r)
	ctx := context.Background()

	first, err := s.Random(ctx)
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	if first.Name != "Eren Yeager" || first.ID == 0 {
		t.Fatalf("unexpected character: %+v", first)
	}

	second, err := s.Random(ctx)
	if err != nil {
		t.Fatalf("Random (cached): %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected cached character, got %+v", second)
	}
	if catalog.fetchCalls != 1 {
		t.Fatalf("expected 1 catalog fetch, got %d", catalog.fetchCalls)
	}
}

func TestRandom_NewHourNewEntry(t *testing.T) {
	catalog := &fakeCatalog{fetchData: catalogRecord("Eren Yeager")}
	r := newFakeCharRepo()
	s := newCharService(catalog, r)
	ctx := context.Background()

	if _, err := s.Random(ctx); err != nil {
		t.Fatalf("Random: %v", err)
	}
	s.now = func() time.Time { return time.Date(2025, 7, 14, 11, 0, 0, 0, time.UTC) }
	if _, err := s.Random(ctx); err != nil {
		t.Fatalf("Random (next hour): %v", err)
	}
	if catalog.fetchCalls != 2 {
		t.Fatalf("expected a fresh fetch for the new hour, got %d", catalog.fetchCalls)
	}
}

func TestRandom_CatalogDown_FallsBackToLatest(t *testing.T) {
	catalog := &fakeCatalog{fetchErr: &aotapi.TransportError{Err: errors.New("refused")}}
	r := newFakeCharRepo()
	r.latest = &domain.Character{ID: 5, Name: "Historia Reiss"}
	s := newCharService(catalog, r)
	ctx := context.Background()

	got, err := s.Random(ctx)
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	if got.ID != 5 || got.Name != "Historia Reiss" {
		t.Fatalf("expected latest row while catalog is down, got %+v", got)
	}

	// The fallback is a successful result and is pinned for the hour.
	if _, err := s.Random(ctx); err != nil {
		t.Fatalf("Random (cached): %v", err)
	}
	if catalog.fetchCalls != 1 {
		t.Fatalf("expected fallback cached for the hour, got %d fetches", catalog.fetchCalls)
	}
}

func TestRandom_CatalogDownAndEmptyStore_NotCached(t *testing.T) {
	catalog := &fakeCatalog{fetchErr: &aotapi.TransportError{Err: errors.New("refused")}}
	r := newFakeCharRepo()
	s := newCharService(catalog, r)
	ctx := context.Background()

	if _, err := s.Random(ctx); !errors.Is(err, ErrAcquisitionFailed) {
		t.Fatalf("expected ErrAcquisitionFailed, got %v", err)
	}

	// The failure must not be cached: the catalog recovers and so do we.
	catalog.fetchErr = nil
	catalog.fetchData = catalogRecord("Mikasa Ackermann")
	got, err := s.Random(ctx)
	if err != nil || got.Name != "Mikasa Ackermann" {
		t.Fatalf("expected recovery, got %+v err=%v", got, err)
	}
	if catalog.fetchCalls != 2 {
		t.Fatalf("expected 2 fetches, got %d", catalog.fetchCalls)
	}
}

func TestRandom_ClientError_NoFallback(t *testing.T) {
	catalog := &fakeCatalog{fetchErr: &aotapi.ClientError{StatusCode: 404}}
	r := newFakeCharRepo()
	r.latest = &domain.Character{ID: 5, Name: "Historia Reiss"}
	s := newCharService(catalog, r)

	// Only transport failures reach for local data; a client error is final.
	if _, err := s.Random(context.Background()); !errors.Is(err, ErrAcquisitionFailed) {
		t.Fatalf("expected ErrAcquisitionFailed, got %v", err)
	}
}

func TestRandom_SaveFailure_PingAndRetry(t *testing.T) {
	catalog := &fakeCatalog{fetchData: catalogRecord("Levi Ackermann")}
	r := newFakeCharRepo()
	r.saveFailures = 1
	s := newCharService(catalog, r)

	got, err := s.Random(context.Background())
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	if got.Name != "Levi Ackermann" {
		t.Fatalf("unexpected character: %+v", got)
	}
	if r.pingCalls != 1 || r.saveCalls != 2 {
		t.Fatalf("expected ping then retry, got pings=%d saves=%d", r.pingCalls, r.saveCalls)
	}
}

func TestRandom_StoreDown_FallsBackToLatest(t *testing.T) {
	catalog := &fakeCatalog{fetchData: catalogRecord("Levi Ackermann")}
	r := newFakeCharRepo()
	r.saveFailures = 2
	r.pingErr = errors.New("still down")
	r.latest = &domain.Character{ID: 9, Name: "Armin Arlelt"}
	s := newCharService(catalog, r)

	got, err := s.Random(context.Background())
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	if got.Name != "Armin Arlelt" {
		t.Fatalf("expected latest-row fallback, got %+v", got)
	}
}

func TestRandom_StoreDownAndEmpty_AcquisitionFailed(t *testing.T) {
	catalog := &fakeCatalog{fetchData: catalogRecord("Levi Ackermann")}
	r := newFakeCharRepo()
	r.saveFailures = 2
	r.pingErr = errors.New("still down")
	s := newCharService(catalog, r)

	if _, err := s.Random(context.Background()); !errors.Is(err, ErrAcquisitionFailed) {
		t.Fatalf("expected ErrAcquisitionFailed, got %v", err)
	}
}

func TestRandom_CatalogDownAndStoreDown_StoreUnavailable(t *testing.T) {
	catalog := &fakeCatalog{fetchErr: &aotapi.TransportError{Err: errors.New("refused")}}
	r := newFakeCharRepo()
	r.latestErr = errors.New("connection reset")
	s := newCharService(catalog, r)

	if _, err := s.Random(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

// ----- Search -----

func TestSearch_PersistsResultsAndCaches(t *testing.T) {
	catalog := &fakeCatalog{searchData: []aotapi.CharacterData{
		*catalogRecord("Eren Yeager"),
		*catalogRecord("Zeke Yeager"),
	}}
	r := newFakeCharRepo()
	s := newCharService(catalog, r)
	ctx := context.Background()

	got, err := s.Search(ctx, "yeager")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if len(r.byName) != 2 {
		t.Fatalf("expected results persisted, got %d rows", len(r.byName))
	}

	if _, err := s.Search(ctx, "yeager"); err != nil {
		t.Fatalf("Search (cached): %v", err)
	}
	if catalog.searchCalls != 1 {
		t.Fatalf("expected cached second search, got %d calls", catalog.searchCalls)
	}
}

func TestSearch_BadRecordSkipped(t *testing.T) {
	catalog := &fakeCatalog{searchData: []aotapi.CharacterData{
		*catalogRecord("Eren Yeager"),
		*catalogRecord("Cursed Row"),
		*catalogRecord("Zeke Yeager"),
	}}
	r := newFakeCharRepo()
	r.failNames = map[string]bool{"Cursed Row": true}
	s := newCharService(catalog, r)

	got, err := s.Search(context.Background(), "yeager")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected bad record skipped, got %d results", len(got))
	}
}

func TestSearch_CatalogDown_LocalFallback(t *testing.T) {
	catalog := &fakeCatalog{searchErr: &aotapi.TransportError{Err: errors.New("refused")}}
	r := newFakeCharRepo()
	r.local = []domain.Character{{ID: 3, Name: "Eren Yeager"}}
	s := newCharService(catalog, r)

	got, err := s.Search(context.Background(), "eren")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Eren Yeager" {
		t.Fatalf("expected local fallback, got %+v", got)
	}
}

func TestSearch_CatalogDownAndLocalEmpty_Fails(t *testing.T) {
	catalog := &fakeCatalog{searchErr: &aotapi.TransportError{Err: errors.New("refused")}}
	r := newFakeCharRepo()
	s := newCharService(catalog, r)
	ctx := context.Background()

	if _, err := s.Search(ctx, "eren"); !errors.Is(err, ErrAcquisitionFailed) {
		t.Fatalf("expected ErrAcquisitionFailed, got %v", err)
	}

	// Failure is not cached.
	if _, err := s.Search(ctx, "eren"); !errors.Is(err, ErrAcquisitionFailed) {
		t.Fatalf("expected ErrAcquisitionFailed on retry, got %v", err)
	}
	if catalog.searchCalls != 2 {
		t.Fatalf("expected failure not cached, got %d calls", catalog.searchCalls)
	}
}

func TestSearch_EmptyCatalogAnswer_LocalFallback(t *testing.T) {
	catalog := &fakeCatalog{} // nil results, nil error
	r := newFakeCharRepo()
	r.local = []domain.Character{{ID: 3, Name: "Eren Yeager"}}
	s := newCharService(catalog, r)

	got, err := s.Search(context.Background(), "eren")
	if err != nil || len(got) != 1 {
		t.Fatalf("expected local fallback for empty answer, got %+v err=%v", got, err)
	}
}

// ----- CRUD -----

func TestCreate_DuplicateName(t *testing.T) {
	r := newFakeCharRepo()
	s := newCharService(&fakeCatalog{}, r)
	ctx := context.Background()

	c := &domain.Character{Name: "Eren Yeager", Gender: "Male", Species: []string{"Human"}, Age: 19, Status: "Alive"}
	if err := s.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	dup := &domain.Character{Name: "Eren Yeager", Gender: "Male", Species: []string{"Human"}, Age: 19, Status: "Alive"}
	if err := s.Create(ctx, dup); !errors.Is(err, ErrCharacterExists) {
		t.Fatalf("expected ErrCharacterExists, got %v", err)
	}
}

func TestCreate_InvalidatesListCache(t *testing.T) {
	r := newFakeCharRepo()
	s := newCharService(&fakeCatalog{}, r)
	ctx := context.Background()

	if err := s.Create(ctx, &domain.Character{Name: "A", Gender: "Male", Species: []string{"Human"}, Age: 19, Status: "Alive"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	first, err := s.ListAll(ctx)
	if err != nil || len(first) != 1 {
		t.Fatalf("ListAll: %d err=%v", len(first), err)
	}

	if err := s.Create(ctx, &domain.Character{Name: "B", Gender: "Male", Species: []string{"Human"}, Age: 19, Status: "Alive"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := s.ListAll(ctx)
	if err != nil || len(second) != 2 {
		t.Fatalf("expected cache invalidated after create, got %d err=%v", len(second), err)
	}
}

func TestCreate_InvalidatesSearchCache(t *testing.T) {
	catalog := &fakeCatalog{searchData: []aotapi.CharacterData{*catalogRecord("Eren Yeager")}}
	r := newFakeCharRepo()
	s := newCharService(catalog, r)
	ctx := context.Background()

	if _, err := s.Search(ctx, "eren"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if catalog.searchCalls != 1 {
		t.Fatalf("expected 1 catalog search, got %d", catalog.searchCalls)
	}

	// A mutation flushes every derived entry, search results included.
	if err := s.Create(ctx, &domain.Character{Name: "Erwin Smith", Gender: "Male", Species: []string{"Human"}, Age: 39, Status: "Deceased"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Search(ctx, "eren"); err != nil {
		t.Fatalf("Search (after create): %v", err)
	}
	if catalog.searchCalls != 2 {
		t.Fatalf("expected search cache flushed by create, got %d calls", catalog.searchCalls)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newCharService(&fakeCatalog{}, newFakeCharRepo())
	if _, err := s.Get(context.Background(), 42); !errors.Is(err, ErrCharacterNotFound) {
		t.Fatalf("expected ErrCharacterNotFound, got %v", err)
	}
}
