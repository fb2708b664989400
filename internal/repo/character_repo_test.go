package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/titandle/titandle-backend/internal/domain"
)

func newCharacterRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("character_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func testCharacter(name string) *domain.Character {
	return &domain.Character{
		Name:    name,
		Image:   "https://example.com/" + name + ".jpg",
		Species: []string{"Human"},
		Gender:  "Male",
		Age:     19,
		Status:  "Alive",
	}
}

func TestCreateCharacter_Error_NoTable(t *testing.T) {
	db := newCharacterRepoDB(t /* no migrations */)
	err := CreateCharacter(context.Background(), db, testCharacter("Eren Yeager"))
	if err == nil {
		t.Fatalf("expected error creating without table")
	}
}

func TestCreateCharacter_Success_RoundTripsSpecies(t *testing.T) {
	db := newCharacterRepoDB(t, &domain.Character{})

	c := testCharacter("Eren Yeager")
	c.Species = []string{"Human", "Intelligent Titan"}
	if err := CreateCharacter(context.Background(), db, c); err != nil {
		t.Fatalf("CreateCharacter: %v", err)
	}
	if c.ID == 0 {
		t.Fatalf("expected assigned ID, got 0")
	}

	got, err := GetCharacterByID(context.Background(), db, c.ID)
	if err != nil {
		t.Fatalf("GetCharacterByID: %v", err)
	}
	if got.Name != "Eren Yeager" || len(got.Species) != 2 || got.Species[1] != "Intelligent Titan" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestGetCharacterByID_NotFound(t *testing.T) {
	db := newCharacterRepoDB(t, &domain.Character{})
	if _, err := GetCharacterByID(context.Background(), db, 12345); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetCharacterByName_NotFound(t *testing.T) {
	db := newCharacterRepoDB(t, &domain.Character{})
	if _, err := GetCharacterByName(context.Background(), db, "Nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateOrGetCharacterByName_FirstInsertWins(t *testing.T) {
	db := newCharacterRepoDB(t, &domain.Character{})
	ctx := context.Background()

	first, created, err := CreateOrGetCharacterByName(ctx, db, testCharacter("Levi Ackermann"))
	if err != nil || !created {
		t.Fatalf("first call: created=%v err=%v", created, err)
	}

	dup := testCharacter("Levi Ackermann")
	dup.Age = 34
	second, created, err := CreateOrGetCharacterByName(ctx, db, dup)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if created {
		t.Fatalf("expected existing row to be returned, got created=true")
	}
	if second.ID != first.ID || second.Age != first.Age {
		t.Fatalf("expected winner row %+v, got %+v", first, second)
	}

	n, err := CountCharacters(ctx, db)
	if err != nil || n != 1 {
		t.Fatalf("expected exactly 1 row, got n=%d err=%v", n, err)
	}
}

func TestCreateCharacter_DuplicateName_ErrDuplicate(t *testing.T) {
	db := newCharacterRepoDB(t, &domain.Character{})
	ctx := context.Background()

	if err := CreateCharacter(ctx, db, testCharacter("Armin Arlelt")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := CreateCharacter(ctx, db, testCharacter("Armin Arlelt"))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	n, err := CountCharacters(ctx, db)
	if err != nil || n != 1 {
		t.Fatalf("expected exactly 1 row, got n=%d err=%v", n, err)
	}
}

func TestLatestCharacter(t *testing.T) {
	db := newCharacterRepoDB(t, &domain.Character{})
	ctx := context.Background()

	if _, err := LatestCharacter(ctx, db); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty table, got %v", err)
	}

	for _, name := range []string{"Eren Yeager", "Mikasa Ackermann", "Armin Arlelt"} {
		if err := CreateCharacter(ctx, db, testCharacter(name)); err != nil {
			t.Fatalf("insert %q: %v", name, err)
		}
	}
	got, err := LatestCharacter(ctx, db)
	if err != nil {
		t.Fatalf("LatestCharacter: %v", err)
	}
	if got.Name != "Armin Arlelt" {
		t.Fatalf("expected newest row, got %+v", got)
	}
}

func TestSampleRandomCharacters_BoundedBySize(t *testing.T) {
	db := newCharacterRepoDB(t, &domain.Character{})
	ctx := context.Background()

	for _, name := range []string{"Eren Yeager", "Mikasa Ackermann"} {
		if err := CreateCharacter(ctx, db, testCharacter(name)); err != nil {
			t.Fatalf("insert %q: %v", name, err)
		}
	}
	got, err := SampleRandomCharacters(ctx, db, 5)
	if err != nil {
		t.Fatalf("SampleRandomCharacters: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
}

func TestSearchCharactersLocal_CaseInsensitiveAndQuoteStripped(t *testing.T) {
	db := newCharacterRepoDB(t, &domain.Character{})
	ctx := context.Background()

	for _, name := range []string{"Eren Yeager", "Zeke Yeager", "Levi Ackermann"} {
		if err := CreateCharacter(ctx, db, testCharacter(name)); err != nil {
			t.Fatalf("insert %q: %v", name, err)
		}
	}

	got, err := SearchCharactersLocal(ctx, db, `"yeager"`)
	if err != nil {
		t.Fatalf("SearchCharactersLocal: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d: %+v", len(got), got)
	}

	got, err = SearchCharactersLocal(ctx, db, "nobody")
	if err != nil {
		t.Fatalf("SearchCharactersLocal(miss): %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}
}

func TestListCharactersPage_OrderAndWindow(t *testing.T) {
	db := newCharacterRepoDB(t, &domain.Character{})
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C", "D"} {
		if err := CreateCharacter(ctx, db, testCharacter(name)); err != nil {
			t.Fatalf("insert %q: %v", name, err)
		}
	}

	page, err := ListCharactersPage(ctx, db, true, 2, 0)
	if err != nil {
		t.Fatalf("ListCharactersPage: %v", err)
	}
	if len(page) != 2 || page[0].Name != "D" || page[1].Name != "C" {
		t.Fatalf("unexpected first page: %+v", page)
	}

	page, err = ListCharactersPage(ctx, db, false, 2, 2)
	if err != nil {
		t.Fatalf("ListCharactersPage(offset): %v", err)
	}
	if len(page) != 2 || page[0].Name != "C" || page[1].Name != "D" {
		t.Fatalf("unexpected second page: %+v", page)
	}
}

func TestUpdateCharacter_PersistsSelectedFields(t *testing.T) {
	db := newCharacterRepoDB(t, &domain.Character{})
	ctx := context.Background()

	c := testCharacter("Historia Reiss")
	if err := CreateCharacter(ctx, db, c); err != nil {
		t.Fatalf("CreateCharacter: %v", err)
	}

	c.Status = "Unknown"
	c.Age = 18
	c.Species = []string{"Human", "Royal"}
	if err := UpdateCharacter(ctx, db, c); err != nil {
		t.Fatalf("UpdateCharacter: %v", err)
	}

	got, err := GetCharacterByID(ctx, db, c.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != "Unknown" || got.Age != 18 || len(got.Species) != 2 {
		t.Fatalf("update not persisted: %+v", got)
	}
}

func TestDeleteCharacter(t *testing.T) {
	db := newCharacterRepoDB(t, &domain.Character{})
	ctx := context.Background()

	c := testCharacter("Kenny Ackermann")
	if err := CreateCharacter(ctx, db, c); err != nil {
		t.Fatalf("CreateCharacter: %v", err)
	}
	if err := DeleteCharacter(ctx, db, c.ID); err != nil {
		t.Fatalf("DeleteCharacter: %v", err)
	}
	if _, err := GetCharacterByID(ctx, db, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := DeleteCharacter(ctx, db, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}
