package repo

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenSQLite_MigrateSeedPing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	if err := Ping(context.Background(), db); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	ctx := context.Background()
	n, err := Seed(ctx, db)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if n != 20 {
		t.Fatalf("expected 20 seeded characters, got %d", n)
	}

	// Seeding is idempotent.
	n, err = Seed(ctx, db)
	if err != nil || n != 0 {
		t.Fatalf("expected no-op reseed, got n=%d err=%v", n, err)
	}

	quizzes, err := ListQuizzes(ctx, db)
	if err != nil || len(quizzes) != 10 {
		t.Fatalf("expected 10 quizzes, got %d err=%v", len(quizzes), err)
	}
	questions, err := ListQuestions(ctx, db)
	if err != nil || len(questions) != 30 {
		t.Fatalf("expected 30 questions, got %d err=%v", len(questions), err)
	}
}

func TestOpenSQLite_BadDir(t *testing.T) {
	if _, err := OpenSQLite(filepath.Join(t.TempDir(), "missing", "app.db")); err == nil {
		t.Fatalf("expected error for nonexistent directory")
	}
}
