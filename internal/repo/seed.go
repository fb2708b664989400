// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides development fixtures: a small set of
// characters, quizzes, and questions inserted at startup when SEED_DB is
// enabled. Seeding is idempotent; it is skipped when the catalog already
// has rows.
package repo

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/titandle/titandle-backend/internal/domain"
)

var (
	seedNames = []string{
		"Eren Yeager", "Mikasa Ackermann", "Armin Arlelt", "Levi Ackermann",
		"Erwin Smith", "Hange Zoë", "Jean Kirschtein", "Connie Springer",
		"Sasha Braus", "Historia Reiss", "Reiner Braun", "Bertholdt Hoover",
		"Annie Leonhart", "Ymir", "Zeke Yeager", "Pieck Finger",
		"Porco Galliard", "Gabi Braun", "Falco Grice", "Kenny Ackermann",
	}
	seedSpecies  = []string{"Human", "Intelligent Titan", "Ackerman", "Eldian", "Marleyan"}
	seedStatuses = []string{"Alive", "Deceased", "Unknown"}
	seedGenders  = []string{"Male", "Female"}
)

// Seed populates the database with development fixtures. It inserts 20
// characters, 10 quizzes dated over the past 10 days, and 3 questions per
// character for the first 10 characters, attached round-robin to the quizzes.
// Returns the number of characters inserted (0 when the catalog already has
// rows).
func Seed(ctx context.Context, db *gorm.DB) (int, error) {
	count, err := CountCharacters(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("seed: count characters: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	characters := make([]*domain.Character, 0, len(seedNames))
	for i, name := range seedNames {
		c := &domain.Character{
			Name:    name,
			Image:   fmt.Sprintf("https://example.com/image%d.jpg", i),
			Species: []string{seedSpecies[rng.Intn(len(seedSpecies))]},
			Gender:  seedGenders[rng.Intn(len(seedGenders))],
			Age:     15 + rng.Intn(46),
			Status:  seedStatuses[rng.Intn(len(seedStatuses))],
		}
		if err := CreateCharacter(ctx, db, c); err != nil {
			return 0, fmt.Errorf("seed: create character %q: %w", name, err)
		}
		characters = append(characters, c)
	}

	quizzes := make([]*domain.Quiz, 0, 10)
	now := time.Now().UTC()
	for i := 0; i < 10; i++ {
		date := now.AddDate(0, 0, -i)
		q := &domain.Quiz{
			Title:       fmt.Sprintf("Daily quiz %s", domain.DateKey(date)),
			Description: "Auto-generated development quiz",
			Date:        date,
		}
		if err := CreateQuiz(ctx, db, q); err != nil {
			return 0, fmt.Errorf("seed: create quiz: %w", err)
		}
		quizzes = append(quizzes, q)
	}

	questionTypes := []string{"identity", "appearance", "history"}
	for i := 0; i < 10; i++ {
		c := characters[i]
		for _, typ := range questionTypes {
			q := &domain.Question{
				Type:                typ,
				ExternalCharacterID: i + 1,
			}
			switch typ {
			case "identity":
				q.CorrectAnswer = c.Name
				q.PromptData = "Who is this character?"
			case "appearance":
				q.CorrectAnswer = c.Species[0]
				q.PromptData = "What species is this character?"
			case "history":
				q.CorrectAnswer = c.Status
				q.PromptData = "What is the status of this character?"
			}
			if err := CreateQuestion(ctx, db, q); err != nil {
				return 0, fmt.Errorf("seed: create question: %w", err)
			}
			if err := AttachQuestion(ctx, db, quizzes[i%len(quizzes)].ID, q.ID); err != nil {
				return 0, fmt.Errorf("seed: attach question: %w", err)
			}
		}
	}

	return len(characters), nil
}
