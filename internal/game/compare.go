// Package game implements the guessing rules: field-by-field comparison of a
// guessed character against the daily target, and the name normalization used
// to match player input against catalog names.
package game

import "github.com/titandle/titandle-backend/internal/domain"

// Comparison reports, per revealed attribute, whether the guessed character
// matches the daily target.
type Comparison struct {
	Gender  bool `json:"gender"`
	Species bool `json:"species"`
	Age     bool `json:"age"`
	Status  bool `json:"status"`
}

// Compare evaluates each attribute of guess against target. Species is an
// ordered list: it matches only when both characters carry the same tags in
// the same order.
func Compare(guess, target *domain.Character) Comparison {
	return Comparison{
		Gender:  guess.Gender == target.Gender,
		Species: sameSpecies(guess.Species, target.Species),
		Age:     guess.Age == target.Age,
		Status:  guess.Status == target.Status,
	}
}

// IsMatch reports whether guess identifies the target itself. Identity is
// decided by row id, not by attribute equality, so two distinct characters
// with identical visible attributes never count as a win.
func IsMatch(guess, target *domain.Character) bool {
	return guess.ID != 0 && guess.ID == target.ID
}

func sameSpecies(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
