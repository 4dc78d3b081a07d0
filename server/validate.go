package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/EloSanz/iCardsMCP/icards"
)

var (
	errNothingToUpdate = errors.New("at least one field to update must be provided")
	errNoFlashcards    = errors.New("at least one flashcard must be provided")
	errEmptyQuery      = errors.New("search query must not be empty")
	errEmptyTagName    = errors.New("tag name must not be empty")
	errBadFlashcardID  = errors.New("flashcard_id must be a positive integer")
	errBadTagID        = errors.New("tag_id must be a positive integer")
)

const (
	deckNameMaxLen = 100
	frontMaxLen    = 1000
	backMaxLen     = 2000
)

// deckNameForbidden are characters rejected in deck names.
const deckNameForbidden = `<>:"|?*`

func validateDeckName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("deck name must not be empty")
	}
	if len(name) > deckNameMaxLen {
		return fmt.Errorf("deck name must be at most %d characters, got %d", deckNameMaxLen, len(name))
	}
	if i := strings.IndexAny(name, deckNameForbidden); i >= 0 {
		return fmt.Errorf("deck name must not contain %q", name[i])
	}
	return nil
}

func validateFlashcardContent(front, back string) error {
	if strings.TrimSpace(front) == "" {
		return fmt.Errorf("flashcard front must not be empty")
	}
	if strings.TrimSpace(back) == "" {
		return fmt.Errorf("flashcard back must not be empty")
	}
	if len(front) > frontMaxLen {
		return fmt.Errorf("flashcard front must be at most %d characters, got %d", frontMaxLen, len(front))
	}
	if len(back) > backMaxLen {
		return fmt.Errorf("flashcard back must be at most %d characters, got %d", backMaxLen, len(back))
	}
	return nil
}

func validateDifficulty(d int) error {
	if d < icards.DifficultyMin || d > icards.DifficultyMax {
		return fmt.Errorf("difficulty must be between %d and %d, got %d", icards.DifficultyMin, icards.DifficultyMax, d)
	}
	return nil
}
