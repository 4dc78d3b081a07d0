// Package tagging implements bulk tag assignment over a deck's
// flashcards: selection, idempotent per-item mutation, and
// partial-failure aggregation.
package tagging

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/EloSanz/iCardsMCP/filter"
	"github.com/EloSanz/iCardsMCP/icards"
)

// Criteria selects which flashcards of a deck to tag.
type Criteria string

const (
	// CriteriaNone means the caller supplies explicit flashcard IDs.
	CriteriaNone Criteria = ""
	// CriteriaUntagged selects flashcards with no tag assigned.
	CriteriaUntagged Criteria = "untagged"
	// CriteriaAll selects every flashcard in the deck.
	CriteriaAll Criteria = "all"
)

const (
	// MaxExplicitIDs bounds the number of caller-supplied flashcard IDs.
	MaxExplicitIDs = 100
	// MaxFlashcardsCap bounds the MaxFlashcards request field.
	MaxFlashcardsCap = 100
	// FailureSampleSize caps the failure detail list in a Result. The
	// Failed counter still reflects the true total.
	FailureSampleSize = 5
)

// Request describes one bulk assignment invocation. Criteria and
// FlashcardIDs are alternative selection modes; when a criteria is set,
// explicit IDs are ignored. Where optionally narrows criteria-based
// selection with a local filter expression.
type Request struct {
	DeckName      string
	TagName       string
	Criteria      Criteria
	FlashcardIDs  []int64
	MaxFlashcards int
	Where         string
}

// Failure records why one flashcard could not be tagged.
type Failure struct {
	FlashcardID int64  `json:"flashcardId"`
	Reason      string `json:"reason"`
}

// Result aggregates one invocation. Succeeded + Skipped + Failed ==
// Requested always holds.
type Result struct {
	DeckName   string    `json:"deckName"`
	TagName    string    `json:"tagName"`
	TagID      int64     `json:"tagId"`
	TagCreated bool      `json:"tagCreated"`
	Requested  int       `json:"requested"`
	Succeeded  int       `json:"succeeded"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Failures   []Failure `json:"failures,omitempty"`
}

// Engine orchestrates bulk tag assignment through the domain services.
type Engine struct {
	decks  *icards.DeckService
	cards  *icards.FlashcardService
	tags   *icards.TagService
	logger zerolog.Logger
}

// NewEngine creates a bulk tag-assignment engine.
func NewEngine(decks *icards.DeckService, cards *icards.FlashcardService, tags *icards.TagService, logger zerolog.Logger) *Engine {
	return &Engine{decks: decks, cards: cards, tags: tags, logger: logger}
}

// Assign applies one tag to the selected flashcards of a deck.
//
// The deck is resolved by name and the tag is resolved (or created)
// once per invocation. Items are then processed sequentially; the
// ordering of the per-item reports matches selection order, and two
// invocations never race against each other on the same card. Per-item
// failures never abort the batch.
func (e *Engine) Assign(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	deck, err := e.decks.FindByName(ctx, req.DeckName)
	if err != nil {
		return nil, err
	}

	tag, created, err := e.resolveTag(ctx, deck.ID, req.TagName)
	if err != nil {
		return nil, err
	}

	ids, err := e.selectFlashcards(ctx, deck.ID, req)
	if err != nil {
		return nil, err
	}

	result := &Result{
		DeckName:   deck.Name,
		TagName:    tag.Name,
		TagID:      tag.ID,
		TagCreated: created,
		Requested:  len(ids),
	}

	e.logger.Info().
		Str("deck", deck.Name).
		Str("tag", tag.Name).
		Int("selected", len(ids)).
		Str("criteria", string(req.Criteria)).
		Msg("Starting bulk tag assignment")

	for _, id := range ids {
		switch outcome, reason := e.applyOne(ctx, deck.ID, tag.ID, id); outcome {
		case outcomeUpdated:
			result.Succeeded++
		case outcomeSkipped:
			result.Skipped++
		case outcomeFailed:
			result.Failed++
			if len(result.Failures) < FailureSampleSize {
				result.Failures = append(result.Failures, Failure{FlashcardID: id, Reason: reason})
			}
			e.logger.Warn().
				Int64("flashcard_id", id).
				Str("reason", reason).
				Msg("Flashcard tagging failed")
		}
	}

	e.logger.Info().
		Int("requested", result.Requested).
		Int("succeeded", result.Succeeded).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Bulk tag assignment complete")

	return result, nil
}

type outcome int

const (
	outcomeUpdated outcome = iota
	outcomeSkipped
	outcomeFailed
)

// applyOne runs the per-flashcard state machine: re-fetch, verify deck
// membership, skip if the tag is already assigned, otherwise perform a
// full update carrying the current content forward.
func (e *Engine) applyOne(ctx context.Context, deckID, tagID, flashcardID int64) (outcome, string) {
	card, err := e.cards.Get(ctx, flashcardID)
	if err != nil {
		return outcomeFailed, fmt.Sprintf("fetch: %v", err)
	}
	if card.DeckID != deckID {
		return outcomeFailed, fmt.Sprintf("flashcard %d does not belong to deck %d", flashcardID, deckID)
	}
	if card.TagID != nil && *card.TagID == tagID {
		return outcomeSkipped, ""
	}

	_, err = e.cards.Update(ctx, flashcardID, icards.FlashcardUpdate{
		Front:      card.Front,
		Back:       card.Back,
		Difficulty: card.Difficulty,
		TagID:      &tagID,
	})
	if err != nil {
		return outcomeFailed, fmt.Sprintf("update: %v", err)
	}
	return outcomeUpdated, ""
}

// resolveTag finds the tag by case-insensitive name within the deck,
// creating it when absent. Runs once per invocation, never per item.
func (e *Engine) resolveTag(ctx context.Context, deckID int64, name string) (*icards.Tag, bool, error) {
	tag, err := e.tags.FindByName(ctx, deckID, name)
	if err == nil {
		return tag, false, nil
	}
	var notFound *icards.NotFoundError
	if !errors.As(err, &notFound) {
		return nil, false, err
	}

	created, err := e.tags.Create(ctx, icards.TagCreate{Name: strings.TrimSpace(name), DeckID: deckID})
	if err != nil {
		return nil, false, err
	}
	e.logger.Debug().Str("tag", created.Name).Int64("deck_id", deckID).Msg("Created tag")
	return created, true, nil
}

// selectFlashcards resolves the selection mode into an ordered id list.
func (e *Engine) selectFlashcards(ctx context.Context, deckID int64, req Request) ([]int64, error) {
	if req.Criteria == CriteriaNone {
		return req.FlashcardIDs, nil
	}

	var cards []icards.Flashcard
	var err error
	switch req.Criteria {
	case CriteriaUntagged:
		cards, err = e.cards.ListUntagged(ctx, deckID)
	case CriteriaAll:
		cards, err = e.cards.ListByDeck(ctx, deckID, icards.ListOptions{All: true})
	}
	if err != nil {
		return nil, err
	}

	if req.Where != "" {
		cards, err = e.applyWhere(req.Where, cards)
		if err != nil {
			return nil, err
		}
	}

	if req.MaxFlashcards > 0 && len(cards) > req.MaxFlashcards {
		cards = cards[:req.MaxFlashcards]
	}

	ids := make([]int64, len(cards))
	for i, card := range cards {
		ids[i] = card.ID
	}
	return ids, nil
}

func (e *Engine) applyWhere(expression string, cards []icards.Flashcard) ([]icards.Flashcard, error) {
	f, err := filter.Compile(expression)
	if err != nil {
		return nil, err
	}
	matched := make([]icards.Flashcard, 0, len(cards))
	for _, card := range cards {
		ok, err := f.Match(card)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, card)
		}
	}
	return matched, nil
}

func validateRequest(req Request) error {
	if strings.TrimSpace(req.DeckName) == "" {
		return fmt.Errorf("deck name is required")
	}
	if strings.TrimSpace(req.TagName) == "" {
		return fmt.Errorf("tag name is required")
	}
	switch req.Criteria {
	case CriteriaNone, CriteriaUntagged, CriteriaAll:
	default:
		return fmt.Errorf("invalid selection criteria %q: must be %q, %q or empty", req.Criteria, CriteriaUntagged, CriteriaAll)
	}
	if req.MaxFlashcards < 0 || req.MaxFlashcards > MaxFlashcardsCap {
		return fmt.Errorf("max flashcards must be between 0 and %d, got %d", MaxFlashcardsCap, req.MaxFlashcards)
	}
	if req.Criteria == CriteriaNone {
		if len(req.FlashcardIDs) == 0 {
			return fmt.Errorf("either a selection criteria or flashcard IDs must be provided")
		}
		if len(req.FlashcardIDs) > MaxExplicitIDs {
			return fmt.Errorf("at most %d flashcard IDs allowed, got %d", MaxExplicitIDs, len(req.FlashcardIDs))
		}
		seen := make(map[int64]struct{}, len(req.FlashcardIDs))
		for _, id := range req.FlashcardIDs {
			if _, ok := seen[id]; ok {
				return fmt.Errorf("duplicate flashcard ID %d", id)
			}
			seen[id] = struct{}{}
		}
		if req.Where != "" {
			return fmt.Errorf("a where expression requires a selection criteria")
		}
	}
	return nil
}
