package icards

// Deck represents a flashcard deck as returned by the iCards API.
type Deck struct {
	ID                     int64          `json:"id"`
	Name                   string         `json:"name"`
	Description            string         `json:"description,omitempty"`
	CardCount              int            `json:"card_count"`
	Stats                  *DeckCounters  `json:"stats,omitempty"`
	Tags                   []Tag          `json:"tags,omitempty"`
	DifficultyDistribution map[string]int `json:"difficulty_distribution,omitempty"`
}

// DeckCounters is the counters block some deck payloads embed.
type DeckCounters struct {
	FlashcardsCount int `json:"flashcardsCount"`
	RevisionsCount  int `json:"revisionsCount"`
}

// FlashcardTotal returns the deck's flashcard count, preferring the
// embedded counters block when present.
func (d Deck) FlashcardTotal() int {
	if d.Stats != nil && d.Stats.FlashcardsCount > 0 {
		return d.Stats.FlashcardsCount
	}
	return d.CardCount
}

// Flashcard represents a single card. TagID is nil for untagged cards;
// a card carries at most one tag.
type Flashcard struct {
	ID         int64  `json:"id"`
	Front      string `json:"front"`
	Back       string `json:"back"`
	DeckID     int64  `json:"deckId"`
	Difficulty int    `json:"difficulty"`
	TagID      *int64 `json:"tagId,omitempty"`
}

// Tagged reports whether the card has a tag assigned.
func (f Flashcard) Tagged() bool { return f.TagID != nil }

// Tag represents a tag scoped to one deck. Names are unique per deck,
// case-insensitively.
type Tag struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	DeckID         int64  `json:"deckId,omitempty"`
	Color          string `json:"color,omitempty"`
	Description    string `json:"description,omitempty"`
	FlashcardCount int    `json:"flashcard_count,omitempty"`
}

// DeckCreate is the payload for creating a deck.
type DeckCreate struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	GenerateCover bool   `json:"generateCover,omitempty"`
}

// DeckUpdate is the payload for updating a deck. Nil fields are omitted.
type DeckUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// FlashcardCreate is the payload for creating a flashcard.
type FlashcardCreate struct {
	Front      string `json:"front"`
	Back       string `json:"back"`
	DeckID     int64  `json:"deckId"`
	Difficulty int    `json:"difficulty"`
	TagID      *int64 `json:"tagId,omitempty"`
}

// FlashcardUpdate is the full-update payload for a flashcard. The
// upstream PUT replaces the record, so existing front/back/difficulty
// must be carried forward by the caller.
type FlashcardUpdate struct {
	Front      string `json:"front"`
	Back       string `json:"back"`
	Difficulty int    `json:"difficulty"`
	TagID      *int64 `json:"tagId"`
}

// TagCreate is the payload for creating a tag within a deck.
type TagCreate struct {
	Name        string `json:"name"`
	DeckID      int64  `json:"deckId"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

// TagUpdate is the payload for updating a tag. Nil fields are omitted.
type TagUpdate struct {
	Name        *string `json:"name,omitempty"`
	Color       *string `json:"color,omitempty"`
	Description *string `json:"description,omitempty"`
}
