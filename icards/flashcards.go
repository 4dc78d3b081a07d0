package icards

import (
	"context"
	"net/url"
	"strconv"
)

// Difficulty bounds. The domain accepts 1-5, but the remote persistence
// layer clamps stored values to 1-3. Clamping at the write boundary is
// a rule of the upstream contract, not a validation error.
const (
	DifficultyMin = 1
	DifficultyMax = 5

	persistedDifficultyMax = 3
)

func clampDifficulty(d int) int {
	if d < DifficultyMin {
		return DifficultyMin
	}
	if d > persistedDifficultyMax {
		return persistedDifficultyMax
	}
	return d
}

// ListOptions controls flashcard listing.
type ListOptions struct {
	All      bool
	PageSize int
	Offset   int
}

// FlashcardService exposes flashcard operations as a typed facade over
// the request executor.
type FlashcardService struct {
	client *Client
}

// NewFlashcardService creates a flashcard service bound to client.
func NewFlashcardService(client *Client) *FlashcardService {
	return &FlashcardService{client: client}
}

// Create creates a new flashcard.
func (s *FlashcardService) Create(ctx context.Context, req FlashcardCreate) (*Flashcard, error) {
	req.Difficulty = clampDifficulty(req.Difficulty)
	env, err := s.client.post(ctx, pathFlashcards, req)
	if err != nil {
		return nil, err
	}
	return decodeFlashcard(env)
}

// Get retrieves a flashcard by id.
func (s *FlashcardService) Get(ctx context.Context, id int64) (*Flashcard, error) {
	env, err := s.client.get(ctx, flashcardPath(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeFlashcard(env)
}

// Update replaces a flashcard. The upstream PUT is a full update, so
// req must carry the current front/back/difficulty alongside any
// change.
func (s *FlashcardService) Update(ctx context.Context, id int64, req FlashcardUpdate) (*Flashcard, error) {
	req.Difficulty = clampDifficulty(req.Difficulty)
	env, err := s.client.put(ctx, flashcardPath(id), req)
	if err != nil {
		return nil, err
	}
	return decodeFlashcard(env)
}

// Delete removes a flashcard.
func (s *FlashcardService) Delete(ctx context.Context, id int64) error {
	_, err := s.client.del(ctx, flashcardPath(id))
	return err
}

// ListByDeck lists the flashcards of one deck.
func (s *FlashcardService) ListByDeck(ctx context.Context, deckID int64, opts ListOptions) ([]Flashcard, error) {
	params := url.Values{}
	if opts.All {
		params.Set("all", "true")
	} else if opts.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}

	env, err := s.client.get(ctx, flashcardsByDeckPath(deckID), params)
	if err != nil {
		return nil, err
	}
	env = Normalize(env)
	return env.Flashcards, nil
}

// ListUntagged lists the deck's flashcards that have no tag assigned.
// The upstream has no dedicated filter, so detection is client-side
// over the full listing.
func (s *FlashcardService) ListUntagged(ctx context.Context, deckID int64) ([]Flashcard, error) {
	cards, err := s.ListByDeck(ctx, deckID, ListOptions{All: true})
	if err != nil {
		return nil, err
	}
	untagged := make([]Flashcard, 0, len(cards))
	for _, card := range cards {
		if !card.Tagged() {
			untagged = append(untagged, card)
		}
	}
	return untagged, nil
}

// Search queries flashcards by content upstream. The endpoint's
// matching semantics are an external contract; results are passed
// through after normalization.
func (s *FlashcardService) Search(ctx context.Context, query, deckName string) ([]Flashcard, error) {
	params := url.Values{}
	params.Set("q", query)
	if deckName != "" {
		params.Set("deck_name", deckName)
	}
	env, err := s.client.get(ctx, pathFlashcardsSearch, params)
	if err != nil {
		return nil, err
	}
	env = Normalize(env)
	return env.Flashcards, nil
}

// BulkCreate creates multiple flashcards in one upstream call. The
// clamp applies to the outgoing payload only; the caller's slice is
// left untouched.
func (s *FlashcardService) BulkCreate(ctx context.Context, cards []FlashcardCreate) (*Envelope, error) {
	payload := make([]FlashcardCreate, len(cards))
	copy(payload, cards)
	for i := range payload {
		payload[i].Difficulty = clampDifficulty(payload[i].Difficulty)
	}
	body := map[string]any{"flashcards": payload}
	return s.client.post(ctx, pathFlashcardsBulk, body)
}

func decodeFlashcard(env *Envelope) (*Flashcard, error) {
	if env.Flashcard != nil {
		return env.Flashcard, nil
	}
	var f Flashcard
	if err := env.Decode(&f); err != nil || f.ID == 0 {
		return nil, &APIError{Kind: KindUpstream, Message: "unexpected flashcard payload"}
	}
	return &f, nil
}
