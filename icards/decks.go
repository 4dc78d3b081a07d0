package icards

import (
	"context"
	"net/url"
	"strings"
)

// DeckService exposes deck operations as a typed facade over the
// request executor.
type DeckService struct {
	client *Client
}

// NewDeckService creates a deck service bound to client.
func NewDeckService(client *Client) *DeckService {
	return &DeckService{client: client}
}

// Create creates a new deck.
func (s *DeckService) Create(ctx context.Context, req DeckCreate) (*Deck, error) {
	env, err := s.client.post(ctx, pathDecks, req)
	if err != nil {
		return nil, err
	}
	return decodeDeck(env)
}

// Get retrieves a deck by id.
func (s *DeckService) Get(ctx context.Context, id int64) (*Deck, error) {
	env, err := s.client.get(ctx, deckPath(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeDeck(env)
}

// Update applies a partial update to a deck.
func (s *DeckService) Update(ctx context.Context, id int64, req DeckUpdate) (*Deck, error) {
	env, err := s.client.put(ctx, deckPath(id), req)
	if err != nil {
		return nil, err
	}
	return decodeDeck(env)
}

// Delete removes a deck. Pure pass-through; this subsystem owns no
// deletion semantics of its own.
func (s *DeckService) Delete(ctx context.Context, id int64) error {
	_, err := s.client.del(ctx, deckPath(id))
	return err
}

// Clone duplicates a deck upstream.
func (s *DeckService) Clone(ctx context.Context, id int64) (*Deck, error) {
	env, err := s.client.post(ctx, deckClonePath(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeDeck(env)
}

// List returns all decks via the lightweight listing endpoint, which
// omits heavy fields such as cover images.
func (s *DeckService) List(ctx context.Context) ([]Deck, error) {
	env, err := s.client.get(ctx, pathDecksLight, nil)
	if err != nil {
		return nil, err
	}
	env = Normalize(env)
	return env.Decks, nil
}

// Search queries decks upstream.
func (s *DeckService) Search(ctx context.Context, query string) ([]Deck, error) {
	params := url.Values{}
	params.Set("q", query)
	env, err := s.client.get(ctx, pathDecksSearch, params)
	if err != nil {
		return nil, err
	}
	env = Normalize(env)
	return env.Decks, nil
}

// FindByName resolves a deck by name with a case-insensitive scan over
// the full listing. O(n) per lookup, accepted for now: deck counts per
// account are small and the listing endpoint is the lightweight one.
// A miss returns a *NotFoundError carrying the available deck names.
func (s *DeckService) FindByName(ctx context.Context, name string) (*Deck, error) {
	decks, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	target := strings.ToLower(strings.TrimSpace(name))
	available := make([]string, 0, len(decks))
	for i := range decks {
		if strings.ToLower(decks[i].Name) == target {
			return &decks[i], nil
		}
		available = append(available, decks[i].Name)
	}

	return nil, &NotFoundError{Resource: "deck", Name: name, Available: available}
}

// Stats fetches the authoritative deck-statistics payload. The envelope
// is returned as-is; the estimator decides whether it is usable.
func (s *DeckService) Stats(ctx context.Context, id int64) (*Envelope, error) {
	return s.client.get(ctx, deckStatsPath(id), nil)
}

// Tags lists the tags of one deck.
func (s *DeckService) Tags(ctx context.Context, id int64) ([]Tag, error) {
	env, err := s.client.get(ctx, deckTagsPath(id), nil)
	if err != nil {
		return nil, err
	}
	tags, err := env.DataTags()
	if err != nil {
		return nil, &APIError{Kind: KindUpstream, Message: "unexpected deck tags payload"}
	}
	return tags, nil
}

// decodeDeck reads a deck from an envelope, accepting both the wrapped
// {"deck": {...}} and the bare-object response shapes.
func decodeDeck(env *Envelope) (*Deck, error) {
	if env.Deck != nil {
		return env.Deck, nil
	}
	var d Deck
	if err := env.Decode(&d); err != nil || d.ID == 0 {
		return nil, &APIError{Kind: KindUpstream, Message: "unexpected deck payload"}
	}
	return &d, nil
}
