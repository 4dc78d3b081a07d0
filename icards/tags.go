package icards

import (
	"context"
	"net/url"
	"strings"
)

// TagService exposes tag operations as a typed facade over the request
// executor.
type TagService struct {
	client *Client
}

// NewTagService creates a tag service bound to client.
func NewTagService(client *Client) *TagService {
	return &TagService{client: client}
}

// Create creates a tag. The owning deck travels in the body; the
// nested deck-tags path is a different upstream operation (attaching
// existing tags to a deck).
func (s *TagService) Create(ctx context.Context, req TagCreate) (*Tag, error) {
	env, err := s.client.post(ctx, pathTags, req)
	if err != nil {
		return nil, err
	}
	return decodeTag(env)
}

// Get retrieves a tag by id.
func (s *TagService) Get(ctx context.Context, id int64) (*Tag, error) {
	env, err := s.client.get(ctx, tagPath(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeTag(env)
}

// Update applies a partial update to a tag.
func (s *TagService) Update(ctx context.Context, id int64, req TagUpdate) (*Tag, error) {
	env, err := s.client.put(ctx, tagPath(id), req)
	if err != nil {
		return nil, err
	}
	return decodeTag(env)
}

// Delete removes a tag.
func (s *TagService) Delete(ctx context.Context, id int64) error {
	_, err := s.client.del(ctx, tagPath(id))
	return err
}

// List returns all tags across decks.
func (s *TagService) List(ctx context.Context) ([]Tag, error) {
	env, err := s.client.get(ctx, pathTags, nil)
	if err != nil {
		return nil, err
	}
	tags, err := env.DataTags()
	if err != nil {
		return nil, &APIError{Kind: KindUpstream, Message: "unexpected tag list payload"}
	}
	return tags, nil
}

// ListByDeck returns the tags of one deck.
func (s *TagService) ListByDeck(ctx context.Context, deckID int64) ([]Tag, error) {
	env, err := s.client.get(ctx, deckTagsPath(deckID), nil)
	if err != nil {
		return nil, err
	}
	tags, err := env.DataTags()
	if err != nil {
		return nil, &APIError{Kind: KindUpstream, Message: "unexpected tag list payload"}
	}
	return tags, nil
}

// Search queries tags upstream by name or description.
func (s *TagService) Search(ctx context.Context, query string) ([]Tag, error) {
	params := url.Values{}
	params.Set("q", query)
	env, err := s.client.get(ctx, pathTagsSearch, params)
	if err != nil {
		return nil, err
	}
	tags, err := env.DataTags()
	if err != nil {
		return nil, &APIError{Kind: KindUpstream, Message: "unexpected tag search payload"}
	}
	return tags, nil
}

// FindByName resolves a tag within one deck by case-insensitive name
// match. A miss returns a *NotFoundError carrying the deck's existing
// tag names.
func (s *TagService) FindByName(ctx context.Context, deckID int64, name string) (*Tag, error) {
	tags, err := s.ListByDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}

	target := strings.ToLower(strings.TrimSpace(name))
	available := make([]string, 0, len(tags))
	for i := range tags {
		if strings.ToLower(tags[i].Name) == target {
			return &tags[i], nil
		}
		available = append(available, tags[i].Name)
	}

	return nil, &NotFoundError{Resource: "tag", Name: name, Available: available}
}

func decodeTag(env *Envelope) (*Tag, error) {
	if env.Tag != nil {
		return env.Tag, nil
	}
	var t Tag
	if err := env.Decode(&t); err != nil || t.ID == 0 {
		return nil, &APIError{Kind: KindUpstream, Message: "unexpected tag payload"}
	}
	return &t, nil
}
