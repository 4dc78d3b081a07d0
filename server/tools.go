package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/EloSanz/iCardsMCP/filter"
	"github.com/EloSanz/iCardsMCP/icards"
	"github.com/EloSanz/iCardsMCP/stats"
	"github.com/EloSanz/iCardsMCP/tagging"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_decks",
		Description: "List all flashcard decks with their card counts.",
	}, s.handleListDecks)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_deck_info",
		Description: "Get detailed information about one deck: description, counts and tags. REQUIRED: deck_name.",
	}, s.handleGetDeckInfo)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_deck_stats",
		Description: "Get organization statistics for a deck: tagged/untagged counts, per-tag breakdown, average difficulty and readable insights. REQUIRED: deck_name.",
	}, s.handleGetDeckStats)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "create_deck",
		Description: "Create a new flashcard deck. REQUIRED: name. Optional: description, generate_cover.",
	}, s.handleCreateDeck)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "update_deck",
		Description: "Rename a deck or change its description. REQUIRED: deck_name. Optional: new_name, description.",
	}, s.handleUpdateDeck)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_deck",
		Description: "Delete a deck and all of its flashcards. REQUIRED: deck_name.",
	}, s.handleDeleteDeck)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "add_flashcard",
		Description: "Add one flashcard to a deck. REQUIRED: deck_name, front, back. Optional: difficulty (1-5), tag_name.",
	}, s.handleAddFlashcard)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "bulk_create_flashcards",
		Description: "Add many flashcards to a deck in one call. REQUIRED: deck_name, flashcards (array of {front, back, difficulty?}).",
	}, s.handleBulkCreateFlashcards)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_flashcards",
		Description: "List flashcards in a deck. REQUIRED: deck_name. Optional: untagged_only, limit, offset.",
	}, s.handleListFlashcards)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_flashcards",
		Description: "Search flashcards by content across all decks or within one deck. REQUIRED: query. Optional: deck_name, where (local filter expression, e.g. 'difficulty >= 2 and not tagged').",
	}, s.handleSearchFlashcards)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_flashcard",
		Description: "Delete one flashcard by ID. REQUIRED: flashcard_id.",
	}, s.handleDeleteFlashcard)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "create_tag",
		Description: "Create a tag within a deck. Tag names are unique per deck, case-insensitively. REQUIRED: deck_name, name. Optional: color, description.",
	}, s.handleCreateTag)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_tags",
		Description: "List tags, either for one deck or across all decks. Optional: deck_name.",
	}, s.handleListTags)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "update_tag",
		Description: "Update a tag's name, color or description. REQUIRED: tag_id. Optional: name, color, description.",
	}, s.handleUpdateTag)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_tag",
		Description: "Delete a tag by ID. Flashcards keep their content but lose the tag. REQUIRED: tag_id.",
	}, s.handleDeleteTag)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "assign_tags_to_flashcards",
		Description: "Bulk-assign one tag to flashcards in a deck. The tag is created if it does not exist. Select cards with criteria 'untagged' or 'all', or pass explicit flashcard_ids (max 100). Optional where expression narrows criteria selections. Already-tagged cards are skipped, so re-running is safe. REQUIRED: deck_name, tag_name.",
	}, s.handleAssignTags)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "count_flashcards",
		Description: "Count the flashcards in a deck. REQUIRED: deck_name.",
	}, s.handleCountFlashcards)
}

type deckNameInput struct {
	DeckName string `json:"deck_name" jsonschema:"Name of the deck, case-insensitive"`
}

func (s *Server) handleListDecks(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	decks, err := s.decks.List(ctx)
	if err != nil {
		return failure(err)
	}
	return jsonResult(map[string]any{
		"count": len(decks),
		"decks": decks,
	})
}

func (s *Server) handleGetDeckInfo(ctx context.Context, req *mcp.CallToolRequest, input deckNameInput) (*mcp.CallToolResult, any, error) {
	if err := validateDeckName(input.DeckName); err != nil {
		return invalid(err)
	}
	deck, err := s.decks.FindByName(ctx, input.DeckName)
	if err != nil {
		return failure(err)
	}
	if detail, err := s.decks.Get(ctx, deck.ID); err == nil {
		deck = detail
	}
	tags, err := s.tags.ListByDeck(ctx, deck.ID)
	if err != nil {
		s.logger.Debug().Err(err).Int64("deck_id", deck.ID).Msg("Tag listing failed for deck info")
	}
	return jsonResult(map[string]any{
		"deck":           deck,
		"flashcardCount": deck.FlashcardTotal(),
		"tags":           tags,
	})
}

func (s *Server) handleGetDeckStats(ctx context.Context, req *mcp.CallToolRequest, input deckNameInput) (*mcp.CallToolResult, any, error) {
	if err := validateDeckName(input.DeckName); err != nil {
		return invalid(err)
	}
	snap, err := s.estimator.DeckStats(ctx, input.DeckName)
	if err != nil {
		return failure(err)
	}
	return jsonResult(map[string]any{
		"stats":    snap,
		"insights": stats.Insights(snap),
	})
}

type createDeckInput struct {
	Name          string `json:"name" jsonschema:"Deck name, 1-100 characters"`
	Description   string `json:"description,omitempty" jsonschema:"Optional deck description"`
	GenerateCover bool   `json:"generate_cover,omitempty" jsonschema:"Ask the backend to generate a cover image"`
}

func (s *Server) handleCreateDeck(ctx context.Context, req *mcp.CallToolRequest, input createDeckInput) (*mcp.CallToolResult, any, error) {
	if err := validateDeckName(input.Name); err != nil {
		return invalid(err)
	}
	deck, err := s.decks.Create(ctx, icards.DeckCreate{
		Name:          input.Name,
		Description:   input.Description,
		GenerateCover: input.GenerateCover,
	})
	if err != nil {
		return failure(err)
	}
	return jsonResult(map[string]any{
		"message": "deck created",
		"deck":    deck,
	})
}

type updateDeckInput struct {
	DeckName    string  `json:"deck_name" jsonschema:"Current name of the deck"`
	NewName     *string `json:"new_name,omitempty" jsonschema:"New deck name"`
	Description *string `json:"description,omitempty" jsonschema:"New deck description"`
}

func (s *Server) handleUpdateDeck(ctx context.Context, req *mcp.CallToolRequest, input updateDeckInput) (*mcp.CallToolResult, any, error) {
	if err := validateDeckName(input.DeckName); err != nil {
		return invalid(err)
	}
	if input.NewName == nil && input.Description == nil {
		return invalid(errNothingToUpdate)
	}
	if input.NewName != nil {
		if err := validateDeckName(*input.NewName); err != nil {
			return invalid(err)
		}
	}
	deck, err := s.decks.FindByName(ctx, input.DeckName)
	if err != nil {
		return failure(err)
	}
	updated, err := s.decks.Update(ctx, deck.ID, icards.DeckUpdate{
		Name:        input.NewName,
		Description: input.Description,
	})
	if err != nil {
		return failure(err)
	}
	return jsonResult(map[string]any{
		"message": "deck updated",
		"deck":    updated,
	})
}

func (s *Server) handleDeleteDeck(ctx context.Context, req *mcp.CallToolRequest, input deckNameInput) (*mcp.CallToolResult, any, error) {
	if err := validateDeckName(input.DeckName); err != nil {
		return invalid(err)
	}
	deck, err := s.decks.FindByName(ctx, input.DeckName)
	if err != nil {
		return failure(err)
	}
	if err := s.decks.Delete(ctx, deck.ID); err != nil {
		return failure(err)
	}
	return jsonResult(map[string]any{
		"message":  "deck deleted",
		"deckName": deck.Name,
	})
}

type addFlashcardInput struct {
	DeckName   string `json:"deck_name" jsonschema:"Deck to add the card to"`
	Front      string `json:"front" jsonschema:"Front side text, max 1000 characters"`
	Back       string `json:"back" jsonschema:"Back side text, max 2000 characters"`
	Difficulty int    `json:"difficulty,omitempty" jsonschema:"Difficulty 1-5, defaults to 1"`
	TagName    string `json:"tag_name,omitempty" jsonschema:"Optional tag to assign, must exist in the deck"`
}

func (s *Server) handleAddFlashcard(ctx context.Context, req *mcp.CallToolRequest, input addFlashcardInput) (*mcp.CallToolResult, any, error) {
	if err := validateDeckName(input.DeckName); err != nil {
		return invalid(err)
	}
	if err := validateFlashcardContent(input.Front, input.Back); err != nil {
		return invalid(err)
	}
	if input.Difficulty == 0 {
		input.Difficulty = icards.DifficultyMin
	}
	if err := validateDifficulty(input.Difficulty); err != nil {
		return invalid(err)
	}

	deck, err := s.decks.FindByName(ctx, input.DeckName)
	if err != nil {
		return failure(err)
	}

	create := icards.FlashcardCreate{
		Front:      input.Front,
		Back:       input.Back,
		DeckID:     deck.ID,
		Difficulty: input.Difficulty,
	}
	if input.TagName != "" {
		tag, err := s.tags.FindByName(ctx, deck.ID, input.TagName)
		if err != nil {
			return failure(err)
		}
		create.TagID = &tag.ID
	}

	card, err := s.cards.Create(ctx, create)
	if err != nil {
		return failure(err)
	}
	return jsonResult(map[string]any{
		"message":   "flashcard created",
		"flashcard": card,
	})
}

type bulkCardInput struct {
	Front      string `json:"front" jsonschema:"Front side text"`
	Back       string `json:"back" jsonschema:"Back side text"`
	Difficulty int    `json:"difficulty,omitempty" jsonschema:"Difficulty 1-5, defaults to 1"`
}

type bulkCreateInput struct {
	DeckName   string          `json:"deck_name" jsonschema:"Deck to add the cards to"`
	Flashcards []bulkCardInput `json:"flashcards" jsonschema:"Cards to create"`
}

func (s *Server) handleBulkCreateFlashcards(ctx context.Context, req *mcp.CallToolRequest, input bulkCreateInput) (*mcp.CallToolResult, any, error) {
	if err := validateDeckName(input.DeckName); err != nil {
		return invalid(err)
	}
	if len(input.Flashcards) == 0 {
		return invalid(errNoFlashcards)
	}
	for i, card := range input.Flashcards {
		if err := validateFlashcardContent(card.Front, card.Back); err != nil {
			return errorResult("validation", err.Error(), map[string]any{"index": i})
		}
		if card.Difficulty != 0 {
			if err := validateDifficulty(card.Difficulty); err != nil {
				return errorResult("validation", err.Error(), map[string]any{"index": i})
			}
		}
	}

	deck, err := s.decks.FindByName(ctx, input.DeckName)
	if err != nil {
		return failure(err)
	}

	creates := make([]icards.FlashcardCreate, len(input.Flashcards))
	for i, card := range input.Flashcards {
		difficulty := card.Difficulty
		if difficulty == 0 {
			difficulty = icards.DifficultyMin
		}
		creates[i] = icards.FlashcardCreate{
			Front:      card.Front,
			Back:       card.Back,
			DeckID:     deck.ID,
			Difficulty: difficulty,
		}
	}

	env, err := s.cards.BulkCreate(ctx, creates)
	if err != nil {
		return failure(err)
	}
	out := map[string]any{
		"message":  "flashcards created",
		"deckName": deck.Name,
		"count":    len(creates),
	}
	if env.Message != "" {
		out["message"] = env.Message
	}
	return jsonResult(out)
}

type listFlashcardsInput struct {
	DeckName     string `json:"deck_name" jsonschema:"Deck to list"`
	UntaggedOnly bool   `json:"untagged_only,omitempty" jsonschema:"Only return flashcards with no tag"`
	Limit        int    `json:"limit,omitempty" jsonschema:"Page size, 0 returns all"`
	Offset       int    `json:"offset,omitempty" jsonschema:"Page offset"`
}

func (s *Server) handleListFlashcards(ctx context.Context, req *mcp.CallToolRequest, input listFlashcardsInput) (*mcp.CallToolResult, any, error) {
	if err := validateDeckName(input.DeckName); err != nil {
		return invalid(err)
	}
	deck, err := s.decks.FindByName(ctx, input.DeckName)
	if err != nil {
		return failure(err)
	}

	var cards []icards.Flashcard
	if input.UntaggedOnly {
		cards, err = s.cards.ListUntagged(ctx, deck.ID)
	} else {
		opts := icards.ListOptions{All: input.Limit == 0, PageSize: input.Limit, Offset: input.Offset}
		cards, err = s.cards.ListByDeck(ctx, deck.ID, opts)
	}
	if err != nil {
		return failure(err)
	}
	return jsonResult(map[string]any{
		"deckName":   deck.Name,
		"count":      len(cards),
		"flashcards": cards,
	})
}

type searchFlashcardsInput struct {
	Query    string `json:"query" jsonschema:"Text to search for in card content"`
	DeckName string `json:"deck_name,omitempty" jsonschema:"Restrict the search to one deck"`
	Where    string `json:"where,omitempty" jsonschema:"Local filter expression over front, back, difficulty, tagged and tag_id, e.g. 'difficulty >= 2 and not tagged'"`
}

func (s *Server) handleSearchFlashcards(ctx context.Context, req *mcp.CallToolRequest, input searchFlashcardsInput) (*mcp.CallToolResult, any, error) {
	if input.Query == "" {
		return invalid(errEmptyQuery)
	}
	cards, err := s.cards.Search(ctx, input.Query, input.DeckName)
	if err != nil {
		return failure(err)
	}
	if input.Where != "" {
		cards, err = filterCards(input.Where, cards)
		if err != nil {
			return invalid(err)
		}
	}
	return jsonResult(map[string]any{
		"query":      input.Query,
		"count":      len(cards),
		"flashcards": cards,
	})
}

type flashcardIDInput struct {
	FlashcardID int64 `json:"flashcard_id" jsonschema:"Flashcard ID"`
}

func (s *Server) handleDeleteFlashcard(ctx context.Context, req *mcp.CallToolRequest, input flashcardIDInput) (*mcp.CallToolResult, any, error) {
	if input.FlashcardID <= 0 {
		return invalid(errBadFlashcardID)
	}
	if err := s.cards.Delete(ctx, input.FlashcardID); err != nil {
		return failure(err)
	}
	return jsonResult(map[string]any{
		"message":     "flashcard deleted",
		"flashcardId": input.FlashcardID,
	})
}

type createTagInput struct {
	DeckName    string `json:"deck_name" jsonschema:"Deck the tag belongs to"`
	Name        string `json:"name" jsonschema:"Tag name, unique within the deck"`
	Color       string `json:"color,omitempty" jsonschema:"Optional display color"`
	Description string `json:"description,omitempty" jsonschema:"Optional tag description"`
}

func (s *Server) handleCreateTag(ctx context.Context, req *mcp.CallToolRequest, input createTagInput) (*mcp.CallToolResult, any, error) {
	if err := validateDeckName(input.DeckName); err != nil {
		return invalid(err)
	}
	if input.Name == "" {
		return invalid(errEmptyTagName)
	}
	deck, err := s.decks.FindByName(ctx, input.DeckName)
	if err != nil {
		return failure(err)
	}
	tag, err := s.tags.Create(ctx, icards.TagCreate{
		Name:        input.Name,
		DeckID:      deck.ID,
		Color:       input.Color,
		Description: input.Description,
	})
	if err != nil {
		return failure(err)
	}
	return jsonResult(map[string]any{
		"message": "tag created",
		"tag":     tag,
	})
}

type listTagsInput struct {
	DeckName string `json:"deck_name,omitempty" jsonschema:"Restrict the listing to one deck"`
}

func (s *Server) handleListTags(ctx context.Context, req *mcp.CallToolRequest, input listTagsInput) (*mcp.CallToolResult, any, error) {
	var tags []icards.Tag
	var err error
	if input.DeckName != "" {
		var deck *icards.Deck
		deck, err = s.decks.FindByName(ctx, input.DeckName)
		if err != nil {
			return failure(err)
		}
		tags, err = s.tags.ListByDeck(ctx, deck.ID)
	} else {
		tags, err = s.tags.List(ctx)
	}
	if err != nil {
		return failure(err)
	}
	return jsonResult(map[string]any{
		"count": len(tags),
		"tags":  tags,
	})
}

type updateTagInput struct {
	TagID       int64   `json:"tag_id" jsonschema:"Tag ID"`
	Name        *string `json:"name,omitempty" jsonschema:"New tag name"`
	Color       *string `json:"color,omitempty" jsonschema:"New display color"`
	Description *string `json:"description,omitempty" jsonschema:"New tag description"`
}

func (s *Server) handleUpdateTag(ctx context.Context, req *mcp.CallToolRequest, input updateTagInput) (*mcp.CallToolResult, any, error) {
	if input.TagID <= 0 {
		return invalid(errBadTagID)
	}
	if input.Name == nil && input.Color == nil && input.Description == nil {
		return invalid(errNothingToUpdate)
	}
	tag, err := s.tags.Update(ctx, input.TagID, icards.TagUpdate{
		Name:        input.Name,
		Color:       input.Color,
		Description: input.Description,
	})
	if err != nil {
		return failure(err)
	}
	return jsonResult(map[string]any{
		"message": "tag updated",
		"tag":     tag,
	})
}

type tagIDInput struct {
	TagID int64 `json:"tag_id" jsonschema:"Tag ID"`
}

func (s *Server) handleDeleteTag(ctx context.Context, req *mcp.CallToolRequest, input tagIDInput) (*mcp.CallToolResult, any, error) {
	if input.TagID <= 0 {
		return invalid(errBadTagID)
	}
	if err := s.tags.Delete(ctx, input.TagID); err != nil {
		return failure(err)
	}
	return jsonResult(map[string]any{
		"message": "tag deleted",
		"tagId":   input.TagID,
	})
}

type assignTagsInput struct {
	DeckName      string  `json:"deck_name" jsonschema:"Deck holding the flashcards"`
	TagName       string  `json:"tag_name" jsonschema:"Tag to assign, created if absent"`
	Criteria      string  `json:"criteria,omitempty" jsonschema:"Selection mode: 'untagged' or 'all'. Leave empty when passing flashcard_ids"`
	FlashcardIDs  []int64 `json:"flashcard_ids,omitempty" jsonschema:"Explicit flashcard IDs, max 100. Ignored when criteria is set"`
	MaxFlashcards int     `json:"max_flashcards,omitempty" jsonschema:"Cap on criteria-based selections"`
	Where         string  `json:"where,omitempty" jsonschema:"Local filter expression narrowing a criteria selection"`
}

func (s *Server) handleAssignTags(ctx context.Context, req *mcp.CallToolRequest, input assignTagsInput) (*mcp.CallToolResult, any, error) {
	if err := validateDeckName(input.DeckName); err != nil {
		return invalid(err)
	}
	maxCards := input.MaxFlashcards
	if maxCards == 0 {
		maxCards = s.defaultMaxFlashcards
	}
	result, err := s.engine.Assign(ctx, tagging.Request{
		DeckName:      input.DeckName,
		TagName:       input.TagName,
		Criteria:      tagging.Criteria(input.Criteria),
		FlashcardIDs:  input.FlashcardIDs,
		MaxFlashcards: maxCards,
		Where:         input.Where,
	})
	if err != nil {
		return failure(err)
	}
	return jsonResult(result)
}

func (s *Server) handleCountFlashcards(ctx context.Context, req *mcp.CallToolRequest, input deckNameInput) (*mcp.CallToolResult, any, error) {
	if err := validateDeckName(input.DeckName); err != nil {
		return invalid(err)
	}
	deck, err := s.decks.FindByName(ctx, input.DeckName)
	if err != nil {
		return failure(err)
	}
	if detail, err := s.decks.Get(ctx, deck.ID); err == nil {
		deck = detail
	}
	return jsonResult(map[string]any{
		"deckName":       deck.Name,
		"flashcardCount": deck.FlashcardTotal(),
	})
}

// filterCards applies a local filter expression to search results.
func filterCards(expression string, cards []icards.Flashcard) ([]icards.Flashcard, error) {
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
