package icards

import "fmt"

// Endpoint paths of the iCards REST API, relative to the base URL.
const (
	apiBase = "/api"

	pathDecks       = apiBase + "/decks"
	pathDecksLight  = pathDecks + "/mcp" // lightweight listing without cover images
	pathDecksSearch = pathDecks + "/search"

	pathFlashcards       = apiBase + "/flashcards"
	pathFlashcardsBulk   = pathFlashcards + "/bulk"
	pathFlashcardsSearch = pathFlashcards + "/search"

	pathTags       = apiBase + "/tags"
	pathTagsSearch = pathTags + "/search"

	pathHealth  = apiBase + "/health"
	pathVersion = apiBase + "/version"
)

func deckPath(id int64) string { return fmt.Sprintf("%s/%d", pathDecks, id) }

func deckClonePath(id int64) string { return fmt.Sprintf("%s/%d/clone", pathDecks, id) }

func deckTagsPath(id int64) string { return fmt.Sprintf("%s/%d/tags", pathDecks, id) }

func deckStatsPath(id int64) string { return fmt.Sprintf("%s/%d/stats", pathDecks, id) }

func flashcardPath(id int64) string { return fmt.Sprintf("%s/%d", pathFlashcards, id) }

func flashcardsByDeckPath(deckID int64) string {
	return fmt.Sprintf("%s/deck/%d", pathFlashcards, deckID)
}

func tagPath(id int64) string { return fmt.Sprintf("%s/%d", pathTags, id) }
