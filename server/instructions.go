package server

// serverInstructions is sent to MCP clients at initialization and
// describes how the tools fit together.
const serverInstructions = `iCards flashcard tools.

Decks are addressed by name (case-insensitive). Tags are scoped to one
deck and each flashcard carries at most one tag.

Typical flows:
- Explore: list_decks, then get_deck_info or get_deck_stats for one deck.
- Author: create_deck, then add_flashcard or bulk_create_flashcards.
- Organize: create_tag, then assign_tags_to_flashcards with criteria
  "untagged" (recommended) or "all", or with explicit flashcard IDs.
  Re-running an assignment is safe: already-tagged cards are skipped.
- Review: search_flashcards for content lookups, count_flashcards and
  get_deck_stats for progress.

get_deck_stats reports its dataSource: "authoritative" figures come from
the backend, "estimated" figures are computed client-side and per-tag
counts may be approximate.

Tool failures are returned as JSON objects with "error" and "message"
fields. A not_found error lists the available names when it can.`
