package icards

import "encoding/json"

// Envelope is the top-level structure of an iCards API response. The
// upstream is not contractually consistent about envelope shape: list
// responses arrive as {"decks": [...]}, {"flashcards": [...]} or a
// generic {"data": [...]}, and item responses as either a bare object
// or a wrapped {"deck": {...}} / {"flashcard": {...}}. Unrecognized
// fields stay reachable through Decode.
type Envelope struct {
	Success    *bool           `json:"success,omitempty"`
	Message    string          `json:"message,omitempty"`
	Count      int             `json:"count,omitempty"`
	Decks      []Deck          `json:"decks,omitempty"`
	Flashcards []Flashcard     `json:"flashcards,omitempty"`
	Deck       *Deck           `json:"deck,omitempty"`
	Flashcard  *Flashcard      `json:"flashcard,omitempty"`
	Tag        *Tag            `json:"tag,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`

	raw []byte
}

// OK reports the envelope's success flag, defaulting to true when the
// upstream omitted it.
func (e *Envelope) OK() bool { return e.Success == nil || *e.Success }

// Decode unmarshals the original response body into v. It lets services
// read typed payloads the envelope fields do not model, such as a bare
// resource object or a tag list under "data".
func (e *Envelope) Decode(v any) error {
	return json.Unmarshal(e.raw, v)
}

// DataTags decodes the generic data field as a tag list. Returns nil
// for an absent data field.
func (e *Envelope) DataTags() ([]Tag, error) {
	if len(e.Data) == 0 {
		return nil, nil
	}
	var tags []Tag
	if err := json.Unmarshal(e.Data, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// Normalize reshapes an envelope carrying a generic data array into the
// canonical resource-named shape. It is pure and idempotent: an
// envelope that already exposes decks or flashcards is returned
// unchanged, and normalize(normalize(e)) == normalize(e).
//
// Classification is heuristic by necessity: the first element decides.
// Items with both front and back fields are flashcards; items with a
// name field (and no front/back) are decks; anything else, including an
// empty or non-list data field, is left untouched.
func Normalize(env *Envelope) *Envelope {
	if env == nil {
		return nil
	}
	if env.Decks != nil || env.Flashcards != nil {
		return env
	}
	if len(env.Data) == 0 {
		return env
	}

	var items []json.RawMessage
	if err := json.Unmarshal(env.Data, &items); err != nil || len(items) == 0 {
		return env
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(items[0], &probe); err != nil {
		return env
	}
	_, hasFront := probe["front"]
	_, hasBack := probe["back"]
	_, hasName := probe["name"]

	out := *env
	switch {
	case hasFront && hasBack:
		var cards []Flashcard
		if err := json.Unmarshal(env.Data, &cards); err != nil {
			return env
		}
		out.Flashcards = cards
	case hasName:
		var decks []Deck
		if err := json.Unmarshal(env.Data, &decks); err != nil {
			return env
		}
		out.Decks = decks
	default:
		return env
	}

	// Drop the generic field once reclassified so the payload is not
	// represented twice.
	out.Data = nil
	return &out
}
