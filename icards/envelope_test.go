package icards

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		wantDecks      int
		wantFlashcards int
		wantDataKept   bool
	}{
		{
			name:           "data array of flashcards",
			body:           `{"data":[{"id":1,"front":"Q1","back":"A1","deckId":7},{"id":2,"front":"Q2","back":"A2","deckId":7}]}`,
			wantFlashcards: 2,
		},
		{
			name:      "data array of decks",
			body:      `{"data":[{"id":1,"name":"Spanish"},{"id":2,"name":"Biology"}]}`,
			wantDecks: 2,
		},
		{
			name:         "unrecognized items untouched",
			body:         `{"data":[{"id":1,"label":"something"}]}`,
			wantDataKept: true,
		},
		{
			name:         "empty data array untouched",
			body:         `{"data":[]}`,
			wantDataKept: true,
		},
		{
			name:         "non-array data untouched",
			body:         `{"data":{"id":1,"name":"Spanish"}}`,
			wantDataKept: true,
		},
		{
			name:      "already canonical decks",
			body:      `{"decks":[{"id":1,"name":"Spanish"}]}`,
			wantDecks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env Envelope
			require.NoError(t, json.Unmarshal([]byte(tt.body), &env))

			out := Normalize(&env)
			require.NotNil(t, out)

			assert.Len(t, out.Decks, tt.wantDecks)
			assert.Len(t, out.Flashcards, tt.wantFlashcards)
			if tt.wantDataKept {
				assert.NotEmpty(t, out.Data)
			} else if tt.wantDecks > 0 && env.Data != nil {
				assert.Empty(t, out.Data, "generic field must be dropped after reclassification")
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	var env Envelope
	body := `{"data":[{"id":1,"front":"Q","back":"A","deckId":3}]}`
	require.NoError(t, json.Unmarshal([]byte(body), &env))

	once := Normalize(&env)
	twice := Normalize(once)

	assert.Equal(t, once, twice)
	assert.Len(t, twice.Flashcards, 1)
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	var env Envelope
	body := `{"data":[{"id":1,"name":"Spanish"}]}`
	require.NoError(t, json.Unmarshal([]byte(body), &env))

	out := Normalize(&env)

	assert.NotEmpty(t, env.Data, "input envelope must stay untouched")
	assert.Nil(t, env.Decks)
	assert.Len(t, out.Decks, 1)
}

func TestNormalizeNil(t *testing.T) {
	assert.Nil(t, Normalize(nil))
}

func TestEnvelopeOK(t *testing.T) {
	yes, no := true, false

	assert.True(t, (&Envelope{}).OK(), "missing success flag defaults to true")
	assert.True(t, (&Envelope{Success: &yes}).OK())
	assert.False(t, (&Envelope{Success: &no}).OK())
}

func TestEnvelopeDecode(t *testing.T) {
	raw := []byte(`{"id":5,"name":"Spanish","card_count":12}`)
	env := &Envelope{raw: raw}

	var deck Deck
	require.NoError(t, env.Decode(&deck))
	assert.Equal(t, int64(5), deck.ID)
	assert.Equal(t, "Spanish", deck.Name)
	assert.Equal(t, 12, deck.CardCount)
}

func TestDataTags(t *testing.T) {
	t.Run("tag list under data", func(t *testing.T) {
		var env Envelope
		body := `{"data":[{"id":1,"name":"verbs"},{"id":2,"name":"nouns"}]}`
		require.NoError(t, json.Unmarshal([]byte(body), &env))

		tags, err := env.DataTags()
		require.NoError(t, err)
		require.Len(t, tags, 2)
		assert.Equal(t, "verbs", tags[0].Name)
	})

	t.Run("absent data", func(t *testing.T) {
		tags, err := (&Envelope{}).DataTags()
		require.NoError(t, err)
		assert.Nil(t, tags)
	})
}
