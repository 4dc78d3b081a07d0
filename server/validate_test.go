package server

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDeckName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: "Spanish Verbs"},
		{name: "single character", input: "A"},
		{name: "exactly 100 characters", input: strings.Repeat("a", 100)},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 101), wantErr: true},
		{name: "angle bracket", input: "deck<1>", wantErr: true},
		{name: "colon", input: "deck:1", wantErr: true},
		{name: "quote", input: `my "deck"`, wantErr: true},
		{name: "pipe", input: "a|b", wantErr: true},
		{name: "question mark", input: "deck?", wantErr: true},
		{name: "asterisk", input: "deck*", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateDeckName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFlashcardContent(t *testing.T) {
	tests := []struct {
		name    string
		front   string
		back    string
		wantErr bool
	}{
		{name: "valid", front: "Q", back: "A"},
		{name: "front at limit", front: strings.Repeat("q", 1000), back: "A"},
		{name: "back at limit", front: "Q", back: strings.Repeat("a", 2000)},
		{name: "empty front", front: "", back: "A", wantErr: true},
		{name: "whitespace front", front: "  \n ", back: "A", wantErr: true},
		{name: "empty back", front: "Q", back: "", wantErr: true},
		{name: "front too long", front: strings.Repeat("q", 1001), back: "A", wantErr: true},
		{name: "back too long", front: "Q", back: strings.Repeat("a", 2001), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFlashcardContent(tt.front, tt.back)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDifficulty(t *testing.T) {
	for _, d := range []int{1, 2, 3, 4, 5} {
		assert.NoError(t, validateDifficulty(d), "difficulty %d", d)
	}
	for _, d := range []int{0, -1, 6, 100} {
		assert.Error(t, validateDifficulty(d), "difficulty %d", d)
	}
}
