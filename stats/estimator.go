// Package stats builds per-deck organization statistics, preferring the
// upstream stats endpoint and falling back to a client-side estimate
// when the endpoint is unavailable.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/EloSanz/iCardsMCP/icards"
)

// Source identifies how a snapshot was produced.
type Source string

const (
	// SourceAuthoritative marks snapshots decoded from the upstream
	// stats endpoint.
	SourceAuthoritative Source = "authoritative"
	// SourceEstimated marks snapshots computed client-side from deck
	// and tag listings.
	SourceEstimated Source = "estimated"
)

// Status classifies how organized a deck is.
type Status string

const (
	StatusEmpty             Status = "empty"
	StatusOrganized         Status = "organized"
	StatusNeedsOrganization Status = "needs_organization"
	StatusUnknown           Status = "unknown"
)

// TagCount is the per-tag slice of a snapshot.
type TagCount struct {
	TagID      int64   `json:"tagId"`
	TagName    string  `json:"tagName"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Snapshot is one deck's statistics at a point in time.
type Snapshot struct {
	DeckID                 int64      `json:"deckId"`
	DeckName               string     `json:"deckName"`
	TotalFlashcards        int        `json:"totalFlashcards"`
	TaggedFlashcards       int        `json:"taggedFlashcards"`
	UntaggedFlashcards     int        `json:"untaggedFlashcards"`
	OrganizationPercentage float64    `json:"organizationPercentage"`
	OrganizationStatus     Status     `json:"organizationStatus"`
	FlashcardsByTag        []TagCount `json:"flashcardsByTag"`
	AverageDifficulty      float64    `json:"averageDifficulty,omitempty"`
	DataSource             Source     `json:"dataSource"`
}

// Estimator produces deck statistics snapshots.
type Estimator struct {
	decks  *icards.DeckService
	tags   *icards.TagService
	logger zerolog.Logger
}

// NewEstimator creates a deck statistics estimator.
func NewEstimator(decks *icards.DeckService, tags *icards.TagService, logger zerolog.Logger) *Estimator {
	return &Estimator{decks: decks, tags: tags, logger: logger}
}

// DeckStats resolves the deck by name and returns its statistics.
// The upstream stats endpoint is tried first; when it fails or returns
// nothing usable, a snapshot is estimated from the deck's detail view
// and tag listing.
func (e *Estimator) DeckStats(ctx context.Context, deckName string) (*Snapshot, error) {
	deck, err := e.decks.FindByName(ctx, deckName)
	if err != nil {
		return nil, err
	}

	if snap := e.authoritative(ctx, deck); snap != nil {
		return snap, nil
	}
	return e.estimate(ctx, deck)
}

// authoritative tries the upstream stats endpoint. Any failure is
// logged and reported as nil so the caller falls back to estimation.
func (e *Estimator) authoritative(ctx context.Context, deck *icards.Deck) *Snapshot {
	env, err := e.decks.Stats(ctx, deck.ID)
	if err != nil {
		e.logger.Debug().Err(err).Int64("deck_id", deck.ID).Msg("Stats endpoint unavailable, estimating")
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}

	var snap Snapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		e.logger.Debug().Err(err).Int64("deck_id", deck.ID).Msg("Unparseable stats payload, estimating")
		return nil
	}

	// An empty object (or one carrying none of the stats fields)
	// decodes cleanly but says nothing about the deck. Treat it like
	// a missing payload and estimate instead.
	if snap.TotalFlashcards == 0 && snap.TaggedFlashcards == 0 &&
		len(snap.FlashcardsByTag) == 0 && snap.OrganizationStatus == "" {
		e.logger.Debug().Int64("deck_id", deck.ID).Msg("Empty stats payload, estimating")
		return nil
	}

	snap.DeckID = deck.ID
	if snap.DeckName == "" {
		snap.DeckName = deck.Name
	}
	if snap.OrganizationStatus == "" {
		snap.OrganizationStatus = StatusUnknown
	}
	snap.DataSource = SourceAuthoritative
	return &snap
}

// estimate builds a snapshot from the deck detail view and its tag
// listing, fetched concurrently. A failed detail fetch falls back to
// the lightweight deck info already resolved by name.
func (e *Estimator) estimate(ctx context.Context, deck *icards.Deck) (*Snapshot, error) {
	var detail *icards.Deck
	var tags []icards.Tag

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := e.decks.Get(gctx, deck.ID)
		if err != nil {
			e.logger.Debug().Err(err).Int64("deck_id", deck.ID).Msg("Deck detail fetch failed, using light info")
			return nil
		}
		detail = d
		return nil
	})
	g.Go(func() error {
		t, err := e.tags.ListByDeck(gctx, deck.ID)
		if err != nil {
			return fmt.Errorf("list tags for deck %d: %w", deck.ID, err)
		}
		tags = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if detail == nil {
		detail = deck
	}

	total := detail.FlashcardTotal()
	snap := &Snapshot{
		DeckID:          detail.ID,
		DeckName:        detail.Name,
		TotalFlashcards: total,
		DataSource:      SourceEstimated,
	}

	if hasExplicitCounts(tags) {
		e.fromExplicitCounts(snap, detail, tags)
	} else {
		e.fromEvenDistribution(snap, tags)
	}

	snap.UntaggedFlashcards = total - snap.TaggedFlashcards
	if snap.UntaggedFlashcards < 0 {
		snap.UntaggedFlashcards = 0
		snap.TaggedFlashcards = total
	}
	if total > 0 {
		snap.OrganizationPercentage = round1(float64(snap.TaggedFlashcards) / float64(total) * 100)
	}
	snap.OrganizationStatus = classify(total, snap.UntaggedFlashcards, len(tags))
	return snap, nil
}

// fromExplicitCounts uses the per-tag flashcard counters reported by
// the tag listing, plus the deck's difficulty distribution when present.
func (e *Estimator) fromExplicitCounts(snap *Snapshot, deck *icards.Deck, tags []icards.Tag) {
	tagged := 0
	for _, tag := range tags {
		tagged += tag.FlashcardCount
	}
	snap.TaggedFlashcards = min(tagged, snap.TotalFlashcards)

	snap.FlashcardsByTag = make([]TagCount, len(tags))
	for i, tag := range tags {
		tc := TagCount{TagID: tag.ID, TagName: tag.Name, Count: tag.FlashcardCount}
		if snap.TotalFlashcards > 0 {
			tc.Percentage = round1(float64(tag.FlashcardCount) / float64(snap.TotalFlashcards) * 100)
		}
		snap.FlashcardsByTag[i] = tc
	}

	snap.AverageDifficulty = weightedDifficulty(deck.DifficultyDistribution)
}

// fromEvenDistribution spreads the deck total evenly across its tags
// when no per-tag counters are available. The remainder goes to the
// first tags in listing order, one extra card each.
func (e *Estimator) fromEvenDistribution(snap *Snapshot, tags []icards.Tag) {
	if len(tags) == 0 {
		return
	}

	base := snap.TotalFlashcards / len(tags)
	remainder := snap.TotalFlashcards % len(tags)

	snap.FlashcardsByTag = make([]TagCount, len(tags))
	for i, tag := range tags {
		count := base
		if i < remainder {
			count++
		}
		tc := TagCount{TagID: tag.ID, TagName: tag.Name, Count: count}
		if snap.TotalFlashcards > 0 {
			tc.Percentage = round1(float64(count) / float64(snap.TotalFlashcards) * 100)
		}
		snap.FlashcardsByTag[i] = tc
		snap.TaggedFlashcards += count
	}
}

// Insights renders a snapshot into short human-readable observations.
func Insights(snap *Snapshot) []string {
	var out []string
	switch snap.OrganizationStatus {
	case StatusEmpty:
		out = append(out, "The deck has no flashcards yet.")
	case StatusOrganized:
		out = append(out, fmt.Sprintf("All %d flashcards are tagged.", snap.TotalFlashcards))
	case StatusNeedsOrganization:
		out = append(out, fmt.Sprintf("%d of %d flashcards are untagged (%.1f%% organized).",
			snap.UntaggedFlashcards, snap.TotalFlashcards, snap.OrganizationPercentage))
	}
	if len(snap.FlashcardsByTag) > 0 {
		largest := snap.FlashcardsByTag[0]
		for _, tc := range snap.FlashcardsByTag[1:] {
			if tc.Count > largest.Count {
				largest = tc
			}
		}
		if largest.Count > 0 {
			out = append(out, fmt.Sprintf("Largest tag is %q with %d flashcards.", largest.TagName, largest.Count))
		}
	}
	if snap.AverageDifficulty > 0 {
		out = append(out, fmt.Sprintf("Average difficulty is %.1f.", snap.AverageDifficulty))
	}
	if snap.DataSource == SourceEstimated {
		out = append(out, "Per-tag counts are estimated; the upstream stats endpoint was unavailable.")
	}
	return out
}

func classify(total, untagged, tagCount int) Status {
	switch {
	case total == 0:
		return StatusEmpty
	case untagged == 0 && tagCount > 0:
		return StatusOrganized
	default:
		return StatusNeedsOrganization
	}
}

// weightedDifficulty computes the count-weighted mean of a difficulty
// distribution keyed by difficulty level ("1".."5"). Returns 0 when the
// distribution is empty or malformed.
func weightedDifficulty(dist map[string]int) float64 {
	var sum, count int
	for level, n := range dist {
		if n <= 0 {
			continue
		}
		d, err := strconv.Atoi(level)
		if err != nil || d < icards.DifficultyMin || d > icards.DifficultyMax {
			continue
		}
		sum += d * n
		count += n
	}
	if count == 0 {
		return 0
	}
	return round1(float64(sum) / float64(count))
}

func hasExplicitCounts(tags []icards.Tag) bool {
	for _, tag := range tags {
		if tag.FlashcardCount > 0 {
			return true
		}
	}
	return false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
