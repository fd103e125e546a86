// Package outfit draws random top/bottom/shoes combinations from the
// available part of a wardrobe and records each draw as a suggestion.
package outfit

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"closetry/internal/database"
	"closetry/internal/logger"
	"closetry/internal/models"

	"github.com/jmoiron/sqlx"
)

// ErrInsufficientItems means at least one category has no available item.
var ErrInsufficientItems = errors.New("not enough available items to build an outfit")

// Outfit is one item per slot.
type Outfit struct {
	Top    models.WardrobeItem `json:"top"`
	Bottom models.WardrobeItem `json:"bottom"`
	Shoes  models.WardrobeItem `json:"shoes"`
}

// Partition splits items by category. Items with an unknown category are dropped.
func Partition(items []models.WardrobeItem) map[models.Category][]models.WardrobeItem {
	groups := make(map[models.Category][]models.WardrobeItem, len(models.Categories))
	for _, item := range items {
		if !item.Category.Valid() {
			continue
		}
		groups[item.Category] = append(groups[item.Category], item)
	}
	return groups
}

// Choose picks one item per category, each uniformly from its group. intn
// must return a value in [0, n).
func Choose(items []models.WardrobeItem, intn func(n int) int) (*Outfit, error) {
	groups := Partition(items)
	for _, c := range models.Categories {
		if len(groups[c]) == 0 {
			return nil, fmt.Errorf("no %s available: %w", c, ErrInsufficientItems)
		}
	}

	pick := func(c models.Category) models.WardrobeItem {
		g := groups[c]
		return g[intn(len(g))]
	}

	return &Outfit{
		Top:    pick(models.CategoryTop),
		Bottom: pick(models.CategoryBottom),
		Shoes:  pick(models.CategoryShoes),
	}, nil
}

// Generator produces and records outfit suggestions.
type Generator struct {
	db   *sqlx.DB
	intn func(n int) int
}

// NewGenerator returns a Generator drawing from math/rand/v2's global source.
func NewGenerator(db *sqlx.DB) *Generator {
	return &Generator{db: db, intn: rand.IntN}
}

// WithIntN replaces the random source. Used by tests to make draws predictable.
func (g *Generator) WithIntN(intn func(n int) int) *Generator {
	g.intn = intn
	return g
}

// Generate draws an outfit from the user's available items matching filter
// and records it. When a category is empty it returns ErrInsufficientItems
// and records nothing. Every successful call records a new suggestion.
func (g *Generator) Generate(userID int, filter models.ItemFilter) (*Outfit, *models.OutfitSuggestion, error) {
	items, err := database.GetAvailableItems(g.db, userID, filter)
	if err != nil {
		return nil, nil, err
	}

	chosen, err := Choose(items, g.intn)
	if err != nil {
		logger.Debug("Outfit generation skipped",
			"user_id", userID,
			"available", len(items),
			"reason", err)
		return nil, nil, err
	}

	suggestion, err := database.CreateSuggestion(g.db, models.OutfitSuggestion{
		UserID:       userID,
		SeasonID:     filter.SeasonID,
		StyleID:      filter.StyleID,
		TopItemID:    intPtr(chosen.Top.ID),
		BottomItemID: intPtr(chosen.Bottom.ID),
		ShoesItemID:  intPtr(chosen.Shoes.ID),
	})
	if err != nil {
		return nil, nil, err
	}

	return chosen, suggestion, nil
}

func intPtr(v int) *int {
	return &v
}
