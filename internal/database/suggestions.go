package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"closetry/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateSuggestion appends a suggestion to the user's log. CreatedAt is
// assigned here unless the caller already set it.
func CreateSuggestion(db *sqlx.DB, s models.OutfitSuggestion) (*models.OutfitSuggestion, error) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO outfit_suggestions (user_id, season_id, style_id, top_item_id, bottom_item_id, shoes_item_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.Exec(query, s.UserID, s.SeasonID, s.StyleID, s.TopItemID, s.BottomItemID, s.ShoesItemID, s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create suggestion: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestion ID: %w", err)
	}

	s.ID = int(id)
	return &s, nil
}

// GetLatestSuggestion returns the user's most recent suggestion, or nil when
// there is none. Equal timestamps are ordered by id.
func GetLatestSuggestion(db *sqlx.DB, userID int) (*models.OutfitSuggestion, error) {
	query := `
		SELECT id, user_id, season_id, style_id, top_item_id, bottom_item_id, shoes_item_id, created_at
		FROM outfit_suggestions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	s := &models.OutfitSuggestion{}
	if err := db.Get(s, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest suggestion: %w", err)
	}

	return s, nil
}

func CountSuggestions(db *sqlx.DB, userID int) (int, error) {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM outfit_suggestions WHERE user_id = ?`, userID); err != nil {
		return 0, fmt.Errorf("failed to count suggestions: %w", err)
	}
	return n, nil
}

// ResolveSuggestion looks up the suggestion's items in the current wardrobe.
// Items deleted since the suggestion was made resolve to nil.
func ResolveSuggestion(db *sqlx.DB, s *models.OutfitSuggestion) (*models.ResolvedSuggestion, error) {
	if s == nil {
		return nil, nil
	}

	var ids []int
	for _, id := range []*int{s.TopItemID, s.BottomItemID, s.ShoesItemID} {
		if id != nil {
			ids = append(ids, *id)
		}
	}

	items, err := GetItemsByIDs(db, s.UserID, ids)
	if err != nil {
		return nil, err
	}

	lookup := func(id *int) *models.WardrobeItem {
		if id == nil {
			return nil
		}
		item, ok := items[*id]
		if !ok {
			return nil
		}
		return &item
	}

	return &models.ResolvedSuggestion{
		Suggestion: *s,
		Top:        lookup(s.TopItemID),
		Bottom:     lookup(s.BottomItemID),
		Shoes:      lookup(s.ShoesItemID),
	}, nil
}
