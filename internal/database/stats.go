package database

import (
	"fmt"

	"closetry/internal/models"

	"github.com/jmoiron/sqlx"
)

type UserStats struct {
	TotalItems      int                     `json:"total_items"`
	ItemsByCategory map[models.Category]int `json:"items_by_category"`
	InLaundry       int                     `json:"in_laundry"`
	Available       int                     `json:"available"`
	Suggestions     int                     `json:"suggestions"`
	Outfits         int                     `json:"outfits"`
	FavoriteOutfits int                     `json:"favorite_outfits"`
}

func GetUserStats(db *sqlx.DB, userID int) (*UserStats, error) {
	stats := &UserStats{ItemsByCategory: make(map[models.Category]int, len(models.Categories))}
	for _, c := range models.Categories {
		stats.ItemsByCategory[c] = 0
	}

	var perCategory []struct {
		Category models.Category `db:"category"`
		Count    int             `db:"count"`
	}
	err := db.Select(&perCategory, `
		SELECT category, COUNT(*) AS count
		FROM wardrobe_items
		WHERE user_id = ?
		GROUP BY category
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item counts: %w", err)
	}
	for _, row := range perCategory {
		stats.ItemsByCategory[row.Category] = row.Count
		stats.TotalItems += row.Count
	}

	if err := db.Get(&stats.InLaundry, "SELECT COUNT(*) FROM laundry WHERE user_id = ?", userID); err != nil {
		return nil, fmt.Errorf("failed to get laundry count: %w", err)
	}
	stats.Available = stats.TotalItems - stats.InLaundry

	if stats.Suggestions, err = CountSuggestions(db, userID); err != nil {
		return nil, err
	}

	if err := db.Get(&stats.Outfits, "SELECT COUNT(*) FROM outfits WHERE user_id = ?", userID); err != nil {
		return nil, fmt.Errorf("failed to get outfit count: %w", err)
	}

	if err := db.Get(&stats.FavoriteOutfits, "SELECT COUNT(*) FROM outfits WHERE user_id = ? AND is_favorite = TRUE", userID); err != nil {
		return nil, fmt.Errorf("failed to get favorite count: %w", err)
	}

	return stats, nil
}
