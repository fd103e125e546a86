package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"closetry/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateOutfit saves a named set of the user's items. Every item must belong
// to the user; duplicate ids are stored once.
func CreateOutfit(db *sqlx.DB, userID int, name string, itemIDs []int) (*models.Outfit, error) {
	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	seen := make(map[int]bool, len(itemIDs))
	var unique []int
	for _, id := range itemIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if err := checkItemOwner(tx, userID, id); err != nil {
			return nil, err
		}
		unique = append(unique, id)
	}

	now := time.Now().UTC()
	result, err := tx.Exec(
		`INSERT INTO outfits (user_id, name, is_favorite, created_at) VALUES (?, ?, FALSE, ?)`,
		userID, name, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outfit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get outfit ID: %w", err)
	}

	for _, itemID := range unique {
		if _, err := tx.Exec(`INSERT INTO outfit_items (outfit_id, item_id) VALUES (?, ?)`, id, itemID); err != nil {
			return nil, fmt.Errorf("failed to add item to outfit: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit outfit: %w", err)
	}

	return &models.Outfit{
		ID:        int(id),
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
	}, nil
}

type outfitItemRow struct {
	OutfitID int `db:"outfit_id"`
	models.WardrobeItem
}

// GetOutfits lists the user's outfits, favorites first, each with its items.
func GetOutfits(db *sqlx.DB, userID int) ([]models.Outfit, error) {
	var outfits []models.Outfit
	err := db.Select(&outfits, `
		SELECT id, user_id, name, COALESCE(is_favorite, FALSE) AS is_favorite, created_at
		FROM outfits
		WHERE user_id = ?
		ORDER BY is_favorite DESC, created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outfits: %w", err)
	}

	var rows []outfitItemRow
	err = db.Select(&rows, `
		SELECT oi.outfit_id, `+itemColumns+`
		FROM outfit_items oi
		INNER JOIN outfits o ON oi.outfit_id = o.id
		INNER JOIN wardrobe_items i ON oi.item_id = i.id
		LEFT JOIN seasons se ON i.season_id = se.id
		LEFT JOIN styles st ON i.style_id = st.id
		WHERE o.user_id = ?
		ORDER BY oi.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outfit items: %w", err)
	}

	byOutfit := make(map[int][]models.WardrobeItem)
	for _, row := range rows {
		byOutfit[row.OutfitID] = append(byOutfit[row.OutfitID], row.WardrobeItem)
	}
	for i := range outfits {
		outfits[i].Items = byOutfit[outfits[i].ID]
	}

	return outfits, nil
}

func ToggleOutfitFavorite(db *sqlx.DB, userID, outfitID int) (bool, error) {
	result, err := db.Exec(`
		UPDATE outfits SET is_favorite = NOT COALESCE(is_favorite, FALSE)
		WHERE id = ? AND user_id = ?
	`, outfitID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return false, ErrNotFound
	}

	var favorite bool
	if err := db.Get(&favorite, `SELECT is_favorite FROM outfits WHERE id = ?`, outfitID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to read favorite: %w", err)
	}
	return favorite, nil
}

func DeleteOutfit(db *sqlx.DB, userID, outfitID int) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var ownerID int
	if err := tx.Get(&ownerID, `SELECT user_id FROM outfits WHERE id = ?`, outfitID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to query outfit: %w", err)
	}
	if ownerID != userID {
		return ErrForbidden
	}

	if _, err := tx.Exec(`DELETE FROM outfit_items WHERE outfit_id = ?`, outfitID); err != nil {
		return fmt.Errorf("failed to delete outfit items: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM outfits WHERE id = ?`, outfitID); err != nil {
		return fmt.Errorf("failed to delete outfit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit outfit deletion: %w", err)
	}
	return nil
}
