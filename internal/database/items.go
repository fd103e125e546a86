package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"closetry/internal/models"

	"github.com/jmoiron/sqlx"
)

const itemColumns = `
	i.id, i.user_id, i.name, i.category, i.image_url, i.season_id, i.style_id,
	se.name AS season_name, st.name AS style_name, i.created_at
`

const itemJoins = `
	FROM wardrobe_items i
	LEFT JOIN seasons se ON i.season_id = se.id
	LEFT JOIN styles st ON i.style_id = st.id
`

func CreateItem(db *sqlx.DB, userID int, item models.WardrobeItem) (*models.WardrobeItem, error) {
	if !item.Category.Valid() {
		return nil, fmt.Errorf("invalid category %q", item.Category)
	}

	query := `
		INSERT INTO wardrobe_items (user_id, name, category, image_url, season_id, style_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	result, err := db.Exec(query, userID, item.Name, item.Category, item.ImageURL, item.SeasonID, item.StyleID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get item ID: %w", err)
	}

	item.ID = int(id)
	item.UserID = userID
	item.CreatedAt = now

	return &item, nil
}

// GetItems returns every item the user owns, laundry included.
func GetItems(db *sqlx.DB, userID int) ([]models.WardrobeItem, error) {
	query := `SELECT ` + itemColumns + itemJoins + `
		WHERE i.user_id = ?
		ORDER BY i.id
	`

	var items []models.WardrobeItem
	if err := db.Select(&items, query, userID); err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}

	return items, nil
}

// GetAvailableItems returns the user's items that are not in the laundry,
// narrowed to the season and style in filter when those are set. Items
// without a season never match a concrete season filter, likewise for style.
func GetAvailableItems(db *sqlx.DB, userID int, filter models.ItemFilter) ([]models.WardrobeItem, error) {
	var (
		conditions = []string{
			"i.user_id = ?",
			"i.id NOT IN (SELECT l.item_id FROM laundry l WHERE l.user_id = ?)",
		}
		args = []interface{}{userID, userID}
	)

	if filter.SeasonID != nil {
		conditions = append(conditions, "i.season_id = ?")
		args = append(args, *filter.SeasonID)
	}
	if filter.StyleID != nil {
		conditions = append(conditions, "i.style_id = ?")
		args = append(args, *filter.StyleID)
	}

	query := `SELECT ` + itemColumns + itemJoins + `
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY i.id
	`

	var items []models.WardrobeItem
	if err := db.Select(&items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query available items: %w", err)
	}

	return items, nil
}

func GetItem(db *sqlx.DB, userID, itemID int) (*models.WardrobeItem, error) {
	query := `SELECT ` + itemColumns + itemJoins + `
		WHERE i.id = ? AND i.user_id = ?
	`

	item := &models.WardrobeItem{}
	if err := db.Get(item, query, itemID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query item: %w", err)
	}

	return item, nil
}

// GetItemsByIDs looks up the given items for one user. Ids that no longer
// exist are absent from the returned map.
func GetItemsByIDs(db *sqlx.DB, userID int, itemIDs []int) (map[int]models.WardrobeItem, error) {
	found := make(map[int]models.WardrobeItem, len(itemIDs))
	if len(itemIDs) == 0 {
		return found, nil
	}

	query, args, err := sqlx.In(`SELECT `+itemColumns+itemJoins+`
		WHERE i.user_id = ? AND i.id IN (?)
	`, userID, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build item lookup: %w", err)
	}

	var items []models.WardrobeItem
	if err := db.Select(&items, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}

	for _, item := range items {
		found[item.ID] = item
	}
	return found, nil
}

// checkItemOwner returns ErrNotFound when the item does not exist and
// ErrForbidden when it belongs to someone else.
func checkItemOwner(q sqlx.Queryer, userID, itemID int) error {
	var ownerID int
	if err := sqlx.Get(q, &ownerID, `SELECT user_id FROM wardrobe_items WHERE id = ?`, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to query item owner: %w", err)
	}

	if ownerID != userID {
		return ErrForbidden
	}
	return nil
}

// DeleteItem removes an item together with its laundry entries and outfit
// links. Only the owner may delete it.
func DeleteItem(db *sqlx.DB, userID, itemID int) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkItemOwner(tx, userID, itemID); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM outfit_items WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("failed to remove item from outfits: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM laundry WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("failed to remove item from laundry: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM wardrobe_items WHERE id = ? AND user_id = ?`, itemID, userID); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit item deletion: %w", err)
	}

	return nil
}

func GetSeasons(db *sqlx.DB) ([]models.Season, error) {
	var seasons []models.Season
	if err := db.Select(&seasons, `SELECT id, name FROM seasons ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to query seasons: %w", err)
	}
	return seasons, nil
}

func GetStyles(db *sqlx.DB) ([]models.Style, error) {
	var styles []models.Style
	if err := db.Select(&styles, `SELECT id, name FROM styles ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to query styles: %w", err)
	}
	return styles, nil
}

func seasonExists(db *sqlx.DB, id int) (bool, error) {
	var exists bool
	err := db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM seasons WHERE id = ?)`, id)
	return exists, err
}

func styleExists(db *sqlx.DB, id int) (bool, error) {
	var exists bool
	err := db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM styles WHERE id = ?)`, id)
	return exists, err
}

// ValidateTags checks that the season and style ids, when set, refer to
// existing rows.
func ValidateTags(db *sqlx.DB, seasonID, styleID *int) error {
	if seasonID != nil {
		ok, err := seasonExists(db, *seasonID)
		if err != nil {
			return fmt.Errorf("failed to check season: %w", err)
		}
		if !ok {
			return fmt.Errorf("season %d: %w", *seasonID, ErrNotFound)
		}
	}
	if styleID != nil {
		ok, err := styleExists(db, *styleID)
		if err != nil {
			return fmt.Errorf("failed to check style: %w", err)
		}
		if !ok {
			return fmt.Errorf("style %d: %w", *styleID, ErrNotFound)
		}
	}
	return nil
}
