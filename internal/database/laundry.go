package database

import (
	"fmt"
	"time"

	"closetry/internal/models"

	"github.com/jmoiron/sqlx"
)

// MoveToLaundry marks an item as temporarily unavailable. Moving an item
// that is already in the laundry is a no-op, including when a concurrent
// request wins the insert: the UNIQUE(user_id, item_id) rejection is
// expected and swallowed.
func MoveToLaundry(db *sqlx.DB, userID, itemID int) error {
	if err := checkItemOwner(db, userID, itemID); err != nil {
		return err
	}

	query := `
		INSERT INTO laundry (user_id, item_id, added_at)
		VALUES (?, ?, ?)
	`

	if _, err := db.Exec(query, userID, itemID, time.Now().UTC()); err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("failed to move item to laundry: %w", err)
	}

	return nil
}

// RestoreFromLaundry makes an item available again. It reports whether an
// entry was removed; restoring an item that is not in the laundry is a no-op.
func RestoreFromLaundry(db *sqlx.DB, userID, itemID int) (bool, error) {
	result, err := db.Exec(`DELETE FROM laundry WHERE user_id = ? AND item_id = ?`, userID, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to restore item: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n > 0, nil
}

func IsInLaundry(db *sqlx.DB, userID, itemID int) (bool, error) {
	var exists bool
	err := db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM laundry WHERE user_id = ? AND item_id = ?)`, userID, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to query laundry: %w", err)
	}
	return exists, nil
}

type laundryRow struct {
	EntryID int       `db:"entry_id"`
	AddedAt time.Time `db:"added_at"`
	models.WardrobeItem
}

// GetLaundryItems lists the user's laundry entries with their items, oldest first.
func GetLaundryItems(db *sqlx.DB, userID int) ([]models.LaundryEntry, error) {
	query := `
		SELECT l.id AS entry_id, l.added_at, ` + itemColumns + `
		FROM laundry l
		INNER JOIN wardrobe_items i ON l.item_id = i.id
		LEFT JOIN seasons se ON i.season_id = se.id
		LEFT JOIN styles st ON i.style_id = st.id
		WHERE l.user_id = ?
		ORDER BY l.added_at, l.id
	`

	var rows []laundryRow
	if err := db.Select(&rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to query laundry: %w", err)
	}

	entries := make([]models.LaundryEntry, 0, len(rows))
	for _, row := range rows {
		item := row.WardrobeItem
		entries = append(entries, models.LaundryEntry{
			ID:      row.EntryID,
			UserID:  userID,
			ItemID:  item.ID,
			AddedAt: row.AddedAt,
			Item:    &item,
		})
	}

	return entries, nil
}
