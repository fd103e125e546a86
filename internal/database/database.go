package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// BaseSeasons and BaseStyles are the tag rows every installation starts with.
var (
	BaseSeasons = []string{"summer", "winter", "monsoon", "all-season"}
	BaseStyles  = []string{"casual", "formal", "party", "ethnic"}
)

func Initialize(dbPath string) (*sqlx.DB, error) {
	dsn := dbPath + "?_foreign_keys=on&_busy_timeout=5000"
	if strings.Contains(dbPath, "?") {
		dsn = dbPath + "&_foreign_keys=on&_busy_timeout=5000"
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: is its own database.
	if strings.HasPrefix(dbPath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func Migrate(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS seasons (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS styles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS wardrobe_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			category TEXT NOT NULL CHECK (category IN ('top', 'bottom', 'shoes')),
			image_url TEXT NOT NULL,
			season_id INTEGER,
			style_id INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (season_id) REFERENCES seasons(id) ON DELETE SET NULL,
			FOREIGN KEY (style_id) REFERENCES styles(id) ON DELETE SET NULL
		)`,
		`CREATE TABLE IF NOT EXISTS laundry (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			item_id INTEGER NOT NULL,
			added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (item_id) REFERENCES wardrobe_items(id) ON DELETE CASCADE,
			UNIQUE(user_id, item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS outfits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			is_favorite BOOLEAN DEFAULT FALSE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS outfit_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			outfit_id INTEGER NOT NULL,
			item_id INTEGER NOT NULL,
			FOREIGN KEY (outfit_id) REFERENCES outfits(id) ON DELETE CASCADE,
			FOREIGN KEY (item_id) REFERENCES wardrobe_items(id) ON DELETE CASCADE,
			UNIQUE(outfit_id, item_id)
		)`,
		// Filter and item ids are deliberately not foreign keys: a suggestion
		// outlives the items it names.
		`CREATE TABLE IF NOT EXISTS outfit_suggestions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			season_id INTEGER,
			style_id INTEGER,
			top_item_id INTEGER,
			bottom_item_id INTEGER,
			shoes_item_id INTEGER,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			expires_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS csrf_tokens (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			expires_at DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_csrf_tokens_user_id ON csrf_tokens(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_csrf_tokens_expires_at ON csrf_tokens(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_wardrobe_items_user_id ON wardrobe_items(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_laundry_item_id ON laundry(item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_outfits_user_id ON outfits(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_outfit_items_outfit_id ON outfit_items(outfit_id)`,
		`CREATE INDEX IF NOT EXISTS idx_outfit_items_item_id ON outfit_items(item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_outfit_suggestions_user_id ON outfit_suggestions(user_id, created_at)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// Seed inserts the base seasons and styles that are not present yet.
// Running it any number of times leaves exactly one row per name.
func Seed(db *sqlx.DB) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := seedNames(tx, "seasons", BaseSeasons); err != nil {
		return fmt.Errorf("failed to seed seasons: %w", err)
	}
	if err := seedNames(tx, "styles", BaseStyles); err != nil {
		return fmt.Errorf("failed to seed styles: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	return nil
}

func seedNames(tx *sqlx.Tx, table string, names []string) error {
	for _, name := range names {
		var exists bool
		err := tx.Get(&exists, "SELECT EXISTS(SELECT 1 FROM "+table+" WHERE name = ?)", name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := tx.Exec("INSERT INTO "+table+" (name) VALUES (?)", name); err != nil {
			return err
		}
	}
	return nil
}
