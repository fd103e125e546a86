package models

import (
	"time"
)

// Category is the outfit slot a wardrobe item fills.
type Category string

const (
	CategoryTop    Category = "top"
	CategoryBottom Category = "bottom"
	CategoryShoes  Category = "shoes"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryTop, CategoryBottom, CategoryShoes}

func (c Category) Valid() bool {
	switch c {
	case CategoryTop, CategoryBottom, CategoryShoes:
		return true
	}
	return false
}

type User struct {
	ID           int       `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type Season struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Style struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type WardrobeItem struct {
	ID         int       `json:"id" db:"id"`
	UserID     int       `json:"user_id" db:"user_id"`
	Name       string    `json:"name" db:"name"`
	Category   Category  `json:"category" db:"category"`
	ImageURL   string    `json:"image_url" db:"image_url"`
	SeasonID   *int      `json:"season_id,omitempty" db:"season_id"`
	StyleID    *int      `json:"style_id,omitempty" db:"style_id"`
	SeasonName *string   `json:"season_name,omitempty" db:"season_name"`
	StyleName  *string   `json:"style_name,omitempty" db:"style_name"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ItemFilter narrows availability queries. A nil field means "any".
type ItemFilter struct {
	SeasonID *int
	StyleID  *int
}

type LaundryEntry struct {
	ID      int           `json:"id" db:"id"`
	UserID  int           `json:"user_id" db:"user_id"`
	ItemID  int           `json:"item_id" db:"item_id"`
	AddedAt time.Time     `json:"added_at" db:"added_at"`
	Item    *WardrobeItem `json:"item,omitempty" db:"-"`
}

type Outfit struct {
	ID         int            `json:"id" db:"id"`
	UserID     int            `json:"user_id" db:"user_id"`
	Name       string         `json:"name" db:"name"`
	IsFavorite bool           `json:"is_favorite" db:"is_favorite"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	Items      []WardrobeItem `json:"items,omitempty" db:"-"`
}

type OutfitItem struct {
	ID       int `json:"id" db:"id"`
	OutfitID int `json:"outfit_id" db:"outfit_id"`
	ItemID   int `json:"item_id" db:"item_id"`
}

// OutfitSuggestion is the immutable record of one random outfit draw.
// Item and filter ids are kept as plain values: the rows they pointed to
// may have been deleted since.
type OutfitSuggestion struct {
	ID           int       `json:"id" db:"id"`
	UserID       int       `json:"user_id" db:"user_id"`
	SeasonID     *int      `json:"season_id,omitempty" db:"season_id"`
	StyleID      *int      `json:"style_id,omitempty" db:"style_id"`
	TopItemID    *int      `json:"top_item_id,omitempty" db:"top_item_id"`
	BottomItemID *int      `json:"bottom_item_id,omitempty" db:"bottom_item_id"`
	ShoesItemID  *int      `json:"shoes_item_id,omitempty" db:"shoes_item_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ResolvedSuggestion is a suggestion with its item ids looked up against the
// current wardrobe. Any slot may be nil when the item no longer exists.
type ResolvedSuggestion struct {
	Suggestion OutfitSuggestion `json:"suggestion"`
	Top        *WardrobeItem    `json:"top,omitempty"`
	Bottom     *WardrobeItem    `json:"bottom,omitempty"`
	Shoes      *WardrobeItem    `json:"shoes,omitempty"`
}

type Session struct {
	ID        string    `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CSRFToken struct {
	Token     string    `json:"token" db:"token"`
	UserID    int       `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
