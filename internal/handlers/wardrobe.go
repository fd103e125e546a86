package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"closetry/internal/database"
	"closetry/internal/logger"
	"closetry/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// tagOptions loads the season and style choices shown by filter and item forms.
func tagOptions(db *sqlx.DB) ([]models.Season, []models.Style, error) {
	seasons, err := database.GetSeasons(db)
	if err != nil {
		return nil, nil, err
	}
	styles, err := database.GetStyles(db)
	if err != nil {
		return nil, nil, err
	}
	return seasons, styles, nil
}

// parseFilter reads season_id and style_id. Empty values leave the filter open.
func parseFilter(seasonValue, styleValue string) (models.ItemFilter, error) {
	seasonID, err := parseOptionalID(seasonValue)
	if err != nil {
		return models.ItemFilter{}, errors.New("invalid season id")
	}
	styleID, err := parseOptionalID(styleValue)
	if err != nil {
		return models.ItemFilter{}, errors.New("invalid style id")
	}
	return models.ItemFilter{SeasonID: seasonID, StyleID: styleID}, nil
}

func handleWardrobe(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sqlx.DB)
	user := c.MustGet("user")

	filter, err := parseFilter(c.Query("season_id"), c.Query("style_id"))
	if err != nil {
		c.Redirect(http.StatusFound, "/wardrobe")
		return
	}

	items, err := database.GetAvailableItems(db, userID, filter)
	if err != nil {
		renderError(c, err, "Failed to load wardrobe")
		return
	}

	seasons, styles, err := tagOptions(db)
	if err != nil {
		renderError(c, err, "Failed to load wardrobe")
		return
	}

	c.HTML(http.StatusOK, "wardrobe.html", gin.H{
		"Title":      "My Wardrobe - Closetry",
		"User":       user,
		"CSRFToken":  newCSRFToken(c),
		"Items":      items,
		"Seasons":    seasons,
		"Styles":     styles,
		"Filter":     filter,
		"Categories": models.Categories,
	})
}

func handleNewItemPage(c *gin.Context) {
	db := c.MustGet("db").(*sqlx.DB)
	user := c.MustGet("user")

	seasons, styles, err := tagOptions(db)
	if err != nil {
		renderError(c, err, "Failed to load item form")
		return
	}

	c.HTML(http.StatusOK, "add_item.html", gin.H{
		"Title":      "Add Item - Closetry",
		"User":       user,
		"CSRFToken":  newCSRFToken(c),
		"Seasons":    seasons,
		"Styles":     styles,
		"Categories": models.Categories,
	})
}

func handleCreateItem(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sqlx.DB)
	user := c.MustGet("user")

	name := c.PostForm("item_name")
	category := models.Category(c.PostForm("category"))
	imageURL := c.PostForm("image_url")

	formErrors := make(map[string]string)

	if name == "" || len(name) > 100 {
		formErrors["item_name"] = "Name must be between 1 and 100 characters"
	}

	if !category.Valid() {
		formErrors["category"] = "Please choose top, bottom or shoes"
	}

	if u, err := url.Parse(imageURL); imageURL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		formErrors["image_url"] = "Please enter an http or https image URL"
	}

	filter, err := parseFilter(c.PostForm("season_id"), c.PostForm("style_id"))
	if err != nil {
		formErrors["tags"] = "Please choose a valid season and style"
	} else if err := database.ValidateTags(db, filter.SeasonID, filter.StyleID); err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			renderError(c, err, "Failed to check season and style")
			return
		}
		formErrors["tags"] = "Unknown season or style"
	}

	if len(formErrors) > 0 {
		seasons, styles, err := tagOptions(db)
		if err != nil {
			renderError(c, err, "Failed to load item form")
			return
		}
		c.HTML(http.StatusBadRequest, "add_item.html", gin.H{
			"Title":      "Add Item - Closetry",
			"User":       user,
			"CSRFToken":  newCSRFToken(c),
			"Errors":     formErrors,
			"Seasons":    seasons,
			"Styles":     styles,
			"Categories": models.Categories,
			"Name":       name,
			"Category":   category,
			"ImageURL":   imageURL,
		})
		return
	}

	item, err := database.CreateItem(db, userID, models.WardrobeItem{
		Name:     name,
		Category: category,
		ImageURL: imageURL,
		SeasonID: filter.SeasonID,
		StyleID:  filter.StyleID,
	})
	if err != nil {
		renderError(c, err, "Failed to create item")
		return
	}

	logger.Debug("Item created", "user_id", userID, "item_id", item.ID, "category", item.Category)
	c.Redirect(http.StatusFound, "/wardrobe")
}

func handleDeleteItem(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sqlx.DB)

	itemID, ok := paramID(c)
	if !ok {
		renderError(c, database.ErrNotFound, "Invalid item ID")
		return
	}

	if err := database.DeleteItem(db, userID, itemID); err != nil {
		renderError(c, err, "Failed to delete item")
		return
	}

	c.Redirect(http.StatusFound, "/wardrobe")
}
